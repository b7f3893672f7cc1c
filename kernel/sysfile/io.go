package sysfile

import (
	"context"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/file"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/inode"
)

// Open implements sys_open. With O_CREATE it delegates to Create(T_FILE);
// otherwise it resolves path directly and refuses any mode but O_RDONLY
// on a directory. The inode is unlocked before returning but the file
// object retains the cache reference.
func Open(ctx context.Context, fs *FS, p *Process, path string, omode kernel.OpenMode) (int, error) {
	ctx = fs.Log.BeginOp(ctx)
	defer fs.Log.EndOp(ctx)

	var ip *inode.Ref
	if omode&kernel.O_CREATE != 0 {
		var err error
		ip, err = Create(ctx, fs, path, kernel.TypeFile, 0, 0, p.cwd())
		if err != nil {
			return -1, err
		}
	} else {
		ip = fs.Cache.Namei(ctx, p.cwd(), path)
		if ip == nil {
			return -1, kernel.ENOENT
		}
		ip.Lock()
		if ip.Inode().Type == kernel.TypeDir && omode != kernel.O_RDONLY {
			ip.UnlockRelease(ctx)
			return -1, kernel.EISDIR
		}
	}

	readable := omode&kernel.O_WRONLY == 0
	writable := omode&kernel.O_WRONLY != 0 || omode&kernel.O_RDWR != 0
	f := file.NewInodeFile(fs.Cache, ip, readable, writable)

	fd, err := kernel.FdAlloc(p.Ofile, f)
	if err != nil {
		ip.UnlockRelease(ctx)
		return -1, err
	}

	ip.Unlock()
	return fd, nil
}

// Dup implements sys_dup: bump the file's reference count and install the
// same object into a new descriptor slot.
func Dup(p *Process, fd int) (int, error) {
	if fd < 0 || fd >= len(p.Ofile) || p.Ofile[fd] == nil {
		return -1, kernel.EBADF
	}
	f := p.Ofile[fd].IncRef()
	nfd, err := kernel.FdAlloc(p.Ofile, f)
	if err != nil {
		f.Close(context.Background())
		return -1, err
	}
	return nfd, nil
}

// Read implements sys_read: look up fd, delegate to the file layer, and
// return its result verbatim. buf is a kernel-side buffer; validating the
// user range it is copied to is the caller's job (the dispatch table does
// it with ArgPtr).
func Read(ctx context.Context, p *Process, fd int, buf []byte) (int, error) {
	if fd < 0 || fd >= len(p.Ofile) || p.Ofile[fd] == nil {
		return -1, kernel.EBADF
	}
	n, err := p.Ofile[fd].Read(ctx, buf)
	if err != nil {
		return -1, err
	}
	return n, nil
}

// Write implements sys_write.
func Write(ctx context.Context, p *Process, fd int, buf []byte) (int, error) {
	if fd < 0 || fd >= len(p.Ofile) || p.Ofile[fd] == nil {
		return -1, kernel.EBADF
	}
	n, err := p.Ofile[fd].Write(ctx, buf)
	if err != nil {
		return -1, err
	}
	return n, nil
}

// Fstat implements sys_fstat.
func Fstat(ctx context.Context, p *Process, fd int) (kernel.Stat, error) {
	if fd < 0 || fd >= len(p.Ofile) || p.Ofile[fd] == nil {
		return kernel.Stat{}, kernel.EBADF
	}
	return p.Ofile[fd].Stat(ctx)
}

// Close implements sys_close: clear the slot, then release the reference.
func Close(ctx context.Context, p *Process, fd int) error {
	f, err := kernel.CloseFd(p.Ofile, fd)
	if err != nil {
		return err
	}
	return f.Close(ctx)
}

// Pipe implements sys_pipe: allocate a pipe pair and two descriptors,
// undoing any partial assignment on failure.
func Pipe(p *Process) (fd0, fd1 int, err error) {
	rf, wf, err := file.PipeAlloc()
	if err != nil {
		return -1, -1, err
	}

	fd0, err = kernel.FdAlloc(p.Ofile, rf)
	if err != nil {
		rf.Close(context.Background())
		wf.Close(context.Background())
		return -1, -1, err
	}

	fd1, err = kernel.FdAlloc(p.Ofile, wf)
	if err != nil {
		p.Ofile[fd0] = nil
		rf.Close(context.Background())
		wf.Close(context.Background())
		return -1, -1, err
	}

	return fd0, fd1, nil
}

// Mkdir implements sys_mkdir.
func Mkdir(ctx context.Context, fs *FS, p *Process, path string) error {
	ctx = fs.Log.BeginOp(ctx)
	defer fs.Log.EndOp(ctx)

	ip, err := Create(ctx, fs, path, kernel.TypeDir, 0, 0, p.cwd())
	if err != nil {
		return err
	}
	ip.UnlockRelease(ctx)
	return nil
}

// Mknod implements sys_mknod.
func Mknod(ctx context.Context, fs *FS, p *Process, path string, major, minor int16) error {
	ctx = fs.Log.BeginOp(ctx)
	defer fs.Log.EndOp(ctx)

	ip, err := Create(ctx, fs, path, kernel.TypeDev, major, minor, p.cwd())
	if err != nil {
		return err
	}
	ip.UnlockRelease(ctx)
	return nil
}
