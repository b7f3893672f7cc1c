package sysfile

import (
	"context"
	"io"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/inode"
)

// Link creates newpath as a hard link to the inode named by oldpath.
// Every path op runs inside a log transaction, including on error paths.
//
// Lock order: bump old's nlink, unlock old, then lock the new parent
// directory — never hold two inode locks across the nameiparent lookup.
// If linking into the parent fails, or the devices differ, the bump is
// reverted by re-locking old.
func Link(ctx context.Context, fs *FS, oldpath, newpath string, cwd *inode.Ref) error {
	ctx = fs.Log.BeginOp(ctx)
	defer fs.Log.EndOp(ctx)

	ip := fs.Cache.Namei(ctx, cwd, oldpath)
	if ip == nil {
		return kernel.ENOENT
	}

	ip.Lock()
	if ip.Inode().Type == kernel.TypeDir {
		ip.UnlockRelease(ctx)
		return kernel.EINVAL
	}
	ip.Inode().Nlink++
	fs.Cache.IUpdate(ip)
	ip.Unlock()

	dp, name := fs.Cache.NameiParent(ctx, cwd, newpath)
	if dp == nil {
		return revertLink(ctx, fs, ip, kernel.ENOENT)
	}

	dp.Lock()
	if dp.Inode().Dev != ip.Inode().Dev {
		dp.UnlockRelease(ctx)
		return revertLink(ctx, fs, ip, kernel.EXDEV)
	}
	if err := fs.Cache.DirLink(dp, name, ip.Inode().Inum); err != nil {
		dp.UnlockRelease(ctx)
		return revertLink(ctx, fs, ip, kernel.EEXIST)
	}
	dp.UnlockRelease(ctx)
	ip.Release(ctx)

	return nil
}

// revertLink undoes Link's Nlink bump after a failure partway through and
// reports cause, the error describing what actually went wrong (cross-
// device link, name collision, or an unresolvable new parent), rather
// than a single generic error for every failure branch.
func revertLink(ctx context.Context, fs *FS, ip *inode.Ref, cause error) error {
	ip.Lock()
	ip.Inode().Nlink--
	fs.Cache.IUpdate(ip)
	ip.UnlockRelease(ctx)
	return cause
}

// isDirEmpty reports whether dp (locked by the caller) contains only "."
// and "..". A short read of an entry the directory's own Size claims to
// have is an on-disk-corruption assertion failure, not a syscall error,
// so it panics exactly as the source's isdirempty does.
func isDirEmpty(fs *FS, dp *inode.Ref) bool {
	sz := int64(inode.Size(fs.Limits.DIRSIZ))
	buf := make([]byte, sz)
	for off := 2 * sz; off < dp.Inode().Size(); off += sz {
		n, err := fs.Cache.ReadI(dp, buf, off)
		if n != int(sz) || (err != nil && err != io.EOF) {
			panic("sysfile: isDirEmpty: short readi")
		}
		if inode.Decode(buf, fs.Limits.DIRSIZ).Inum != 0 {
			return false
		}
	}
	return true
}

// Unlink removes path's directory entry. Refuses "." and "..", and
// refuses a non-empty directory. It does not defer reclamation for a
// still-open file: the source does not implement POSIX's
// unlink-of-open-file semantics, and this port inherits that.
func Unlink(ctx context.Context, fs *FS, path string, cwd *inode.Ref) error {
	ctx = fs.Log.BeginOp(ctx)
	defer fs.Log.EndOp(ctx)

	dp, name := fs.Cache.NameiParent(ctx, cwd, path)
	if dp == nil {
		return kernel.ENOENT
	}

	dp.Lock()

	if name == "." || name == ".." {
		dp.UnlockRelease(ctx)
		return kernel.EINVAL
	}

	ip, off, ok := fs.Cache.DirLookup(dp, name)
	if !ok {
		dp.UnlockRelease(ctx)
		return kernel.ENOENT
	}

	ip.Lock()
	if ip.Inode().Nlink < 1 {
		panic("sysfile: unlink: nlink < 1")
	}
	if ip.Inode().Type == kernel.TypeDir && !isDirEmpty(fs, ip) {
		ip.UnlockRelease(ctx)
		dp.UnlockRelease(ctx)
		return kernel.ENOTEMPTY
	}

	zero := make([]byte, inode.Size(fs.Limits.DIRSIZ))
	if n, _ := fs.Cache.WriteI(dp, zero, off); n != len(zero) {
		panic("sysfile: unlink: short writei")
	}
	if ip.Inode().Type == kernel.TypeDir {
		dp.Inode().Nlink--
		fs.Cache.IUpdate(dp)
	}
	dp.UnlockRelease(ctx)

	ip.Inode().Nlink--
	fs.Cache.IUpdate(ip)
	ip.UnlockRelease(ctx)

	return nil
}

// Create resolves path's parent and either returns the existing inode
// (when it's idempotent to do so) or allocates and links a fresh one of
// the requested type. On success the returned inode is locked, exactly
// as the source's static create() leaves it for sys_open/sys_mkdir/
// sys_mknod to finish with.
//
// Cyclic-reference avoidance: for T_DIR, "." does not bump the new
// directory's own Nlink (only the parent's, for ".."), or no directory
// could ever reach Nlink == 0.
func Create(ctx context.Context, fs *FS, path string, typ kernel.FileType, major, minor int16, cwd *inode.Ref) (*inode.Ref, error) {
	dp, name := fs.Cache.NameiParent(ctx, cwd, path)
	if dp == nil {
		return nil, kernel.ENOENT
	}

	dp.Lock()

	if existing, _, ok := fs.Cache.DirLookup(dp, name); ok {
		dp.UnlockRelease(ctx)
		existing.Lock()
		et := existing.Inode().Type
		if (typ == kernel.TypeFile && et == kernel.TypeFile) || et == kernel.TypeDev {
			return existing, nil
		}
		existing.UnlockRelease(ctx)
		return nil, kernel.EEXIST
	}

	ip, err := fs.Cache.IAlloc(ctx, dp.Inode().Dev, typ)
	if err != nil {
		dp.UnlockRelease(ctx)
		return nil, err
	}

	ip.Lock()
	ip.Inode().Major = major
	ip.Inode().Minor = minor
	ip.Inode().Nlink = 1
	fs.Cache.IUpdate(ip)

	if typ == kernel.TypeDir {
		dp.Inode().Nlink++ // for ".."
		fs.Cache.IUpdate(dp)

		if err := fs.Cache.DirLink(ip, ".", ip.Inode().Inum); err != nil {
			panic("sysfile: create: dirlink .")
		}
		if err := fs.Cache.DirLink(ip, "..", dp.Inode().Inum); err != nil {
			panic("sysfile: create: dirlink ..")
		}
	}

	if err := fs.Cache.DirLink(dp, name, ip.Inode().Inum); err != nil {
		panic("sysfile: create: dirlink")
	}

	dp.UnlockRelease(ctx)

	return ip, nil
}

// Chdir resolves path, requires a directory, and atomically replaces
// cwd, releasing the previous reference.
func Chdir(ctx context.Context, fs *FS, p *Process, path string) error {
	ctx = fs.Log.BeginOp(ctx)
	defer fs.Log.EndOp(ctx)

	ip := fs.Cache.Namei(ctx, p.cwd(), path)
	if ip == nil {
		return kernel.ENOENT
	}

	ip.Lock()
	if ip.Inode().Type != kernel.TypeDir {
		ip.UnlockRelease(ctx)
		return kernel.ENOTDIR
	}
	ip.Unlock()

	old := p.cwd()
	p.setCwd(ip)
	old.Release(ctx)

	return nil
}
