// Package file implements the file-object layer that binds an fd-table
// slot to either an inode or a pipe endpoint. It supplies
// kernel.FileObject so kernel/sysfile and the fd table (kernel/fd.go)
// never need to know which variant they're holding, mirroring how a
// pair of concrete handle types can sit behind one interface.
package file

import (
	"context"
	"sync"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/inode"
)

// InodeFile is the FD_INODE variant: a byte offset plus permission flags
// layered over an inode reference.
type InodeFile struct {
	mu sync.Mutex // GUARDED_BY: ref count and off

	cache    inode.Cache
	ref      *inode.Ref
	off      int64
	readable bool
	writable bool
	refcount int
}

// NewInodeFile wires a freshly-opened inode reference into a file object.
// It does not touch the inode lock: sysfile.Open calls it with the inode
// still locked and unlocks it afterwards. NewInodeFile takes ownership of
// ref.
func NewInodeFile(cache inode.Cache, ref *inode.Ref, readable, writable bool) *InodeFile {
	return &InodeFile{cache: cache, ref: ref, readable: readable, writable: writable, refcount: 1}
}

func (f *InodeFile) IncRef() kernel.FileObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refcount++
	return f
}

func (f *InodeFile) Close(ctx context.Context) error {
	f.mu.Lock()
	f.refcount--
	last := f.refcount == 0
	ref := f.ref
	f.mu.Unlock()

	if last {
		ref.Release(ctx)
	}
	return nil
}

func (f *InodeFile) Read(ctx context.Context, p []byte) (int, error) {
	if !f.readable {
		return 0, kernel.EBADF
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ref.Lock()
	n, err := f.cache.ReadI(f.ref, p, f.off)
	f.ref.Unlock()

	if err != nil && n == 0 {
		// EOF with zero bytes read is a normal, successful 0-byte read,
		// not a syscall error.
		return 0, nil
	}
	f.off += int64(n)
	return n, nil
}

func (f *InodeFile) Write(ctx context.Context, p []byte) (int, error) {
	if !f.writable {
		return 0, kernel.EBADF
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ref.Lock()
	n, err := f.cache.WriteI(f.ref, p, f.off)
	f.ref.Unlock()
	if err != nil {
		return n, err
	}
	f.off += int64(n)
	return n, nil
}

func (f *InodeFile) Stat(ctx context.Context) (kernel.Stat, error) {
	f.mu.Lock()
	ref := f.ref
	f.mu.Unlock()

	ref.Lock()
	defer ref.Unlock()
	ip := ref.Inode()

	return kernel.Stat{
		Type:  ip.Type,
		Dev:   ip.Dev,
		Inum:  ip.Inum,
		Nlink: ip.Nlink,
		Size:  ip.Size(),
	}, nil
}

func (f *InodeFile) Readable() bool { return f.readable }
func (f *InodeFile) Writable() bool { return f.writable }

// Ref exposes the underlying inode reference.
func (f *InodeFile) Ref() *inode.Ref { return f.ref }
