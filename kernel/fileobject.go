package kernel

import "context"

// Stat mirrors struct stat: the fields sys_fstat copies out to user memory.
type Stat struct {
	Type  FileType
	Dev   int32
	Inum  uint32
	Nlink int16
	Size  int64
}

// FileObject is the file-object layer's contract: a reference-counted
// handle combining an underlying resource (inode or pipe) with an I/O
// position and permission flags. kernel/file supplies the two concrete
// variants (FD_INODE, FD_PIPE); kernel/sysfile and the fd table operate
// only against this interface, the same way sys_read/sys_write in the
// source operate against "struct file *" without caring which union
// member is live.
type FileObject interface {
	// IncRef bumps the reference count and returns the same object. Used by
	// dup(2); xv6's filedup does not allocate a new struct file, it just
	// increments f->ref.
	IncRef() FileObject

	// Close drops a reference, releasing underlying resources (the inode
	// reference or pipe endpoint) once the count reaches zero.
	Close(ctx context.Context) error

	Read(ctx context.Context, p []byte) (n int, err error)
	Write(ctx context.Context, p []byte) (n int, err error)
	Stat(ctx context.Context) (Stat, error)

	Readable() bool
	Writable() bool
}
