package kernel

import (
	"golang.org/x/sys/unix"
)

// Errno is the kernel's error taxonomy. Every handler in kernel/sysfile
// and kernel/shm returns a non-nil error only as an Errno; Server.Dispatch
// collapses it to -1 at the outer syscall boundary the way the original
// sys_* functions do, and logs the underlying Errno for debugging (see
// debug.go).
//
// Wraps a foreign errno namespace into package constants, the way a
// dispatch layer normalizes whatever error type its transport happens to
// use; here the foreign namespace is golang.org/x/sys/unix.
type Errno = unix.Errno

const (
	// Argument fault: invalid fd, malformed user pointer, oversized string.
	EINVAL = Errno(unix.EINVAL)
	EFAULT = Errno(unix.EFAULT)
	EBADF  = Errno(unix.EBADF)

	// Not found: path does not resolve; shm name absent and no free slot.
	ENOENT = Errno(unix.ENOENT)

	// Type mismatch: write to directory, link of a directory, chdir to
	// non-directory, wrong-type pre-existing path in create.
	EISDIR  = Errno(unix.EISDIR)
	ENOTDIR = Errno(unix.ENOTDIR)
	EEXIST  = Errno(unix.EEXIST)

	// Resource exhaustion: no free fd, pipe, inode, shm slot, PSA entry, or
	// physical page.
	EMFILE = Errno(unix.EMFILE)
	ENOMEM = Errno(unix.ENOMEM)
	ENOSPC = Errno(unix.ENOSPC)

	// Protocol violation: shm_trunc on an already-sized segment, shm_map on
	// an already-mapped PSA entry, shm_close on a detached handle.
	EALREADY = Errno(unix.EALREADY)

	// Directory constraint: unlink on "."/"..", unlink of a non-empty
	// directory, cross-device link.
	ENOTEMPTY = Errno(unix.ENOTEMPTY)
	EXDEV     = Errno(unix.EXDEV)

	// Dispatch: no handler registered for the requested syscall name.
	ENOSYS = Errno(unix.ENOSYS)
)
