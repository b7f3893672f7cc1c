// Package kernel implements the system-call dispatch layer of a small
// teaching kernel: argument validation at the user/kernel boundary, the
// per-process file-descriptor table, and the syscall dispatch table that
// routes into kernel/sysfile and kernel/shm.
package kernel

// Compile-time-ish limits. Unlike the C original these are not #defines;
// kernel/memkernel and cmd/xv6shelld may override them per Kernel instance,
// and DefaultLimits returns the source's historical constants.
type Limits struct {
	NOFILE       int // per-process open-file descriptors
	NOSYSSHM     int // system-wide shared-memory slots
	NOPROCESSSHM int // per-process shm attachments
	SHMMAXPAGES  int // max backing pages per shm segment
	MAXARG       int // max argv entries accepted by exec
	DIRSIZ       int // bytes of a directory entry's name field
	PGSIZE       int // page size in bytes
}

// DefaultLimits mirrors the xv6 param.h constants this module was ported
// from.
func DefaultLimits() Limits {
	return Limits{
		NOFILE:       16,
		NOSYSSHM:     64,
		NOPROCESSSHM: 4,
		SHMMAXPAGES:  128,
		MAXARG:       32,
		DIRSIZ:       14,
		PGSIZE:       4096,
	}
}

// Inode types, matching fs.h's T_FILE/T_DIR/T_DEV.
type FileType int

const (
	TypeFile FileType = 1 + iota
	TypeDir
	TypeDev
)

// open(2) mode bits, matching fcntl.h.
type OpenMode int

const (
	O_RDONLY OpenMode = 0x000
	O_WRONLY OpenMode = 0x001
	O_RDWR   OpenMode = 0x002
	O_CREATE OpenMode = 0x200
)

// shm_map(2) flags, matching the original's reuse of O_RDWR as a mapping
// protection hint.
type ShmFlags int

const (
	ShmRDWR ShmFlags = 0x002
)
