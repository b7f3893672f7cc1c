// Package sysfile implements the path-resolution and open/close/read/
// write/dup/fstat/pipe/exec syscall handlers. It is written against the
// kernel/inode.Cache and kernel/file contracts rather than a concrete
// implementation, mirroring how a dispatch layer defines behavior
// against an abstract storage interface that a concrete backend then
// fulfills.
package sysfile

import (
	"sync"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/inode"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/journal"
)

// FS bundles the kernel-wide singletons every path/io operation needs:
// the inode cache and the write-ahead log. There is one FS per running
// kernel image, shared by every process.
type FS struct {
	Cache  inode.Cache
	Log    *journal.Log
	Limits kernel.Limits
}

// Process is the subset of a running process's data that this package's
// operations touch: the open-file table, current working directory, and
// the address space used by the argument gate. It is composed into the
// top-level kernel/memkernel.Process alongside kernel/shm's attachment
// state, so the two concerns never need to know about each other: the
// shm table is never acquired while holding an inode sleep-lock, and no
// inode operation is performed while holding the shm table's lock.
type Process struct {
	Mem   kernel.UserMemory
	Ofile []kernel.FileObject

	mu  sync.Mutex // guards Cwd swaps (chdir runs on the calling goroutine only, but dup/close of fds from other code paths should not race a chdir)
	Cwd *inode.Ref
}

// NewProcess creates a process rooted at root, with an empty fd table of
// the given size (NOFILE).
func NewProcess(mem kernel.UserMemory, root *inode.Ref, nofile int) *Process {
	return &Process{
		Mem:   mem,
		Ofile: make([]kernel.FileObject, nofile),
		Cwd:   root,
	}
}

func (p *Process) cwd() *inode.Ref {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Cwd
}

func (p *Process) setCwd(ref *inode.Ref) {
	p.mu.Lock()
	p.Cwd = ref
	p.mu.Unlock()
}
