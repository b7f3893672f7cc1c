package memkernel

import (
	"context"

	"github.com/jacobsa/timeutil"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/inode"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/journal"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/shm"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/sysfile"
)

// Kernel is one booted image: the global, shared singletons every running
// process needs access to (the inode cache, the shm table, the log)
// bundled together the way a daemon bundles the resident subsystems common
// to every request it dispatches.
type Kernel struct {
	FS     *sysfile.FS
	Shm    *shm.Registry
	Limits kernel.Limits
}

// New boots a kernel with a fresh, empty root filesystem and shm table.
// clock drives inode timestamps; pass timeutil.RealClock() in production,
// a fake clock in tests.
func New(limits kernel.Limits, clock timeutil.Clock) *Kernel {
	cache := inode.NewMemCache(1, limits.DIRSIZ, clock)
	return &Kernel{
		FS: &sysfile.FS{
			Cache:  cache,
			Log:    journal.NewLog(0),
			Limits: limits,
		},
		Shm:    shm.NewRegistry(limits, shm.NewPageAllocator(limits.PGSIZE)),
		Limits: limits,
	}
}

// Process composes the file and shared-memory halves of a process's state.
// sysfile and shm never touch each other's locks, so this composes by
// named field rather than embedding, which would risk ambiguous promoted
// names once both halves grow any method with the same name.
type Process struct {
	Files *sysfile.Process
	Shm   *shm.ProcState
}

// NewProcess creates a process rooted at the kernel's filesystem root,
// with empty file and shm tables (no parent to inherit from — use Fork
// for that).
func (k *Kernel) NewProcess(mem kernel.UserMemory) *Process {
	root := k.FS.Cache.Root()
	return &Process{
		Files: sysfile.NewProcess(mem, root, k.Limits.NOFILE),
		Shm:   shm.NewProcState(k.Limits.NOPROCESSSHM, NewSimPageTable()),
	}
}

// Fork creates a child of parent with its own address space (mem, already
// populated by the caller the way xv6's fork copies the parent's memory
// image before copyproc returns) and a duplicated file/cwd/shm state:
// every open file descriptor and shm attachment parent currently holds is
// inherited by the child, exactly as xv6's fork() loop over ofile[] and
// the shm extension's shmcpy hand-off do.
func (k *Kernel) Fork(ctx context.Context, parent *Process, mem kernel.UserMemory) (*Process, error) {
	child := &Process{
		Files: sysfile.NewProcess(mem, k.FS.Cache.Dup(parent.Files.Cwd), k.Limits.NOFILE),
		Shm:   shm.NewProcState(k.Limits.NOPROCESSSHM, NewSimPageTable()),
	}

	for fd, f := range parent.Files.Ofile {
		if f == nil {
			continue
		}
		child.Files.Ofile[fd] = f.IncRef()
	}

	if err := k.Shm.Inherit(parent.Shm, child.Shm); err != nil {
		return nil, err
	}

	return child, nil
}

// Exit releases every resource a process still holds open: every live
// file descriptor and every shm attachment, mirroring the source's exit()
// looping over both ofile[] and oshm[] before handing the process off to
// the scheduler for reaping.
func (k *Kernel) Exit(ctx context.Context, p *Process) error {
	for fd, f := range p.Files.Ofile {
		if f == nil {
			continue
		}
		if err := f.Close(ctx); err != nil {
			return err
		}
		p.Files.Ofile[fd] = nil
	}

	if p.Files.Cwd != nil {
		p.Files.Cwd.Release(ctx)
		p.Files.Cwd = nil
	}

	for _, a := range p.Shm.Oshm {
		if a.Index == -1 {
			continue
		}
		if err := k.Shm.Close(p.Shm, a.Index); err != nil {
			return err
		}
	}

	return nil
}

// Loader is a no-op process-loader standing in for exec's address-space
// replacement, which this module does not implement. It only records the
// call so tests can assert exec reached the hand-off with the expected
// argv.
type Loader struct {
	Calls []LoaderCall
}

// LoaderCall records one invocation of Loader.Exec.
type LoaderCall struct {
	Path string
	Argv []string
}

func (l *Loader) Exec(ctx context.Context, path string, argv []string) error {
	l.Calls = append(l.Calls, LoaderCall{Path: path, Argv: append([]string(nil), argv...)})
	return nil
}
