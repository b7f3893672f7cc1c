package sysfile

import (
	"context"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// Loader is the process-loader contract sys_exec hands off to once argv
// has been marshalled into kernel space. The loader itself, along with
// the scheduler and trap entry, lives outside this module. On success it
// replaces the calling process's address space and never returns to the
// caller; Exec below only covers the marshalling that happens before
// that handoff.
type Loader interface {
	Exec(ctx context.Context, path string, argv []string) error
}

// Exec implements sys_exec's argument marshalling: read at most MAXARG
// user pointers out of uargv, copy each pointed-to C string into a
// kernel-side vector, and hand off to the loader. Any fetch failure
// aborts with an error and performs the handoff to neither Loader nor
// anything else.
func Exec(ctx context.Context, fs *FS, p *Process, gate kernel.ArgGate, path string, uargv uintptr, loader Loader) error {
	argv := make([]string, 0, fs.Limits.MAXARG)

	for i := 0; i < fs.Limits.MAXARG; i++ {
		wordAddr := uargv + uintptr(i)*argvStride
		uarg, err := p.Mem.CopyInUintptr(wordAddr)
		if err != nil {
			return err
		}
		if uarg == 0 {
			return loader.Exec(ctx, path, argv)
		}

		s, err := p.Mem.CopyInString(uarg, 4096)
		if err != nil {
			return err
		}
		argv = append(argv, s)
	}

	// Exhausted MAXARG without a null terminator.
	return kernel.EINVAL
}

// argvStride is the stride between successive argv pointer slots in user
// memory. Real xv6 strides by 4 bytes (a 32-bit uint); this port strides
// by the size of the address type it actually uses, matching the
// (uargv+4*i) arithmetic in spirit rather than by a hardcoded literal.
const argvStride = 8
