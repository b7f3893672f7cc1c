package memkernel

import (
	"context"
	"encoding/binary"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/sysfile"
)

// maxPathLen bounds path and shm-name arguments decoded off the argument
// gate, mirroring param.h's MAXPATH.
const maxPathLen = 128

// statWords and pipeWords are the wire sizes Fstat and Pipe write back
// through a user pointer: Stat as five 8-byte little-endian words
// (Type, Dev, Inum, Nlink, Size), a pipe's two file descriptors as two.
const statWords = 5
const pipeWords = 2

// NewServer builds the syscall dispatch table for p, routing each name
// the way syscall.c's syscalls[] array routes a syscall number: into one
// kernel/sysfile or kernel/shm handler, decoding that handler's own
// arguments off the gate first.
func (k *Kernel) NewServer(p *Process, loader sysfile.Loader) *kernel.Server {
	fs := k.FS

	table := map[string]kernel.Syscall{
		"open": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			path, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			mode, err := gate.ArgInt(1)
			if err != nil {
				return -1, err
			}
			return sysfile.Open(ctx, fs, p.Files, path, kernel.OpenMode(mode))
		},

		"close": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			fd, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Close(ctx, p.Files, fd); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"read": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			fd, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			n, err := gate.ArgInt(2)
			if err != nil {
				return -1, err
			}
			base, err := gate.ArgPtr(1, n)
			if err != nil {
				return -1, err
			}
			buf := make([]byte, n)
			got, err := sysfile.Read(ctx, p.Files, fd, buf)
			if err != nil {
				return -1, err
			}
			if err := gate.Mem.CopyOut(base, buf[:got]); err != nil {
				return -1, err
			}
			return got, nil
		},

		"write": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			fd, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			n, err := gate.ArgInt(2)
			if err != nil {
				return -1, err
			}
			base, err := gate.ArgPtr(1, n)
			if err != nil {
				return -1, err
			}
			buf := make([]byte, n)
			if err := gate.Mem.CopyIn(buf, base); err != nil {
				return -1, err
			}
			return sysfile.Write(ctx, p.Files, fd, buf)
		},

		"dup": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			fd, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			return sysfile.Dup(p.Files, fd)
		},

		"fstat": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			fd, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			base, err := gate.ArgPtr(1, statWords*8)
			if err != nil {
				return -1, err
			}
			st, err := sysfile.Fstat(ctx, p.Files, fd)
			if err != nil {
				return -1, err
			}
			var buf [statWords * 8]byte
			binary.LittleEndian.PutUint64(buf[0:8], uint64(st.Type))
			binary.LittleEndian.PutUint64(buf[8:16], uint64(st.Dev))
			binary.LittleEndian.PutUint64(buf[16:24], uint64(st.Inum))
			binary.LittleEndian.PutUint64(buf[24:32], uint64(st.Nlink))
			binary.LittleEndian.PutUint64(buf[32:40], uint64(st.Size))
			if err := gate.Mem.CopyOut(base, buf[:]); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"pipe": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			base, err := gate.ArgPtr(0, pipeWords*8)
			if err != nil {
				return -1, err
			}
			fd0, fd1, err := sysfile.Pipe(p.Files)
			if err != nil {
				return -1, err
			}
			var buf [pipeWords * 8]byte
			binary.LittleEndian.PutUint64(buf[0:8], uint64(fd0))
			binary.LittleEndian.PutUint64(buf[8:16], uint64(fd1))
			if err := gate.Mem.CopyOut(base, buf[:]); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"mkdir": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			path, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Mkdir(ctx, fs, p.Files, path); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"mknod": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			path, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			major, err := gate.ArgInt(1)
			if err != nil {
				return -1, err
			}
			minor, err := gate.ArgInt(2)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Mknod(ctx, fs, p.Files, path, int16(major), int16(minor)); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"chdir": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			path, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Chdir(ctx, fs, p.Files, path); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"link": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			oldpath, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			newpath, err := gate.ArgStr(1, maxPathLen)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Link(ctx, fs, oldpath, newpath, p.Files.Cwd); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"unlink": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			path, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Unlink(ctx, fs, path, p.Files.Cwd); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"exec": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			path, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			uargv, err := gate.ArgUintptr(1)
			if err != nil {
				return -1, err
			}
			if err := sysfile.Exec(ctx, fs, p.Files, gate, path, uargv, loader); err != nil {
				return -1, err
			}
			return 0, nil
		},

		"shmopen": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			name, err := gate.ArgStr(0, maxPathLen)
			if err != nil {
				return -1, err
			}
			return k.Shm.Open(p.Shm, name)
		},

		"shmtrunc": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			handle, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			size, err := gate.ArgInt(1)
			if err != nil {
				return -1, err
			}
			return k.Shm.Trunc(handle, size)
		},

		"shmmap": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			handle, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			flags, err := gate.ArgInt(1)
			if err != nil {
				return -1, err
			}
			va, err := k.Shm.Map(p.Shm, handle, kernel.ShmFlags(flags))
			if err != nil {
				return -1, err
			}
			return int(va), nil
		},

		"shmclose": func(ctx context.Context, gate kernel.ArgGate) (int, error) {
			handle, err := gate.ArgInt(0)
			if err != nil {
				return -1, err
			}
			if err := k.Shm.Close(p.Shm, handle); err != nil {
				return -1, err
			}
			return 0, nil
		},
	}

	return kernel.NewServer(table)
}
