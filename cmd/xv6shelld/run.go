package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jacobsa/timeutil"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/memkernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/sysfile"
)

// addressSpaceSize is the size of the flat arena each scripted process
// gets. Scripts never touch raw addresses, and write/read hand their
// bytes to kernel/sysfile directly rather than through the arena, so no
// script command depends on this size.
const addressSpaceSize = 1 << 20

// runScript boots a kernel with the given limits and executes the
// newline-delimited command script at path against it, printing one
// result line per command to stdout. Unknown commands and syscall errors
// are reported but do not stop the script, mirroring a real shell's
// "keep going after one failed command" behavior.
func runScript(path string, limits kernel.Limits) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	k := memkernel.New(limits, timeutil.RealClock())
	ctx := context.Background()

	procs := map[string]*memkernel.Process{
		"main": k.NewProcess(memkernel.NewFlatUserMemory(addressSpaceSize)),
	}
	cur := "main"

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if result, err := dispatch(ctx, k, procs, &cur, cmd, args); err != nil {
			fmt.Printf("%s: error: %v\n", cmd, err)
		} else {
			fmt.Printf("%s: %s\n", cmd, result)
		}
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, k *memkernel.Kernel, procs map[string]*memkernel.Process, cur *string, cmd string, args []string) (string, error) {
	p, ok := procs[*cur]
	if !ok {
		return "", fmt.Errorf("no such process %q", *cur)
	}

	switch cmd {
	case "proc":
		procs[args[0]] = k.NewProcess(memkernel.NewFlatUserMemory(addressSpaceSize))
		return "created " + args[0], nil

	case "use":
		if _, ok := procs[args[0]]; !ok {
			return "", fmt.Errorf("no such process %q", args[0])
		}
		*cur = args[0]
		return "now " + args[0], nil

	case "open":
		omode, err := parseOpenMode(args[1])
		if err != nil {
			return "", err
		}
		fd, err := sysfile.Open(ctx, k.FS, p.Files, args[0], omode)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("fd=%d", fd), nil

	case "write":
		fd, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		text := strings.Join(args[1:], " ")
		n, err := sysfile.Write(ctx, p.Files, fd, []byte(text))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("wrote %d bytes", n), nil

	case "read":
		fd, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", err
		}
		buf := make([]byte, n)
		got, err := sysfile.Read(ctx, p.Files, fd, buf)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q", string(buf[:got])), nil

	case "close":
		fd, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		if err := sysfile.Close(ctx, p.Files, fd); err != nil {
			return "", err
		}
		return "closed", nil

	case "dup":
		fd, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		nfd, err := sysfile.Dup(p.Files, fd)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("fd=%d", nfd), nil

	case "fstat":
		fd, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		st, err := sysfile.Fstat(ctx, p.Files, fd)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%+v", st), nil

	case "mkdir":
		if err := sysfile.Mkdir(ctx, k.FS, p.Files, args[0]); err != nil {
			return "", err
		}
		return "ok", nil

	case "mknod":
		major, err := strconv.Atoi(args[1])
		if err != nil {
			return "", err
		}
		minor, err := strconv.Atoi(args[2])
		if err != nil {
			return "", err
		}
		if err := sysfile.Mknod(ctx, k.FS, p.Files, args[0], int16(major), int16(minor)); err != nil {
			return "", err
		}
		return "ok", nil

	case "chdir":
		if err := sysfile.Chdir(ctx, k.FS, p.Files, args[0]); err != nil {
			return "", err
		}
		return "ok", nil

	case "link":
		if err := sysfile.Link(ctx, k.FS, args[0], args[1], p.Files.Cwd); err != nil {
			return "", err
		}
		return "ok", nil

	case "unlink":
		if err := sysfile.Unlink(ctx, k.FS, args[0], p.Files.Cwd); err != nil {
			return "", err
		}
		return "ok", nil

	case "pipe":
		rfd, wfd, err := sysfile.Pipe(p.Files)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rfd=%d wfd=%d", rfd, wfd), nil

	case "shmopen":
		h, err := k.Shm.Open(p.Shm, args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("handle=%d", h), nil

	case "shmtrunc":
		h, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return "", err
		}
		n, err := k.Shm.Trunc(h, size)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("size=%d", n), nil

	case "shmmap":
		h, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		flags := kernel.ShmFlags(0)
		if len(args) > 1 && args[1] == "rdwr" {
			flags = kernel.ShmRDWR
		}
		va, err := k.Shm.Map(p.Shm, h, flags)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("va=0x%x", va), nil

	case "shmclose":
		h, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		if err := k.Shm.Close(p.Shm, h); err != nil {
			return "", err
		}
		return "ok", nil

	case "fork":
		child, err := k.Fork(ctx, p, memkernel.NewFlatUserMemory(addressSpaceSize))
		if err != nil {
			return "", err
		}
		procs[args[0]] = child
		return "forked " + args[0], nil

	case "exit":
		if err := k.Exit(ctx, p); err != nil {
			return "", err
		}
		return "exited", nil

	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}
}

func parseOpenMode(s string) (kernel.OpenMode, error) {
	switch s {
	case "r":
		return kernel.O_RDONLY, nil
	case "w":
		return kernel.O_WRONLY, nil
	case "rw":
		return kernel.O_RDWR, nil
	case "c":
		return kernel.O_CREATE | kernel.O_RDWR, nil
	default:
		return 0, fmt.Errorf("unknown open mode %q (want r, w, rw or c)", s)
	}
}
