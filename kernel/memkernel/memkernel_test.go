package memkernel_test

import (
	"context"
	"testing"

	"github.com/jacobsa/timeutil"

	. "github.com/jacobsa/ogletest"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/memkernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/sysfile"
)

func TestMemKernel(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type MemKernelTest struct {
	ctx context.Context
	k   *memkernel.Kernel
	mem *memkernel.FlatUserMemory
	p   *memkernel.Process
}

func init() { RegisterTestSuite(&MemKernelTest{}) }

func (t *MemKernelTest) SetUp(ti *TestInfo) {
	t.ctx = context.Background()
	t.k = memkernel.New(kernel.DefaultLimits(), timeutil.RealClock())
	t.mem = memkernel.NewFlatUserMemory(1 << 16)
	t.p = t.k.NewProcess(t.mem)
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *MemKernelTest) CreateWriteReadRoundTrip() {
	fd, err := sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/hello.txt", kernel.O_CREATE|kernel.O_RDWR)
	AssertEq(nil, err)

	n, err := sysfile.Write(t.ctx, t.p.Files, fd, []byte("hello, xv6"))
	AssertEq(nil, err)
	ExpectEq(10, n)

	st, err := sysfile.Fstat(t.ctx, t.p.Files, fd)
	AssertEq(nil, err)
	ExpectEq(kernel.TypeFile, st.Type)
	ExpectEq(10, st.Size)

	AssertEq(nil, sysfile.Close(t.ctx, t.p.Files, fd))

	fd2, err := sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/hello.txt", kernel.O_RDONLY)
	AssertEq(nil, err)

	buf := make([]byte, 32)
	n, err = sysfile.Read(t.ctx, t.p.Files, fd2, buf)
	AssertEq(nil, err)
	ExpectEq("hello, xv6", string(buf[:n]))

	n, err = sysfile.Read(t.ctx, t.p.Files, fd2, buf)
	AssertEq(nil, err)
	ExpectEq(0, n)
}

func (t *MemKernelTest) MkdirChdirAndRelativePaths() {
	AssertEq(nil, sysfile.Mkdir(t.ctx, t.k.FS, t.p.Files, "/dir"))
	AssertEq(nil, sysfile.Chdir(t.ctx, t.k.FS, t.p.Files, "/dir"))

	fd, err := sysfile.Open(t.ctx, t.k.FS, t.p.Files, "nested.txt", kernel.O_CREATE|kernel.O_RDWR)
	AssertEq(nil, err)
	AssertEq(nil, sysfile.Close(t.ctx, t.p.Files, fd))

	AssertEq(nil, sysfile.Chdir(t.ctx, t.k.FS, t.p.Files, "/"))
	_, err = sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/dir/nested.txt", kernel.O_RDONLY)
	AssertEq(nil, err)
}

func (t *MemKernelTest) LinkAndUnlink() {
	fd, err := sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/a.txt", kernel.O_CREATE|kernel.O_RDWR)
	AssertEq(nil, err)
	AssertEq(nil, sysfile.Close(t.ctx, t.p.Files, fd))

	AssertEq(nil, sysfile.Link(t.ctx, t.k.FS, "/a.txt", "/b.txt", t.p.Files.Cwd))
	AssertEq(nil, sysfile.Unlink(t.ctx, t.k.FS, "/a.txt", t.p.Files.Cwd))

	_, err = sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/b.txt", kernel.O_RDONLY)
	ExpectEq(nil, err)
}

func (t *MemKernelTest) PipeCarriesBytesBetweenDescriptors() {
	rfd, wfd, err := sysfile.Pipe(t.p.Files)
	AssertEq(nil, err)

	done := make(chan error, 1)
	go func() {
		_, werr := sysfile.Write(t.ctx, t.p.Files, wfd, []byte("ping"))
		done <- werr
		sysfile.Close(t.ctx, t.p.Files, wfd)
	}()

	buf := make([]byte, 4)
	n, err := sysfile.Read(t.ctx, t.p.Files, rfd, buf)
	AssertEq(nil, err)
	ExpectEq("ping", string(buf[:n]))
	AssertEq(nil, <-done)
}

func (t *MemKernelTest) SharedMemorySegmentIsVisibleAcrossProcesses() {
	other := t.k.NewProcess(memkernel.NewFlatUserMemory(1 << 16))

	h1, err := t.k.Shm.Open(t.p.Shm, "segment")
	AssertEq(nil, err)
	h2, err := t.k.Shm.Open(other.Shm, "segment")
	AssertEq(nil, err)
	ExpectEq(h1, h2)

	_, err = t.k.Shm.Trunc(h1, 4096)
	AssertEq(nil, err)

	va1, err := t.k.Shm.Map(t.p.Shm, h1, kernel.ShmRDWR)
	AssertEq(nil, err)
	va2, err := t.k.Shm.Map(other.Shm, h2, kernel.ShmRDWR)
	AssertEq(nil, err)

	pt1 := t.p.Shm.PT.(*memkernel.SimPageTable)
	pt2 := other.Shm.PT.(*memkernel.SimPageTable)

	pt1.PagesAt(va1)[0].Bytes[0] = 7
	ExpectEq(byte(7), pt2.PagesAt(va2)[0].Bytes[0])
}

func (t *MemKernelTest) ForkInheritsFilesAndShmAttachments() {
	fd, err := sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/shared.txt", kernel.O_CREATE|kernel.O_RDWR)
	AssertEq(nil, err)

	h, err := t.k.Shm.Open(t.p.Shm, "seg")
	AssertEq(nil, err)
	_, err = t.k.Shm.Trunc(h, 4096)
	AssertEq(nil, err)
	va, err := t.k.Shm.Map(t.p.Shm, h, kernel.ShmRDWR)
	AssertEq(nil, err)

	child, err := t.k.Fork(t.ctx, t.p, memkernel.NewFlatUserMemory(1<<16))
	AssertEq(nil, err)

	AssertNe(nil, child.Files.Ofile[fd])

	ExpectEq(h, child.Shm.Oshm[0].Index)
	ExpectEq(va, child.Shm.Oshm[0].VA)
}

func (t *MemKernelTest) ExitClosesEverything() {
	_, err := sysfile.Open(t.ctx, t.k.FS, t.p.Files, "/f.txt", kernel.O_CREATE|kernel.O_RDWR)
	AssertEq(nil, err)

	h, err := t.k.Shm.Open(t.p.Shm, "seg")
	AssertEq(nil, err)
	_, err = t.k.Shm.Trunc(h, 4096)
	AssertEq(nil, err)
	_, err = t.k.Shm.Map(t.p.Shm, h, kernel.ShmRDWR)
	AssertEq(nil, err)

	AssertEq(nil, t.k.Exit(t.ctx, t.p))

	for _, f := range t.p.Files.Ofile {
		ExpectEq(nil, f)
	}
	for _, a := range t.p.Shm.Oshm {
		ExpectEq(-1, a.Index)
	}
}
