package memkernel_test

import (
	"context"
	"encoding/binary"

	"github.com/jacobsa/timeutil"

	. "github.com/jacobsa/ogletest"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/memkernel"
)

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type ServerTest struct {
	ctx    context.Context
	k      *memkernel.Kernel
	mem    *memkernel.FlatUserMemory
	p      *memkernel.Process
	server *kernel.Server
}

func init() { RegisterTestSuite(&ServerTest{}) }

func (t *ServerTest) SetUp(ti *TestInfo) {
	t.ctx = context.Background()
	t.k = memkernel.New(kernel.DefaultLimits(), timeutil.RealClock())
	t.mem = memkernel.NewFlatUserMemory(1 << 16)
	t.p = t.k.NewProcess(t.mem)
	t.server = t.k.NewServer(t.p, &memkernel.Loader{})
}

// writeCString writes s plus a NUL terminator at base and returns base,
// for building argv-style gate arguments.
func (t *ServerTest) writeCString(base uintptr, s string) uintptr {
	AssertEq(nil, t.mem.CopyOut(base, append([]byte(s), 0)))
	return base
}

func (t *ServerTest) gate(regs ...uintptr) kernel.ArgGate {
	return kernel.ArgGate{Mem: t.mem, Regs: regs}
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *ServerTest) OpenWriteReadRoundTripThroughDispatch() {
	const pathAddr = 0
	const dataAddr = 4096
	const readAddr = 8192

	path := t.writeCString(pathAddr, "/d.txt")

	fd := t.server.Dispatch(t.ctx, "open", t.gate(path, uintptr(kernel.O_CREATE|kernel.O_RDWR)))
	AssertNe(-1, fd)

	AssertEq(nil, t.mem.CopyOut(dataAddr, []byte("hello")))
	n := t.server.Dispatch(t.ctx, "write", t.gate(uintptr(fd), dataAddr, 5))
	ExpectEq(5, n)

	AssertEq(0, t.server.Dispatch(t.ctx, "close", t.gate(uintptr(fd))))

	fd2 := t.server.Dispatch(t.ctx, "open", t.gate(path, uintptr(kernel.O_RDONLY)))
	AssertNe(-1, fd2)

	n = t.server.Dispatch(t.ctx, "read", t.gate(uintptr(fd2), readAddr, 5))
	AssertEq(5, n)

	buf := make([]byte, 5)
	AssertEq(nil, t.mem.CopyIn(buf, readAddr))
	ExpectEq("hello", string(buf))
}

func (t *ServerTest) FstatThroughDispatchDecodesWireFormat() {
	const pathAddr = 0
	const statAddr = 4096

	path := t.writeCString(pathAddr, "/stat.txt")
	fd := t.server.Dispatch(t.ctx, "open", t.gate(path, uintptr(kernel.O_CREATE|kernel.O_RDWR)))
	AssertNe(-1, fd)

	n := t.server.Dispatch(t.ctx, "write", t.gate(uintptr(fd), uintptr(pathAddr+64), 0))
	AssertEq(0, n)

	AssertEq(0, t.server.Dispatch(t.ctx, "fstat", t.gate(uintptr(fd), statAddr)))

	var buf [40]byte
	AssertEq(nil, t.mem.CopyIn(buf[:], statAddr))

	typ := binary.LittleEndian.Uint64(buf[0:8])
	size := binary.LittleEndian.Uint64(buf[32:40])
	ExpectEq(uint64(kernel.TypeFile), typ)
	ExpectEq(uint64(0), size)
}

func (t *ServerTest) PipeThroughDispatchCarriesBytes() {
	const fdsAddr = 0
	const bufAddr = 4096

	AssertEq(0, t.server.Dispatch(t.ctx, "pipe", t.gate(fdsAddr)))

	var fdsBuf [16]byte
	AssertEq(nil, t.mem.CopyIn(fdsBuf[:], fdsAddr))
	rfd := binary.LittleEndian.Uint64(fdsBuf[0:8])
	wfd := binary.LittleEndian.Uint64(fdsBuf[8:16])

	AssertEq(nil, t.mem.CopyOut(bufAddr, []byte("ping")))
	n := t.server.Dispatch(t.ctx, "write", t.gate(uintptr(wfd), bufAddr, 4))
	AssertEq(4, n)

	n = t.server.Dispatch(t.ctx, "read", t.gate(uintptr(rfd), bufAddr, 4))
	AssertEq(4, n)
}

func (t *ServerTest) ShmRoundTripThroughDispatch() {
	const nameAddr = 0

	name := t.writeCString(nameAddr, "segment")
	handle := t.server.Dispatch(t.ctx, "shmopen", t.gate(name))
	AssertNe(-1, handle)

	size := t.server.Dispatch(t.ctx, "shmtrunc", t.gate(uintptr(handle), 4096))
	ExpectEq(4096, size)

	va := t.server.Dispatch(t.ctx, "shmmap", t.gate(uintptr(handle), uintptr(kernel.ShmRDWR)))
	AssertNe(-1, va)

	ExpectEq(0, t.server.Dispatch(t.ctx, "shmclose", t.gate(uintptr(handle))))
}

func (t *ServerTest) UnregisteredSyscallCollapsesToMinusOne() {
	ExpectEq(-1, t.server.Dispatch(t.ctx, "nonexistent", t.gate()))
}

func (t *ServerTest) BadFdCollapsesToMinusOne() {
	ExpectEq(-1, t.server.Dispatch(t.ctx, "close", t.gate(99)))
}
