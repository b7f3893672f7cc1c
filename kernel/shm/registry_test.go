package shm

import (
	"testing"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// fakePageTable is a minimal PageTable recording what was mapped where,
// standing in for kernel/memkernel's real simulated address space.
type fakePageTable struct {
	mapped   map[uintptr][]*Page
	writable map[uintptr]bool
}

func newFakePageTable() *fakePageTable {
	return &fakePageTable{
		mapped:   make(map[uintptr][]*Page),
		writable: make(map[uintptr]bool),
	}
}

func (pt *fakePageTable) Map(va uintptr, pages []*Page, writable bool) error {
	pt.mapped[va] = pages
	pt.writable[va] = writable
	return nil
}

func (pt *fakePageTable) Unmap(va uintptr, n int) error {
	delete(pt.mapped, va)
	delete(pt.writable, va)
	return nil
}

func testLimits() kernel.Limits {
	l := kernel.DefaultLimits()
	l.NOSYSSHM = 4
	l.NOPROCESSSHM = 2
	l.SHMMAXPAGES = 4
	l.PGSIZE = 4096
	return l
}

func newTestRegistry() *Registry {
	limits := testLimits()
	return NewRegistry(limits, NewPageAllocator(limits.PGSIZE))
}

func TestOpenAllocatesFreshObjectOnFirstUse(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())

	h, err := r.Open(p, "segment")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.Oshm[0].Index != h {
		t.Fatalf("expected PSA slot 0 to reference handle %d, got %d", h, p.Oshm[0].Index)
	}
}

func TestOpenByNameShareSameHandle(t *testing.T) {
	r := newTestRegistry()
	a := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())
	b := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())

	h1, err := r.Open(a, "shared")
	if err != nil {
		t.Fatalf("Open a: %v", err)
	}
	h2, err := r.Open(b, "shared")
	if err != nil {
		t.Fatalf("Open b: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected same handle for same name, got %d and %d", h1, h2)
	}
}

func TestTruncTwiceFails(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())
	h, _ := r.Open(p, "seg")

	if _, err := r.Trunc(h, 4096); err != nil {
		t.Fatalf("first Trunc: %v", err)
	}
	if _, err := r.Trunc(h, 8192); err != kernel.EALREADY {
		t.Fatalf("second Trunc: got %v, want EALREADY", err)
	}
}

func TestTruncZeroRoundsToZero(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())
	h, _ := r.Open(p, "seg")

	n, err := r.Trunc(h, 0)
	if err != nil {
		t.Fatalf("Trunc: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rounded size 0, got %d", n)
	}
}

func TestTruncOverSHMMAXPAGESFails(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())
	h, _ := r.Open(p, "seg")

	limits := testLimits()
	tooBig := (limits.SHMMAXPAGES + 1) * limits.PGSIZE
	if _, err := r.Trunc(h, tooBig); err != kernel.ENOSPC {
		t.Fatalf("Trunc: got %v, want ENOSPC", err)
	}
}

func TestMapSharesPagesAcrossProcesses(t *testing.T) {
	r := newTestRegistry()
	aPT := newFakePageTable()
	bPT := newFakePageTable()
	a := NewProcState(testLimits().NOPROCESSSHM, aPT)
	b := NewProcState(testLimits().NOPROCESSSHM, bPT)

	h, _ := r.Open(a, "seg")
	if _, err := r.Open(b, "seg"); err != nil {
		t.Fatalf("Open b: %v", err)
	}
	if _, err := r.Trunc(h, 4096); err != nil {
		t.Fatalf("Trunc: %v", err)
	}

	vaA, err := r.Map(a, h, kernel.ShmRDWR)
	if err != nil {
		t.Fatalf("Map a: %v", err)
	}
	vaB, err := r.Map(b, h, 0)
	if err != nil {
		t.Fatalf("Map b: %v", err)
	}

	pagesA := aPT.mapped[vaA]
	pagesB := bPT.mapped[vaB]
	if len(pagesA) != 1 || len(pagesB) != 1 || pagesA[0] != pagesB[0] {
		t.Fatalf("expected both processes to share the same backing page")
	}

	pagesA[0].Bytes[0] = 0x42
	if pagesB[0].Bytes[0] != 0x42 {
		t.Fatalf("write through process a's mapping not visible to process b")
	}
}

func TestMapTwiceSameHandleFails(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())
	h, _ := r.Open(p, "seg")
	r.Trunc(h, 4096)

	if _, err := r.Map(p, h, kernel.ShmRDWR); err != nil {
		t.Fatalf("first Map: %v", err)
	}
	if _, err := r.Map(p, h, kernel.ShmRDWR); err != kernel.EALREADY {
		t.Fatalf("second Map: got %v, want EALREADY", err)
	}
}

func TestCloseReleasesPagesOnLastDetach(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(testLimits().NOPROCESSSHM, newFakePageTable())
	h, _ := r.Open(p, "seg")
	r.Trunc(h, 4096)
	r.Map(p, h, kernel.ShmRDWR)

	if err := r.Close(p, h); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p.Oshm[0].Index != -1 {
		t.Fatalf("expected PSA slot freed, got %+v", p.Oshm[0])
	}

	// The handle is now free; a fresh Open should be able to reuse it
	// with a brand-new zero-size object.
	h2, err := r.Open(p, "seg")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if r.objects[h2].size != 0 {
		t.Fatalf("expected reused slot to start at size 0, got %d", r.objects[h2].size)
	}
}

func TestInheritCopiesLiveAttachments(t *testing.T) {
	r := newTestRegistry()
	parentPT := newFakePageTable()
	childPT := newFakePageTable()
	parent := NewProcState(testLimits().NOPROCESSSHM, parentPT)
	child := NewProcState(testLimits().NOPROCESSSHM, childPT)

	h, _ := r.Open(parent, "seg")
	r.Trunc(h, 4096)
	va, _ := r.Map(parent, h, kernel.ShmRDWR)

	if err := r.Inherit(parent, child); err != nil {
		t.Fatalf("Inherit: %v", err)
	}

	if child.Oshm[0].Index != h || child.Oshm[0].VA != va {
		t.Fatalf("expected child PSA to mirror parent, got %+v", child.Oshm[0])
	}
	if len(childPT.mapped[va]) != 1 {
		t.Fatalf("expected child page table to have the inherited mapping")
	}
	if r.objects[h].processCounter != 2 {
		t.Fatalf("expected process counter bumped to 2, got %d", r.objects[h].processCounter)
	}
}

func TestMapReadOnlyDoesNotSetWritable(t *testing.T) {
	r := newTestRegistry()
	pt := newFakePageTable()
	p := NewProcState(testLimits().NOPROCESSSHM, pt)
	h, _ := r.Open(p, "seg")
	r.Trunc(h, 4096)

	va, err := r.Map(p, h, 0)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if pt.writable[va] {
		t.Fatalf("expected read-only Map to install writable=false, got true")
	}
}

func TestMapReadWriteSetsWritable(t *testing.T) {
	r := newTestRegistry()
	pt := newFakePageTable()
	p := NewProcState(testLimits().NOPROCESSSHM, pt)
	h, _ := r.Open(p, "seg")
	r.Trunc(h, 4096)

	va, err := r.Map(p, h, kernel.ShmRDWR)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if !pt.writable[va] {
		t.Fatalf("expected ShmRDWR Map to install writable=true, got false")
	}
}

func TestOpenFailsWhenProcessAttachmentTableFull(t *testing.T) {
	r := newTestRegistry()
	p := NewProcState(1, newFakePageTable())

	if _, err := r.Open(p, "a"); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := r.Open(p, "b"); err != kernel.ENOMEM {
		t.Fatalf("second Open: got %v, want ENOMEM", err)
	}
}
