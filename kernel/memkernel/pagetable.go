// Package memkernel wires kernel/sysfile, kernel/shm and kernel/journal
// into one runnable kernel image. It supplies the two collaborator
// implementations the syscall packages are written against but do not
// own — a flat address space and a simulated page table — so every
// operation the dispatch layer defines is reachable end-to-end without a
// real MMU underneath it.
package memkernel

import "github.com/milicatosic02/xv6-Shared-Memory-Support/kernel/shm"

// SimPageTable is a process's simulated address space for shm mappings.
// Since this module drives no real MMU, it tracks {va -> pages} directly
// instead of walking page-table levels, giving kernel/shm's Map/Unmap
// calls and its tests something real to exercise.
type SimPageTable struct {
	mapped   map[uintptr][]*shm.Page
	writable map[uintptr]bool
}

// NewSimPageTable returns an empty page table.
func NewSimPageTable() *SimPageTable {
	return &SimPageTable{
		mapped:   make(map[uintptr][]*shm.Page),
		writable: make(map[uintptr]bool),
	}
}

func (pt *SimPageTable) Map(va uintptr, pages []*shm.Page, writable bool) error {
	pt.mapped[va] = pages
	pt.writable[va] = writable
	return nil
}

func (pt *SimPageTable) Unmap(va uintptr, n int) error {
	delete(pt.mapped, va)
	delete(pt.writable, va)
	return nil
}

// PagesAt returns the pages mapped at va, or nil if nothing is mapped
// there. Used by tests to inspect a process's shm mappings.
func (pt *SimPageTable) PagesAt(va uintptr) []*shm.Page {
	return pt.mapped[va]
}

// WritableAt reports the writable flag SimPageTable.Map was called with
// for the mapping at va.
func (pt *SimPageTable) WritableAt(va uintptr) bool {
	return pt.writable[va]
}
