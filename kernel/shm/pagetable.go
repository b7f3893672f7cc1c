package shm

import "github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"

// PageTable is the mappages/walkpgdir analogue: it installs and removes
// mappings from a process's simulated address space. kernel/memkernel
// supplies the concrete implementation, the way a mock filesystem backs
// an abstract storage interface in tests.
type PageTable interface {
	// Map installs pages starting at va, one PGSIZE slot per page, in
	// allocation order. writable mirrors the corrected PTE_W derivation
	// in Registry.Map.
	Map(va uintptr, pages []*Page, writable bool) error

	// Unmap removes n PGSIZE slots starting at va.
	Unmap(va uintptr, n int) error
}

// Attachment is one slot of a process's shm attachment table (PSA; the
// source's proc.oshm[NOPROCESSSHM]). Index == -1 means the slot is free.
type Attachment struct {
	Index int
	VA    uintptr
	Flags kernel.ShmFlags
}

// ProcState is the shm-side state kernel/memkernel.Process composes
// alongside kernel/sysfile.Process. The two halves stay independent:
// this package only ever touches ProcState, never sysfile.Process.
type ProcState struct {
	Oshm []Attachment
	PT   PageTable
}

// NewProcState allocates an empty PSA table of size n (NOPROCESSSHM)
// backed by pt.
func NewProcState(n int, pt PageTable) *ProcState {
	oshm := make([]Attachment, n)
	for i := range oshm {
		oshm[i].Index = -1
	}
	return &ProcState{Oshm: oshm, PT: pt}
}
