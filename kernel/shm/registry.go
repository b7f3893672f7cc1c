package shm

import (
	"github.com/jacobsa/syncutil"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// kernbase mirrors memlayout.h's KERNBASE: shm_map lays segments out
// descending from just below it, the way the source's sys_shm_map does.
// VA placement is a convention kept for continuity with that layout, not
// an invariant anything else here depends on.
const kernbase = uintptr(0x80000000)

// Registry is the system-wide shared-memory object table (the source's
// "struct shm_o shared_memory[NOSYSSHM]" plus its lock). One Registry is
// shared by every process in a kernel image, exactly as FS is shared for
// the inode cache.
//
// Lock discipline: mu guards every object slot and every ProcState passed
// in; it is never held across a PageTable call into inode-cache code, and
// no inode sleep-lock is ever held while mu is held, so the two
// subsystems cannot deadlock against each other.
type Registry struct {
	mu     syncutil.InvariantMutex
	limits kernel.Limits
	pages  PageAllocator

	objects []object
}

// NewRegistry creates an empty registry sized per limits.NOSYSSHM.
func NewRegistry(limits kernel.Limits, pages PageAllocator) *Registry {
	r := &Registry{
		limits:  limits,
		pages:   pages,
		objects: make([]object, limits.NOSYSSHM),
	}
	r.mu = syncutil.NewInvariantMutex(r.checkInvariants)
	return r
}

func (r *Registry) checkInvariants() {
	for i, o := range r.objects {
		if o.processCounter == 0 && (o.size != 0 || o.addresses != nil) {
			panic("shm: registry: free slot carries backing pages")
		}
		if o.processCounter < 0 {
			panic("shm: registry: negative process counter")
		}
		_ = i
	}
}

// Open implements shm_open: find name among live objects, or else the
// first free slot, and attach the calling process to it through the
// first free PSA entry. Returns the shm handle (the object's table
// index, mirroring the source's "shmod" int).
func (r *Registry) Open(p *ProcState, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	processIndex := -1
	for i, a := range p.Oshm {
		if a.Index == -1 {
			processIndex = i
			break
		}
	}
	if processIndex == -1 {
		return -1, kernel.ENOMEM
	}

	name = boundName(name)

	for i := range r.objects {
		if r.objects[i].processCounter > 0 && r.objects[i].name == name {
			r.objects[i].processCounter++
			p.Oshm[processIndex] = Attachment{Index: i, VA: 0}
			return i, nil
		}
	}

	for i := range r.objects {
		if r.objects[i].processCounter == 0 {
			r.objects[i] = object{name: name, processCounter: 1}
			p.Oshm[processIndex] = Attachment{Index: i, VA: 0}
			return i, nil
		}
	}

	return -1, kernel.ENOSPC
}

// Trunc implements shm_trunc: sets an object's size exactly once (the
// source refuses a second truncation of the same object) and allocates
// its backing pages. Rounding to a zero-page object (size == 0) is a
// valid boundary case, not an error.
func (r *Registry) Trunc(handle int, size int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.objects) {
		return -1, kernel.EINVAL
	}
	o := &r.objects[handle]
	if o.size != 0 {
		return -1, kernel.EALREADY
	}
	if size < 0 {
		return -1, kernel.EINVAL
	}

	rounded := roundUp(size, r.limits.PGSIZE)
	if rounded == 0 {
		return 0, nil
	}

	n := rounded / r.limits.PGSIZE
	if n > r.limits.SHMMAXPAGES {
		return -1, kernel.ENOSPC
	}

	pages, err := r.pages.Alloc(n)
	if err != nil {
		return -1, kernel.ENOMEM
	}

	o.addresses = pages
	o.size = rounded
	return rounded, nil
}

func roundUp(size, pgsize int) int {
	if size <= 0 {
		return 0
	}
	return (size + pgsize - 1) / pgsize * pgsize
}

func pgRoundDown(addr uintptr, pgsize int) uintptr {
	return addr &^ uintptr(pgsize-1)
}

// Map implements shm_map: installs the object's pages into the process's
// page table at a VA chosen by descending from kernbase, below every
// other shm mapping already held by this process.
//
// Flag derivation avoids the operator-precedence bug in the source's C
// flag test: writable is true only when ShmRDWR is set, and it is passed
// to PageTable.Map as its own argument. User access is implied by every
// mapping and is not derived from flags; flags itself is stored in the
// PSA entry's Flags field, from which Inherit re-derives writable.
func (r *Registry) Map(p *ProcState, handle int, flags kernel.ShmFlags) (uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.objects) {
		return 0, kernel.EINVAL
	}
	o := &r.objects[handle]
	if o.processCounter == 0 || o.size == 0 {
		return 0, kernel.EINVAL
	}

	idx := -1
	for i, a := range p.Oshm {
		if a.Index == handle {
			if a.VA != 0 {
				return 0, kernel.EALREADY
			}
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, kernel.EINVAL
	}

	va := r.allocateVA(p, o.size)
	writable := flags&kernel.ShmRDWR != 0

	if err := p.PT.Map(va, o.addresses, writable); err != nil {
		return 0, err
	}

	p.Oshm[idx].VA = va
	p.Oshm[idx].Flags = flags

	return va, nil
}

// allocateVA picks the next descending slot below kernbase and below
// every VA this process already has mapped.
func (r *Registry) allocateVA(p *ProcState, size int) uintptr {
	lowest := kernbase - uintptr(r.limits.PGSIZE)
	for _, a := range p.Oshm {
		if a.Index != -1 && a.VA != 0 && a.VA < lowest {
			lowest = a.VA
		}
	}
	return pgRoundDown(lowest-uintptr(size), r.limits.PGSIZE)
}

// Close implements shm_close: unmap (if mapped), free the PSA slot, and
// drop the object's reference count, freeing its pages once the last
// process detaches.
func (r *Registry) Close(p *ProcState, handle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.objects) || r.objects[handle].processCounter == 0 {
		return kernel.EINVAL
	}
	o := &r.objects[handle]

	idx := -1
	for i, a := range p.Oshm {
		if a.Index == handle {
			idx = i
			break
		}
	}
	if idx == -1 {
		return kernel.EINVAL
	}

	if va := p.Oshm[idx].VA; va != 0 {
		if err := p.PT.Unmap(va, o.size/r.limits.PGSIZE); err != nil {
			return err
		}
	}
	p.Oshm[idx] = Attachment{Index: -1}

	o.processCounter--
	if o.processCounter == 0 {
		if o.addresses != nil {
			if err := r.pages.Free(o.addresses); err != nil {
				return err
			}
		}
		*o = object{}
	}

	return nil
}

// Inherit implements the source's shmcpy: copy every live PSA entry from
// parent to child across fork, bumping each referenced object's process
// counter and re-establishing the same mapping in the child's page
// table.
func (r *Registry) Inherit(parent, child *ProcState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range parent.Oshm {
		if a.Index == -1 {
			continue
		}
		o := &r.objects[a.Index]
		o.processCounter++
		child.Oshm[i] = a

		if a.VA != 0 {
			writable := a.Flags&kernel.ShmRDWR != 0
			if err := child.PT.Map(a.VA, o.addresses, writable); err != nil {
				return err
			}
		}
	}
	return nil
}
