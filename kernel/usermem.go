package kernel

// UserMemory stands in for a process's address space (xv6's pgdir plus the
// fetchint/fetchstr/walkpgdir family). A real port to a process with its own
// page table would walk it; kernel/memkernel's FlatUserMemory models the
// address space as a bounds-checked byte arena instead, since this module
// has no MMU of its own to drive. kernel/shm is the one place page-table
// edits are still simulated directly, for shm_map's VA bookkeeping.
type UserMemory interface {
	// ValidRange reports whether [base, base+n) lies entirely within the
	// address space. A zero-length range at any in-bounds base is valid.
	ValidRange(base uintptr, n int) bool

	// CopyIn copies len(dst) bytes starting at base into dst. It fails with
	// EFAULT if the range is not valid.
	CopyIn(dst []byte, base uintptr) error

	// CopyOut copies src into the address space starting at base. It fails
	// with EFAULT if the range is not valid.
	CopyOut(base uintptr, src []byte) error

	// CopyInString reads a NUL-terminated string starting at base, scanning
	// at most max bytes (inclusive of the terminator). It fails with EFAULT
	// if no NUL is found within max bytes or any scanned byte is out of
	// range.
	CopyInString(base uintptr, max int) (string, error)

	// CopyInUintptr reads a single machine word (a user pointer or integer
	// stored by value) at base. Used to walk argv vectors in sys_exec.
	CopyInUintptr(base uintptr) (uintptr, error)
}
