// Package shm implements the named shared-memory registry: shm_open,
// shm_trunc, shm_map, shm_close and fork inheritance. Backing pages are
// provided by golang.org/x/sys/unix the way other Go projects reach for
// platform syscalls when the standard library has no equivalent.
package shm

// Page is one physical page of shm backing storage: PGSIZE bytes shared
// by every PageTable mapping that points at it — the Go analogue of an
// entry in shared_memory[s].addresses.
type Page struct {
	Bytes []byte
}

// PageAllocator is the kalloc/kfree analogue. unixPageAllocator
// (pages_linux.go) and arenaPageAllocator (pages_portable.go) are the two
// implementations shipped here.
type PageAllocator interface {
	Alloc(n int) ([]*Page, error)
	Free(pages []*Page) error
}

// object is the Go form of the source's "struct shm_o": a named,
// page-granular, reference-counted segment. An object with
// processCounter == 0 must have size == 0 and no backing pages.
type object struct {
	name           string
	size           int
	addresses      []*Page
	processCounter int
}

// maxNameLen bounds shm names the way the source's fixed char name[100]
// does: a bounded string, at most 100 bytes, null-terminated.
const maxNameLen = 100

func boundName(name string) string {
	if len(name) > maxNameLen-1 {
		return name[:maxNameLen-1]
	}
	return name
}
