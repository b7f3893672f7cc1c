package memkernel

import (
	"encoding/binary"
	"sync"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// FlatUserMemory models a process's address space as a bounds-checked
// byte arena (kernel.UserMemory's doc comment names this as the
// simplification this module makes in place of walking a real page
// table). It is independent of shm's SimPageTable: argv/stack/heap
// addresses and shm segment VAs are disjoint ranges in a real xv6
// process, and keeping them in separate simulations here mirrors that
// rather than conflating "ordinary memory" with "shared memory".
type FlatUserMemory struct {
	mu  sync.Mutex
	mem []byte
}

// NewFlatUserMemory allocates an address space of the given size.
func NewFlatUserMemory(size int) *FlatUserMemory {
	return &FlatUserMemory{mem: make([]byte, size)}
}

func (m *FlatUserMemory) ValidRange(base uintptr, n int) bool {
	if n < 0 {
		return false
	}
	end := base + uintptr(n)
	if end < base {
		return false // overflow
	}
	return int(end) <= len(m.mem)
}

func (m *FlatUserMemory) CopyIn(dst []byte, base uintptr) error {
	if !m.ValidRange(base, len(dst)) {
		return kernel.EFAULT
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(dst, m.mem[base:])
	return nil
}

func (m *FlatUserMemory) CopyOut(base uintptr, src []byte) error {
	if !m.ValidRange(base, len(src)) {
		return kernel.EFAULT
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.mem[base:], src)
	return nil
}

func (m *FlatUserMemory) CopyInString(base uintptr, max int) (string, error) {
	if !m.ValidRange(base, 0) {
		return "", kernel.EFAULT
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := max
	if remaining := len(m.mem) - int(base); remaining < limit {
		limit = remaining
	}
	for i := 0; i < limit; i++ {
		if m.mem[int(base)+i] == 0 {
			return string(m.mem[int(base) : int(base)+i]), nil
		}
	}
	return "", kernel.EFAULT
}

func (m *FlatUserMemory) CopyInUintptr(base uintptr) (uintptr, error) {
	var buf [8]byte
	if err := m.CopyIn(buf[:], base); err != nil {
		return 0, err
	}
	return uintptr(binary.LittleEndian.Uint64(buf[:])), nil
}

// CopyOutUintptr writes a single machine word at base. Not part of
// kernel.UserMemory (no syscall this module implements needs it), but
// useful for tests that build an argv vector to feed to exec.
func (m *FlatUserMemory) CopyOutUintptr(base uintptr, v uintptr) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return m.CopyOut(base, buf[:])
}
