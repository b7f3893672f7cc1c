package kernel

import "context"

// Syscall is one dispatch-table entry: given the calling process's
// argument gate, it decodes its own arguments the way each sys_* function
// in the source fetches its own argn()s, and returns either a success
// value or a non-nil Errno. A handler that itself needs a log transaction
// opens and closes it; Dispatch does not open one on a handler's behalf.
type Syscall func(ctx context.Context, gate ArgGate) (int, error)

// Server is the dispatch boundary every syscall funnels through: it
// resolves a syscall name against its registered Syscall table entry and
// collapses whatever Errno the handler returns to -1, logging the
// underlying Errno for debugging first.
type Server struct {
	table map[string]Syscall
}

// NewServer builds a dispatch table from name to Syscall. kernel cannot
// import kernel/sysfile or kernel/shm directly (both import kernel for
// Errno, FileObject and UserMemory), so kernel/memkernel supplies the
// concrete table, closing over its sysfile.FS, shm.Registry and
// per-process state the same way it already supplies UserMemory and
// PageTable implementations those packages are written against.
func NewServer(table map[string]Syscall) *Server {
	return &Server{table: table}
}

// Dispatch routes name to its registered Syscall and collapses any Errno
// it returns into a literal -1, logging the error for debugging
// beforehand. An unregistered name is reported as ENOSYS, also collapsed
// to -1.
func (s *Server) Dispatch(ctx context.Context, name string, gate ArgGate) int {
	call, ok := s.table[name]
	if !ok {
		getLogger().Printf("%s: %v", name, ENOSYS)
		return -1
	}

	n, err := call(ctx, gate)
	if err != nil {
		getLogger().Printf("%s: %v", name, err)
		return -1
	}
	return n
}
