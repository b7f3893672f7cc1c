package file

import (
	"context"
	"io"
	"sync"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// pipe wraps a single in-memory FIFO shared by a PipeFile's two endpoints.
// Grounded on Go's stdlib io.Pipe the way the source grounds FD_PIPE on a
// small ring buffer in pipe.c: io.Pipe already gives exactly the blocking,
// unbuffered byte-stream semantics pipealloc needs.
type pipe struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu        sync.Mutex
	readOpen  bool
	writeOpen bool
}

// PipeFile is the FD_PIPE variant: one endpoint (read or write) of a pipe
// pair. PipeAlloc returns the two endpoints as a pair so sys_pipe can
// install them into two descriptor slots.
type PipeFile struct {
	p        *pipe
	readable bool
	writable bool
	refcount int
	mu       sync.Mutex
}

// PipeAlloc allocates a pipe pair: a read-only endpoint and a write-only
// endpoint sharing one FIFO (pipealloc).
func PipeAlloc() (rf, wf *PipeFile, err error) {
	r, w := io.Pipe()
	p := &pipe{r: r, w: w, readOpen: true, writeOpen: true}
	rf = &PipeFile{p: p, readable: true, refcount: 1}
	wf = &PipeFile{p: p, writable: true, refcount: 1}
	return rf, wf, nil
}

func (f *PipeFile) IncRef() kernel.FileObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refcount++
	return f
}

func (f *PipeFile) Close(ctx context.Context) error {
	f.mu.Lock()
	f.refcount--
	last := f.refcount == 0
	f.mu.Unlock()

	if !last {
		return nil
	}

	f.p.mu.Lock()
	defer f.p.mu.Unlock()

	if f.readable {
		f.p.readOpen = false
		return f.p.r.Close()
	}
	f.p.writeOpen = false
	return f.p.w.Close()
}

func (f *PipeFile) Read(ctx context.Context, p []byte) (int, error) {
	if !f.readable {
		return 0, kernel.EBADF
	}
	n, err := f.p.r.Read(p)
	if err == io.EOF || err == io.ErrClosedPipe {
		return n, nil
	}
	return n, err
}

func (f *PipeFile) Write(ctx context.Context, p []byte) (int, error) {
	if !f.writable {
		return 0, kernel.EBADF
	}
	return f.p.w.Write(p)
}

func (f *PipeFile) Stat(ctx context.Context) (kernel.Stat, error) {
	return kernel.Stat{Type: kernel.TypeDev}, nil
}

func (f *PipeFile) Readable() bool { return f.readable }
func (f *PipeFile) Writable() bool { return f.writable }
