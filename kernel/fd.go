package kernel

// FdAlloc scans ofile[0..len(ofile)) and installs f in the lowest empty
// slot, returning that index. On success it takes ownership of the
// caller's reference on f: the caller must not also Close or otherwise
// release it. Returns -1, EMFILE if no slot is free.
func FdAlloc(ofile []FileObject, f FileObject) (int, error) {
	for fd := range ofile {
		if ofile[fd] == nil {
			ofile[fd] = f
			return fd, nil
		}
	}
	return -1, EMFILE
}

// CloseFd clears ofile[fd] and returns the FileObject that was installed
// there so the caller can release its reference. It is the caller's job to
// call Close on the returned object (mirroring sys_close, which clears the
// slot before calling fileclose).
func CloseFd(ofile []FileObject, fd int) (FileObject, error) {
	if fd < 0 || fd >= len(ofile) || ofile[fd] == nil {
		return nil, EBADF
	}
	f := ofile[fd]
	ofile[fd] = nil
	return f, nil
}
