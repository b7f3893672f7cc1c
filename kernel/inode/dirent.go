package inode

// Dirent is the in-memory form of the on-disk directory-entry record: a
// fixed-size {inum, name} pair. An entry with Inum == 0 is free.
// Encode/Decode give the fixed-size byte layout so isDirEmpty-style scans
// in kernel/sysfile can walk a
// directory's raw contents exactly the way the source's isdirempty reads
// sizeof(struct dirent) records via readi.
type Dirent struct {
	Inum uint16
	Name string
}

// Size returns the on-disk size of a dirent record for the given DIRSIZ.
func Size(dirsiz int) int {
	return 2 + dirsiz
}

// Encode renders d as a fixed-size record. Name is truncated to dirsiz
// bytes if longer (matching the source's fixed char name[DIRSIZ]).
func Encode(d Dirent, dirsiz int) []byte {
	buf := make([]byte, Size(dirsiz))
	buf[0] = byte(d.Inum)
	buf[1] = byte(d.Inum >> 8)
	name := d.Name
	if len(name) > dirsiz {
		name = name[:dirsiz]
	}
	copy(buf[2:], name)
	return buf
}

// Decode parses a fixed-size record previously produced by Encode.
func Decode(buf []byte, dirsiz int) Dirent {
	inum := uint16(buf[0]) | uint16(buf[1])<<8
	nameBytes := buf[2 : 2+dirsiz]
	n := 0
	for n < len(nameBytes) && nameBytes[n] != 0 {
		n++
	}
	return Dirent{Inum: inum, Name: string(nameBytes[:n])}
}
