package inode

import (
	"context"
	"io"
	"strings"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// MemCache is an in-memory stand-in for the disk-backed inode cache:
// inodes are entries in a slice indexed by inum, directories store their
// children as encoded Dirent records in their own Content, and namei/
// nameiparent walk that tree by splitting on "/" the way the kernel's
// path-resolution code does. The real implementation backs this onto
// disk blocks through the buffer cache; this one keeps everything
// resident so the syscall layer has something concrete to exercise.
type MemCache struct {
	mu syncutil.InvariantMutex

	dev    int32
	dirsiz int
	clock  timeutil.Clock

	inodes   []*Inode // GUARDED_BY mu; index 0 unused, root at index 1
	refcount []int    // GUARDED_BY mu; cache refcount per inum
}

// NewMemCache creates an empty filesystem with a single root directory
// (inum 1, matching xv6's ROOTINO) whose "." and ".." both point at
// itself.
func NewMemCache(dev int32, dirsiz int, clock timeutil.Clock) *MemCache {
	c := &MemCache{dev: dev, dirsiz: dirsiz, clock: clock}
	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)

	c.inodes = append(c.inodes, nil) // inum 0 is never valid
	root := c.newInode(kernel.TypeDir)
	root.Inum = 1
	root.Nlink = 1
	c.inodes = append(c.inodes, root)
	c.refcount = append(c.refcount, 0, 0)

	rootRef := &Ref{ip: root, cache: c}
	mustLink(c, rootRef, ".", root.Inum)
	mustLink(c, rootRef, "..", root.Inum)

	return c
}

func mustLink(c *MemCache, dp *Ref, name string, inum uint32) {
	if err := c.DirLink(dp, name, inum); err != nil {
		panic("inode: bootstrapping root directory: " + err.Error())
	}
}

func (c *MemCache) checkInvariants() {
	if len(c.inodes) != len(c.refcount) {
		panic("inode: inodes/refcount length mismatch")
	}
}

func (c *MemCache) newInode(typ kernel.FileType) *Inode {
	ip := &Inode{
		Dev:  c.dev,
		Type: typ,
		clock: c.clock,
	}
	ip.mu = syncutil.NewInvariantMutex(ip.checkInvariants)
	return ip
}

// EXCLUSIVE_LOCKS_REQUIRED(c.mu)
func (c *MemCache) refFor(ip *Inode) *Ref {
	c.refcount[ip.Inum]++
	return &Ref{ip: ip, cache: c}
}

func (c *MemCache) IAlloc(ctx context.Context, dev int32, typ kernel.FileType) (*Ref, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ip := c.newInode(typ)
	ip.Inum = uint32(len(c.inodes))
	c.inodes = append(c.inodes, ip)
	c.refcount = append(c.refcount, 0)

	return c.refFor(ip), nil
}

func (c *MemCache) IUpdate(ref *Ref) {
	// No-op: the in-memory inode is always up to date. Present so call
	// sites match the source's ilock/.../iupdate/iunlock discipline.
}

func (c *MemCache) ReadI(ref *Ref, dst []byte, off int64) (int, error) {
	ip := ref.ip
	if off > ip.Size() {
		return 0, io.EOF
	}
	n := copy(dst, ip.Content[off:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

func (c *MemCache) WriteI(ref *Ref, src []byte, off int64) (int, error) {
	ip := ref.ip
	end := off + int64(len(src))
	if end > ip.Size() {
		padding := make([]byte, end-ip.Size())
		ip.Content = append(ip.Content, padding...)
	}
	n := copy(ip.Content[off:end], src)
	return n, nil
}

func (c *MemCache) Root() *Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refFor(c.inodes[1])
}

// Dup implements idup: one more cache reference to ref's inode.
func (c *MemCache) Dup(ref *Ref) *Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refFor(ref.ip)
}

// Namei and NameiParent below implement the same split-and-walk the
// kernel's path code performs; neither locks intermediate directories
// across the full walk (only the final directory is returned locked, by
// the caller's own Lock, following a strict parent-before-child order).

func (c *MemCache) Namei(ctx context.Context, cwd *Ref, path string) *Ref {
	dp, _ := c.walk(ctx, cwd, path, true)
	return dp
}

func (c *MemCache) NameiParent(ctx context.Context, cwd *Ref, path string) (*Ref, string) {
	dp, name := c.walk(ctx, cwd, path, false)
	if name == "" {
		if dp != nil {
			dp.Release(ctx)
		}
		return nil, ""
	}
	return dp, name
}

// walk resolves all but (if !includeLast) the final path component,
// returning the resulting directory reference and, for the !includeLast
// case, the final component's name. The returned name is always "" when
// includeLast is true (the full path was already resolved to its target).
func (c *MemCache) walk(ctx context.Context, cwd *Ref, path string, includeLast bool) (*Ref, string) {
	c.mu.Lock()
	start := c.inodes[1]
	if len(path) > 0 && path[0] != '/' && cwd != nil {
		start = cwd.ip
	}
	c.refcount[start.Inum]++
	cur := &Ref{ip: start, cache: c}
	c.mu.Unlock()

	parts := splitPath(path)

	for i, part := range parts {
		last := i == len(parts)-1
		if last && !includeLast {
			return cur, part
		}

		cur.Lock()
		if cur.ip.Type != kernel.TypeDir {
			cur.UnlockRelease(ctx)
			return nil, ""
		}
		next, _, ok := c.DirLookup(cur, part)
		cur.UnlockRelease(ctx)
		if !ok {
			return nil, ""
		}
		cur = next
	}

	return cur, ""
}

func splitPath(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *MemCache) DirLink(dp *Ref, name string, inum uint32) error {
	ip := dp.ip
	sz := Size(c.dirsiz)
	free := int64(-1)
	for off := int64(0); off < ip.Size(); off += int64(sz) {
		d := Decode(ip.Content[off:off+int64(sz)], c.dirsiz)
		if d.Inum == 0 {
			if free < 0 {
				free = off
			}
			continue
		}
		if d.Name == name {
			return kernel.EEXIST
		}
	}
	rec := Encode(Dirent{Inum: uint16(inum), Name: name}, c.dirsiz)
	if free >= 0 {
		copy(ip.Content[free:free+int64(sz)], rec)
		return nil
	}
	ip.Content = append(ip.Content, rec...)
	return nil
}

func (c *MemCache) DirLookup(dp *Ref, name string) (*Ref, int64, bool) {
	ip := dp.ip
	sz := Size(c.dirsiz)
	for off := int64(0); off < ip.Size(); off += int64(sz) {
		d := Decode(ip.Content[off:off+int64(sz)], c.dirsiz)
		if d.Inum != 0 && d.Name == name {
			c.mu.Lock()
			child := c.refFor(c.inodes[d.Inum])
			c.mu.Unlock()
			return child, off, true
		}
	}
	return nil, 0, false
}

// iput drops a cache reference, freeing the inode's slot (not its inum,
// which is never reused, mirroring the source's choice to let ialloc just
// scan forward) once both Nlink and the cache refcount reach zero.
func (c *MemCache) iput(ctx context.Context, ref *Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inum := ref.ip.Inum
	c.refcount[inum]--
	if c.refcount[inum] < 0 {
		panic("inode: refcount underflow")
	}

	ref.Lock()
	nlink := ref.ip.Nlink
	ref.Unlock()

	if c.refcount[inum] == 0 && nlink == 0 {
		c.inodes[inum].Content = nil
	}
}
