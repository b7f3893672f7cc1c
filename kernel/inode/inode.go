// Package inode supplies the inode-cache contract that kernel/sysfile
// consumes (ialloc/iget/ilock/iunlock/iput/iupdate/readi/writei/namei/
// nameiparent/dirlink/dirlookup) and a concrete in-memory implementation
// so the syscall layer has something real to call into end to end.
package inode

import (
	"context"
	"fmt"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"
)

// Inode is the in-cache representation of a file or directory. Content
// holds either file bytes or, for directories, a packed sequence
// of encoded Dirent records — mirroring how xv6 stores directory entries
// as ordinary file content read via readi/writei.
type Inode struct {
	Dev   int32
	Inum  uint32
	Type  kernel.FileType
	Major int16
	Minor int16

	// mu is the sleep-lock analogue: callers must Ref.Lock before touching
	// Nlink/Size/Content and Ref.Unlock (or Ref.UnlockRelease) when done.
	mu syncutil.InvariantMutex

	Nlink   int16  // GUARDED_BY mu
	Content []byte // GUARDED_BY mu; Size is len(Content)

	clock timeutil.Clock
}

func (ip *Inode) checkInvariants() {
	if ip.Nlink < 0 {
		panic(fmt.Sprintf("inode %d: negative nlink %d", ip.Inum, ip.Nlink))
	}
}

// Size returns the inode's current content length.
func (ip *Inode) Size() int64 {
	return int64(len(ip.Content))
}

// Ref is a single acquired reference to a cached inode, matching the
// source's "struct inode *" as returned by iget/namei/nameiparent/ialloc.
// Every acquired Ref must be released via Release (which calls back into
// the owning MemCache's iput) on every exit path.
type Ref struct {
	ip    *Inode
	cache *MemCache
}

// Inode returns the underlying inode. Callers must hold the lock (via
// Lock) before reading or writing mutable fields.
func (r *Ref) Inode() *Inode { return r.ip }

// Lock acquires the inode's sleep-lock. May block.
func (r *Ref) Lock() { r.ip.mu.Lock() }

// Unlock releases the inode's sleep-lock without dropping the cache
// reference (iunlock).
func (r *Ref) Unlock() { r.ip.mu.Unlock() }

// Release drops the cache reference (iput), freeing the inode's blocks
// once Nlink and the cache refcount both hit zero.
func (r *Ref) Release(ctx context.Context) {
	r.cache.iput(ctx, r)
}

// UnlockRelease is the common iunlockput idiom: unlock then release.
func (r *Ref) UnlockRelease(ctx context.Context) {
	r.Unlock()
	r.Release(ctx)
}

// Cache is the inode-cache contract kernel/sysfile is written against.
// MemCache below is the only implementation shipped here, but sysfile
// never names it directly: the syscall layer consumes this contract
// without owning or knowing the concrete cache behind it.
type Cache interface {
	// IAlloc allocates a fresh inode of the given type on dev, returned
	// unlocked with Nlink == 0 and no content (ialloc); the caller locks it.
	IAlloc(ctx context.Context, dev int32, typ kernel.FileType) (*Ref, error)

	// ILock acquires the inode's sleep-lock (ilock). IUnlock/Release are
	// methods on Ref directly; ILock is here for symmetry with the
	// source's free functions operating on a bare pointer.
	// (Not used directly: callers use Ref.Lock/Unlock/Release.)

	// IUpdate writes the in-memory inode's metadata back (iupdate). In
	// this in-memory cache it is a no-op placeholder that preserves the
	// call-site discipline of the source: every Nlink/type mutation there
	// is followed by iupdate.
	IUpdate(ref *Ref)

	// ReadI/WriteI copy bytes between user-space-shaped buffers and the
	// inode's content at the given offset, returning the short count on
	// EOF the way readi/writei do.
	ReadI(ref *Ref, dst []byte, off int64) (int, error)
	WriteI(ref *Ref, src []byte, off int64) (int, error)

	// Namei resolves an absolute or cwd-relative path to a locked-free
	// Ref, or nil if it does not exist.
	Namei(ctx context.Context, cwd *Ref, path string) *Ref

	// NameiParent resolves the parent directory of path, returning it
	// along with the final path component's name, or nil if the parent
	// does not exist.
	NameiParent(ctx context.Context, cwd *Ref, path string) (dp *Ref, name string)

	// DirLink adds {name -> inum} to the (already-locked) directory dp.
	// Fails if name already exists or dp has no room and the cache is out
	// of backing space.
	DirLink(dp *Ref, name string, inum uint32) error

	// DirLookup finds name within the (already-locked) directory dp,
	// returning the referenced inode and its byte offset within dp.
	DirLookup(dp *Ref, name string) (ref *Ref, off int64, ok bool)

	// Root returns a fresh reference to the filesystem root directory.
	Root() *Ref

	// Dup acquires an additional cache reference to the same inode ref
	// already points at (idup), for fork's "cwd carries over" and similar
	// duplication needs.
	Dup(ref *Ref) *Ref
}
