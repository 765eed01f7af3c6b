// Package backing is a thin wrapper over the host filesystem rooted at a
// fixed directory. Every exported operation maps host error codes into the
// rfserr taxonomy of spec §7; every lstat used anywhere in the core comes
// from this package (spec §4.3).
package backing

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
	"golang.org/x/sys/unix"
)

// Store wraps the host filesystem under Root.
type Store struct {
	Root string
	lock *flock.Flock
}

// New returns a Store rooted at root, creating it if it does not exist, and
// takes an exclusive advisory lock on a sibling lockfile to guard against a
// second server process managing the same tree concurrently. The lockfile
// lives outside root itself so it never shows up as a spurious entry when
// the tracked tree is listed (every backing entry under root is expected
// to have a metadata row).
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, rfserr.Wrap(rfserr.EIO, err)
	}
	lockPath := filepath.Clean(root) + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, rfserr.Wrap(rfserr.EIO, err)
	}
	if !locked {
		return nil, rfserr.New(rfserr.EIO, "root %q is already locked by another server process", root)
	}
	return &Store{Root: root, lock: lock}, nil
}

// Close releases the exclusive lock on Root.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Stat is the subset of lstat(2) results the core needs. Ino is wide
// enough to hold any 64-bit host inode value. All timestamps are in
// milliseconds since the epoch. The host does not track a true creation
// time, so Btime mirrors Ctime (closest available approximation).
type Stat struct {
	Ino   uint64
	Size  int64
	Mode  os.FileMode
	Nlink uint32
	Atime int64
	Mtime int64
	Ctime int64
	Btime int64
}

// mapErr classifies a host I/O failure into the spec §7 taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		return rfserr.Wrap(rfserr.ENOENT, err)
	case errors.Is(err, syscall.ENOTEMPTY):
		return rfserr.Wrap(rfserr.ENOTEMPTY, err)
	case errors.Is(err, os.ErrExist):
		return rfserr.Wrap(rfserr.EEXIST, err)
	case errors.Is(err, syscall.ENOTDIR):
		return rfserr.Wrap(rfserr.ENOTDIR, err)
	case errors.Is(err, syscall.EISDIR):
		return rfserr.Wrap(rfserr.EISDIR, err)
	case errors.Is(err, syscall.EINVAL):
		return rfserr.Wrap(rfserr.EINVAL, err)
	default:
		var perr *os.PathError
		if errors.As(err, &perr) {
			switch perr.Err {
			case syscall.ENOTEMPTY:
				return rfserr.Wrap(rfserr.ENOTEMPTY, err)
			case syscall.ENOTDIR:
				return rfserr.Wrap(rfserr.ENOTDIR, err)
			case syscall.EISDIR:
				return rfserr.Wrap(rfserr.EISDIR, err)
			case syscall.EEXIST:
				return rfserr.Wrap(rfserr.EEXIST, err)
			case syscall.ENOENT:
				return rfserr.Wrap(rfserr.ENOENT, err)
			}
		}
		return rfserr.Wrap(rfserr.EIO, err)
	}
}

// Mkdir creates a directory at path.
func (s *Store) Mkdir(path string) error {
	return mapErr(os.Mkdir(path, 0o755))
}

// Rmdir removes an empty directory.
func (s *Store) Rmdir(path string) error {
	return mapErr(os.Remove(path))
}

// WriteFileExclusive creates path and writes data to it, failing with
// EEXIST if the path already exists.
func (s *Store) WriteFileExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return mapErr(err)
	}
	defer f.Close()
	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

// OpenReadWrite opens path for reading and writing without truncating it.
func (s *Store) OpenReadWrite(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

// Read reads up to length bytes from path starting at offset at. Offsets
// at or beyond EOF return zero bytes, not an error.
func (s *Store) Read(path string, at int64, length int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mapErr(err)
	}
	defer f.Close()
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, at)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, mapErr(err)
	}
	return buf[:n], nil
}

// Write writes bytes to path at the given offset without truncating the
// file; writing past the current size extends it, zero-filling the gap
// (host behavior).
func (s *Store) Write(path string, at int64, data []byte) (int, error) {
	f, err := s.OpenReadWrite(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := f.WriteAt(data, at)
	if err != nil {
		return n, mapErr(err)
	}
	return n, nil
}

// Truncate changes the size of the file at path.
func (s *Store) Truncate(path string, size int64) error {
	return mapErr(os.Truncate(path, size))
}

// Rename moves oldpath to newpath.
func (s *Store) Rename(oldpath, newpath string) error {
	return mapErr(os.Rename(oldpath, newpath))
}

// Unlink removes a regular file, symlink, or hardlink entry.
func (s *Store) Unlink(path string) error {
	return mapErr(os.Remove(path))
}

// Lstat stats path without following a trailing symlink, reporting a
// 64-bit inode number.
func (s *Store) Lstat(path string) (*Stat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return nil, mapErr(err)
	}
	ctimeMs := st.Ctim.Sec*1000 + st.Ctim.Nsec/1e6
	return &Stat{
		Ino:   st.Ino,
		Size:  st.Size,
		Mode:  os.FileMode(st.Mode) & os.ModePerm,
		Nlink: uint32(st.Nlink),
		Atime: st.Atim.Sec*1000 + st.Atim.Nsec/1e6,
		Mtime: st.Mtim.Sec*1000 + st.Mtim.Nsec/1e6,
		Ctime: ctimeMs,
		Btime: ctimeMs,
	}, nil
}

// Symlink creates a symlink at linkpath pointing at the opaque target
// string (not validated or resolved by this package).
func (s *Store) Symlink(target, linkpath string) error {
	return mapErr(os.Symlink(target, linkpath))
}

// Link creates a hardlink at linkpath pointing at the existing entry at
// target.
func (s *Store) Link(target, linkpath string) error {
	return mapErr(os.Link(target, linkpath))
}

// Readlink returns the target of the symlink at path.
func (s *Store) Readlink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", mapErr(err)
	}
	return target, nil
}

// Readdir returns the names of all entries directly inside path.
func (s *Store) Readdir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, mapErr(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// StatFS reports total and available space of the filesystem holding Root.
func (s *Store) StatFS() (total, available uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(s.Root, &st); err != nil {
		return 0, 0, mapErr(err)
	}
	return st.Blocks * uint64(st.Bsize), st.Bavail * uint64(st.Bsize), nil
}

// InoOf is a small convenience used by the core to convert a host Stat
// into the MetaStore's string inode form.
func InoOf(st *Stat) meta.Ino { return meta.FormatIno(st.Ino) }
