package vfs

import (
	"strconv"

	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/meta"
)

// Entry is the descriptor assembled fresh from BackingStore stat + the
// MetaStore row after every successful operation (spec §6).
type Entry struct {
	Ino         meta.Ino
	Name        string
	Path        string
	Type        meta.FileType
	Permissions int
	Owner       int64
	Group       *int64
	Size        uint64
	Atime       int64
	Mtime       int64
	Ctime       int64
	Btime       int64
	Nlinks      int
}

// SizeString renders Size in the wire's "u64-as-string" form.
func (e *Entry) SizeString() string { return strconv.FormatUint(e.Size, 10) }

func buildEntry(f *meta.File, path string, st *backing.Stat) *Entry {
	return &Entry{
		Ino:         f.Ino,
		Name:        basenameOf(path),
		Path:        path,
		Type:        f.Type,
		Permissions: f.Permissions,
		Owner:       f.OwnerUID,
		Group:       f.GroupGID,
		Size:        uint64(st.Size),
		Atime:       st.Atime,
		Mtime:       st.Mtime,
		Ctime:       st.Ctime,
		Btime:       st.Btime,
		Nlinks:      int(st.Nlink),
	}
}

func basenameOf(p string) string {
	if p == "/" {
		return "/"
	}
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
