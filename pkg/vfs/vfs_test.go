package vfs

import (
	"testing"

	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/config"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	m, err := meta.Open("sqlite3://file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open meta: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	b, err := backing.New(t.TempDir())
	if err != nil {
		t.Fatalf("open backing: %v", err)
	}
	cfg := config.Default()
	cfg.AdminUID = 5000
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	s := New(m, b, cfg)
	if err := s.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func rootIno(t *testing.T, s *Service) meta.Ino {
	t.Helper()
	row, err := s.Meta.FindPath("/")
	if err != nil || row == nil {
		t.Fatalf("find root: %v", err)
	}
	return row.Ino
}

func gidPtr(n int64) *int64 { return &n }

func TestScenarioMkdirReaddir(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}

	entry, err := s.Mkdir(owner, root, "docs")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Type != meta.TypeDirectory || entry.Owner != 5001 || entry.Permissions != 0o755 || entry.Name != "docs" {
		t.Fatalf("unexpected mkdir entry: %+v", entry)
	}

	entries, err := s.Readdir(owner, root)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		if e.Name == "docs" {
			found = true
		}
	}
	if !found {
		t.Fatal("readdir should include the new docs entry")
	}
}

func TestScenarioCreateWriteRead(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}

	docs, err := s.Mkdir(owner, root, "docs")
	if err != nil {
		t.Fatal(err)
	}
	hello, err := s.Create(owner, docs.Ino, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Write(owner, hello.Ino, 0, []byte("ciao mondo"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Fatalf("expected 10 bytes written, got %d", n)
	}
	data, err := s.Read(owner, hello.Ino, 0, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ciao mondo" {
		t.Fatalf("read back %q", data)
	}
}

func TestScenarioPermissionDenied(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}
	stranger := Caller{UID: 7000, GID: gidPtr(8000)}
	admin := Caller{UID: 5000}

	docs, err := s.Mkdir(owner, root, "docs")
	if err != nil {
		t.Fatal(err)
	}
	hello, err := s.Create(owner, docs.Ino, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(owner, hello.Ino, 0, []byte("ciao mondo")); err != nil {
		t.Fatal(err)
	}

	zero := 0
	if _, err := s.SetAttr(owner, hello.Ino, SetAttrRequest{Perm: &zero}); err != nil {
		t.Fatal(err)
	}

	_, err = s.Read(stranger, hello.Ino, 0, 4096)
	rerr, ok := rfserr.As(err)
	if !ok || rerr.Code != rfserr.EACCES {
		t.Fatalf("expected EACCES for stranger, got %v", err)
	}

	data, err := s.Read(admin, hello.Ino, 0, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ciao mondo" {
		t.Fatalf("admin should still read content intact, got %q", data)
	}
}

func TestScenarioHardlinkUnlink(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}

	docs, err := s.Mkdir(owner, root, "docs")
	if err != nil {
		t.Fatal(err)
	}
	hello, err := s.Create(owner, docs.Ino, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(owner, hello.Ino, 0, []byte("ciao mondo")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Hardlink(owner, hello.Ino, docs.Ino, "alias"); err != nil {
		t.Fatal(err)
	}
	if err := s.Unlink(owner, docs.Ino, "hello.txt"); err != nil {
		t.Fatal(err)
	}
	data, err := s.Read(owner, hello.Ino, 0, 32)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ciao mondo" {
		t.Fatalf("content should survive while alias still references the file, got %q", data)
	}
}

func TestScenarioRenameAcrossDirectories(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}

	docs, err := s.Mkdir(owner, root, "docs")
	if err != nil {
		t.Fatal(err)
	}
	hello, err := s.Create(owner, docs.Ino, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Hardlink(owner, hello.Ino, docs.Ino, "alias"); err != nil {
		t.Fatal(err)
	}
	archive, err := s.Mkdir(owner, root, "archive")
	if err != nil {
		t.Fatal(err)
	}

	entry, err := s.Rename(owner, docs.Ino, "alias", archive.Ino, "saved.txt")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Path != "/archive/saved.txt" {
		t.Fatalf("expected path /archive/saved.txt, got %q", entry.Path)
	}

	_, err = s.Lookup(owner, docs.Ino, "alias")
	rerr, ok := rfserr.As(err)
	if !ok || rerr.Code != rfserr.ENOENT {
		t.Fatalf("expected ENOENT looking up the old name, got %v", err)
	}
}

func TestScenarioSymlinkReadlink(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}

	link, err := s.Symlink(owner, "/archive/saved.txt", root, "link")
	if err != nil {
		t.Fatal(err)
	}
	if link.Type != meta.TypeSymlink {
		t.Fatalf("expected symlink type, got %v", link.Type)
	}
	target, err := s.Readlink(owner, link.Ino)
	if err != nil {
		t.Fatal(err)
	}
	if target != "/archive/saved.txt" {
		t.Fatalf("readlink = %q", target)
	}
}

func TestRmdirRejectsNonEmptyDir(t *testing.T) {
	s := newTestService(t)
	root := rootIno(t, s)
	owner := Caller{UID: 5001, GID: gidPtr(6000)}

	docs, err := s.Mkdir(owner, root, "docs")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(owner, docs.Ino, "hello.txt"); err != nil {
		t.Fatal(err)
	}
	err = s.Rmdir(owner, root, "docs")
	rerr, ok := rfserr.As(err)
	if !ok || rerr.Code != rfserr.ENOTEMPTY {
		t.Fatalf("expected ENOTEMPTY, got %v", err)
	}
}
