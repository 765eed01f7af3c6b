package meta

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite3://file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateEntryAndFind(t *testing.T) {
	Convey("Given a freshly opened store", t, func() {
		s := openTestStore(t)
		// Convey re-runs this setup for every leaf; closing the store drops
		// the shared in-memory database so each pass starts empty.
		Reset(func() { _ = s.Close() })
		f := &File{Ino: "1", Type: TypeDirectory, Permissions: 0o755, OwnerUID: 5000}
		p := &Path{Path: "/", Ino: "1"}

		Convey("CreateEntry commits both rows atomically", func() {
			err := s.CreateEntry(f, p)
			So(err, ShouldBeNil)

			Convey("FindFileByIno returns the committed row", func() {
				got, err := s.FindFileByIno("1")
				So(err, ShouldBeNil)
				So(got, ShouldNotBeNil)
				So(got.Type, ShouldEqual, TypeDirectory)
			})

			Convey("FindPath returns the committed binding", func() {
				got, err := s.FindPath("/")
				So(err, ShouldBeNil)
				So(got, ShouldNotBeNil)
				So(got.Ino, ShouldEqual, "1")
			})
		})
	})
}

func TestRemoveLastLinkDeletesFileWhenUnreferenced(t *testing.T) {
	s := openTestStore(t)
	f := &File{Ino: "2", Type: TypeRegular, Permissions: 0o644, OwnerUID: 1}
	p := &Path{Path: "/a.txt", Ino: "2"}
	if err := s.CreateEntry(f, p); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveLastLink("/a.txt", "2"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.FindPath("/a.txt"); got != nil {
		t.Fatal("path row should be gone")
	}
	if got, _ := s.FindFileByIno("2"); got != nil {
		t.Fatal("file row should be gone once its last path is removed")
	}
}

func TestRemoveLastLinkKeepsFileWhenOtherPathsRemain(t *testing.T) {
	s := openTestStore(t)
	f := &File{Ino: "3", Type: TypeRegular, Permissions: 0o644, OwnerUID: 1}
	p1 := &Path{Path: "/a.txt", Ino: "3"}
	if err := s.CreateEntry(f, p1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddPath(&Path{Path: "/b.txt", Ino: "3"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveLastLink("/a.txt", "3"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.FindFileByIno("3"); got == nil {
		t.Fatal("file row should survive while another path still references it")
	}
}

func TestRenamePath(t *testing.T) {
	s := openTestStore(t)
	f := &File{Ino: "4", Type: TypeRegular, Permissions: 0o644, OwnerUID: 1}
	p := &Path{Path: "/old.txt", Ino: "4"}
	if err := s.CreateEntry(f, p); err != nil {
		t.Fatal(err)
	}
	if err := s.RenamePath("/old.txt", "/new.txt", "4"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.FindPath("/old.txt"); got != nil {
		t.Fatal("old path should be gone after rename")
	}
	got, err := s.FindPath("/new.txt")
	if err != nil || got == nil || got.Ino != "4" {
		t.Fatalf("new path binding missing or wrong: %v %v", got, err)
	}
}

func TestAddGroupMemberSetsPrimaryGID(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateUser(100, "hash"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddGroupMember(100, 200); err != nil {
		t.Fatal(err)
	}
	u, err := s.FindUser(100)
	if err != nil || u == nil {
		t.Fatalf("find user: %v %v", u, err)
	}
	gid, ok := u.GroupGIDOf()
	if !ok || gid != 200 {
		t.Fatalf("expected primary gid 200, got %d ok=%v", gid, ok)
	}
}

func TestChildPathsOf(t *testing.T) {
	s := openTestStore(t)
	root := &File{Ino: "1", Type: TypeDirectory, Permissions: 0o755, OwnerUID: 5000}
	if err := s.CreateEntry(root, &Path{Path: "/", Ino: "1"}); err != nil {
		t.Fatal(err)
	}
	docs := &File{Ino: "2", Type: TypeDirectory, Permissions: 0o755, OwnerUID: 5000}
	if err := s.CreateEntry(docs, &Path{Path: "/docs", Ino: "2"}); err != nil {
		t.Fatal(err)
	}
	hello := &File{Ino: "3", Type: TypeRegular, Permissions: 0o644, OwnerUID: 5000}
	if err := s.CreateEntry(hello, &Path{Path: "/docs/hello.txt", Ino: "3"}); err != nil {
		t.Fatal(err)
	}
	children, err := s.ChildPathsOf("/")
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0] != "/docs" {
		t.Fatalf("ChildPathsOf(/) = %v, want [/docs]", children)
	}
	children, err = s.ChildPathsOf("/docs")
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0] != "/docs/hello.txt" {
		t.Fatalf("ChildPathsOf(/docs) = %v, want [/docs/hello.txt]", children)
	}
}
