package pathcodec

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"/", "/", false},
		{"", "/", false},
		{"docs/hello.txt", "/docs/hello.txt", false},
		{"//docs//hello.txt", "/docs/hello.txt", false},
		{"docs\\hello.txt", "/docs/hello.txt", false},
		{"./docs/./hello.txt", "/docs/hello.txt", false},
		{"../etc/passwd", "", true},
		{"docs/../../etc", "", true},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Normalize(%q) = %q, want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestToFsPath(t *testing.T) {
	c := New("/srv/rfs/data")
	if got, want := c.ToFsPath("/"), "/srv/rfs/data"; got != want {
		t.Errorf("ToFsPath(/) = %q, want %q", got, want)
	}
	if got, want := c.ToFsPath("/docs/hello.txt"), "/srv/rfs/data/docs/hello.txt"; got != want {
		t.Errorf("ToFsPath = %q, want %q", got, want)
	}
}

func TestChildPathOf(t *testing.T) {
	if got, err := ChildPathOf("/", "docs"); err != nil || got != "/docs" {
		t.Errorf("ChildPathOf(/, docs) = %q, %v", got, err)
	}
	if got, err := ChildPathOf("/docs", "hello.txt"); err != nil || got != "/docs/hello.txt" {
		t.Errorf("ChildPathOf(/docs, hello.txt) = %q, %v", got, err)
	}
	for _, bad := range []string{"", ".", "..", "a/b"} {
		if _, err := ChildPathOf("/docs", bad); err == nil {
			t.Errorf("ChildPathOf(/docs, %q) expected error", bad)
		}
	}
}

func TestBasename(t *testing.T) {
	if got := Basename("/"); got != "/" {
		t.Errorf("Basename(/) = %q", got)
	}
	if got := Basename("/docs/hello.txt"); got != "hello.txt" {
		t.Errorf("Basename = %q", got)
	}
}
