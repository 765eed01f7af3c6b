package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/config"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/vfs"
)

func newTestRouter(t *testing.T) (router *mux.Router, rootIno string) {
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
	svc := vfs.New(m, b, cfg)
	if err := svc.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	row, err := m.FindPath("/")
	if err != nil || row == nil {
		t.Fatalf("find root path: %v", err)
	}
	return NewRouter(svc, cfg), row.Ino
}

func gid(n int64) *int64 { return &n }

func asUser(r *http.Request, uid int64, g *int64) *http.Request {
	return WithUser(r, vfs.Caller{UID: uid, GID: g})
}

func do(t *testing.T, router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMkdirAndReaddirOverHTTP(t *testing.T) {
	router, root := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/directories/"+root+"/entries", nil)
	rec := do(t, router, asUser(req, 5000, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing root, got %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/directories/"+root+"/dirs/docs", nil)
	rec = do(t, router, asUser(req, 5001, gid(6000)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("mkdir: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created entryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Name != "docs" || created.Owner != 5001 || created.Permissions != 0o755 {
		t.Fatalf("unexpected mkdir response: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/directories/"+root+"/entries", nil)
	rec = do(t, router, asUser(req, 5001, gid(6000)))
	if rec.Code != http.StatusOK {
		t.Fatalf("readdir: expected 200, got %d", rec.Code)
	}
	var list []entryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range list {
		if e.Name == "docs" {
			found = true
		}
	}
	if !found {
		t.Fatalf("readdir response missing docs entry: %+v", list)
	}
}

func TestCreateWriteReadOverHTTP(t *testing.T) {
	router, root := newTestRouter(t)
	owner := func(r *http.Request) *http.Request { return asUser(r, 5001, gid(6000)) }

	req := httptest.NewRequest(http.MethodPost, "/api/directories/"+root+"/dirs/docs", nil)
	rec := do(t, router, owner(req))
	var docs entryJSON
	_ = json.Unmarshal(rec.Body.Bytes(), &docs)

	req = httptest.NewRequest(http.MethodPost, "/api/directories/"+docs.Ino+"/files/hello.txt", nil)
	rec = do(t, router, owner(req))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var hello entryJSON
	_ = json.Unmarshal(rec.Body.Bytes(), &hello)

	req = httptest.NewRequest(http.MethodPut, "/api/files/"+hello.Ino+"?offset=0", bytes.NewBufferString("ciao mondo"))
	rec = do(t, router, owner(req))
	if rec.Code != http.StatusOK {
		t.Fatalf("write: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var written bytesWrittenResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &written)
	if written.Bytes != 10 {
		t.Fatalf("expected 10 bytes written, got %d", written.Bytes)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/files/"+hello.Ino+"?offset=0&size=4096", nil)
	rec = do(t, router, owner(req))
	if rec.Code != http.StatusOK {
		t.Fatalf("read: expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ciao mondo" {
		t.Fatalf("read back %q", rec.Body.String())
	}
}

func TestPermissionDeniedOverHTTP(t *testing.T) {
	router, root := newTestRouter(t)
	owner := func(r *http.Request) *http.Request { return asUser(r, 5001, gid(6000)) }
	stranger := func(r *http.Request) *http.Request { return asUser(r, 7000, gid(8000)) }
	admin := func(r *http.Request) *http.Request { return asUser(r, 5000, nil) }

	req := httptest.NewRequest(http.MethodPost, "/api/directories/"+root+"/dirs/docs", nil)
	rec := do(t, router, owner(req))
	var docs entryJSON
	_ = json.Unmarshal(rec.Body.Bytes(), &docs)

	req = httptest.NewRequest(http.MethodPost, "/api/directories/"+docs.Ino+"/files/hello.txt", nil)
	rec = do(t, router, owner(req))
	var hello entryJSON
	_ = json.Unmarshal(rec.Body.Bytes(), &hello)

	req = httptest.NewRequest(http.MethodPut, "/api/files/"+hello.Ino+"?offset=0", bytes.NewBufferString("ciao mondo"))
	do(t, router, owner(req))

	body, _ := json.Marshal(setAttrRequest{Perm: intPtr(0)})
	req = httptest.NewRequest(http.MethodPatch, "/api/files/"+hello.Ino+"/attributes", bytes.NewReader(body))
	rec = do(t, router, owner(req))
	if rec.Code != http.StatusOK {
		t.Fatalf("setattr: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/files/"+hello.Ino+"?offset=0&size=4096", nil)
	rec = do(t, router, stranger(req))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/files/"+hello.Ino+"?offset=0&size=4096", nil)
	rec = do(t, router, admin(req))
	if rec.Code != http.StatusOK || rec.Body.String() != "ciao mondo" {
		t.Fatalf("admin read: code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestUnauthenticatedRequestIs401(t *testing.T) {
	router, root := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/directories/"+root+"/entries", nil)
	rec := do(t, router, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without WithUser, got %d", rec.Code)
	}
}

func intPtr(n int) *int { return &n }
