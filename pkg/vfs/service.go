// Package vfs is the facade composing MetaStore, BackingStore, and the
// PermissionEvaluator into the AttrOps/FileOps/IOOps operations of spec
// §4.5-§4.7. Every mutating operation follows the protocol of §4.6:
// metadata preconditions -> backing mutation -> metadata commit -> fresh
// lstat -> response assembly.
package vfs

import (
	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/config"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/pathcodec"
	"github.com/matteo027/remote-file-system/pkg/perm"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
	"github.com/matteo027/remote-file-system/pkg/utils"
)

var logger = utils.GetLogger("vfs")

// Caller is the authenticated User a request arrives with.
type Caller struct {
	UID int64
	GID *int64
}

func (c Caller) view() perm.UserView { return perm.UserView{UID: c.UID, GID: c.GID} }

// Service ties MetaStore + BackingStore + PermissionEvaluator + PathCodec
// together behind the operation set the httpapi layer calls into.
type Service struct {
	Meta    *meta.Store
	Backing *backing.Store
	Perm    *perm.Evaluator
	Codec   *pathcodec.Codec
	Cfg     config.Config
	locks   *keyedMutex

	reserved ReservedWatcher
}

// New builds a Service from already-opened collaborators.
func New(m *meta.Store, b *backing.Store, cfg config.Config) *Service {
	return &Service{
		Meta:    m,
		Backing: b,
		Perm:    perm.New(cfg.AdminUID),
		Codec:   pathcodec.New(b.Root),
		Cfg:     cfg,
		locks:   newKeyedMutex(),
	}
}

// Bootstrap creates the root directory and the administrator's home on
// first initialization (spec §6 persisted state layout), a no-op if they
// already exist.
func (s *Service) Bootstrap() error {
	rootIno, err := s.ensureRoot()
	if err != nil {
		return err
	}
	homePath, err := pathcodec.ChildPathOf("/", "home")
	if err != nil {
		return err
	}
	if existing, err := s.Meta.FindPath(homePath); err != nil {
		return err
	} else if existing == nil {
		if err := s.createDirUnlocked(homePath, Caller{UID: s.Cfg.AdminUID}, 0o755); err != nil {
			if rerr, ok := rfserr.As(err); !ok || rerr.Code != rfserr.EEXIST {
				return err
			}
		}
	}
	_ = rootIno
	return nil
}

func (s *Service) ensureRoot() (meta.Ino, error) {
	existing, err := s.Meta.FindPath("/")
	if err != nil {
		return "", err
	}
	fsPath := s.Codec.ToFsPath("/")
	st, err := s.Backing.Lstat(fsPath)
	if err != nil {
		return "", err
	}
	ino := backing.InoOf(st)
	if existing != nil {
		return existing.Ino, nil
	}
	f := &meta.File{Ino: ino, Type: meta.TypeDirectory, Permissions: 0o777, OwnerUID: s.Cfg.AdminUID}
	p := &meta.Path{Path: "/", Ino: ino}
	if err := s.Meta.CreateEntry(f, p); err != nil {
		return "", err
	}
	return ino, nil
}

// createDirUnlocked is used only during bootstrap, before any concurrent
// access is possible, so it skips the keyed-mutex protocol mkdir normally
// uses.
func (s *Service) createDirUnlocked(path string, caller Caller, mode int) error {
	fsPath := s.Codec.ToFsPath(path)
	if err := s.Backing.Mkdir(fsPath); err != nil {
		return err
	}
	st, err := s.Backing.Lstat(fsPath)
	if err != nil {
		return err
	}
	ino := backing.InoOf(st)
	f := &meta.File{Ino: ino, Type: meta.TypeDirectory, Permissions: mode, OwnerUID: caller.UID}
	p := &meta.Path{Path: path, Ino: ino}
	return s.Meta.CreateEntry(f, p)
}

// resolveFile fetches the File row for ino, surfacing ENOENT if absent.
func (s *Service) resolveFile(ino meta.Ino) (*meta.File, error) {
	f, err := s.Meta.FindFileByIno(ino)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, rfserr.New(rfserr.ENOENT, "no such inode %q", ino)
	}
	return f, nil
}

// anyPathOf returns a canonical path bound to ino. Directories and
// symlinks have exactly one (invariant 4); for a multiply-hardlinked
// regular file any bound path yields identical content.
func (s *Service) anyPathOf(ino meta.Ino) (string, error) {
	paths, err := s.Meta.FindPathsOfFile(ino)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", rfserr.New(rfserr.EIO, "inode %q has no path binding", ino)
	}
	return paths[0].Path, nil
}

// requireDir fetches ino's File row and requires it be a directory.
func (s *Service) requireDir(ino meta.Ino) (*meta.File, error) {
	f, err := s.resolveFile(ino)
	if err != nil {
		return nil, err
	}
	if f.Type != meta.TypeDirectory {
		return nil, rfserr.New(rfserr.ENOTDIR, "inode %q is not a directory", ino)
	}
	return f, nil
}

func (s *Service) check(f *meta.File, op perm.Op, caller Caller) error {
	if !s.Perm.Allowed(f, op, caller.view()) {
		return rfserr.New(rfserr.EACCES, "permission denied")
	}
	return nil
}

// entryFor assembles the response descriptor for a File bound at path.
func (s *Service) entryFor(f *meta.File, path string) (*Entry, error) {
	st, err := s.Backing.Lstat(s.Codec.ToFsPath(path))
	if err != nil {
		return nil, err
	}
	if backing.InoOf(st) != f.Ino {
		return nil, rfserr.New(rfserr.EIO, "metadata/backing mismatch at %q: meta ino %s, fs ino %s", path, f.Ino, backing.InoOf(st))
	}
	return buildEntry(f, path, st), nil
}

// StatFS returns total/available space of the backing filesystem (spec §6
// GET /api/size).
func (s *Service) StatFS() (total, available uint64, err error) {
	return s.Backing.StatFS()
}
