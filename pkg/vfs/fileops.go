package vfs

import (
	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/pathcodec"
	"github.com/matteo027/remote-file-system/pkg/perm"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// Mkdir creates a sub-directory (spec §4.6). Protocol: precondition ->
// backing mutation -> metadata commit -> fresh lstat -> response.
func (s *Service) Mkdir(caller Caller, parentIno meta.Ino, name string) (*Entry, error) {
	unlock := s.locks.lockOne(parentIno)
	defer unlock()

	parent, err := s.requireDir(parentIno)
	if err != nil {
		return nil, err
	}
	if err := s.check(parent, perm.WRITE, caller); err != nil {
		return nil, err
	}
	parentPath, err := s.anyPathOf(parentIno)
	if err != nil {
		return nil, err
	}
	childPath, err := pathcodec.ChildPathOf(parentPath, name)
	if err != nil {
		return nil, err
	}
	fsPath := s.Codec.ToFsPath(childPath)
	if err := s.Backing.Mkdir(fsPath); err != nil {
		return nil, err
	}
	st, err := s.Backing.Lstat(fsPath)
	if err != nil {
		return nil, err
	}
	ino := backing.InoOf(st)
	f := &meta.File{Ino: ino, Type: meta.TypeDirectory, Permissions: 0o755, OwnerUID: caller.UID, GroupGID: caller.GID}
	p := &meta.Path{Path: childPath, Ino: ino}
	if err := s.Meta.CreateEntry(f, p); err != nil {
		logger.Errorf("mkdir %q: backing succeeded but metadata commit failed: %v", childPath, err)
		return nil, err
	}
	return s.entryFor(f, childPath)
}

// Rmdir removes an empty sub-directory (spec §4.6).
func (s *Service) Rmdir(caller Caller, parentIno meta.Ino, name string) error {
	unlock := s.locks.lockOne(parentIno)
	defer unlock()

	parent, err := s.requireDir(parentIno)
	if err != nil {
		return err
	}
	if err := s.check(parent, perm.WRITE, caller); err != nil {
		return err
	}
	parentPath, err := s.anyPathOf(parentIno)
	if err != nil {
		return err
	}
	childPath, err := pathcodec.ChildPathOf(parentPath, name)
	if err != nil {
		return err
	}
	childRow, err := s.Meta.FindPath(childPath)
	if err != nil {
		return err
	}
	if childRow == nil {
		return rfserr.New(rfserr.ENOENT, "no such entry %q", childPath)
	}
	childFile, err := s.Meta.FindFileByIno(childRow.Ino)
	if err != nil {
		return err
	}
	if childFile == nil {
		return rfserr.New(rfserr.EIO, "path %q has no file row", childPath)
	}
	if childFile.Type != meta.TypeDirectory {
		return rfserr.New(rfserr.ENOTDIR, "entry %q is not a directory", childPath)
	}
	if err := s.Backing.Rmdir(s.Codec.ToFsPath(childPath)); err != nil {
		return err
	}
	paths, err := s.Meta.FindPathsOfFile(childFile.Ino)
	if err != nil {
		logger.Errorf("rmdir %q: backing succeeded but metadata lookup failed: %v", childPath, err)
		return err
	}
	if len(paths) != 1 {
		return rfserr.New(rfserr.EIO, "directory %q has %d path rows, expected 1", childPath, len(paths))
	}
	if err := s.Meta.RemoveLastLink(childPath, childFile.Ino); err != nil {
		logger.Errorf("rmdir %q: backing succeeded but metadata commit failed: %v", childPath, err)
		return err
	}
	return nil
}

// Create creates a regular file (spec §4.6).
func (s *Service) Create(caller Caller, parentIno meta.Ino, name string) (*Entry, error) {
	unlock := s.locks.lockOne(parentIno)
	defer unlock()

	parent, err := s.requireDir(parentIno)
	if err != nil {
		return nil, err
	}
	if err := s.check(parent, perm.WRITE, caller); err != nil {
		return nil, err
	}
	parentPath, err := s.anyPathOf(parentIno)
	if err != nil {
		return nil, err
	}
	childPath, err := pathcodec.ChildPathOf(parentPath, name)
	if err != nil {
		return nil, err
	}
	fsPath := s.Codec.ToFsPath(childPath)
	if err := s.Backing.WriteFileExclusive(fsPath, nil); err != nil {
		return nil, err
	}
	st, err := s.Backing.Lstat(fsPath)
	if err != nil {
		return nil, err
	}
	ino := backing.InoOf(st)
	f := &meta.File{Ino: ino, Type: meta.TypeRegular, Permissions: 0o644, OwnerUID: caller.UID, GroupGID: caller.GID}
	p := &meta.Path{Path: childPath, Ino: ino}
	if err := s.Meta.CreateEntry(f, p); err != nil {
		logger.Errorf("create %q: backing succeeded but metadata commit failed: %v", childPath, err)
		return nil, err
	}
	return s.entryFor(f, childPath)
}

// Unlink removes a directory entry pointing at a non-directory (spec §4.6).
func (s *Service) Unlink(caller Caller, parentIno meta.Ino, name string) error {
	unlock := s.locks.lockOne(parentIno)
	defer unlock()

	parent, err := s.requireDir(parentIno)
	if err != nil {
		return err
	}
	if err := s.check(parent, perm.WRITE, caller); err != nil {
		return err
	}
	parentPath, err := s.anyPathOf(parentIno)
	if err != nil {
		return err
	}
	childPath, err := pathcodec.ChildPathOf(parentPath, name)
	if err != nil {
		return err
	}
	childRow, err := s.Meta.FindPath(childPath)
	if err != nil {
		return err
	}
	if childRow == nil {
		return rfserr.New(rfserr.ENOENT, "no such entry %q", childPath)
	}
	childFile, err := s.Meta.FindFileByIno(childRow.Ino)
	if err != nil {
		return err
	}
	if childFile == nil {
		return rfserr.New(rfserr.EIO, "path %q has no file row", childPath)
	}
	if childFile.Type == meta.TypeDirectory {
		return rfserr.New(rfserr.EISDIR, "entry %q is a directory", childPath)
	}
	if err := s.Backing.Unlink(s.Codec.ToFsPath(childPath)); err != nil {
		return err
	}
	if err := s.Meta.RemoveLastLink(childPath, childFile.Ino); err != nil {
		logger.Errorf("unlink %q: backing succeeded but metadata commit failed: %v", childPath, err)
		return err
	}
	return nil
}

// Rename moves an entry between directories (spec §4.6). Renaming the
// root is refused with EINVAL.
func (s *Service) Rename(caller Caller, oldParentIno meta.Ino, oldName string, newParentIno meta.Ino, newName string) (*Entry, error) {
	unlock := s.locks.lockMany(oldParentIno, newParentIno)
	defer unlock()

	oldParent, err := s.requireDir(oldParentIno)
	if err != nil {
		return nil, err
	}
	newParent, err := s.requireDir(newParentIno)
	if err != nil {
		return nil, err
	}
	if err := s.check(oldParent, perm.WRITE, caller); err != nil {
		return nil, err
	}
	if err := s.check(newParent, perm.WRITE, caller); err != nil {
		return nil, err
	}
	oldParentPath, err := s.anyPathOf(oldParentIno)
	if err != nil {
		return nil, err
	}
	newParentPath, err := s.anyPathOf(newParentIno)
	if err != nil {
		return nil, err
	}
	oldPath, err := pathcodec.ChildPathOf(oldParentPath, oldName)
	if err != nil {
		return nil, err
	}
	newPath, err := pathcodec.ChildPathOf(newParentPath, newName)
	if err != nil {
		return nil, err
	}
	if oldPath == "/" || newPath == "/" {
		return nil, rfserr.New(rfserr.EINVAL, "cannot rename the root")
	}
	oldRow, err := s.Meta.FindPath(oldPath)
	if err != nil {
		return nil, err
	}
	if oldRow == nil {
		return nil, rfserr.New(rfserr.ENOENT, "no such entry %q", oldPath)
	}
	if err := s.Backing.Rename(s.Codec.ToFsPath(oldPath), s.Codec.ToFsPath(newPath)); err != nil {
		return nil, err
	}
	if err := s.Meta.RenamePath(oldPath, newPath, oldRow.Ino); err != nil {
		logger.Errorf("rename %q -> %q: backing succeeded but metadata commit failed: %v", oldPath, newPath, err)
		return nil, err
	}
	f, err := s.resolveFile(oldRow.Ino)
	if err != nil {
		return nil, err
	}
	return s.entryFor(f, newPath)
}

// Hardlink binds a new name to an existing non-directory File (spec §4.6).
func (s *Service) Hardlink(caller Caller, targetIno meta.Ino, linkParentIno meta.Ino, linkName string) (*Entry, error) {
	unlock := s.locks.lockMany(targetIno, linkParentIno)
	defer unlock()

	target, err := s.resolveFile(targetIno)
	if err != nil {
		return nil, err
	}
	if target.Type == meta.TypeDirectory {
		return nil, rfserr.New(rfserr.EISDIR, "cannot hardlink a directory")
	}
	linkParent, err := s.requireDir(linkParentIno)
	if err != nil {
		return nil, err
	}
	if err := s.check(linkParent, perm.WRITE, caller); err != nil {
		return nil, err
	}
	targetPath, err := s.anyPathOf(targetIno)
	if err != nil {
		return nil, err
	}
	linkParentPath, err := s.anyPathOf(linkParentIno)
	if err != nil {
		return nil, err
	}
	linkPath, err := pathcodec.ChildPathOf(linkParentPath, linkName)
	if err != nil {
		return nil, err
	}
	if err := s.Backing.Link(s.Codec.ToFsPath(targetPath), s.Codec.ToFsPath(linkPath)); err != nil {
		return nil, err
	}
	p := &meta.Path{Path: linkPath, Ino: targetIno}
	if err := s.Meta.AddPath(p); err != nil {
		logger.Errorf("hardlink %q: backing succeeded but metadata commit failed: %v", linkPath, err)
		return nil, err
	}
	return s.entryFor(target, linkPath)
}

// Symlink creates a symlink (spec §4.6). targetPath is opaque and is not
// validated or resolved by the core.
func (s *Service) Symlink(caller Caller, targetPath string, linkParentIno meta.Ino, linkName string) (*Entry, error) {
	unlock := s.locks.lockOne(linkParentIno)
	defer unlock()

	linkParent, err := s.requireDir(linkParentIno)
	if err != nil {
		return nil, err
	}
	if err := s.check(linkParent, perm.WRITE, caller); err != nil {
		return nil, err
	}
	linkParentPath, err := s.anyPathOf(linkParentIno)
	if err != nil {
		return nil, err
	}
	linkPath, err := pathcodec.ChildPathOf(linkParentPath, linkName)
	if err != nil {
		return nil, err
	}
	fsPath := s.Codec.ToFsPath(linkPath)
	if err := s.Backing.Symlink(targetPath, fsPath); err != nil {
		return nil, err
	}
	st, err := s.Backing.Lstat(fsPath)
	if err != nil {
		return nil, err
	}
	ino := backing.InoOf(st)
	f := &meta.File{Ino: ino, Type: meta.TypeSymlink, Permissions: 0o755, OwnerUID: caller.UID, GroupGID: linkParent.GroupGID}
	p := &meta.Path{Path: linkPath, Ino: ino}
	if err := s.Meta.CreateEntry(f, p); err != nil {
		logger.Errorf("symlink %q: backing succeeded but metadata commit failed: %v", linkPath, err)
		return nil, err
	}
	return s.entryFor(f, linkPath)
}

// Readlink returns the target of a symlink (spec §4.6).
func (s *Service) Readlink(caller Caller, ino meta.Ino) (string, error) {
	f, err := s.resolveFile(ino)
	if err != nil {
		return "", err
	}
	if f.Type != meta.TypeSymlink {
		return "", rfserr.New(rfserr.EINVAL, "inode %q is not a symlink", ino)
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return "", err
	}
	return s.Backing.Readlink(s.Codec.ToFsPath(path))
}
