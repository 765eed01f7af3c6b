package vfs

import (
	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/pathcodec"
	"github.com/matteo027/remote-file-system/pkg/perm"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// Lookup resolves a child entry by name inside parentIno (spec §4.5).
func (s *Service) Lookup(caller Caller, parentIno meta.Ino, name string) (*Entry, error) {
	parent, err := s.requireDir(parentIno)
	if err != nil {
		return nil, err
	}
	if err := s.check(parent, perm.READ, caller); err != nil {
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
	st, err := s.Backing.Lstat(s.Codec.ToFsPath(childPath))
	if err != nil {
		return nil, err
	}
	childIno := backing.InoOf(st)
	childFile, err := s.Meta.FindFileByIno(childIno)
	if err != nil {
		return nil, err
	}
	if childFile == nil {
		return nil, rfserr.New(rfserr.EIO, "backing entry %q has no metadata row", childPath)
	}
	childPathRow, err := s.Meta.FindPath(childPath)
	if err != nil {
		return nil, err
	}
	if childPathRow == nil {
		return nil, rfserr.New(rfserr.EIO, "backing entry %q has no path row", childPath)
	}
	return buildEntry(childFile, childPath, st), nil
}

// Readdir lists a directory's children, silently omitting any the caller
// cannot read; mismatches between the backing tree and the MetaStore
// surface as EIO (spec §4.5).
func (s *Service) Readdir(caller Caller, ino meta.Ino) ([]*Entry, error) {
	dir, err := s.requireDir(ino)
	if err != nil {
		return nil, err
	}
	if err := s.check(dir, perm.READ, caller); err != nil {
		return nil, err
	}
	dirPath, err := s.anyPathOf(ino)
	if err != nil {
		return nil, err
	}
	names, err := s.Backing.Readdir(s.Codec.ToFsPath(dirPath))
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		childPath, err := pathcodec.ChildPathOf(dirPath, name)
		if err != nil {
			return nil, err
		}
		st, err := s.Backing.Lstat(s.Codec.ToFsPath(childPath))
		if err != nil {
			return nil, err
		}
		childIno := backing.InoOf(st)
		childFile, err := s.Meta.FindFileByIno(childIno)
		if err != nil {
			return nil, err
		}
		if childFile == nil {
			return nil, rfserr.New(rfserr.EIO, "backing entry %q has no metadata row", childPath)
		}
		childPathRow, err := s.Meta.FindPath(childPath)
		if err != nil {
			return nil, err
		}
		if childPathRow == nil {
			return nil, rfserr.New(rfserr.EIO, "backing entry %q has no path row", childPath)
		}
		if !s.Perm.Allowed(childFile, perm.READ, caller.view()) {
			continue
		}
		entries = append(entries, buildEntry(childFile, childPath, st))
	}
	return entries, nil
}

// GetAttr returns ino's current entry descriptor, or (nil, true, nil) when
// the conditional If-Modified-Since comparison says nothing changed.
func (s *Service) GetAttr(caller Caller, ino meta.Ino, ifModifiedSinceSec int64) (entry *Entry, notModified bool, err error) {
	f, err := s.resolveFile(ino)
	if err != nil {
		return nil, false, err
	}
	if err := s.check(f, perm.READ, caller); err != nil {
		return nil, false, err
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return nil, false, err
	}
	e, err := s.entryFor(f, path)
	if err != nil {
		return nil, false, err
	}
	if ifModifiedSinceSec > 0 && ifModifiedSinceSec*1000 >= e.Mtime {
		return nil, true, nil
	}
	return e, false, nil
}

// SetAttrRequest carries setattr's optional fields; nil means "unset".
type SetAttrRequest struct {
	Perm *int
	UID  *int64
	GID  *int64
	Size *int64
}

// SetAttr applies an attribute change to ino (spec §4.5). Ownership
// changes follow the policy fixed by SPEC_FULL.md §9 open question 3:
// a known uid transfers ownership (with that user's primary group); an
// unknown uid silently reassigns to the caller; otherwise EACCES.
func (s *Service) SetAttr(caller Caller, ino meta.Ino, req SetAttrRequest) (*Entry, error) {
	unlock := s.locks.lockOne(ino)
	defer unlock()

	f, err := s.resolveFile(ino)
	if err != nil {
		return nil, err
	}
	if err := s.check(f, perm.WRITE, caller); err != nil {
		return nil, err
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return nil, err
	}

	if req.Perm != nil {
		if *req.Perm < 0 || *req.Perm > 0o777 {
			return nil, rfserr.New(rfserr.EINVAL, "permissions out of range: %d", *req.Perm)
		}
		if err := s.Meta.UpdatePermissions(ino, *req.Perm); err != nil {
			return nil, err
		}
		f.Permissions = *req.Perm
	}

	if req.UID != nil {
		target, err := s.Meta.FindUser(*req.UID)
		if err != nil {
			return nil, err
		}
		var newOwner int64
		var newGroup *int64
		if target != nil {
			newOwner = target.UID
			newGroup, _ = groupPtr(target)
		} else {
			newOwner = caller.UID
			newGroup = caller.GID
		}
		if err := s.Meta.UpdateOwnerGroup(ino, newOwner, newGroup); err != nil {
			return nil, err
		}
		f.OwnerUID = newOwner
		f.GroupGID = newGroup
	} else if req.GID != nil {
		return nil, rfserr.New(rfserr.EACCES, "group-only ownership change is not permitted")
	}

	if req.Size != nil {
		if f.Type == meta.TypeDirectory {
			return nil, rfserr.New(rfserr.EINVAL, "cannot set size on a directory")
		}
		if err := s.Backing.Truncate(s.Codec.ToFsPath(path), *req.Size); err != nil {
			return nil, err
		}
	}

	return s.entryFor(f, path)
}

func groupPtr(u *meta.User) (*int64, bool) {
	gid, ok := u.GroupGIDOf()
	if !ok {
		return nil, false
	}
	return &gid, true
}
