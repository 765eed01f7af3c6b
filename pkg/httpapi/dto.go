package httpapi

import "github.com/matteo027/remote-file-system/pkg/vfs"

func toSetAttrRequest(b setAttrRequest) vfs.SetAttrRequest {
	return vfs.SetAttrRequest{
		Perm: b.Perm,
		UID:  b.UID,
		GID:  b.GID,
		Size: b.Size,
	}
}

// entryJSON is the wire shape of the entry descriptor (spec §6).
type entryJSON struct {
	Ino         string `json:"ino"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        int    `json:"type"`
	Permissions int    `json:"permissions"`
	Owner       int64  `json:"owner"`
	Group       *int64 `json:"group"`
	Size        string `json:"size"`
	Atime       int64  `json:"atime"`
	Mtime       int64  `json:"mtime"`
	Ctime       int64  `json:"ctime"`
	Btime       int64  `json:"btime"`
	Nlinks      int    `json:"nlinks"`
}

func toEntryJSON(e *vfs.Entry) entryJSON {
	return entryJSON{
		Ino:         e.Ino,
		Name:        e.Name,
		Path:        e.Path,
		Type:        int(e.Type),
		Permissions: e.Permissions,
		Owner:       e.Owner,
		Group:       e.Group,
		Size:        e.SizeString(),
		Atime:       e.Atime,
		Mtime:       e.Mtime,
		Ctime:       e.Ctime,
		Btime:       e.Btime,
		Nlinks:      e.Nlinks,
	}
}

func toEntryJSONList(entries []*vfs.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryJSON(e))
	}
	return out
}

type renameRequest struct {
	NewParentIno string `json:"newParentIno"`
	NewName      string `json:"newName"`
}

type setAttrRequest struct {
	Perm *int   `json:"perm"`
	UID  *int64 `json:"uid"`
	GID  *int64 `json:"gid"`
	Size *int64 `json:"size"`
}

type linkRequest struct {
	LinkParentIno string `json:"linkParentIno"`
	LinkName      string `json:"linkName"`
}

type symlinkRequest struct {
	LinkParentIno string `json:"linkParentIno"`
	LinkName      string `json:"linkName"`
	TargetPath    string `json:"targetPath"`
}

type bytesWrittenResponse struct {
	Bytes int `json:"bytes"`
}

type readlinkResponse struct {
	Target string `json:"target"`
}

type sizeResponse struct {
	Total     uint64 `json:"total"`
	Available uint64 `json:"available"`
}
