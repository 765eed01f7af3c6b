// Package meta is the transactional relational store of Users, Groups,
// Files (inodes), and Paths (name bindings) described in spec §3/§4.2.
// The relational form is resolved unambiguously here (§9 open question 2):
// File carries plain owner_uid/group_gid foreign-key columns, and the
// related User/Group rows are looked up only when an operation needs them.
package meta

import "strconv"

// FileType enumerates the three node kinds the core understands.
type FileType int

const (
	TypeRegular   FileType = 0
	TypeDirectory FileType = 1
	TypeSymlink   FileType = 2
)

// Ino is the decimal-string inode identifier produced by the BackingStore.
type Ino = string

// FormatIno renders a host inode number in the wire/storage form.
func FormatIno(n uint64) Ino { return strconv.FormatUint(n, 10) }

// ParseIno parses a stored/wire inode string back into a host number.
func ParseIno(s Ino) (uint64, error) { return strconv.ParseUint(s, 10, 64) }

// User is a row of the users table. A single primary Group is optional.
type User struct {
	UID          int64  `xorm:"pk 'uid'"`
	PasswordHash string `xorm:"'password_hash'"`
	PrimaryGID   *int64 `xorm:"'primary_gid'"`
}

// Group is a row of the groups table; membership is tracked by
// GroupMember rows (Group holds its members' ids, per the source
// re-architecture note that replaces the cyclic User<->Group reference).
type Group struct {
	GID  int64  `xorm:"pk 'gid'"`
	Name string `xorm:"'name'"`
}

// GroupMember realizes the many-to-one membership: each User has at most
// one primary Group, a Group may have many Users.
type GroupMember struct {
	GID int64 `xorm:"pk 'gid'"`
	UID int64 `xorm:"pk 'uid'"`
}

// File is an inode record. Owner is non-null; Group is nullable.
type File struct {
	Ino         Ino      `xorm:"pk 'ino'"`
	Type        FileType `xorm:"'type'"`
	Permissions int      `xorm:"'permissions'"`
	OwnerUID    int64    `xorm:"'owner_uid'"`
	GroupGID    *int64   `xorm:"'group_gid'"`
}

// Path is a canonical POSIX path bound to exactly one File.
type Path struct {
	Path Ino `xorm:"pk 'path'"`
	Ino  Ino `xorm:"'ino' index"`
}

// TableName stores Path rows in the "paths" table instead of xorm's
// default "path", which would repeat the column name path.
func (Path) TableName() string { return "paths" }

// OwnerAndGroup is the pair of related rows an operation resolves when it
// needs more than the bare owner_uid/group_gid columns.
type OwnerAndGroup struct {
	Owner *User
	Group *Group
}

// GroupGIDOf returns the caller's primary group id, or (0, false) if the
// caller has none.
func (u *User) GroupGIDOf() (int64, bool) {
	if u == nil || u.PrimaryGID == nil {
		return 0, false
	}
	return *u.PrimaryGID, true
}
