package authbridge

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/matteo027/remote-file-system/pkg/meta"
)

// DefaultSignup is the SignupService backed directly by the MetaStore.
type DefaultSignup struct {
	Meta *meta.Store
}

// CreateUser inserts a new user row with a hashed password.
func (d *DefaultSignup) CreateUser(uid int64, password string) error {
	return d.Meta.CreateUser(uid, hashPassword(password))
}

// CreateGroupMembership binds uid to gid as its primary group.
func (d *DefaultSignup) CreateGroupMembership(uid, gid int64) error {
	return d.Meta.AddGroupMember(uid, gid)
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
