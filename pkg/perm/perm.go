// Package perm implements the uniform POSIX-style permission check used by
// every operation (spec §4.4): a pure function of (File, Op, User).
package perm

import "github.com/matteo027/remote-file-system/pkg/meta"

// Op is one of the three permission classes a caller may request.
type Op int

const (
	READ Op = iota
	WRITE
	EXEC
)

func (op Op) mask() int {
	switch op {
	case READ:
		return 4
	case WRITE:
		return 2
	case EXEC:
		return 1
	default:
		return 0
	}
}

// Evaluator holds the process-wide administrator identity.
type Evaluator struct {
	AdminUID int64
}

// New returns an Evaluator that treats adminUID as the bypass identity.
func New(adminUID int64) *Evaluator {
	return &Evaluator{AdminUID: adminUID}
}

// UserView is the subset of a requester's identity the check needs.
type UserView struct {
	UID int64
	GID *int64 // caller's primary group, nil if none
}

// Allowed implements the algorithm of spec §4.4: admin bypass, then
// owner/group/other triads in that order.
func (e *Evaluator) Allowed(f *meta.File, op Op, u UserView) bool {
	if u.UID == e.AdminUID {
		return true
	}
	mask := op.mask()
	ownerBits := (f.Permissions >> 6) & mask
	groupBits := (f.Permissions >> 3) & mask
	otherBits := f.Permissions & mask

	if u.UID == f.OwnerUID && ownerBits == mask {
		return true
	}
	if f.GroupGID != nil && u.GID != nil && *u.GID == *f.GroupGID && groupBits == mask {
		return true
	}
	if otherBits == mask {
		return true
	}
	return false
}
