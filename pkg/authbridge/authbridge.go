// Package authbridge replaces the source's reserved-file side channel,
// which made a self-HTTP call back into the authentication endpoint after
// a write to /create-user.txt or /create-group.txt completed (spec §6,
// §9 open question 4). That coupling needed the server's own port and
// replayed cookies; this package calls the authentication collaborator
// in-process instead, per the REDESIGN FLAG.
package authbridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matteo027/remote-file-system/pkg/utils"
)

var logger = utils.GetLogger("authbridge")

// CreateUserPath and CreateGroupPath are the two reserved regular files
// whose writes trigger a signup side effect.
const (
	CreateUserPath  = "/create-user.txt"
	CreateGroupPath = "/create-group.txt"
)

// SignupService is the in-process contract with the (out-of-scope)
// authentication collaborator.
type SignupService interface {
	CreateUser(uid int64, password string) error
	CreateGroupMembership(uid, gid int64) error
}

// ReservedWriter is the minimal surface authbridge needs back from the
// BackingStore to overwrite the reserved file with a result string.
type ReservedWriter interface {
	WriteResult(path string, message string) error
}

// Watcher dispatches reserved-file writes to the signup service.
type Watcher struct {
	Signup SignupService
	Writer ReservedWriter
}

// New builds a Watcher bound to the given collaborators.
func New(signup SignupService, writer ReservedWriter) *Watcher {
	return &Watcher{Signup: signup, Writer: writer}
}

// IsReserved reports whether path is one of the two reserved side-channel
// files.
func IsReserved(path string) bool {
	return path == CreateUserPath || path == CreateGroupPath
}

// Handle parses the two whitespace-separated integers out of a completed
// write to a reserved file, calls the authentication collaborator
// directly, and overwrites the file with a human-readable result.
func (w *Watcher) Handle(path string, content []byte) {
	uid, second, err := splitPair(content)
	if err != nil {
		w.reply(path, fmt.Sprintf("failed: %v", err))
		return
	}
	switch path {
	case CreateUserPath:
		// second is an opaque password token, not necessarily numeric.
		if err := w.Signup.CreateUser(uid, second); err != nil {
			logger.Warnf("create-user %d: %v", uid, err)
			w.reply(path, fmt.Sprintf("failed: %v", err))
			return
		}
		w.reply(path, fmt.Sprintf("user %d created", uid))
	case CreateGroupPath:
		gid, err := strconv.ParseInt(second, 10, 64)
		if err != nil {
			w.reply(path, fmt.Sprintf("failed: gid %q is not an integer", second))
			return
		}
		if err := w.Signup.CreateGroupMembership(uid, gid); err != nil {
			logger.Warnf("create-group uid=%d gid=%d: %v", uid, gid, err)
			w.reply(path, fmt.Sprintf("failed: %v", err))
			return
		}
		w.reply(path, fmt.Sprintf("user %d joined group %d", uid, gid))
	}
}

func (w *Watcher) reply(path, message string) {
	if err := w.Writer.WriteResult(path, message); err != nil {
		logger.Errorf("writing result to %q: %v", path, err)
	}
}

func splitPair(content []byte) (uid int64, second string, err error) {
	fields := strings.Fields(string(content))
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("expected exactly two whitespace-separated fields, got %d", len(fields))
	}
	uid, err = strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("first field %q is not an integer", fields[0])
	}
	return uid, fields[1], nil
}
