// Package pathcodec normalizes client-supplied paths into canonical POSIX
// form and maps canonical paths onto the backing store's host paths.
// Consolidating path hygiene here is what guarantees the canonical-path
// invariant (spec §3.5) and prevents traversal outside the configured root.
package pathcodec

import (
	"strings"

	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// Codec carries the fixed filesystem root established at startup.
type Codec struct {
	root string
}

// New builds a Codec rooted at the given absolute host directory.
func New(root string) *Codec {
	return &Codec{root: strings.TrimRight(root, "/")}
}

// Normalize converts raw input -- a single string, possibly with
// backslashes or repeated/trailing slashes -- into a canonical POSIX path:
// leading "/", no "." or ".." components, no repeated slashes, never empty.
func Normalize(raw string) (string, error) {
	s := strings.ReplaceAll(raw, "\\", "/")
	parts := strings.Split(s, "/")
	var out []string
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			return "", rfserr.New(rfserr.EINVAL, "path escapes root: %q", raw)
		default:
			out = append(out, p)
		}
	}
	canonical := "/" + strings.Join(out, "/")
	if !strings.HasPrefix(canonical, "/") {
		return "", rfserr.New(rfserr.EINVAL, "path escapes root: %q", raw)
	}
	return canonical, nil
}

// NormalizeSegments normalizes a path given as a sequence of segments
// rather than a single delimited string.
func NormalizeSegments(segments []string) (string, error) {
	return Normalize(strings.Join(segments, "/"))
}

// ToFsPath appends a canonical path to the fixed filesystem root.
func (c *Codec) ToFsPath(canonical string) string {
	if canonical == "/" {
		return c.root
	}
	return c.root + canonical
}

// ChildPathOf returns the canonical path of a child named name inside
// parent, rejecting names that are empty, ".", "..", or contain "/".
func ChildPathOf(parent, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return "", rfserr.New(rfserr.EINVAL, "invalid entry name: %q", name)
	}
	if parent == "/" {
		return "/" + name, nil
	}
	return parent + "/" + name, nil
}

// Basename returns the final path component of a canonical path.
func Basename(canonical string) string {
	if canonical == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(canonical, '/')
	return canonical[idx+1:]
}
