package vfs

import (
	"io"

	"github.com/matteo027/remote-file-system/pkg/authbridge"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/perm"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// flusher is satisfied by http.ResponseWriter when the underlying
// transport supports incremental delivery; vfs stays transport-agnostic
// by duck-typing instead of importing net/http.
type flusher interface {
	Flush()
}

// ReservedWatcher is invoked after a successful write to one of the
// reserved side-channel files (spec §4.7, §6).
type ReservedWatcher interface {
	Handle(path string, content []byte)
}

// SetReservedWatcher wires the authbridge collaborator into IOOps.Write.
func (s *Service) SetReservedWatcher(w ReservedWatcher) { s.reserved = w }

// Read returns up to size bytes of ino's content starting at offset
// (spec §4.7). size is capped by the configured maximum; offsets at or
// beyond EOF return zero bytes.
func (s *Service) Read(caller Caller, ino meta.Ino, offset int64, size int) ([]byte, error) {
	f, err := s.resolveFile(ino)
	if err != nil {
		return nil, err
	}
	if f.Type == meta.TypeDirectory {
		return nil, rfserr.New(rfserr.EISDIR, "cannot read a directory")
	}
	if err := s.check(f, perm.READ, caller); err != nil {
		return nil, err
	}
	if size > int(s.Cfg.MaxReadSize) {
		size = int(s.Cfg.MaxReadSize)
	}
	if size < 0 {
		return nil, rfserr.New(rfserr.EINVAL, "negative read size")
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return nil, err
	}
	return s.Backing.Read(s.Codec.ToFsPath(path), offset, size)
}

// Write writes bytes at offset into ino's content, returning the number
// of bytes written (spec §4.7). Writing to a reserved path (spec §6)
// triggers the authbridge side effect after the write commits.
func (s *Service) Write(caller Caller, ino meta.Ino, offset int64, data []byte) (int, error) {
	f, err := s.resolveFile(ino)
	if err != nil {
		return 0, err
	}
	if f.Type == meta.TypeDirectory {
		return 0, rfserr.New(rfserr.EISDIR, "cannot write a directory")
	}
	if err := s.check(f, perm.WRITE, caller); err != nil {
		return 0, err
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return 0, err
	}
	n, err := s.Backing.Write(s.Codec.ToFsPath(path), offset, data)
	if err != nil {
		return n, err
	}
	if s.reserved != nil && authbridge.IsReserved(path) {
		full, rerr := s.Backing.Read(s.Codec.ToFsPath(path), 0, int(s.Cfg.MaxReadSize))
		if rerr != nil {
			logger.Errorf("reading back reserved file %q: %v", path, rerr)
		} else {
			s.reserved.Handle(path, full)
		}
	}
	return n, nil
}

// WriteResult overwrites a reserved file with a human-readable outcome
// string, satisfying authbridge.ReservedWriter.
func (s *Service) WriteResult(path string, message string) error {
	fsPath := s.Codec.ToFsPath(path)
	if err := s.Backing.Truncate(fsPath, 0); err != nil {
		return err
	}
	_, err := s.Backing.Write(fsPath, 0, []byte(message))
	return err
}

// ReadStream copies the full content of ino to w in fixed-size chunks
// (spec §4.10), flushing w between chunks when it supports incremental
// delivery. Unlike Read, it is not bounded by MaxReadSize; it walks the
// whole file in StreamChunkSize pieces until EOF.
func (s *Service) ReadStream(caller Caller, ino meta.Ino, w io.Writer) error {
	f, err := s.resolveFile(ino)
	if err != nil {
		return err
	}
	if f.Type == meta.TypeDirectory {
		return rfserr.New(rfserr.EISDIR, "cannot read a directory")
	}
	if err := s.check(f, perm.READ, caller); err != nil {
		return err
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return err
	}
	fsPath := s.Codec.ToFsPath(path)
	chunk := s.Cfg.StreamChunkSize
	fl, _ := w.(flusher)
	for offset := int64(0); ; offset += int64(chunk) {
		buf, err := s.Backing.Read(fsPath, offset, chunk)
		if err != nil {
			return err
		}
		if len(buf) == 0 {
			return nil
		}
		if _, werr := w.Write(buf); werr != nil {
			return rfserr.Wrap(rfserr.EIO, werr)
		}
		if fl != nil {
			fl.Flush()
		}
		if len(buf) < chunk {
			return nil
		}
	}
}

// WriteStream copies r into ino's content from offset 0 in
// StreamChunkSize chunks (spec §4.10). It writes everything r yields; any
// bound on the total size is applied by the caller through r. Writing to a reserved path (spec §6) triggers the authbridge side
// effect once the whole stream has committed.
func (s *Service) WriteStream(caller Caller, ino meta.Ino, r io.Reader) (int64, error) {
	f, err := s.resolveFile(ino)
	if err != nil {
		return 0, err
	}
	if f.Type == meta.TypeDirectory {
		return 0, rfserr.New(rfserr.EISDIR, "cannot write a directory")
	}
	if err := s.check(f, perm.WRITE, caller); err != nil {
		return 0, err
	}
	path, err := s.anyPathOf(ino)
	if err != nil {
		return 0, err
	}
	fsPath := s.Codec.ToFsPath(path)
	chunk := make([]byte, s.Cfg.StreamChunkSize)
	var total int64
	for {
		n, rerr := r.Read(chunk)
		if n > 0 {
			if _, werr := s.Backing.Write(fsPath, total, chunk[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return total, rfserr.Wrap(rfserr.EIO, rerr)
		}
	}
	if s.reserved != nil && authbridge.IsReserved(path) {
		full, rerr := s.Backing.Read(fsPath, 0, int(s.Cfg.MaxReadSize))
		if rerr != nil {
			logger.Errorf("reading back reserved file %q: %v", path, rerr)
		} else {
			s.reserved.Handle(path, full)
		}
	}
	return total, nil
}

