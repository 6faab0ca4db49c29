// Package backup takes copy-before-write backups of configuration files and
// writes replacement content atomically.
//
// A Session records which paths were already backed up during one
// invocation (or one apply run) so a file is copied at most once, and
// backup names are chosen so an existing backup is never overwritten.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/creachadair/atomicfile"
	"github.com/samber/oops"

	"grimm.is/nodecfg/internal/clock"
)

// Conventional suffixes. The Caddyfile uses .bak, node TOML files use .backup.
const (
	SuffixBak    = ".bak"
	SuffixBackup = ".backup"
)

// maxCounter bounds the .N probing after the timestamped name is taken.
const maxCounter = 1000

var (
	// ErrSourceMissing is returned when the file to back up does not exist.
	ErrSourceMissing = errors.New("backup source does not exist")
	// ErrNoFreeName is returned when every candidate backup name is taken.
	ErrNoFreeName = errors.New("no free backup name")
)

// Record describes one backup copy. Records are created once and never
// modified afterwards.
type Record struct {
	Original  string      `json:"original"`
	Path      string      `json:"path"`
	Timestamp time.Time   `json:"timestamp"`
	Size      int64       `json:"size"`
	Mode      fs.FileMode `json:"mode"`
}

// Session holds the "already backed up" flag per path.
type Session struct {
	clock   clock.Clock
	taken   map[string]*Record
	records []*Record
}

// NewSession creates an empty session. A nil clock uses the real clock.
func NewSession(c clock.Clock) *Session {
	return &Session{
		clock: clock.OrReal(c),
		taken: make(map[string]*Record),
	}
}

// Taken returns the record for path if it was backed up in this session.
func (s *Session) Taken(path string) (*Record, bool) {
	r, ok := s.taken[key(path)]
	return r, ok
}

// Records returns the backups taken so far, in order.
func (s *Session) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}

// Take copies path to a sibling backup unless this session already did.
// The second return reports whether a new copy was made.
func (s *Session) Take(path, suffix string) (*Record, bool, error) {
	if r, ok := s.Taken(path); ok {
		return r, false, nil
	}

	errb := oops.In("backup").With("path", path)

	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, errb.Wrapf(fmt.Errorf("%w: %w", ErrSourceMissing, err), "open %s", path)
		}
		return nil, false, errb.Wrapf(err, "open %s", path)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, false, errb.Wrapf(err, "stat %s", path)
	}
	mode := info.Mode().Perm()
	now := s.clock.Now()

	dst, dstPath, err := createExclusive(path+suffix, clock.Stamp(now), mode)
	if err != nil {
		return nil, false, errb.Wrapf(err, "create backup for %s", path)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(dstPath)
		return nil, false, errb.With("backup", dstPath).Wrapf(err, "copy %s", path)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return nil, false, errb.With("backup", dstPath).Wrapf(err, "close %s", dstPath)
	}
	// O_CREATE applies the umask; put the original bits back.
	if err := os.Chmod(dstPath, mode); err != nil {
		return nil, false, errb.With("backup", dstPath).Wrapf(err, "chmod %s", dstPath)
	}

	rec := &Record{
		Original:  path,
		Path:      dstPath,
		Timestamp: now,
		Size:      n,
		Mode:      mode,
	}
	s.taken[key(path)] = rec
	s.records = append(s.records, rec)
	return rec, true, nil
}

// createExclusive creates the first free name out of base,
// base.<stamp>, base.<stamp>.1, base.<stamp>.2, ...
func createExclusive(base, stamp string, mode fs.FileMode) (*os.File, string, error) {
	candidates := func(i int) string {
		switch i {
		case 0:
			return base
		case 1:
			return base + "." + stamp
		default:
			return fmt.Sprintf("%s.%s.%d", base, stamp, i-1)
		}
	}
	for i := 0; i <= maxCounter+1; i++ {
		name := candidates(i)
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ErrNoFreeName, base)
}

// WriteFile replaces path with data through a temporary file in the same
// directory. On any failure the temporary file is removed and path is left
// as it was.
func WriteFile(path string, data []byte, mode fs.FileMode) error {
	errb := oops.In("backup").With("path", path)

	f, err := atomicfile.New(path, mode)
	if err != nil {
		return errb.Wrapf(err, "create temporary file for %s", path)
	}
	defer f.Cancel()

	if _, err := f.Write(data); err != nil {
		return errb.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errb.Wrapf(err, "replace %s", path)
	}
	return nil
}

// ModeOf returns the permission bits of path, or def if it does not exist.
func ModeOf(path string, def fs.FileMode) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return def
	}
	return info.Mode().Perm()
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
