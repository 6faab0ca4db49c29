package merge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/logging"
	"grimm.is/nodecfg/internal/metrics"
)

// ErrWriteFailure is returned when the backup or the replacement write
// fails. The existing file is left as it was.
var ErrWriteFailure = errors.New("write failed")

// writeFile replaces the target; tests swap it to force a failed replace.
var writeFile = backup.WriteFile

// FileOptions control File.
type FileOptions struct {
	Options
	// Session carries the already-backed-up flag; nil gives the call its own.
	Session *backup.Session
	// Suffix is the backup suffix; backup.SuffixBak when empty.
	Suffix  string
	DryRun  bool
	Logger  *logging.Logger
	Metrics *metrics.Registry
}

// FileResult is what File did.
type FileResult struct {
	*Result
	Path    string
	Before  string
	Backup  *backup.Record
	Written bool
}

// File merges candidates into the file at path. A missing file is treated
// as empty and is created; nothing is backed up for it.
func File(path string, candidates []Block, opts FileOptions) (*FileResult, error) {
	log := logging.OrDefault(opts.Logger).WithComponent("merge").WithFields(map[string]any{"file": path})
	errb := oops.In("merge").With("path", path)
	suffix := opts.Suffix
	if suffix == "" {
		suffix = backup.SuffixBak
	}

	exists := true
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, errb.Wrapf(err, "read %s", path)
		}
		exists = false
	}

	res := &FileResult{
		Result: Merge(string(data), candidates, opts.Options),
		Path:   path,
		Before: string(data),
	}
	for _, b := range res.Blocks {
		opts.Metrics.RecordBlock(b.Outcome.String())
		if b.Outcome == Skipped {
			log.Info("block already present", "key", b.Key)
		}
	}
	if res.Unterminated {
		log.Warn("filtered block never closes; kept as is", "option", opts.FilterOption)
	}

	if !res.Changed {
		log.Info("nothing to do")
		opts.Metrics.RecordFile("merge", path, false)
		return res, nil
	}
	if opts.DryRun {
		log.Info("dry run; not writing", "appended", len(res.Appended()))
		return res, nil
	}

	mode := fs.FileMode(0644)
	if exists {
		session := opts.Session
		if session == nil {
			session = backup.NewSession(nil)
		}
		rec, created, err := session.Take(path, suffix)
		if err != nil {
			opts.Metrics.RecordFailure("merge", "backup")
			return res, errb.Wrapf(fmt.Errorf("%w: %w", ErrWriteFailure, err), "back up %s", path)
		}
		res.Backup = rec
		if created {
			opts.Metrics.RecordBackup("merge")
			log.Info("backup taken", "backup", rec.Path)
		}
		mode = backup.ModeOf(path, mode)
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return res, errb.Wrapf(fmt.Errorf("%w: %w", ErrWriteFailure, err), "create directory for %s", path)
	}

	if err := writeFile(path, []byte(res.Content), mode); err != nil {
		opts.Metrics.RecordFailure("merge", "write")
		return res, errb.Wrapf(fmt.Errorf("%w: %w", ErrWriteFailure, err), "write %s", path)
	}
	res.Written = true
	opts.Metrics.RecordFile("merge", path, true)

	details := map[string]any{"appended": res.Appended()}
	if res.Backup != nil {
		details["backup"] = res.Backup.Path
	}
	log.Change("merge", path, details)
	return res, nil
}
