package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/samber/oops"

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/logging"
	"grimm.is/nodecfg/internal/metrics"
	"grimm.is/nodecfg/internal/validation"
)

var (
	// ErrNotFound is returned when the file to patch does not exist. No
	// backup is attempted.
	ErrNotFound = errors.New("patch target not found")
	// ErrWriteFailure is returned when the backup or the replacement write
	// fails. The original file is left untouched and any backup is kept.
	ErrWriteFailure = errors.New("write failed")
)

// writeFile replaces the target; tests swap it to force a failed replace.
var writeFile = backup.WriteFile

// FileOptions control File.
type FileOptions struct {
	// Session carries the already-backed-up flag. A nil Session gives the
	// call its own session.
	Session *backup.Session
	// Suffix is the backup suffix; backup.SuffixBackup when empty.
	Suffix string
	// DryRun computes the result without touching the filesystem.
	DryRun bool
	// CheckTOML logs a warning when the patched content no longer parses
	// as TOML but the original did.
	CheckTOML bool
	Logger    *logging.Logger
	Metrics   *metrics.Registry
}

// Result is what File did to one file.
type Result struct {
	Path   string
	Report *Report
	Before string
	After  string
	// Backup is set when a backup exists for this path in the session.
	Backup *backup.Record
	// Written reports whether the file was replaced.
	Written bool
}

// File patches the file at path in place. Nothing is backed up or written
// when the rules change nothing.
func File(path string, rules *RuleSet, opts FileOptions) (*Result, error) {
	log := logging.OrDefault(opts.Logger).WithComponent("patch").WithFields(map[string]any{"file": path})
	errb := oops.In("patch").With("path", path)
	suffix := opts.Suffix
	if suffix == "" {
		suffix = backup.SuffixBackup
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			opts.Metrics.RecordFailure("patch", "not_found")
			return nil, errb.Wrapf(fmt.Errorf("%w: %w", ErrNotFound, err), "patch %s", path)
		}
		return nil, errb.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, errb.Errorf("patch %s: is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errb.Wrapf(err, "read %s", path)
	}

	before := string(data)
	lines, report := Apply(SplitLines(before), rules)
	res := &Result{
		Path:   path,
		Report: report,
		Before: before,
		After:  JoinLines(lines),
	}

	for _, o := range report.Outcomes {
		opts.Metrics.RecordRule(path, o.Rule.Section, o.Matched, o.Rewritten)
	}
	for _, d := range report.Discrepancies {
		opts.Metrics.RecordDiscrepancy(path, d.Kind.String())
		log.Warn(d.String(), "kind", d.Kind.String(), "policy", d.Rule.Policy.String())
	}
	opts.Metrics.RecordMalformed(path, len(report.MalformedHeaders))
	if n := len(report.MalformedHeaders); n > 0 {
		log.Warn("bracket lines are not section headers; passed through", "lines", report.MalformedHeaders)
	}

	if !report.Changed {
		log.Debug("already up to date", "matched", report.Matches())
		opts.Metrics.RecordFile("patch", path, false)
		return res, nil
	}

	if opts.CheckTOML {
		if err := validation.CheckTOML([]byte(res.After)); err != nil && validation.CheckTOML(data) == nil {
			log.Warn("patched content does not parse as TOML", "error", err)
		}
	}

	if opts.DryRun {
		log.Info("dry run; not writing", "rewrites", report.Rewrites())
		return res, nil
	}

	session := opts.Session
	if session == nil {
		session = backup.NewSession(nil)
	}
	rec, created, err := session.Take(path, suffix)
	if err != nil {
		opts.Metrics.RecordFailure("patch", "backup")
		return res, errb.Wrapf(fmt.Errorf("%w: %w", ErrWriteFailure, err), "back up %s", path)
	}
	res.Backup = rec
	if created {
		opts.Metrics.RecordBackup("patch")
		log.Info("backup taken", "backup", rec.Path)
	}

	if err := writeFile(path, []byte(res.After), info.Mode().Perm()); err != nil {
		opts.Metrics.RecordFailure("patch", "write")
		return res, errb.With("backup", rec.Path).Wrapf(fmt.Errorf("%w: %w", ErrWriteFailure, err), "write %s", path)
	}
	res.Written = true
	opts.Metrics.RecordFile("patch", path, true)

	log.Change("patch", path, map[string]any{
		"rewrites": report.Rewrites(),
		"backup":   rec.Path,
	})
	return res, nil
}
