package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/state"
	"grimm.is/nodecfg/internal/tui"
)

// BackupsOptions configure RunBackups.
type BackupsOptions struct {
	GlobalFlags
	Env
	// File lists the backups of one file. Empty lists recent runs.
	File  string
	Limit int
}

// RunBackups lists what the ledger recorded.
func RunBackups(opts BackupsOptions) (err error) {
	rt, err := newRuntime("backups", opts.GlobalFlags, opts.Env, ledgerReadOnly)
	if err != nil {
		return err
	}
	defer func() { err = rt.finish(err) }()

	tw := tabwriter.NewWriter(rt.Out, 0, 0, 2, ' ', 0)

	if opts.File == "" {
		runs, err := rt.Ledger.Runs(opts.Limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			Printer.Fprintln(rt.Out, "No runs recorded.")
			return nil
		}
		fmt.Fprintln(tw, "RUN\tSTARTED\tCOMMAND\tSTATUS\tBACKUPS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.StartedAt.Local().Format(time.DateTime), r.Command, r.Status, r.Backups)
		}
		return tw.Flush()
	}

	path, err := filepath.Abs(opts.File)
	if err != nil {
		return err
	}
	entries, err := rt.Ledger.Backups(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		Printer.Fprintf(rt.Out, "No backups recorded for %s.\n", path)
		return nil
	}
	fmt.Fprintln(tw, "ID\tTAKEN\tSIZE\tMODE\tBACKUP")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", e.ID, e.Timestamp.Local().Format(time.DateTime), e.Size, e.Mode, e.Path)
	}
	return tw.Flush()
}

// RestoreOptions configure RunRestore.
type RestoreOptions struct {
	GlobalFlags
	Env
	ID     int64
	DryRun bool
	Yes    bool
}

// RunRestore copies a recorded backup back over its original. The current
// content is backed up first, so a restore can itself be undone.
func RunRestore(opts RestoreOptions) (err error) {
	rt, err := newRuntime("restore", opts.GlobalFlags, opts.Env, ledgerRequired)
	if err != nil {
		return err
	}
	defer func() { err = rt.finish(err) }()

	entry, err := rt.Ledger.Backup(opts.ID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("no backup with id %d", opts.ID)
		}
		return err
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	current, err := os.ReadFile(entry.Original)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", entry.Original, err)
	}

	if exists && bytes.Equal(current, data) {
		Printer.Fprintf(rt.Out, "%s already matches backup %d.\n", entry.Original, entry.ID)
		return nil
	}

	res := &stepResult{
		Step:    "restore",
		Path:    entry.Original,
		Before:  string(current),
		After:   string(data),
		Changed: true,
	}
	if opts.DryRun {
		return rt.printDiffs([]*stepResult{res})
	}
	if !opts.Yes {
		ok, err := rt.Confirm(Printer.Sprintf("Restore %s?", entry.Original), Printer.Sprintf("from %s", entry.Path))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			Printer.Fprintln(rt.Out, "Aborted.")
			return nil
		}
	}

	details := map[string]any{"from": entry.Path}
	mode := entry.Mode
	if exists {
		rec, _, err := rt.Session.Take(entry.Original, backup.SuffixBak)
		if err != nil {
			rt.Metrics.RecordFailure("restore", "backup")
			return err
		}
		rt.Metrics.RecordBackup("restore")
		details["backup"] = rec.Path
		mode = backup.ModeOf(entry.Original, mode)
	}

	if err := backup.WriteFile(entry.Original, data, mode); err != nil {
		rt.Metrics.RecordFailure("restore", "write")
		return err
	}
	rt.Metrics.RecordFile("restore", entry.Original, true)
	rt.Log.Change("restore", entry.Original, details)

	Printer.Fprintf(rt.Out, "%s %s from %s\n", tui.Status(tui.StatusWritten), entry.Original, entry.Path)
	return nil
}
