package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/brand"
	"grimm.is/nodecfg/internal/clock"
	"grimm.is/nodecfg/internal/config"
	"grimm.is/nodecfg/internal/logging"
	"grimm.is/nodecfg/internal/metrics"
	"grimm.is/nodecfg/internal/state"
	"grimm.is/nodecfg/internal/tui"
)

// GlobalFlags are accepted by every subcommand that reads settings or the
// ledger.
type GlobalFlags struct {
	Settings        string
	LogLevel        string
	JSONLogs        bool
	Ledger          string
	NoLedger        bool
	MetricsTextfile string
}

// Register adds the global flags to fs.
func (g *GlobalFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&g.Settings, "settings", brand.GetSettingsPath(), "Installer settings file (.hcl, .yaml)")
	fs.StringVar(&g.Settings, "s", brand.GetSettingsPath(), "Installer settings file (short)")
	fs.StringVar(&g.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&g.JSONLogs, "json-logs", false, "Log in JSON")
	fs.StringVar(&g.Ledger, "ledger", brand.GetLedgerPath(), "Backup ledger database")
	fs.BoolVar(&g.NoLedger, "no-ledger", false, "Do not record backups in the ledger")
	fs.StringVar(&g.MetricsTextfile, "metrics-textfile", "", "Write run metrics to this file (node_exporter textfile format)")
}

// Env is what a command talks to. Zero fields fall back to the terminal,
// the real clock and the process-wide metrics registry.
type Env struct {
	Out     io.Writer
	Err     io.Writer
	Clock   clock.Clock
	Metrics *metrics.Registry
	// Confirm asks the operator before files are written.
	Confirm func(title, description string) (bool, error)
}

func (e Env) withDefaults() Env {
	if e.Out == nil {
		e.Out = os.Stdout
	}
	if e.Err == nil {
		e.Err = os.Stderr
	}
	e.Clock = clock.OrReal(e.Clock)
	if e.Metrics == nil {
		e.Metrics = metrics.Get()
	}
	if e.Confirm == nil {
		e.Confirm = tui.Confirm
	}
	return e
}

type ledgerUse int

const (
	ledgerNone     ledgerUse = iota // never opened
	ledgerOptional                  // run recorded when the ledger opens
	ledgerRequired                  // run recorded; failure to open is fatal
	ledgerReadOnly                  // failure to open is fatal; no run recorded
)

// Runtime is the state of one CLI invocation.
type Runtime struct {
	Env
	Command string
	RunID   string
	Log     *logging.Logger
	Session *backup.Session
	Ledger  *state.Ledger

	flags     GlobalFlags
	started   time.Time
	recordRun bool
	recorded  int
}

func newRuntime(command string, flags GlobalFlags, env Env, use ledgerUse) (*Runtime, error) {
	env = env.withDefaults()

	level, err := logging.ParseLevel(flags.LogLevel)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := logging.New(logging.Config{
		Level:  level,
		Output: env.Err,
		JSON:   flags.JSONLogs,
	}).WithFields(map[string]any{"run": runID, "command": command})
	logging.SetDefault(log)

	rt := &Runtime{
		Env:     env,
		Command: command,
		RunID:   runID,
		Log:     log,
		Session: backup.NewSession(env.Clock),
		flags:   flags,
		started: env.Clock.Now(),
	}

	if use == ledgerNone {
		return rt, nil
	}
	required := use == ledgerRequired || use == ledgerReadOnly
	if flags.NoLedger || flags.Ledger == "" {
		if required {
			return nil, fmt.Errorf("%s needs the backup ledger (--ledger)", command)
		}
		return rt, nil
	}

	ledger, err := openLedger(flags.Ledger, env.Clock)
	if err == nil && use != ledgerReadOnly {
		if err = ledger.BeginRun(runID, command); err != nil {
			ledger.Close()
		}
	}
	if err != nil {
		if required {
			return nil, err
		}
		log.Warn("backup ledger unavailable; backups will not be recorded", "ledger", flags.Ledger, "error", err)
		return rt, nil
	}
	rt.Ledger = ledger
	rt.recordRun = use != ledgerReadOnly
	return rt, nil
}

func openLedger(path string, c clock.Clock) (*state.Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	opts := state.DefaultOptions(path)
	opts.Clock = c
	return state.Open(opts)
}

// loadSettings reads and validates the settings file. Warnings are logged;
// any error-severity entry is fatal.
func (rt *Runtime) loadSettings() (*config.Settings, error) {
	s, err := config.LoadFile(rt.flags.Settings)
	if err != nil {
		return nil, err
	}

	errs := s.Validate()
	for _, w := range errs.Warnings() {
		rt.Log.Warn(w.Message, "field", w.Field)
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("invalid settings %s: %w", rt.flags.Settings, errs.Errors())
	}

	// Ledger rows are keyed by path; keep them absolute.
	if s.Node.Home, err = filepath.Abs(s.Node.Home); err != nil {
		return nil, err
	}
	if s.Caddy.Caddyfile, err = filepath.Abs(s.Caddy.Caddyfile); err != nil {
		return nil, err
	}
	return s, nil
}

// recordBackups copies backups taken since the last call into the ledger.
func (rt *Runtime) recordBackups() {
	records := rt.Session.Records()
	if rt.Ledger == nil || !rt.recordRun {
		rt.recorded = len(records)
		return
	}
	for _, rec := range records[rt.recorded:] {
		if _, err := rt.Ledger.RecordBackup(rt.RunID, rec); err != nil {
			rt.Log.Warn("failed to record backup", "backup", rec.Path, "error", err)
		}
	}
	rt.recorded = len(records)
}

// finish closes the run. It returns runErr unchanged; bookkeeping failures
// are only logged.
func (rt *Runtime) finish(runErr error) error {
	rt.recordBackups()
	rt.Metrics.RecordRun(rt.started, rt.Clock.Now())

	if rt.Ledger != nil {
		if rt.recordRun {
			status := state.RunOK
			if runErr != nil {
				status = state.RunFailed
			}
			if err := rt.Ledger.FinishRun(rt.RunID, status); err != nil && !errors.Is(err, state.ErrNotFound) {
				rt.Log.Warn("failed to close run in ledger", "error", err)
			}
		}
		if err := rt.Ledger.Close(); err != nil {
			rt.Log.Warn("failed to close ledger", "error", err)
		}
	}

	if path := rt.flags.MetricsTextfile; path != "" {
		if err := rt.Metrics.WriteTextfile(path); err != nil {
			rt.Log.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}
	return runErr
}
