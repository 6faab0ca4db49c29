package cmd

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/nodecfg/internal/config"
	"grimm.is/nodecfg/internal/merge"
	"grimm.is/nodecfg/internal/node"
	"grimm.is/nodecfg/internal/patch"
	"grimm.is/nodecfg/internal/tui"
	"grimm.is/nodecfg/internal/validation"
)

// Step names, in the order apply runs them.
const (
	StepApp       = "app"
	StepConfig    = "config"
	StepStateSync = "statesync"
	StepCaddy     = "caddy"
)

// StepNames lists every step.
var StepNames = []string{StepApp, StepConfig, StepStateSync, StepCaddy}

// stepResult is what one step did, or would do, to its file.
type stepResult struct {
	Step    string
	Path    string
	Before  string
	After   string
	Changed bool
	Written bool
	// Skipped is the reason the step did not run.
	Skipped string
	Summary string
}

func (r *stepResult) status() string {
	switch {
	case r.Skipped != "":
		return tui.StatusSkipped
	case r.Written:
		return tui.StatusWritten
	case r.Changed:
		return tui.StatusPending
	default:
		return tui.StatusUnchanged
	}
}

type stepParams struct {
	DryRun bool
	Trust  node.Trust
}

type stepFunc func(rt *Runtime, s *config.Settings, p stepParams) (*stepResult, error)

var steps = map[string]stepFunc{
	StepApp:       runApp,
	StepConfig:    runConfig,
	StepStateSync: runStateSync,
	StepCaddy:     runCaddy,
}

func runApp(rt *Runtime, s *config.Settings, p stepParams) (*stepResult, error) {
	rules, err := node.AppTOMLRules(s)
	if err != nil {
		return nil, err
	}
	return rt.patchFile(StepApp, s.AppTOMLPath(), rules, p.DryRun)
}

func runConfig(rt *Runtime, s *config.Settings, p stepParams) (*stepResult, error) {
	rules, err := node.ConfigTOMLRules(s)
	if err != nil {
		return nil, err
	}
	return rt.patchFile(StepConfig, s.ConfigTOMLPath(), rules, p.DryRun)
}

func runStateSync(rt *Runtime, s *config.Settings, p stepParams) (*stepResult, error) {
	path := s.ConfigTOMLPath()
	if !s.StateSyncConfigured() {
		return &stepResult{Step: StepStateSync, Path: path, Skipped: "sync method is not statesync"}, nil
	}
	if p.Trust.Height <= 0 || p.Trust.Hash == "" {
		return &stepResult{Step: StepStateSync, Path: path, Skipped: "no trust height/hash (use --trust-height and --trust-hash)"}, nil
	}
	rules, err := node.StateSyncRules(s, p.Trust)
	if err != nil {
		return nil, err
	}
	return rt.patchFile(StepStateSync, path, rules, p.DryRun)
}

func runCaddy(rt *Runtime, s *config.Settings, p stepParams) (*stepResult, error) {
	path := s.Caddy.Caddyfile
	switch {
	case s.Caddy.Domain == "":
		return &stepResult{Step: StepCaddy, Path: path, Skipped: "no domain set"}, nil
	case !s.ExposesAny():
		return &stepResult{Step: StepCaddy, Path: path, Skipped: "no endpoint is exposed"}, nil
	}

	res, err := merge.File(path, node.CaddyBlocks(s), merge.FileOptions{
		Options: merge.Options{Header: node.CaddyHeader(s)},
		Session: rt.Session,
		DryRun:  p.DryRun,
		Logger:  rt.Log,
		Metrics: rt.Metrics,
	})
	if err != nil {
		return nil, err
	}
	appended := len(res.Appended())
	return &stepResult{
		Step:    StepCaddy,
		Path:    path,
		Before:  res.Before,
		After:   res.Content,
		Changed: res.Changed,
		Written: res.Written,
		Summary: Printer.Sprintf("%d appended, %d already present", appended, len(res.Blocks)-appended),
	}, nil
}

func (rt *Runtime) patchFile(step, path string, rules *patch.RuleSet, dryRun bool) (*stepResult, error) {
	res, err := patch.File(path, rules, patch.FileOptions{
		Session:   rt.Session,
		DryRun:    dryRun,
		CheckTOML: true,
		Logger:    rt.Log.WithFields(map[string]any{"step": step}),
		Metrics:   rt.Metrics,
	})
	if err != nil {
		return nil, err
	}
	r := res.Report
	return &stepResult{
		Step:    step,
		Path:    path,
		Before:  res.Before,
		After:   res.After,
		Changed: r.Changed,
		Written: res.Written,
		Summary: Printer.Sprintf("%d rewritten, %d matched, %d discrepancies", r.Rewrites(), r.Matches(), len(r.Discrepancies)),
	}, nil
}

// runSteps runs the named steps in order and stops at the first error.
func (rt *Runtime) runSteps(names []string, s *config.Settings, p stepParams) ([]*stepResult, error) {
	var out []*stepResult
	for _, name := range names {
		res, err := steps[name](rt, s, p)
		if !p.DryRun {
			rt.recordBackups()
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// resolveTrust prefers trust values given on the command line over the
// ones in the settings file.
func resolveTrust(s *config.Settings, height int64, hash string) (node.Trust, error) {
	t := node.Trust{Height: s.Sync.TrustHeight, Hash: s.Sync.TrustHash}
	if height > 0 {
		t.Height = height
	}
	if hash != "" {
		if err := validation.ValidateTrustHash(hash); err != nil {
			return t, fmt.Errorf("--trust-hash: %w", err)
		}
		t.Hash = hash
	}
	return t, nil
}

func changedPaths(results []*stepResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		if r.Changed && !seen[r.Path] {
			seen[r.Path] = true
			out = append(out, r.Path)
		}
	}
	sort.Strings(out)
	return out
}

func (rt *Runtime) printSummary(results []*stepResult) {
	for _, r := range results {
		detail := r.Summary
		if r.Skipped != "" {
			detail = r.Skipped
		}
		Printer.Fprintf(rt.Out, "  %-10s %s %s  %s\n", r.Step, tui.Status(r.status()), r.Path, tui.StyleMuted.Render(detail))
	}
}

func (rt *Runtime) printDiffs(results []*stepResult) error {
	for _, r := range results {
		if !r.Changed {
			continue
		}
		text, err := unifiedDiff(r)
		if err != nil {
			return err
		}
		Printer.Fprint(rt.Out, tui.ColorizeDiff(text))
	}
	return nil
}

func unifiedDiff(r *stepResult) (string, error) {
	from := r.Path
	var a []string
	if r.Before == "" {
		from = "/dev/null"
	} else {
		a = difflib.SplitLines(r.Before)
	}
	diff := difflib.UnifiedDiff{
		A:        a,
		B:        difflib.SplitLines(r.After),
		FromFile: from,
		ToFile:   r.Path + " (" + r.Step + ")",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", r.Path, err)
	}
	return text, nil
}
