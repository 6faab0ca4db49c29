package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"grimm.is/nodecfg/internal/tui"
)

// ErrChangesPending is returned by diff --exit-code when apply would
// change something.
var ErrChangesPending = errors.New("changes pending")

// ApplyOptions configure RunApply and RunStep.
type ApplyOptions struct {
	GlobalFlags
	Env
	DryRun      bool
	Yes         bool
	TrustHeight int64
	TrustHash   string
}

// RunApply patches app.toml and config.toml, applies statesync when trust
// values are known and merges the Caddyfile when a domain is set.
//
// Every step first runs as a dry run. Nothing is written unless something
// would change and the operator confirms (or passed --yes).
func RunApply(opts ApplyOptions) (err error) {
	rt, err := newRuntime("apply", opts.GlobalFlags, opts.Env, ledgerOptional)
	if err != nil {
		return err
	}
	defer func() { err = rt.finish(err) }()

	s, err := rt.loadSettings()
	if err != nil {
		return err
	}
	trust, err := resolveTrust(s, opts.TrustHeight, opts.TrustHash)
	if err != nil {
		return err
	}

	plan, err := rt.runSteps(StepNames, s, stepParams{DryRun: true, Trust: trust})
	if err != nil {
		return err
	}
	Printer.Fprintln(rt.Out, tui.StyleTitle.Render("Plan"))
	rt.printSummary(plan)

	pending := changedPaths(plan)
	if len(pending) == 0 {
		Printer.Fprintln(rt.Out, "Nothing to do.")
		return nil
	}
	if opts.DryRun {
		return rt.printDiffs(plan)
	}

	if !opts.Yes {
		ok, err := rt.Confirm(Printer.Sprintf("Apply changes to %d file(s)?", len(pending)), strings.Join(pending, "\n"))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			Printer.Fprintln(rt.Out, "Aborted.")
			return nil
		}
	}

	done, err := rt.runSteps(StepNames, s, stepParams{Trust: trust})
	Printer.Fprintln(rt.Out, tui.StyleTitle.Render("Applied"))
	rt.printSummary(done)
	return err
}

// RunStep runs a single step without asking. A step that cannot run with
// the current settings is an error here, unlike in apply.
func RunStep(step string, opts ApplyOptions) (err error) {
	if !slices.Contains(StepNames, step) {
		return fmt.Errorf("unknown step %q", step)
	}
	rt, err := newRuntime(step, opts.GlobalFlags, opts.Env, ledgerOptional)
	if err != nil {
		return err
	}
	defer func() { err = rt.finish(err) }()

	s, err := rt.loadSettings()
	if err != nil {
		return err
	}
	trust, err := resolveTrust(s, opts.TrustHeight, opts.TrustHash)
	if err != nil {
		return err
	}

	results, err := rt.runSteps([]string{step}, s, stepParams{DryRun: opts.DryRun, Trust: trust})
	if err != nil {
		return err
	}
	res := results[0]
	if res.Skipped != "" {
		return fmt.Errorf("%s: %s", step, res.Skipped)
	}
	rt.printSummary(results)
	if opts.DryRun {
		return rt.printDiffs(results)
	}
	return nil
}

// DiffOptions configure RunDiff.
type DiffOptions struct {
	GlobalFlags
	Env
	TrustHeight int64
	TrustHash   string
	// ExitCode makes a pending change an error, like git diff --exit-code.
	ExitCode bool
}

// RunDiff prints what apply would change. Nothing is written.
func RunDiff(opts DiffOptions) (err error) {
	rt, err := newRuntime("diff", opts.GlobalFlags, opts.Env, ledgerNone)
	if err != nil {
		return err
	}
	defer func() { err = rt.finish(err) }()

	s, err := rt.loadSettings()
	if err != nil {
		return err
	}
	trust, err := resolveTrust(s, opts.TrustHeight, opts.TrustHash)
	if err != nil {
		return err
	}

	plan, err := rt.runSteps(StepNames, s, stepParams{DryRun: true, Trust: trust})
	if err != nil {
		return err
	}
	if len(changedPaths(plan)) == 0 {
		Printer.Fprintln(rt.Out, "No changes detected.")
		return nil
	}
	if err := rt.printDiffs(plan); err != nil {
		return err
	}
	if opts.ExitCode {
		return ErrChangesPending
	}
	return nil
}
