package main

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"grimm.is/nodecfg/cmd"
	"grimm.is/nodecfg/internal/brand"
	"grimm.is/nodecfg/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "apply":
		applyFlags := flag.NewFlagSet("apply", flag.ExitOnError)
		var global cmd.GlobalFlags
		global.Register(applyFlags)

		dryRun := applyFlags.Bool("dry-run", false, "Show unified diffs without writing")
		applyFlags.BoolVar(dryRun, "n", false, "Dry run (short)")
		yes := applyFlags.Bool("yes", false, "Do not ask for confirmation")
		applyFlags.BoolVar(yes, "y", false, "Do not ask for confirmation (short)")
		trustHeight := applyFlags.Int64("trust-height", 0, "Statesync trust height")
		trustHash := applyFlags.String("trust-hash", "", "Statesync trust hash")
		applyFlags.Parse(os.Args[2:])

		err := cmd.RunApply(cmd.ApplyOptions{
			GlobalFlags: global,
			DryRun:      *dryRun,
			Yes:         *yes,
			TrustHeight: *trustHeight,
			TrustHash:   *trustHash,
		})
		if err != nil {
			printer.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			os.Exit(1)
		}

	case cmd.StepApp, cmd.StepConfig, cmd.StepStateSync, cmd.StepCaddy:
		step := os.Args[1]
		stepFlags := flag.NewFlagSet(step, flag.ExitOnError)
		var global cmd.GlobalFlags
		global.Register(stepFlags)

		dryRun := stepFlags.Bool("dry-run", false, "Show a unified diff without writing")
		stepFlags.BoolVar(dryRun, "n", false, "Dry run (short)")
		trustHeight := stepFlags.Int64("trust-height", 0, "Statesync trust height")
		trustHash := stepFlags.String("trust-hash", "", "Statesync trust hash")
		stepFlags.Parse(os.Args[2:])

		err := cmd.RunStep(step, cmd.ApplyOptions{
			GlobalFlags: global,
			DryRun:      *dryRun,
			TrustHeight: *trustHeight,
			TrustHash:   *trustHash,
		})
		if err != nil {
			printer.Fprintf(os.Stderr, "%s failed: %v\n", step, err)
			os.Exit(1)
		}

	case "diff":
		diffFlags := flag.NewFlagSet("diff", flag.ExitOnError)
		var global cmd.GlobalFlags
		global.Register(diffFlags)

		exitCode := diffFlags.Bool("exit-code", false, "Exit 1 when apply would change something")
		trustHeight := diffFlags.Int64("trust-height", 0, "Statesync trust height")
		trustHash := diffFlags.String("trust-hash", "", "Statesync trust hash")
		diffFlags.Parse(os.Args[2:])

		err := cmd.RunDiff(cmd.DiffOptions{
			GlobalFlags: global,
			TrustHeight: *trustHeight,
			TrustHash:   *trustHash,
			ExitCode:    *exitCode,
		})
		if errors.Is(err, cmd.ErrChangesPending) {
			os.Exit(1)
		}
		if err != nil {
			printer.Fprintf(os.Stderr, "Diff failed: %v\n", err)
			os.Exit(1)
		}

	case "backups":
		backupsFlags := flag.NewFlagSet("backups", flag.ExitOnError)
		var global cmd.GlobalFlags
		global.Register(backupsFlags)

		limit := backupsFlags.Int("limit", 20, "Number of runs to list")
		backupsFlags.Parse(os.Args[2:])

		opts := cmd.BackupsOptions{GlobalFlags: global, Limit: *limit}
		if len(backupsFlags.Args()) > 0 {
			opts.File = backupsFlags.Arg(0)
		}
		if err := cmd.RunBackups(opts); err != nil {
			printer.Fprintf(os.Stderr, "Backups failed: %v\n", err)
			os.Exit(1)
		}

	case "restore":
		restoreFlags := flag.NewFlagSet("restore", flag.ExitOnError)
		var global cmd.GlobalFlags
		global.Register(restoreFlags)

		dryRun := restoreFlags.Bool("dry-run", false, "Show a unified diff without writing")
		restoreFlags.BoolVar(dryRun, "n", false, "Dry run (short)")
		yes := restoreFlags.Bool("yes", false, "Do not ask for confirmation")
		restoreFlags.BoolVar(yes, "y", false, "Do not ask for confirmation (short)")
		restoreFlags.Parse(os.Args[2:])

		if restoreFlags.NArg() != 1 {
			printer.Println("Usage: " + brand.BinaryName + " restore [options] <backup-id>")
			os.Exit(1)
		}
		id, err := strconv.ParseInt(restoreFlags.Arg(0), 10, 64)
		if err != nil {
			printer.Fprintf(os.Stderr, "Invalid backup id %q\n", restoreFlags.Arg(0))
			os.Exit(1)
		}

		err = cmd.RunRestore(cmd.RestoreOptions{
			GlobalFlags: global,
			ID:          id,
			DryRun:      *dryRun,
			Yes:         *yes,
		})
		if err != nil {
			printer.Fprintf(os.Stderr, "Restore failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		settingsFile := brand.GetSettingsPath()
		if len(checkFlags.Args()) > 0 {
			settingsFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(settingsFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version", "-V":
		cmd.RunVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		printer.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  apply       Patch app.toml and config.toml, apply statesync, merge the Caddyfile
              Options: --dry-run (-n), --yes (-y), --trust-height <n>, --trust-hash <hash>
  app         Patch app.toml only
  config      Patch config.toml only
  statesync   Write the [statesync] section of config.toml
              Options: --trust-height <n>, --trust-hash <hash>
  caddy       Append reverse-proxy blocks to the Caddyfile
  diff        Show what apply would change
              Options: --exit-code
  backups     List recorded runs, or the backups of one file
              Usage: backups [options] [file]
  restore     Copy a recorded backup back over its original
              Options: --dry-run (-n), --yes (-y)
  check       Validate a settings file
              Options: --verbose (-v)
  version     Print the version

Global options (apply, app, config, statesync, caddy, diff, backups, restore):
  --settings (-s) <file>     Settings file (default %s)
  --ledger <file>            Backup ledger (default %s)
  --no-ledger                Do not record backups
  --log-level <level>        debug, info, warn, error
  --json-logs                Log in JSON
  --metrics-textfile <file>  Write run metrics for node_exporter

Examples:
  %s diff
  %s apply --yes --trust-height 1234000 --trust-hash <hash>
  %s backups %s
  %s check -v /etc/nodecfg/node.hcl
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.GetSettingsPath(), brand.GetLedgerPath(),
		brand.LowerName, brand.LowerName, brand.LowerName, "/root/.gaia/config/app.toml",
		brand.LowerName)
}
