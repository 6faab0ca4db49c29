package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"grimm.is/nodecfg/internal/brand"
	"grimm.is/nodecfg/internal/config"
	"grimm.is/nodecfg/internal/node"
	"grimm.is/nodecfg/internal/patch"
)

// RunCheck validates the settings file syntax and semantics.
func RunCheck(settingsFile string, verbose bool) error {
	if len(settingsFile) == 0 {
		return fmt.Errorf("usage: %s check [-v] <settings-file>\nExample: %s check -v /etc/nodecfg/node.hcl", brand.BinaryName, brand.BinaryName)
	}

	s, err := config.LoadFile(settingsFile)
	if err != nil {
		return fmt.Errorf("settings invalid: %w", err)
	}

	errs := s.Validate()
	for _, w := range errs.Warnings() {
		Printer.Printf("warning: %s\n", w.Error())
	}
	if errs.HasErrors() {
		for _, e := range errs.Errors() {
			Printer.Printf("error: %s\n", e.Error())
		}
		return fmt.Errorf("settings invalid: %d error(s)", len(errs.Errors()))
	}

	Printer.Printf("Settings valid!\n")
	Printer.Printf("Node: %s\n", node.Identity(s))
	Printer.Printf("Home: %s\n", s.Node.Home)
	Printer.Printf("Sync: %s\n", s.Sync.Method)

	if verbose {
		Printer.Println()
		printSummary(s)
	}
	return nil
}

func printSummary(s *config.Settings) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "FILE\tSECTION\tKEY\tVALUE")
	app, err := node.AppTOMLRules(s)
	if err == nil {
		printRules(w, s.AppTOMLPath(), app.Rules())
	}
	cfg, err := node.ConfigTOMLRules(s)
	if err == nil {
		printRules(w, s.ConfigTOMLPath(), cfg.Rules())
	}
	if s.StateSyncConfigured() {
		trust := node.Trust{Height: s.Sync.TrustHeight, Hash: s.Sync.TrustHash}
		if ss, err := node.StateSyncRules(s, trust); err == nil {
			printRules(w, s.ConfigTOMLPath(), ss.Rules())
		} else {
			fmt.Fprintf(w, "%s\tstatesync\t-\t(%v)\n", s.ConfigTOMLPath(), err)
		}
	}

	if s.Caddy.Domain != "" && s.ExposesAny() {
		for _, b := range node.CaddyBlocks(s) {
			fmt.Fprintf(w, "%s\t-\t%s\tsite block\n", s.Caddy.Caddyfile, b.Key)
		}
	}
}

func printRules(w io.Writer, path string, rules []patch.Rule) {
	for _, r := range rules {
		section := r.Section
		if section == "" {
			section = "(root)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", path, section, r.Key, r.Value.Render())
	}
}
