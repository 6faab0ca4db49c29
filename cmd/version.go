package cmd

import "grimm.is/nodecfg/internal/brand"

// RunVersion prints the build version.
func RunVersion() {
	Printer.Printf("%s %s (%s)\n", brand.BinaryName, brand.Version, brand.GitCommit)
}
