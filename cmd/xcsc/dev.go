package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xcsc/internal/driver"
	"xcsc/internal/project"
)

// runDev executes the in-memory self-test and reports pass/fail via the
// exit code.
func runDev(cmd *cobra.Command) error {
	manifest := project.Default()
	if root, err := workspaceRoot(cmd); err == nil {
		if m, err := project.LoadManifest(root); err == nil {
			manifest = m
		}
	}

	report, ok := driver.SelfTest(manifest.Generator.Factory, manifest.Generator.Method)
	fmt.Fprintln(cmd.OutOrStdout(), report)
	if !ok {
		return fmt.Errorf("self-test failed")
	}
	return nil
}
