package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xcsc/internal/driver"
	"xcsc/internal/project"
	"xcsc/internal/workspace"
)

// runBuild transforms the workspace once; with --watch it then keeps
// rebuilding on changes until interrupted.
func runBuild(cmd *cobra.Command) error {
	root, err := workspaceRoot(cmd)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	watch, _ := cmd.Flags().GetBool("watch")

	logger, err := newLogger(watch && !quiet)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	manifest, err := project.LoadManifest(root)
	if err != nil {
		sugar.Warnw("manifest load failed, using defaults", "error", err)
		manifest = project.Default()
	}

	coord := workspace.NewCoordinator(root, manifest, sugar)
	defer coord.Close()

	results, err := driver.Build(cmd.Context(), coord, root, sugar)
	if err != nil {
		return err
	}
	if !quiet {
		fresh := 0
		for _, r := range results {
			if r.Reused {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (up to date)\n",
					coord.RelPath(r.Path), coord.RelPath(r.Derived))
				continue
			}
			fresh++
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d map entries)\n",
				coord.RelPath(r.Path), coord.RelPath(r.Derived), r.Maps)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "transformed %d file(s), %d up to date\n",
			fresh, len(results)-fresh)
	}

	if !watch {
		return nil
	}

	engine, err := workspace.NewWatchEngine(coord, sugar)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := engine.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer engine.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-cmd.Context().Done():
	}
	return nil
}

func workspaceRoot(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("workspace")
	root, err := project.ValidateRoot(path)
	if err != nil {
		return "", fmt.Errorf("invalid workspace: %w", err)
	}
	return root, nil
}
