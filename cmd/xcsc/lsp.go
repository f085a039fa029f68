package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xcsc/internal/diag"
	"xcsc/internal/lsp"
	"xcsc/internal/project"
	"xcsc/internal/workspace"
)

// runLSP serves the wire protocol over stdio. Stdout carries only framed
// JSON-RPC; all logging goes to stderr.
func runLSP(cmd *cobra.Command) error {
	root, err := workspaceRoot(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(false)
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
	suppressions := project.LoadSuppressions(root)

	coord := workspace.NewCoordinator(root, manifest, sugar)
	defer coord.Close()

	downstreamCmd, _ := cmd.Flags().GetString("downstream")
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Coordinator: coord,
		Translator:  diag.NewTranslator(suppressions),
		Downstream:  newDownstream(downstreamCmd, sugar),
		Logger:      sugar,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}

// newLogger builds the stderr zap logger: development config when verbose,
// production otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
