package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xcsc/internal/diagfmt"
	"xcsc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "xcsc",
	Short:        "Markup-superset compiler and language server",
	Long:         "xcsc compiles .xcs sources with embedded markup into pure host code under Generated/, with source maps for diagnostic projection.",
	SilenceUsage: true,
	RunE:         runRoot,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.Flags().Bool("lsp", false, "run as a language server over stdio")
	rootCmd.Flags().String("workspace", ".", "workspace root directory")
	rootCmd.Flags().Bool("dev", false, "run the in-memory self-test and exit")
	rootCmd.Flags().Bool("watch", false, "build, then keep watching the workspace")
	rootCmd.Flags().String("downstream", "", "compiler command producing diagnostics for derived files (JSON array on stdout)")

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, _ []string) error {
	configureColor(cmd)

	dev, _ := cmd.Flags().GetBool("dev")
	if dev {
		return runDev(cmd)
	}

	lspMode, _ := cmd.Flags().GetBool("lsp")
	if lspMode {
		return runLSP(cmd)
	}
	return runBuild(cmd)
}

func configureColor(cmd *cobra.Command) {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		diagfmt.SetColorEnabled(true)
	case "off":
		diagfmt.SetColorEnabled(false)
	default:
		diagfmt.SetColorEnabled(isTerminal(os.Stdout))
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
