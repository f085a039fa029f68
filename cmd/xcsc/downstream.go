package main

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"xcsc/internal/diag"
	"xcsc/internal/lsp"
	"xcsc/internal/transform"
)

// downstreamDiagnostic is the JSON shape the downstream compiler command
// prints on stdout: one array of these per invocation.
type downstreamDiagnostic struct {
	File        string `json:"file"`
	StartOffset int    `json:"startOffset"`
	Length      int    `json:"length"`
	Code        string `json:"code"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
}

// newDownstream builds the server hook from the --downstream command. The
// command runs once per transform with the derived path appended; its stdout
// is parsed as a diagnostic array. An empty command disables the hook and
// the server publishes empty diagnostic sets.
func newDownstream(command string, logger *zap.SugaredLogger) lsp.DownstreamFunc {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	argv, err := shellquote.Split(command)
	if err != nil || len(argv) == 0 {
		logger.Warnw("invalid downstream command", "command", command, "error", err)
		return nil
	}
	return func(ctx context.Context, _ *transform.Payload, derivedPath string) []diag.Downstream {
		args := append(argv[1:len(argv):len(argv)], derivedPath)
		out, err := exec.CommandContext(ctx, argv[0], args...).Output()
		if err != nil {
			logger.Warnw("downstream command failed", "command", argv[0], "error", err)
			return nil
		}
		var raw []downstreamDiagnostic
		if err := json.Unmarshal(out, &raw); err != nil {
			logger.Warnw("downstream output is not a diagnostic array", "error", err)
			return nil
		}
		list := make([]diag.Downstream, 0, len(raw))
		for _, d := range raw {
			list = append(list, diag.Downstream{
				File:        d.File,
				StartOffset: d.StartOffset,
				Length:      d.Length,
				Code:        d.Code,
				Severity:    parseSeverity(d.Severity),
				Message:     d.Message,
			})
		}
		return list
	}
}

func parseSeverity(s string) diag.Severity {
	switch strings.ToLower(s) {
	case "warning":
		return diag.SevWarning
	case "info", "hint":
		return diag.SevInfo
	default:
		return diag.SevError
	}
}
