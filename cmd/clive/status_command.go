package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clive/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check external tool availability and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("External tools", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			anyMissing := false
			for _, status := range statuses {
				kind := statusOK
				message := status.Command
				if !status.Available {
					kind = statusError
					message = status.Detail
					anyMissing = true
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Model", statusInfo, cfg.Model.Name, colorize))
			fmt.Fprintln(out, renderStatusLine("Cache dir", statusInfo, cfg.Paths.CacheDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Output dir", statusInfo, cfg.Paths.OutputDir, colorize))
			keywordKind := statusOK
			keywordMessage := fmt.Sprintf("%d configured", len(cfg.Keywords))
			if len(cfg.Keywords) == 0 {
				keywordKind = statusWarn
				keywordMessage = "none configured; pass --keyword or add [[keyword]] blocks"
			}
			fmt.Fprintln(out, renderStatusLine("Keywords", keywordKind, keywordMessage, colorize))

			if anyMissing {
				return fmt.Errorf("one or more required tools are missing")
			}
			return nil
		},
	}
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText = fmt.Sprintf("%s %s", statusText, message)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
