// Package output provides terminal output utilities for npmmirror.
//
// This package includes:
//   - Table rendering for run history and per-run package outcomes
//   - One-line tally summaries for snapshot and publish runs
//   - Progress bars and spinners for long-running loops
//
// Color is only emitted when stdout is a TTY and NO_COLOR is unset.
// Progress indicators are thread-safe.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/npmmirror/internal/store"
)

// ANSI color codes for outcome display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderRunTable renders a table of recorded runs in the order given.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-9s %-15s %-9s %6s %8s %8s %7s  %s\n",
		"ID", "Kind", "Started", "Duration", "Total", "Success", "Skipped", "Failed", "Target"))
	sb.WriteString(strings.Repeat("─", 96))
	sb.WriteString("\n")

	for _, run := range runs {
		failed := fmt.Sprintf("%7d", run.Failed)
		if run.Failed > 0 {
			failed = colorize(colorRed, failed)
		}

		sb.WriteString(fmt.Sprintf("%-5d %-9s %-15s %-9s %6d %8d %8d %s  %s\n",
			run.ID,
			run.Kind,
			formatRelativeTime(run.StartedAt),
			formatDuration(run.FinishedAt.Sub(run.StartedAt)),
			run.Total,
			run.Succeeded,
			run.Skipped,
			failed,
			truncate(run.Target, 40)))
	}

	return sb.String()
}

// RenderRunPackagesTable renders the per-package outcomes of one run.
func RenderRunPackagesTable(pkgs []*store.RunPackage) string {
	if len(pkgs) == 0 {
		return "No packages recorded for this run.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-40s %-16s %-10s %s\n", "Package", "Version", "Outcome", "Detail"))
	sb.WriteString(strings.Repeat("─", 96))
	sb.WriteString("\n")

	for _, pkg := range pkgs {
		outcome := fmt.Sprintf("%-10s", pkg.Outcome)
		sb.WriteString(fmt.Sprintf("%-40s %-16s %s %s\n",
			truncate(pkg.Name, 40),
			truncate(pkg.Version, 16),
			colorize(outcomeColor(pkg.Outcome), outcome),
			truncate(firstLine(pkg.Detail), 60)))
	}

	return sb.String()
}

// RenderTally renders a one-line run summary, e.g.
// "✓ 12 published · 3 skipped · 1 failed (16 total)".
func RenderTally(verb string, success, skipped, failed int) string {
	total := success + skipped + failed
	mark := colorize(colorGreen, "✓")
	if failed > 0 {
		mark = colorize(colorRed, "✗")
	}

	parts := []string{fmt.Sprintf("%d %s", success, verb)}
	parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	failedPart := fmt.Sprintf("%d failed", failed)
	if failed > 0 {
		failedPart = colorize(colorRed, failedPart)
	}
	parts = append(parts, failedPart)

	return fmt.Sprintf("%s %s (%d total)\n", mark, strings.Join(parts, " · "), total)
}

// outcomeColor returns the ANSI color code for a package outcome.
func outcomeColor(outcome string) string {
	switch strings.ToLower(outcome) {
	case "published", "created":
		return colorGreen
	case "skipped", "existing":
		return colorYellow
	case "failed":
		return colorRed
	default:
		return colorGray
	}
}

// formatDuration renders d rounded for table display.
func formatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "—"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 30*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// firstLine returns s up to its first newline; npm errors are multi-line.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
