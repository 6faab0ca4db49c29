// Package tui holds the terminal styling and prompts used by the CLI.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// NodeCfg Color Palette
var (
	ColorAccent = lipgloss.Color("#A8D8EA")
	ColorDeep   = lipgloss.Color("#596E79")
	ColorAlert  = lipgloss.Color("#FF6B6B") // failures
	ColorGood   = lipgloss.Color("#4ECDC4") // written
	ColorWarn   = lipgloss.Color("#FFE66D") // pending / discrepancies
	ColorMuted  = lipgloss.Color("#6c757d") // unchanged
)

// Styles
var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorDeep)

	StyleStatusGood = lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	StyleStatusBad  = lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)
	StyleStatusWarn = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	StyleMuted      = lipgloss.NewStyle().Foreground(ColorMuted)

	StyleDiffAdd    = lipgloss.NewStyle().Foreground(ColorGood)
	StyleDiffRemove = lipgloss.NewStyle().Foreground(ColorAlert)
	StyleDiffHunk   = lipgloss.NewStyle().Foreground(ColorDeep)
)

// Status labels, padded so columns line up.
const (
	StatusWritten   = "written"
	StatusPending   = "pending"
	StatusUnchanged = "unchanged"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Status renders a step status with its color.
func Status(s string) string {
	label := lipgloss.NewStyle().Width(9).Render(s)
	switch s {
	case StatusWritten:
		return StyleStatusGood.Render(label)
	case StatusPending:
		return StyleStatusWarn.Render(label)
	case StatusFailed:
		return StyleStatusBad.Render(label)
	default:
		return StyleMuted.Render(label)
	}
}

// ColorizeDiff colors the lines of a unified diff.
func ColorizeDiff(diff string) string {
	if diff == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = StyleTitle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = StyleDiffAdd.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = StyleDiffRemove.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = StyleDiffHunk.Render(line)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
