package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/shotmaker/internal/manifest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderSummary formats the end-of-run table: totals, then each failed file.
func renderSummary(m *manifest.Manifest, planned int, manifestPath string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Прогон " + m.RunID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d/%d\n", okStyle.Render("готово:"), m.Count(manifest.StatusOK), planned)

	if n := m.Count(manifest.StatusFailed); n > 0 {
		fmt.Fprintf(&b, "%s %d\n", failStyle.Render("ошибки:"), n)
		for _, a := range m.Artifacts {
			if a.Status == manifest.StatusFailed {
				fmt.Fprintf(&b, "  %s %s\n", failStyle.Render(a.ErrorKind), a.File)
			}
		}
	}
	if skipped := planned - len(m.Artifacts); skipped > 0 {
		fmt.Fprintf(&b, "%s %d\n", mutedStyle.Render("не снято:"), skipped)
	}

	hidden := 0
	for _, a := range m.Artifacts {
		if a.Visible != nil && !*a.Visible {
			hidden++
		}
	}
	if hidden > 0 {
		fmt.Fprintf(&b, "%s %d\n", mutedStyle.Render("объект не найден в кадре:"), hidden)
	}

	b.WriteString(mutedStyle.Render("манифест: " + manifestPath))
	return summaryBox.Render(b.String())
}
