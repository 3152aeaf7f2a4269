package logs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/styles"
)

// View renders the logs tab.
func (m *Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	switch {
	case m.loadErr != nil:
		sections = append(sections, styles.ErrorCardStyle.Render(
			"Could not read log file:\n"+m.loadErr.Error()))
	case len(m.lines) == 0:
		sections = append(sections, styles.HelpStyle.Render("Log file is empty."))
	default:
		m.viewport.SetContent(m.renderLines())
		if m.follow {
			m.viewport.GotoBottom()
		}
		sections = append(sections, m.viewport.View())
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Logs")

	mode := "paused"
	if m.follow {
		mode = "following"
	}
	parts := []string{mode}
	if m.path != "" {
		parts = append(parts, m.path)
	}
	if !m.loadedAt.IsZero() {
		parts = append(parts, fmt.Sprintf("read %s", m.loadedAt.Format("15:04:05")))
	}
	status := styles.HelpStyle.Render(strings.Join(parts, " · "))

	return lipgloss.JoinVertical(lipgloss.Left, title, status, "")
}

// renderLines tints lines by severity so errors stand out while scrolling.
func (m *Model) renderLines() string {
	out := make([]string, 0, len(m.lines))
	for _, line := range m.lines {
		switch {
		case strings.Contains(line, "level=ERROR"):
			out = append(out, styles.ErrorTextStyle.Render(line))
		case strings.Contains(line, "level=WARN"):
			out = append(out, styles.WarningTextStyle.Render(line))
		case strings.Contains(line, "level=DEBUG"):
			out = append(out, styles.HelpStyle.Render(line))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
