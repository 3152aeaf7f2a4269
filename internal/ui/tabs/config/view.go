package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/styles"
)

// View renders the config tab.
func (m *Model) View() string {
	if m.loading {
		return styles.DocStyle.
			Width(m.width).
			Height(m.height).
			Render(styles.HelpStyle.Render("Loading config..."))
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.editing {
		sections = append(sections, styles.FocusedBorderStyle.Render(m.editor.View()))
	} else {
		sections = append(sections, m.renderDocument())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if !m.editing {
		m.viewport.SetContent(content)
		content = m.viewport.View()
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Service Config")

	var status string
	switch {
	case m.editing:
		status = styles.WarningTextStyle.Render("editing · ctrl+s save · esc cancel")
	case m.errorMsg != "":
		status = styles.ErrorTextStyle.Render("error: " + m.errorMsg)
	case m.yamlError != "":
		status = styles.ErrorTextStyle.Render("invalid YAML: " + m.yamlError)
	case !m.loadedAt.IsZero():
		status = styles.HelpStyle.Render(fmt.Sprintf("loaded %s · e edit · r reload",
			m.loadedAt.Format("15:04:05")))
	default:
		status = styles.HelpStyle.Render("e edit · r reload")
	}

	rows := []string{title, status}
	if search := m.renderSearchLine(); search != "" {
		rows = append(rows, search)
	}
	rows = append(rows, "")
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderSearchLine renders the search input or the current match position.
func (m *Model) renderSearchLine() string {
	switch {
	case m.searching:
		return m.search.View()
	case m.query == "":
		return ""
	case len(m.matches) == 0:
		return styles.WarningTextStyle.Render(fmt.Sprintf("/%s · no matches", m.query))
	default:
		return styles.InfoTextStyle.Render(fmt.Sprintf("/%s · match %d/%d · n next · N prev",
			m.query, m.matchIdx+1, len(m.matches)))
	}
}

func (m *Model) renderDocument() string {
	if m.content == "" {
		return styles.HelpStyle.Render("No config loaded.")
	}

	current := -1
	if m.query != "" && len(m.matches) > 0 {
		current = m.matches[m.matchIdx]
	}
	needle := strings.ToLower(m.query)

	var lines []string
	for i, line := range strings.Split(m.content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case i == current:
			lines = append(lines, styles.SelectedListItemStyle.Render(line))
		case needle != "" && strings.Contains(strings.ToLower(line), needle):
			lines = append(lines, styles.WarningTextStyle.Render(line))
		case strings.HasPrefix(trimmed, "#"):
			lines = append(lines, styles.HelpStyle.Render(line))
		case strings.Contains(line, ":"):
			idx := strings.Index(line, ":")
			keyPart := styles.InfoTextStyle.Render(line[:idx])
			lines = append(lines, keyPart+line[idx:])
		default:
			lines = append(lines, line)
		}
	}

	cardWidth := max(m.width-6, 40)
	return styles.CardStyle.Width(cardWidth).Render(strings.Join(lines, "\n"))
}
