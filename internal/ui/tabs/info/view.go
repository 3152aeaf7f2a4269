package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/styles"
	"github.com/doowtsen/cpa-quota-dashboard/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderDataCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}

// renderConfigCard renders the configuration paths card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if cfg := m.config(); cfg != nil {
		rows = append(rows, m.renderRow("Service URL", cfg.BaseURL))
		rows = append(rows, m.renderRow("Service Config", cfg.ConfigYAMLPath))
		rows = append(rows, m.renderRow("Auth Directory", cfg.AuthDir))
		rows = append(rows, m.renderRow("Database", cfg.DatabasePath))
		if cfg.LogFilePath != "" {
			rows = append(rows, m.renderRow("Log File", cfg.LogFilePath))
		}
		rows = append(rows, m.renderRow("Quota Refresh", cfg.QuotaRefreshInterval.String()))
		if m.serviceVersion != "" {
			rows = append(rows, m.renderRow("Service Version", m.serviceVersion))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderDataCard renders counters for credentials and stored history.
func (m *Model) renderDataCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Data"))
	rows = append(rows, "")

	rows = append(rows, m.renderRow("Auth Entries", fmt.Sprintf("%d", m.state.GetEntryCount())))
	if failed := m.state.GetFailedCount(); failed > 0 {
		rows = append(rows, m.renderRow("Failed Queries", styles.ErrorTextStyle.Render(fmt.Sprintf("%d", failed))))
	}
	if m.snapshotsKnown {
		rows = append(rows, m.renderRow("Quota Snapshots", fmt.Sprintf("%d", m.snapshots)))
	} else {
		rows = append(rows, m.renderRow("Quota Snapshots", "n/a"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderRow renders a key-value row.
func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About CPA Quota Dashboard"))
	rows = append(rows, "")

	rows = append(rows, m.renderRow("Version", version.GetVersion()))
	rows = append(rows, m.renderRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
