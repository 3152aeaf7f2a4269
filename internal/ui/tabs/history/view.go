package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/components"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if len(m.pairs) == 0 {
		return m.renderEmpty()
	}

	var sections []string
	sections = append(sections,
		m.renderHeader(),
		m.renderSeriesList(),
		m.renderChart(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No historical data available yet."),
		styles.HelpStyle.Render("Snapshots are recorded each time quotas are refreshed."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	pair := m.pairs[m.selected]

	title := styles.TitleStyle.Render("History: " + pair.Key)
	provider := styles.GetProviderStyle(pair.Provider).Render(pair.Provider)

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", provider, "  ", rangeIndicator)

	var subtitle string
	if len(m.points) > 0 {
		first := m.points[0].Timestamp
		last := m.points[len(m.points)-1].Timestamp
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d points)",
			first.Local().Format("Jan 2 15:04"),
			last.Local().Format("Jan 2 15:04"),
			len(m.points),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderSeriesList() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Tracked Series"), "")

	for i, pair := range m.pairs {
		prefix := "  "
		if i == m.selected {
			prefix = styles.FocusedStyle.Render("▸ ")
		}
		provider := styles.GetProviderStyle(pair.Provider).Render(fmt.Sprintf("%-12s", pair.Provider))
		rows = append(rows, fmt.Sprintf("%s%s %s", prefix, provider, pair.Key))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Remaining Quota"), "")

	if len(m.points) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No data in the selected range"))
	} else {
		data := make([]float64, len(m.points))
		for i, p := range m.points {
			data[i] = p.RemainingPercent
		}

		chartWidth := max(cardWidth-12, 30)
		chartHeight := 8

		chart := components.RenderLineChart(data, chartWidth, chartHeight,
			fmt.Sprintf("Remaining %% over %s", m.timeRange.String()))

		for _, line := range strings.Split(chart, "\n") {
			rows = append(rows, "  "+line)
		}

		rows = append(rows, "")
		rows = append(rows, "  "+m.renderDepletionLine())
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderDepletionLine() string {
	est := estimateDepletion(m.points)
	if !est.Valid {
		if est.RatePerHour < 0 {
			return styles.DepletionSafeStyle.Render(
				fmt.Sprintf("Recovering at %.2f%%/hr", -est.RatePerHour))
		}
		return styles.DepletionUnknownStyle.Render("Not enough data for a depletion estimate")
	}

	style := styles.DepletionSafeStyle
	hoursLeft := est.DepleteAt.Sub(m.points[len(m.points)-1].Timestamp).Hours()
	switch {
	case hoursLeft < 6:
		style = styles.DepletionCriticalStyle
	case hoursLeft < 24:
		style = styles.DepletionWarningStyle
	}

	return style.Render(fmt.Sprintf("Depleting at %.2f%%/hr, empty around %s",
		est.RatePerHour,
		est.DepleteAt.Local().Format("Jan 2 15:04"),
	))
}
