package quota

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
	"github.com/doowtsen/cpa-quota-dashboard/internal/quota"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/components"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/styles"
)

const (
	jsonPreviewLines = 16
	groupItemLimit   = 16
)

// View renders the quota tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	var sections []string
	sections = append(sections, m.renderTitle())

	for i, kind := range providerOrder {
		sections = append(sections, m.renderProviderPane(kind, i == m.focused))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Provider Quotas")

	updated := "never"
	if m.manager != nil {
		if t := m.manager.Quota().Store().UpdatedAt(); !t.IsZero() {
			updated = t.Local().Format("15:04:05")
		}
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Codex / Gemini CLI / Antigravity · updated %s", updated))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderProviderPane(kind models.ProviderKind, focused bool) string {
	vs := m.viewStates[kind]
	var entries []quota.Entry
	if m.manager != nil {
		entries = m.manager.Quota().Store().Entries(kind)
	}

	cardWidth := max(m.width-6, 40)
	contentWidth := max(cardWidth-8, 30)

	visible, pageCount := vs.Slice(entries)

	var rows []string
	rows = append(rows, m.renderPaneHeader(kind, vs, len(entries), pageCount, focused))

	switch {
	case len(entries) == 0 && m.state.Loading.Quota:
		rows = append(rows, "")
		rows = append(rows, components.SimpleQuotaBarLoading(kind.String(), contentWidth, m.animationFrame))
	case len(entries) == 0:
		rows = append(rows, "")
		rows = append(rows, styles.HelpStyle.Render("  No results. Press r to refresh."))
	default:
		for i, entry := range visible {
			rows = append(rows, "")
			selected := focused && i == m.selectedIndex
			rows = append(rows, m.renderEntryCard(kind, vs, entry, selected, contentWidth))
		}
	}

	border := styles.CardStyle
	if focused {
		border = border.BorderForeground(styles.Primary)
	}
	return border.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderPaneHeader(kind models.ProviderKind, vs *quota.ViewState, total, pageCount int, focused bool) string {
	marker := "  "
	if focused {
		marker = styles.FocusedStyle.Render("▸ ")
	}

	name := styles.GetProviderStyle(kind.String()).Render(kind.Title())
	viewLabel := styles.HelpStyle.Render("[" + vs.View.String() + "]")

	var pager string
	if vs.Mode == quota.ModeAll {
		pager = styles.PagerStyle.Render(fmt.Sprintf("all · %d entries", total))
	} else {
		pager = styles.PagerStyle.Render(fmt.Sprintf("page %d/%d · %d entries", vs.Page, pageCount, total))
	}

	header := fmt.Sprintf("%s%s %s  %s", marker, name, viewLabel, pager)
	if kind == models.ProviderAntigravity {
		scope := styles.ScopeBadgeStyle.Render("scope: " + vs.Scope.String())
		header += "  " + scope
	}
	return header
}

func (m *Model) renderEntryCard(kind models.ProviderKind, vs *quota.ViewState, entry quota.Entry, selected bool, width int) string {
	var lines []string
	lines = append(lines, renderEntryHeader(entry, selected))

	res := entry.Result
	switch {
	case res.Failed():
		lines = append(lines, renderError(res.Err))
	case vs.View == quota.ViewJSON:
		lines = append(lines, renderJSON(res.Raw)...)
	case kind == models.ProviderAntigravity && vs.View == quota.ViewManagement:
		lines = append(lines, renderManagement(res.Raw, width)...)
	case kind == models.ProviderAntigravity:
		lines = append(lines, renderModelGroups(res.Raw, vs.Scope, width)...)
	case kind == models.ProviderCodex:
		lines = append(lines, renderCodex(res, width)...)
	default:
		lines = append(lines, renderGemini(res, width)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderEntryHeader(entry quota.Entry, selected bool) string {
	prefix := "  "
	if selected {
		prefix = styles.FocusedStyle.Render("▸ ")
	}

	status := styles.SuccessTextStyle.Render("●")
	if entry.Result.Failed() {
		status = styles.ErrorTextStyle.Render("●")
	}

	return fmt.Sprintf("%s%s %s", prefix, status, lipgloss.NewStyle().Bold(true).Render(entry.Key))
}

func renderError(errText string) string {
	return styles.ErrorCardStyle.Render(styles.ErrorTextStyle.Render(errText))
}

func renderJSON(raw any) []string {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return []string{styles.ErrorTextStyle.Render("  " + err.Error())}
	}

	lines := strings.Split(string(data), "\n")
	truncated := false
	if len(lines) > jsonPreviewLines {
		lines = lines[:jsonPreviewLines]
		truncated = true
	}

	var out []string
	for _, l := range lines {
		out = append(out, styles.HelpStyle.Render("  "+l))
	}
	if truncated {
		out = append(out, styles.HelpStyle.Render("  ..."))
	}
	return out
}

func renderCodex(res models.QuotaResult, width int) []string {
	usage, ok := res.Parsed.(*models.CodexUsage)
	if !ok || usage == nil {
		return []string{styles.HelpStyle.Render("  No usage data")}
	}

	var lines []string
	if usage.PlanType != "" {
		lines = append(lines, styles.HelpStyle.Render("  Plan: "+usage.PlanType))
	}

	for _, w := range usage.Windows {
		if w.RemainingPercent == nil {
			lines = append(lines, fmt.Sprintf("  %s %s",
				lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(w.Label),
				styles.HelpStyle.Render("n/a")))
			continue
		}
		lines = append(lines, "  "+components.SimpleQuotaBar(float64(*w.RemainingPercent), w.Label, width-2))
		lines = append(lines, renderResetLine(w.ResetAt))
	}

	if len(lines) == 0 {
		return []string{styles.HelpStyle.Render("  No usage data")}
	}
	return lines
}

func renderGemini(res models.QuotaResult, width int) []string {
	q, ok := res.Parsed.(*models.GeminiQuota)
	if !ok || q == nil || len(q.Buckets) == 0 {
		return []string{styles.HelpStyle.Render("  No quota data")}
	}

	var lines []string
	for _, b := range q.Buckets {
		label := b.ModelID
		if b.TokenType != "" {
			label += " (" + b.TokenType + ")"
		}
		lines = append(lines, "  "+components.FractionBar(b.RemainingFraction, label, width-2))
		lines = append(lines, renderResetLine(b.ResetTime))
	}
	return lines
}

// renderModelGroups re-derives the grouped model view from the stored raw
// body so scope toggles never require a refetch.
func renderModelGroups(raw any, scope quota.Scope, width int) []string {
	parsed := quota.ParseAntigravityModels(raw, scope)
	if parsed == nil || len(parsed.Groups) == 0 {
		return []string{styles.HelpStyle.Render("  No model data")}
	}

	var lines []string
	for _, g := range parsed.Groups {
		lines = append(lines, "  "+styles.SubTitleStyle.Render(g.Title))
		items := g.Items
		if len(items) > groupItemLimit {
			items = items[:groupItemLimit]
		}
		for _, item := range items {
			label := item.DisplayName
			if item.Recommended {
				label = "★ " + label
			}
			lines = append(lines, "  "+components.FractionBar(item.RemainingFraction, label, width-2))
			lines = append(lines, renderResetLine(item.ResetTime))
		}
	}
	return lines
}

func renderManagement(raw any, width int) []string {
	var lines []string
	for _, group := range quota.ManagementGroups {
		line := quota.AggregateManagementGroup(raw, group)
		if line == nil {
			continue
		}
		lines = append(lines, "  "+components.SimpleQuotaBar(line.RemainingFraction*100, line.Label, width-2))
		if line.HasReset {
			lines = append(lines, renderResetLine(line.ResetTime))
		}
	}
	if len(lines) == 0 {
		return []string{styles.HelpStyle.Render("  No model data")}
	}
	return lines
}

func renderResetLine(resetAt any) string {
	formatted := models.FormatResetTime(resetAt)
	if formatted == "-" {
		return styles.ResetTimeStyle.Render("    resets -")
	}
	return styles.ResetTimeStyle.Render("    resets " + formatted)
}
