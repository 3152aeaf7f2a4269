package quota

import (
	"sort"
	"time"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// Scope selects which models the Antigravity parser surfaces.
type Scope int

const (
	// ScopeRecommended keeps the provider-curated groups plus image models.
	ScopeRecommended Scope = iota
	// ScopeAll flattens every model that reports remaining quota.
	ScopeAll
)

// String returns the display name for a scope.
func (s Scope) String() string {
	if s == ScopeAll {
		return "All"
	}
	return "Recommended"
}

// Toggle flips between the two scopes.
func (s Scope) Toggle() Scope {
	if s == ScopeAll {
		return ScopeRecommended
	}
	return ScopeAll
}

const (
	imageGroupTitle = "Image Generation"
	allGroupTitle   = "All Models"

	imageGroupLimit = 12
)

// ParseAntigravityModels normalizes a fetchAvailableModels body into the
// model-quota shape. Returns nil when the models map is absent; an empty or
// malformed response is indistinguishable from "no data" at this layer.
//
// ScopeRecommended walks the provider-supplied sort groupings and keeps the
// first sort that yields any resolvable group (first-listed wins), then
// appends a synthetic image-generation group for image-capable models not
// already listed. ScopeAll flattens every model carrying a remaining
// fraction, sorted by recommended flag descending then display name.
func ParseAntigravityModels(body any, scope Scope) *models.AntigravityModels {
	m := asObject(body)
	if m == nil {
		return nil
	}
	modelMap, ok := m["models"].(map[string]any)
	if !ok || modelMap == nil {
		return nil
	}

	if scope == ScopeAll {
		return &models.AntigravityModels{Groups: []models.ModelGroup{allModelsGroup(modelMap)}}
	}

	out := &models.AntigravityModels{}
	for _, sortVal := range sliceField(m, "agentModelSorts") {
		sortObj, ok := sortVal.(map[string]any)
		if !ok {
			continue
		}
		title := strField(sortObj, "displayName")
		if title == "" {
			title = "Recommended"
		}
		for _, groupVal := range sliceField(sortObj, "groups") {
			groupObj, ok := groupVal.(map[string]any)
			if !ok {
				continue
			}
			items := resolveModelIDs(modelMap, idStrings(sliceField(groupObj, "modelIds")))
			if len(items) > 0 {
				out.Groups = append(out.Groups, models.ModelGroup{Title: title, Items: items})
			}
		}
		if len(out.Groups) > 0 {
			break
		}
	}

	// Image-capable models stay visible even when the curated groups skip them.
	if imageIDs := idStrings(sliceField(m, "imageGenerationModelIds")); len(imageIDs) > 0 {
		seen := make(map[string]bool)
		for _, g := range out.Groups {
			for _, it := range g.Items {
				seen[it.ID] = true
			}
		}
		var extra []string
		for _, id := range imageIDs {
			if !seen[id] {
				extra = append(extra, id)
			}
		}
		items := resolveModelIDs(modelMap, extra)
		if len(items) > imageGroupLimit {
			items = items[:imageGroupLimit]
		}
		if len(items) > 0 {
			out.Groups = append(out.Groups, models.ModelGroup{Title: imageGroupTitle, Items: items})
		}
	}

	return out
}

// resolveModelIDs looks up ids in the models map, keeping only ids that
// resolve, in the given order.
func resolveModelIDs(modelMap map[string]any, ids []string) []models.ModelQuotaItem {
	var items []models.ModelQuotaItem
	for _, id := range ids {
		entry, ok := modelMap[id].(map[string]any)
		if !ok {
			continue
		}
		items = append(items, modelItem(id, entry))
	}
	return items
}

func modelItem(id string, entry map[string]any) models.ModelQuotaItem {
	item := models.ModelQuotaItem{
		ID:          id,
		DisplayName: strField(entry, "displayName"),
		Recommended: boolField(entry, "recommended"),
	}
	if item.DisplayName == "" {
		item.DisplayName = id
	}
	if q := objField(entry, "quotaInfo"); q != nil {
		if f, ok := numField(q, "remainingFraction"); ok {
			item.RemainingFraction = &f
		}
		item.ResetTime = anyField(q, "resetTime")
	}
	return item
}

func allModelsGroup(modelMap map[string]any) models.ModelGroup {
	var items []models.ModelQuotaItem
	for id, v := range modelMap {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		item := modelItem(id, entry)
		if item.RemainingFraction == nil {
			continue
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Recommended != items[j].Recommended {
			return items[i].Recommended
		}
		return items[i].DisplayName < items[j].DisplayName
	})
	return models.ModelGroup{Title: allGroupTitle, Items: items}
}

func idStrings(vals []any) []string {
	var out []string
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ManagementGroup is a fixed model grouping used by the management view.
type ManagementGroup struct {
	Label       string
	Identifiers []string
}

// ManagementGroups mirrors the groupings shown by the CPA management center.
var ManagementGroups = []ManagementGroup{
	{
		Label: "Claude/GPT",
		Identifiers: []string{
			"claude-sonnet-4-5",
			"claude-sonnet-4-5-thinking",
			"claude-opus-4-5-thinking",
			"gpt-oss-120b-medium",
		},
	},
	{
		Label: "Gemini 3 Pro",
		Identifiers: []string{
			"gemini-3-pro-high",
			"gemini-3-pro-low",
			"gemini-3-pro-preview",
			"gemini-3-pro",
		},
	},
	{Label: "Gemini 2.5 Flash", Identifiers: []string{"gemini-2.5-flash", "gemini-2.5-flash-preview"}},
	{Label: "Gemini 2.5 Flash Lite", Identifiers: []string{"gemini-2.5-flash-lite", "gemini-2.5-flash-lite-preview"}},
	{Label: "Gemini 3 Flash", Identifiers: []string{"gemini-3-flash", "gemini-3-flash-preview"}},
	{Label: "Gemini 3 Pro Image", Identifiers: []string{"gemini-3-pro-image", "gemini-3-pro-image-preview"}},
}

// ManagementLine is one aggregated row of the management view.
type ManagementLine struct {
	Label             string
	RemainingFraction float64
	ResetTime         time.Time
	HasReset          bool
}

// AggregateManagementGroup folds a raw Antigravity body into one line for a
// fixed group: the minimum remaining fraction across its identifiers and the
// earliest reset time. Returns nil when no identifier reports quota.
func AggregateManagementGroup(raw any, group ManagementGroup) *ManagementLine {
	m := asObject(raw)
	if m == nil {
		return nil
	}
	modelMap, ok := m["models"].(map[string]any)
	if !ok {
		return nil
	}

	line := &ManagementLine{Label: group.Label}
	found := false
	for _, id := range group.Identifiers {
		entry, ok := modelMap[id].(map[string]any)
		if !ok {
			continue
		}
		q := objField(entry, "quotaInfo")
		if q == nil {
			continue
		}
		if f, ok := numField(q, "remainingFraction"); ok {
			if !found || f < line.RemainingFraction {
				line.RemainingFraction = f
			}
			found = true
		}
		if t, ok := models.ParseResetTime(anyField(q, "resetTime")); ok {
			if !line.HasReset || t.Before(line.ResetTime) {
				line.ResetTime = t
				line.HasReset = true
			}
		}
	}
	if !found {
		return nil
	}
	return line
}
