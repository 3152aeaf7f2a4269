package quota

import (
	"testing"
	"time"
)

const antigravityFixture = `{
	"models": {
		"gemini-3-pro":      {"displayName": "Gemini 3 Pro", "recommended": true, "quotaInfo": {"remainingFraction": 0.5, "resetTime": "2026-02-01T00:00:00Z"}},
		"gemini-3-flash":    {"displayName": "Gemini 3 Flash", "recommended": true, "quotaInfo": {"remainingFraction": 0.9}},
		"claude-sonnet-4-5": {"displayName": "Claude Sonnet", "quotaInfo": {"remainingFraction": 0.1, "resetTime": "2026-01-15T00:00:00Z"}},
		"legacy-model":      {"displayName": "Legacy"},
		"image-gen":         {"displayName": "Image Gen", "quotaInfo": {"remainingFraction": 1.0}}
	},
	"agentModelSorts": [
		{"displayName": "Curated", "groups": [
			{"modelIds": ["gemini-3-pro", "claude-sonnet-4-5", "missing-id"]}
		]},
		{"displayName": "Fallback", "groups": [
			{"modelIds": ["gemini-3-flash"]}
		]}
	],
	"imageGenerationModelIds": ["image-gen", "gemini-3-pro"]
}`

func TestParseAntigravityModels_Recommended(t *testing.T) {
	out := ParseAntigravityModels(decodeJSON(t, antigravityFixture), ScopeRecommended)
	if out == nil {
		t.Fatal("expected models, got nil")
	}
	if len(out.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out.Groups))
	}

	// First sort that resolves wins; the fallback sort never appears.
	curated := out.Groups[0]
	if curated.Title != "Curated" {
		t.Errorf("expected Curated group, got %q", curated.Title)
	}
	if len(curated.Items) != 2 {
		t.Fatalf("expected 2 curated items, got %d", len(curated.Items))
	}
	if curated.Items[0].ID != "gemini-3-pro" || curated.Items[1].ID != "claude-sonnet-4-5" {
		t.Errorf("curated order wrong: %q, %q", curated.Items[0].ID, curated.Items[1].ID)
	}

	// Image models already listed in a curated group are not repeated.
	img := out.Groups[1]
	if img.Title != "Image Generation" {
		t.Errorf("expected Image Generation group, got %q", img.Title)
	}
	if len(img.Items) != 1 || img.Items[0].ID != "image-gen" {
		t.Errorf("unexpected image items: %+v", img.Items)
	}
}

func TestParseAntigravityModels_All(t *testing.T) {
	out := ParseAntigravityModels(decodeJSON(t, antigravityFixture), ScopeAll)
	if out == nil || len(out.Groups) != 1 {
		t.Fatalf("expected single group, got %+v", out)
	}
	g := out.Groups[0]
	if g.Title != "All Models" {
		t.Errorf("expected All Models, got %q", g.Title)
	}
	// legacy-model has no quotaInfo and is dropped; four models remain.
	if len(g.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(g.Items))
	}
	// Recommended models sort first, then by display name.
	if !g.Items[0].Recommended || !g.Items[1].Recommended {
		t.Errorf("expected recommended models first: %+v", g.Items)
	}
	if g.Items[0].DisplayName > g.Items[1].DisplayName {
		t.Errorf("recommended models not name-sorted: %q before %q", g.Items[0].DisplayName, g.Items[1].DisplayName)
	}
	if g.Items[2].DisplayName > g.Items[3].DisplayName {
		t.Errorf("remaining models not name-sorted: %q before %q", g.Items[2].DisplayName, g.Items[3].DisplayName)
	}
}

func TestParseAntigravityModels_DisplayNameFallback(t *testing.T) {
	out := ParseAntigravityModels(decodeJSON(t, `{
		"models": {"bare-id": {"quotaInfo": {"remainingFraction": 0.3}}}
	}`), ScopeAll)
	if out == nil || len(out.Groups) != 1 || len(out.Groups[0].Items) != 1 {
		t.Fatalf("unexpected shape: %+v", out)
	}
	if out.Groups[0].Items[0].DisplayName != "bare-id" {
		t.Errorf("expected id as display name, got %q", out.Groups[0].Items[0].DisplayName)
	}
}

func TestParseAntigravityModels_NoModels(t *testing.T) {
	if ParseAntigravityModels(decodeJSON(t, `{"agentModelSorts": []}`), ScopeRecommended) != nil {
		t.Error("expected nil when models map is absent")
	}
	if ParseAntigravityModels(nil, ScopeAll) != nil {
		t.Error("expected nil for nil body")
	}
}

func TestScopeToggle(t *testing.T) {
	s := ScopeRecommended
	if s.Toggle() != ScopeAll || s.Toggle().Toggle() != ScopeRecommended {
		t.Error("scope toggle not an involution")
	}
	if ScopeAll.String() != "All" || ScopeRecommended.String() != "Recommended" {
		t.Errorf("unexpected scope names: %s, %s", ScopeAll, ScopeRecommended)
	}
}

func TestAggregateManagementGroup(t *testing.T) {
	raw := decodeJSON(t, `{
		"models": {
			"gemini-3-pro-high": {"quotaInfo": {"remainingFraction": 0.7, "resetTime": "2026-02-01T00:00:00Z"}},
			"gemini-3-pro-low":  {"quotaInfo": {"remainingFraction": 0.4, "resetTime": "2026-01-20T00:00:00Z"}},
			"gemini-3-pro":      {"quotaInfo": {"remainingFraction": 0.9}}
		}
	}`)
	group := ManagementGroup{Label: "Gemini 3 Pro", Identifiers: []string{"gemini-3-pro-high", "gemini-3-pro-low", "gemini-3-pro-preview", "gemini-3-pro"}}

	line := AggregateManagementGroup(raw, group)
	if line == nil {
		t.Fatal("expected line, got nil")
	}
	if line.RemainingFraction != 0.4 {
		t.Errorf("expected minimum fraction 0.4, got %v", line.RemainingFraction)
	}
	want := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	if !line.HasReset || !line.ResetTime.Equal(want) {
		t.Errorf("expected earliest reset %v, got %v (has=%v)", want, line.ResetTime, line.HasReset)
	}
}

func TestAggregateManagementGroup_NoData(t *testing.T) {
	raw := decodeJSON(t, `{"models": {"other": {"quotaInfo": {"remainingFraction": 0.5}}}}`)
	if line := AggregateManagementGroup(raw, ManagementGroup{Label: "X", Identifiers: []string{"absent"}}); line != nil {
		t.Errorf("expected nil line, got %+v", line)
	}
	if AggregateManagementGroup(nil, ManagementGroups[0]) != nil {
		t.Error("expected nil for nil body")
	}
}
