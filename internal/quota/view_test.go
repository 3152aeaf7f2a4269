package quota

import (
	"testing"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

func TestViewState_Defaults(t *testing.T) {
	vs := NewViewState(models.ProviderCodex)
	if vs.Mode != ModePaged || vs.Page != 1 || vs.PageSize != 3 || vs.View != ViewPretty {
		t.Errorf("unexpected codex defaults: %+v", vs)
	}
	if NewViewState(models.ProviderAntigravity).View != ViewModels {
		t.Error("expected antigravity to default to models view")
	}
}

func TestViewState_PageCount(t *testing.T) {
	vs := NewViewState(models.ProviderCodex)
	tests := []struct {
		entries, pages int
	}{
		{0, 1},
		{1, 1},
		{3, 1},
		{4, 2},
		{7, 3},
	}
	for _, tt := range tests {
		if got := vs.PageCount(tt.entries); got != tt.pages {
			t.Errorf("%d entries: expected %d pages, got %d", tt.entries, tt.pages, got)
		}
	}

	vs.SetMode(ModeAll)
	if vs.PageCount(10) != 1 {
		t.Error("expected single page in show-all mode")
	}
}

func TestViewState_PagingClamped(t *testing.T) {
	vs := NewViewState(models.ProviderCodex)

	vs.PrevPage(7)
	if vs.Page != 1 {
		t.Errorf("prev at first page should be a no-op, got %d", vs.Page)
	}

	vs.NextPage(7)
	vs.NextPage(7)
	if vs.Page != 3 {
		t.Errorf("expected page 3, got %d", vs.Page)
	}
	vs.NextPage(7)
	if vs.Page != 3 {
		t.Errorf("next at last page should be a no-op, got %d", vs.Page)
	}

	vs.SetMode(ModePaged)
	if vs.Page != 1 {
		t.Errorf("mode change should reset the page, got %d", vs.Page)
	}
}

func TestViewState_CycleView(t *testing.T) {
	vs := NewViewState(models.ProviderCodex)
	vs.CycleView(models.ProviderCodex)
	if vs.View != ViewJSON {
		t.Errorf("expected JSON, got %s", vs.View)
	}
	vs.CycleView(models.ProviderCodex)
	if vs.View != ViewPretty {
		t.Errorf("expected wrap back to Cards, got %s", vs.View)
	}

	av := NewViewState(models.ProviderAntigravity)
	order := []View{ViewManagement, ViewJSON, ViewModels}
	for _, want := range order {
		av.CycleView(models.ProviderAntigravity)
		if av.View != want {
			t.Fatalf("expected %s, got %s", want, av.View)
		}
	}
}

func TestViewState_ToggleScopeKeepsPage(t *testing.T) {
	vs := NewViewState(models.ProviderAntigravity)
	vs.NextPage(7)
	vs.ToggleScope()
	if vs.Scope != ScopeAll {
		t.Errorf("expected ScopeAll, got %s", vs.Scope)
	}
	if vs.Page != 2 {
		t.Errorf("scope toggle must not reset the page, got %d", vs.Page)
	}
}

func TestViewState_Slice(t *testing.T) {
	entries := make([]Entry, 7)
	for i := range entries {
		entries[i].Key = string(rune('a' + i))
	}

	vs := NewViewState(models.ProviderCodex)
	vs.Page = 3
	window, pages := vs.Slice(entries)
	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	if len(window) != 1 || window[0].Key != "g" {
		t.Errorf("unexpected last page window: %+v", window)
	}

	// Page clamps back into range when the entry set shrinks.
	window, pages = vs.Slice(entries[:2])
	if pages != 1 || vs.Page != 1 {
		t.Errorf("expected clamp to page 1, got page %d of %d", vs.Page, pages)
	}
	if len(window) != 2 {
		t.Errorf("expected full remaining window, got %d", len(window))
	}

	vs.SetMode(ModeAll)
	window, pages = vs.Slice(entries)
	if pages != 1 || len(window) != 7 {
		t.Errorf("expected all entries on one page, got %d of %d pages", len(window), pages)
	}
}
