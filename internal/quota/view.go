package quota

import "github.com/doowtsen/cpa-quota-dashboard/internal/models"

// Mode controls whether a provider pane pages its entries or shows them all.
type Mode int

const (
	// ModePaged shows a fixed-size window of entries.
	ModePaged Mode = iota
	// ModeAll shows every entry on a single page.
	ModeAll
)

// View selects the rendering variant of a provider pane. Codex and Gemini
// cycle pretty/json; Antigravity cycles models/management/json.
type View int

const (
	ViewPretty View = iota
	ViewJSON
	ViewModels
	ViewManagement
)

// String returns the toggle label for a view.
func (v View) String() string {
	switch v {
	case ViewJSON:
		return "JSON"
	case ViewModels:
		return "Models"
	case ViewManagement:
		return "Management"
	default:
		return "Cards"
	}
}

// DefaultPageSize is the number of entry cards per page.
const DefaultPageSize = 3

// ViewState is the per-provider UI state controlling which slice and shape
// of stored data is rendered. It never holds a copy of the data itself and
// no transition mutates the result store.
type ViewState struct {
	Mode     Mode
	Page     int
	PageSize int
	View     View
	Scope    Scope
}

// NewViewState returns the default view state for a provider.
func NewViewState(kind models.ProviderKind) ViewState {
	vs := ViewState{Mode: ModePaged, Page: 1, PageSize: DefaultPageSize, View: ViewPretty}
	if kind == models.ProviderAntigravity {
		vs.View = ViewModels
	}
	return vs
}

// PageCount derives the number of pages for an entry count. ModeAll always
// yields a single page.
func (v ViewState) PageCount(entryCount int) int {
	if v.Mode == ModeAll {
		return 1
	}
	size := v.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	pages := (entryCount + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return pages
}

// SetMode switches the display mode and resets to the first page.
func (v *ViewState) SetMode(mode Mode) {
	v.Mode = mode
	v.Page = 1
}

// NextPage advances one page, clamped; navigation at the boundary is a
// no-op rather than wrapping.
func (v *ViewState) NextPage(entryCount int) {
	if v.Page < v.PageCount(entryCount) {
		v.Page++
	}
}

// PrevPage goes back one page, clamped at the first page.
func (v *ViewState) PrevPage(entryCount int) {
	if v.Page > 1 {
		v.Page--
	}
}

// CycleView advances to the next view variant for the provider; unlike
// paging this wraps around.
func (v *ViewState) CycleView(kind models.ProviderKind) {
	if kind == models.ProviderAntigravity {
		switch v.View {
		case ViewModels:
			v.View = ViewManagement
		case ViewManagement:
			v.View = ViewJSON
		default:
			v.View = ViewModels
		}
		return
	}
	if v.View == ViewJSON {
		v.View = ViewPretty
	} else {
		v.View = ViewJSON
	}
}

// ToggleScope flips the model-quota scope filter without resetting the page.
func (v *ViewState) ToggleScope() {
	v.Scope = v.Scope.Toggle()
}

// Slice derives the visible window of entries for the current state,
// clamping the page into range first. The slice is re-derived from store
// contents on every render.
func (v *ViewState) Slice(entries []Entry) ([]Entry, int) {
	pageCount := v.PageCount(len(entries))
	if v.Mode == ModeAll {
		v.Page = 1
		return entries, 1
	}
	if v.Page > pageCount {
		v.Page = pageCount
	}
	if v.Page < 1 {
		v.Page = 1
	}
	size := v.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	start := (v.Page - 1) * size
	if start >= len(entries) {
		return nil, pageCount
	}
	end := start + size
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], pageCount
}
