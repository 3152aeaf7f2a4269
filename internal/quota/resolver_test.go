package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

type mockFetcher struct {
	files     map[string]map[string]any
	err       error
	downloads []string
}

func (m *mockFetcher) DownloadAuthFileJSON(_ context.Context, name string) (map[string]any, error) {
	m.downloads = append(m.downloads, name)
	if m.err != nil {
		return nil, m.err
	}
	details, ok := m.files[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return details, nil
}

func entryFrom(t *testing.T, fixture string) models.AuthEntry {
	t.Helper()
	m, ok := decodeJSON(t, fixture).(map[string]any)
	if !ok {
		t.Fatal("fixture is not an object")
	}
	return models.EntryFromMap(m)
}

func TestResolver_ExplicitIdentifiersSkipDownload(t *testing.T) {
	fetcher := &mockFetcher{}
	r := NewResolver(fetcher)
	ctx := context.Background()

	e := entryFrom(t, `{"name": "codex-user.json", "provider": "codex", "chatgpt_account_id": "acct_1", "project_id": "proj-1"}`)
	if got := r.AccountID(ctx, e); got != "acct_1" {
		t.Errorf("expected acct_1, got %q", got)
	}
	if got := r.ProjectID(ctx, e); got != "proj-1" {
		t.Errorf("expected proj-1, got %q", got)
	}
	if len(fetcher.downloads) != 0 {
		t.Errorf("expected no downloads, got %v", fetcher.downloads)
	}
}

func TestResolver_ProjectFromAccountString(t *testing.T) {
	r := NewResolver(&mockFetcher{})
	e := entryFrom(t, `{"name": "g.json", "provider": "gemini-cli", "account": "user@example.com (my-project)"}`)
	if got := r.ProjectID(context.Background(), e); got != "my-project" {
		t.Errorf("expected my-project, got %q", got)
	}
}

func TestResolver_ProjectFromFilename(t *testing.T) {
	r := NewResolver(&mockFetcher{})
	ctx := context.Background()

	e := entryFrom(t, `{"name": "gemini-user@example.com-bright-sky-123.json", "provider": "gemini-cli"}`)
	if got := r.ProjectID(ctx, e); got != "123" {
		t.Errorf("expected 123, got %q", got)
	}

	// The filename heuristic only applies to gemini-flavored providers.
	fetcher := &mockFetcher{}
	r = NewResolver(fetcher)
	e = entryFrom(t, `{"name": "antigravity-thing-123.json", "provider": "antigravity"}`)
	if got := r.ProjectID(ctx, e); got != "" {
		t.Errorf("expected empty for non-gemini filename, got %q", got)
	}
	if len(fetcher.downloads) != 1 {
		t.Errorf("expected fallback download attempt, got %v", fetcher.downloads)
	}
}

func TestResolver_DownloadFallback(t *testing.T) {
	fetcher := &mockFetcher{files: map[string]map[string]any{
		"antigravity-user.json": {"project_id": "from-file", "account_id": "acct-file"},
	}}
	r := NewResolver(fetcher)
	ctx := context.Background()
	e := entryFrom(t, `{"name": "antigravity-user.json", "provider": "antigravity"}`)

	if got := r.ProjectID(ctx, e); got != "from-file" {
		t.Errorf("expected from-file, got %q", got)
	}
	if got := r.AccountID(ctx, e); got != "acct-file" {
		t.Errorf("expected acct-file, got %q", got)
	}
	// Both lookups share one cached download.
	if len(fetcher.downloads) != 1 {
		t.Errorf("expected 1 download, got %d", len(fetcher.downloads))
	}
}

func TestResolver_NegativeCache(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("gone")}
	r := NewResolver(fetcher)
	ctx := context.Background()
	e := entryFrom(t, `{"name": "broken.json", "provider": "antigravity"}`)

	for i := 0; i < 3; i++ {
		if got := r.ProjectID(ctx, e); got != "" {
			t.Errorf("expected empty project id, got %q", got)
		}
	}
	if len(fetcher.downloads) != 1 {
		t.Errorf("expected failed download to be cached, got %d attempts", len(fetcher.downloads))
	}

	// Reset drops negative entries so the file is retried.
	r.Reset()
	r.ProjectID(ctx, e)
	if len(fetcher.downloads) != 2 {
		t.Errorf("expected retry after reset, got %d attempts", len(fetcher.downloads))
	}
}
