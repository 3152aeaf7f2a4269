package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/doowtsen/cpa-quota-dashboard/internal/cpa"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// mockManagementClient implements ManagementClient for testing.
type mockManagementClient struct {
	listing []models.AuthEntry
	listErr error
	files   map[string]map[string]any
	calls   []cpa.APICallRequest
	respond func(req cpa.APICallRequest) (any, error)
}

func (m *mockManagementClient) ListAuthFiles(_ context.Context) ([]models.AuthEntry, error) {
	return m.listing, m.listErr
}

func (m *mockManagementClient) DownloadAuthFileJSON(_ context.Context, name string) (map[string]any, error) {
	if details, ok := m.files[name]; ok {
		return details, nil
	}
	return nil, errors.New("not found")
}

func (m *mockManagementClient) APICall(_ context.Context, req cpa.APICallRequest) (any, error) {
	m.calls = append(m.calls, req)
	return m.respond(req)
}

func okEnvelope(body string) any {
	return map[string]any{"status_code": float64(200), "body": body}
}

func failEnvelope(code int, msg string) any {
	return map[string]any{"status_code": float64(code), "error": msg}
}

func TestService_FetchCodex(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			if req.URL != "https://chatgpt.com/backend-api/wham/usage" {
				t.Errorf("unexpected URL %q", req.URL)
			}
			if req.Header["Authorization"] != "Bearer $TOKEN$" {
				t.Errorf("expected token sentinel, got %q", req.Header["Authorization"])
			}
			if req.Header["Chatgpt-Account-Id"] != "acct_1" {
				t.Errorf("expected account header, got %q", req.Header["Chatgpt-Account-Id"])
			}
			return okEnvelope(`{"plan_type":"plus","rate_limit":{"primary_window":{"used_percent":40}}}`), nil
		},
	}
	svc := NewService(client)
	e := entryFrom(t, `{"auth_index": 2, "name": "codex.json", "provider": "codex", "chatgpt_account_id": "acct_1"}`)

	if err := svc.FetchEntry(context.Background(), e); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	entries := svc.Store().Entries(models.ProviderCodex)
	if len(entries) != 1 || entries[0].Key != "codex.json" {
		t.Fatalf("unexpected store contents: %+v", entries)
	}
	usage, ok := entries[0].Result.Parsed.(*models.CodexUsage)
	if !ok {
		t.Fatalf("expected CodexUsage, got %T", entries[0].Result.Parsed)
	}
	if usage.PlanType != "Plus" || len(usage.Windows) != 1 {
		t.Errorf("unexpected parse: %+v", usage)
	}
	if *usage.Windows[0].RemainingPercent != 60 {
		t.Errorf("expected remaining 60, got %d", *usage.Windows[0].RemainingPercent)
	}
}

func TestService_FetchGeminiSendsProject(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			if req.Method != "POST" {
				t.Errorf("expected POST, got %s", req.Method)
			}
			if req.Data != `{"project":"proj-9"}` {
				t.Errorf("unexpected payload %q", req.Data)
			}
			return okEnvelope(`{"buckets":[{"modelId":"m","remainingFraction":0.5}]}`), nil
		},
	}
	svc := NewService(client)
	e := entryFrom(t, `{"auth_index": "1", "name": "g.json", "provider": "gemini-cli", "project_id": "proj-9"}`)

	if err := svc.FetchEntry(context.Background(), e); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	entries := svc.Store().Entries(models.ProviderGeminiCLI)
	if len(entries) != 1 {
		t.Fatalf("expected 1 result, got %d", len(entries))
	}
	q, ok := entries[0].Result.Parsed.(*models.GeminiQuota)
	if !ok || len(q.Buckets) != 1 {
		t.Fatalf("unexpected parse: %+v", entries[0].Result.Parsed)
	}
}

func TestService_MissingIdentifier(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			t.Fatal("no call expected without identifiers")
			return nil, nil
		},
	}
	svc := NewService(client)

	// No account id anywhere, and the file download fails.
	e := entryFrom(t, `{"auth_index": "1", "name": "codex.json", "provider": "codex"}`)
	err := svc.FetchEntry(context.Background(), e)
	if !IsMissingIdentifier(err) {
		t.Fatalf("expected missing identifier, got %v", err)
	}
	// The failure is recorded as an error card.
	entries := svc.Store().Entries(models.ProviderCodex)
	if len(entries) != 1 || !entries[0].Result.Failed() {
		t.Fatalf("expected stored error result, got %+v", entries)
	}
}

func TestService_HTTPFailureStored(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			return failEnvelope(429, "rate limited"), nil
		},
	}
	svc := NewService(client)
	e := entryFrom(t, `{"auth_index": "1", "name": "codex.json", "provider": "codex", "chatgpt_account_id": "a"}`)

	err := svc.FetchEntry(context.Background(), e)
	var rf *RequestFailedError
	if !errors.As(err, &rf) || rf.StatusCode != 429 {
		t.Fatalf("expected RequestFailedError 429, got %v", err)
	}
	entries := svc.Store().Entries(models.ProviderCodex)
	if len(entries) != 1 || entries[0].Result.Err != "rate limited" {
		t.Fatalf("expected stored error text, got %+v", entries)
	}
}

func TestService_AntigravityURLFallback(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			if len(req.URL) == 0 {
				t.Fatal("empty URL")
			}
			// First two endpoints fail, third succeeds.
			if req.URL == antigravityURLs[2] {
				return okEnvelope(`{"models":{"m":{"displayName":"M","quotaInfo":{"remainingFraction":0.5}}},"agentModelSorts":[{"displayName":"Top","groups":[{"modelIds":["m"]}]}]}`), nil
			}
			return failEnvelope(503, "unavailable"), nil
		},
	}
	svc := NewService(client)
	e := entryFrom(t, `{"auth_index": "1", "name": "ag.json", "provider": "antigravity", "project_id": "p"}`)

	if err := svc.FetchEntry(context.Background(), e); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(client.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(client.calls))
	}
	for i, call := range client.calls {
		if call.URL != antigravityURLs[i] {
			t.Errorf("attempt %d: expected %q, got %q", i, antigravityURLs[i], call.URL)
		}
	}
	entries := svc.Store().Entries(models.ProviderAntigravity)
	if len(entries) != 1 || entries[0].Result.Failed() {
		t.Fatalf("expected success result, got %+v", entries)
	}
}

func TestService_AntigravityAllFail(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			return failEnvelope(500, "down: "+req.URL), nil
		},
	}
	svc := NewService(client)
	e := entryFrom(t, `{"auth_index": "1", "name": "ag.json", "provider": "antigravity", "project_id": "p"}`)

	err := svc.FetchEntry(context.Background(), e)
	if err == nil {
		t.Fatal("expected error")
	}
	// The last endpoint's error surfaces.
	if err.Error() != "down: "+antigravityURLs[2] {
		t.Errorf("expected last error, got %q", err.Error())
	}
}

func TestService_RefreshAll(t *testing.T) {
	listing := []models.AuthEntry{
		entryFrom(t, `{"auth_index": "1", "name": "codex.json", "provider": "codex", "chatgpt_account_id": "a"}`),
		entryFrom(t, `{"auth_index": "2", "name": "g.json", "provider": "gemini-cli"}`),
		entryFrom(t, `{"auth_index": "3", "name": "other.json", "provider": "claude"}`),
	}
	client := &mockManagementClient{
		listing: listing,
		respond: func(req cpa.APICallRequest) (any, error) {
			return okEnvelope(`{"plan_type":"plus"}`), nil
		},
	}
	svc := NewService(client)

	// Entry 2 has no project id resolvable anywhere, entry 3 is an
	// unsupported provider and is skipped without counting as a failure.
	failed, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
	if n := svc.Store().Len(models.ProviderCodex); n != 1 {
		t.Errorf("expected 1 codex result, got %d", n)
	}
	if entries := svc.Store().Entries(models.ProviderGeminiCLI); len(entries) != 1 || !entries[0].Result.Failed() {
		t.Errorf("expected gemini error card, got %+v", entries)
	}
}

func TestService_RefreshAllClearsStore(t *testing.T) {
	client := &mockManagementClient{
		listing: []models.AuthEntry{
			entryFrom(t, `{"auth_index": "1", "name": "codex.json", "provider": "codex", "chatgpt_account_id": "a"}`),
		},
		respond: func(req cpa.APICallRequest) (any, error) {
			return okEnvelope(`{"plan_type":"plus"}`), nil
		},
	}
	svc := NewService(client)
	svc.Store().Set(models.ProviderAntigravity, "stale.json", models.QuotaResult{Raw: "old"})

	if _, err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if n := svc.Store().Len(models.ProviderAntigravity); n != 0 {
		t.Errorf("expected stale results cleared, got %d", n)
	}
}

func TestService_RefreshAllListError(t *testing.T) {
	client := &mockManagementClient{listErr: errors.New("connection refused")}
	svc := NewService(client)

	if _, err := svc.RefreshAll(context.Background()); err == nil {
		t.Fatal("expected listing error to fail the batch")
	}
}

func TestService_RefreshProviderKeepsResults(t *testing.T) {
	client := &mockManagementClient{
		respond: func(req cpa.APICallRequest) (any, error) {
			return failEnvelope(500, "down"), nil
		},
	}
	svc := NewService(client)
	e := entryFrom(t, `{"auth_index": "1", "name": "codex.json", "provider": "codex", "chatgpt_account_id": "a"}`)
	svc.entries = []models.AuthEntry{e}
	svc.Store().Set(models.ProviderCodex, e.Key(), models.QuotaResult{Raw: "good"})

	failed := svc.RefreshProvider(context.Background(), models.ProviderCodex)
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
	// A provider refresh failure must not clobber the existing result.
	entries := svc.Store().Entries(models.ProviderCodex)
	if len(entries) != 1 || entries[0].Result.Failed() {
		t.Errorf("expected existing result kept, got %+v", entries)
	}
}

func TestService_RefreshAuthListResetsResolver(t *testing.T) {
	client := &mockManagementClient{
		listing: []models.AuthEntry{
			entryFrom(t, `{"auth_index": "1", "name": "a.json", "provider": "codex"}`),
		},
	}
	svc := NewService(client)

	entries, err := svc.RefreshAuthList(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Key() != "a.json" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if len(svc.Entries()) != 1 {
		t.Errorf("expected cached listing, got %d", len(svc.Entries()))
	}
}
