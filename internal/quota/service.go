package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/doowtsen/cpa-quota-dashboard/internal/cpa"
	"github.com/doowtsen/cpa-quota-dashboard/internal/logger"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// Endpoint and header tables lifted from the CPA management center. The
// Authorization value is a sentinel: the management API substitutes the real
// bearer token server-side, keyed by auth index. This client never sees it.
const (
	codexUsageURL  = "https://chatgpt.com/backend-api/wham/usage"
	geminiQuotaURL = "https://cloudcode-pa.googleapis.com/v1internal:retrieveUserQuota"

	tokenSentinel = "Bearer $TOKEN$"

	// RequestTimeout is the fixed per-attempt budget for upstream calls.
	RequestTimeout = 30 * time.Second
)

var antigravityURLs = []string{
	"https://daily-cloudcode-pa.googleapis.com/v1internal:fetchAvailableModels",
	"https://daily-cloudcode-pa.sandbox.googleapis.com/v1internal:fetchAvailableModels",
	"https://cloudcode-pa.googleapis.com/v1internal:fetchAvailableModels",
}

func codexHeaders(accountID string) map[string]string {
	return map[string]string{
		"Authorization":      tokenSentinel,
		"Content-Type":       "application/json",
		"User-Agent":         "codex_cli_rs/0.76.0 (Debian 13.0.0; x86_64) WindowsTerminal",
		"Chatgpt-Account-Id": accountID,
	}
}

func geminiHeaders() map[string]string {
	return map[string]string{
		"Authorization": tokenSentinel,
		"Content-Type":  "application/json",
	}
}

func antigravityHeaders() map[string]string {
	return map[string]string{
		"Authorization": tokenSentinel,
		"Content-Type":  "application/json",
		"User-Agent":    "antigravity/1.11.5 windows/amd64",
	}
}

// ManagementClient is the subset of the CPA management API the engine needs.
type ManagementClient interface {
	ListAuthFiles(ctx context.Context) ([]models.AuthEntry, error)
	DownloadAuthFileJSON(ctx context.Context, name string) (map[string]any, error)
	APICall(ctx context.Context, req cpa.APICallRequest) (any, error)
}

// Service orchestrates quota fetches: it resolves identifiers, issues the
// generic authenticated calls, normalizes envelopes, runs the provider
// parsers, and accumulates results in the store. All fetch operations are
// serialized behind one mutex, so a manual refresh cannot interleave with a
// running refresh-all; within a batch, last write wins.
type Service struct {
	client   ManagementClient
	resolver *Resolver
	store    *Store

	fetchMu sync.Mutex

	entriesMu sync.RWMutex
	entries   []models.AuthEntry
}

// NewService creates a quota service on top of a management client.
func NewService(client ManagementClient) *Service {
	return &Service{
		client:   client,
		resolver: NewResolver(client),
		store:    NewStore(),
	}
}

// Store returns the result store for rendering.
func (s *Service) Store() *Store {
	return s.store
}

// Entries returns the cached auth listing.
func (s *Service) Entries() []models.AuthEntry {
	s.entriesMu.RLock()
	defer s.entriesMu.RUnlock()
	out := make([]models.AuthEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// RefreshAuthList replaces the auth listing wholesale and drops the
// credential-file cache, so externally edited files are picked up on the
// next query.
func (s *Service) RefreshAuthList(ctx context.Context) ([]models.AuthEntry, error) {
	entries, err := s.client.ListAuthFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth files: %w", err)
	}
	s.entriesMu.Lock()
	s.entries = entries
	s.entriesMu.Unlock()
	s.resolver.Reset()
	return s.Entries(), nil
}

// FetchEntry runs a single quota query for one entry and stores the result.
// The returned error is also recorded in the store as an error card.
func (s *Service) FetchEntry(ctx context.Context, e models.AuthEntry) error {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	return s.fetchLocked(ctx, e, true)
}

// RefreshAll clears the store and re-queries every known entry in sequence.
// Individual failures are stored as error results and counted; the batch
// itself only fails when the auth listing cannot be loaded.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	if len(s.Entries()) == 0 {
		if _, err := s.RefreshAuthList(ctx); err != nil {
			return 0, err
		}
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.store.Reset()

	failed := 0
	for _, e := range s.Entries() {
		if e.Kind == models.ProviderUnknown {
			continue
		}
		if err := s.fetchLocked(ctx, e, true); err != nil {
			failed++
			logger.Warn("quota refresh failed", "provider", e.Kind.String(), "key", e.Key(), "error", err)
		}
	}
	return failed, nil
}

// RefreshProvider re-queries every entry of one provider. Failures are
// logged but existing results are kept rather than overwritten with errors.
func (s *Service) RefreshProvider(ctx context.Context, kind models.ProviderKind) int {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	failed := 0
	for _, e := range s.Entries() {
		if e.Kind != kind {
			continue
		}
		if err := s.fetchLocked(ctx, e, false); err != nil {
			failed++
			logger.Warn("provider refresh failed", "provider", kind.String(), "key", e.Key(), "error", err)
		}
	}
	return failed
}

func (s *Service) fetchLocked(ctx context.Context, e models.AuthEntry, storeError bool) error {
	var err error
	switch e.Kind {
	case models.ProviderCodex:
		err = s.fetchCodex(ctx, e)
	case models.ProviderGeminiCLI:
		err = s.fetchGemini(ctx, e)
	case models.ProviderAntigravity:
		err = s.fetchAntigravity(ctx, e)
	default:
		return fmt.Errorf("unsupported provider: %q", e.Provider)
	}
	if err != nil && storeError {
		s.store.Set(e.Kind, e.Key(), models.QuotaResult{Err: err.Error()})
	}
	return err
}

func (s *Service) fetchCodex(ctx context.Context, e models.AuthEntry) error {
	if e.AuthIndex == "" {
		return &MissingIdentifierError{Field: "authIndex"}
	}
	accountID := s.resolver.AccountID(ctx, e)
	if accountID == "" {
		return &MissingIdentifierError{Field: "accountId (Chatgpt-Account-Id)"}
	}

	env, err := s.apiCall(ctx, cpa.APICallRequest{
		AuthIndex: e.AuthIndex,
		Method:    "GET",
		URL:       codexUsageURL,
		Header:    codexHeaders(accountID),
	})
	if err != nil {
		return err
	}

	raw := env.Payload()
	s.store.Set(models.ProviderCodex, e.Key(), models.QuotaResult{
		Raw:    raw,
		Parsed: summaryOrNil(ParseCodexUsage(raw)),
	})
	return nil
}

func (s *Service) fetchGemini(ctx context.Context, e models.AuthEntry) error {
	if e.AuthIndex == "" {
		return &MissingIdentifierError{Field: "authIndex"}
	}
	projectID := s.resolver.ProjectID(ctx, e)
	if projectID == "" {
		return &MissingIdentifierError{Field: "projectId"}
	}

	env, err := s.apiCall(ctx, cpa.APICallRequest{
		AuthIndex: e.AuthIndex,
		Method:    "POST",
		URL:       geminiQuotaURL,
		Header:    geminiHeaders(),
		Data:      projectPayload(projectID),
	})
	if err != nil {
		return err
	}

	raw := env.Payload()
	s.store.Set(models.ProviderGeminiCLI, e.Key(), models.QuotaResult{
		Raw:    raw,
		Parsed: summaryOrNil(ParseGeminiQuota(raw)),
	})
	return nil
}

// fetchAntigravity tries each candidate endpoint in its fixed order,
// accepting the first success; only the last error surfaces when all fail.
func (s *Service) fetchAntigravity(ctx context.Context, e models.AuthEntry) error {
	if e.AuthIndex == "" {
		return &MissingIdentifierError{Field: "authIndex"}
	}
	projectID := s.resolver.ProjectID(ctx, e)
	if projectID == "" {
		return &MissingIdentifierError{Field: "projectId"}
	}

	data := projectPayload(projectID)
	var lastErr error
	for _, url := range antigravityURLs {
		env, err := s.apiCall(ctx, cpa.APICallRequest{
			AuthIndex: e.AuthIndex,
			Method:    "POST",
			URL:       url,
			Header:    antigravityHeaders(),
			Data:      data,
		})
		if err != nil {
			lastErr = err
			continue
		}
		raw := env.Payload()
		s.store.Set(models.ProviderAntigravity, e.Key(), models.QuotaResult{
			Raw:    raw,
			Parsed: summaryOrNil(ParseAntigravityModels(raw, ScopeRecommended)),
		})
		return nil
	}
	if lastErr == nil {
		lastErr = &RequestFailedError{}
	}
	return lastErr
}

// apiCall issues one generic authenticated call with the fixed per-attempt
// timeout and gates the result through the envelope classifier.
func (s *Service) apiCall(ctx context.Context, req cpa.APICallRequest) (Envelope, error) {
	callCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	raw, err := s.client.APICall(callCtx, req)
	if err != nil {
		return Envelope{}, &RequestFailedError{Message: err.Error()}
	}
	env := NormalizeEnvelope(raw)
	if err := env.Check(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func projectPayload(projectID string) string {
	data, _ := json.Marshal(map[string]string{"project": projectID})
	return string(data)
}

// summaryOrNil avoids storing a typed-nil Summary interface value.
func summaryOrNil(v models.Summary) models.Summary {
	switch p := v.(type) {
	case *models.CodexUsage:
		if p == nil {
			return nil
		}
	case *models.GeminiQuota:
		if p == nil {
			return nil
		}
	case *models.AntigravityModels:
		if p == nil {
			return nil
		}
	}
	return v
}
