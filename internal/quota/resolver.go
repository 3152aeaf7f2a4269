package quota

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/doowtsen/cpa-quota-dashboard/internal/logger"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// FileFetcher downloads the full JSON of one auth file by name.
type FileFetcher interface {
	DownloadAuthFileJSON(ctx context.Context, name string) (map[string]any, error)
}

// Resolver resolves project and account identifiers for auth entries,
// falling back to an on-demand download of the entry's credential file.
// Downloads are cached per file name for the life of the resolver,
// including negative caching of failures so a broken file is not
// re-fetched on every query.
type Resolver struct {
	fetcher FileFetcher

	mu    sync.Mutex
	cache map[string]map[string]any // nil value records a failed lookup
}

// NewResolver creates a resolver backed by the given file fetcher.
func NewResolver(fetcher FileFetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache:   make(map[string]map[string]any),
	}
}

// Reset drops the credential-file cache, including negative entries.
// Called when the auth listing is refreshed wholesale.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]map[string]any)
}

// ProjectID resolves the project id for an entry: explicit field, then the
// parenthesized suffix of the account display string, then the filename
// heuristic, then the downloaded credential file. Empty when unresolved.
func (r *Resolver) ProjectID(ctx context.Context, e models.AuthEntry) string {
	if e.ProjectID != "" {
		return e.ProjectID
	}
	if id := projectIDFromAccount(e); id != "" {
		return id
	}
	if id := projectIDFromFilename(e); id != "" {
		return id
	}
	details := r.fileDetails(ctx, e)
	if details == nil {
		return ""
	}
	return strField(details, "project_id", "projectId")
}

// AccountID resolves the account id for an entry, falling back to the
// downloaded credential file. Empty when unresolved.
func (r *Resolver) AccountID(ctx context.Context, e models.AuthEntry) string {
	if e.AccountID != "" {
		return e.AccountID
	}
	details := r.fileDetails(ctx, e)
	if details == nil {
		return ""
	}
	return strField(details, "account_id", "accountId")
}

func (r *Resolver) fileDetails(ctx context.Context, e models.AuthEntry) map[string]any {
	name := e.FileName
	if name == "" || r.fetcher == nil {
		return nil
	}

	r.mu.Lock()
	details, hit := r.cache[name]
	r.mu.Unlock()
	if hit {
		return details
	}

	details, err := r.fetcher.DownloadAuthFileJSON(ctx, name)
	if err != nil {
		logger.Warn("auth file download failed", "name", name, "error", err)
		details = nil
	}

	r.mu.Lock()
	r.cache[name] = details
	r.mu.Unlock()
	return details
}

var accountProjectPattern = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// projectIDFromAccount extracts a parenthesized suffix from the free-form
// account display string, e.g. "user@example.com (my-project)".
func projectIDFromAccount(e models.AuthEntry) string {
	account := e.AccountString()
	if account == "" {
		return ""
	}
	m := accountProjectPattern.FindStringSubmatch(account)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// projectIDFromFilename applies the Gemini CLI naming convention
// "gemini-<email>-<project>.json": the last dash-delimited segment of the
// base name. Only attempted for gemini-flavored providers.
func projectIDFromFilename(e models.AuthEntry) string {
	name := e.FileName
	if name == "" || !strings.Contains(strings.ToLower(e.Provider), "gemini") {
		return ""
	}
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".json"), ".JSON")
	idx := strings.LastIndex(base, "-")
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return strings.TrimSpace(base[idx+1:])
}
