// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ProviderKind is the closed set of quota backends an auth entry can belong
// to. The free-text provider string from the listing API is resolved into a
// kind once, at ingestion time; all later dispatch happens on the kind.
type ProviderKind int

const (
	// ProviderUnknown means the entry matches none of the supported backends.
	ProviderUnknown ProviderKind = iota
	// ProviderCodex is the ChatGPT/Codex usage-window backend.
	ProviderCodex
	// ProviderGeminiCLI is the Gemini CLI quota-bucket backend.
	ProviderGeminiCLI
	// ProviderAntigravity is the Antigravity model-quota backend.
	ProviderAntigravity
)

// String returns the display name for a provider kind.
func (k ProviderKind) String() string {
	switch k {
	case ProviderCodex:
		return "codex"
	case ProviderGeminiCLI:
		return "gemini"
	case ProviderAntigravity:
		return "antigravity"
	default:
		return "unknown"
	}
}

// Title returns the badge label for a provider kind.
func (k ProviderKind) Title() string {
	switch k {
	case ProviderCodex:
		return "Codex"
	case ProviderGeminiCLI:
		return "Gemini"
	case ProviderAntigravity:
		return "Antigravity"
	default:
		return "Unknown"
	}
}

// KindOf classifies a free-text provider string. Matching is case-insensitive
// substring matching: "codex" or "chatgpt" selects Codex, "gemini" together
// with "cli" selects Gemini CLI, "antigravity" selects Antigravity.
func KindOf(provider string) ProviderKind {
	p := strings.ToLower(provider)
	switch {
	case strings.Contains(p, "codex") || strings.Contains(p, "chatgpt"):
		return ProviderCodex
	case strings.Contains(p, "gemini") && strings.Contains(p, "cli"):
		return ProviderGeminiCLI
	case strings.Contains(p, "antigravity"):
		return ProviderAntigravity
	default:
		return ProviderUnknown
	}
}

// AuthEntry is one credential record surfaced by the auth-file listing.
// It is an immutable snapshot: a full list refresh replaces all entries.
type AuthEntry struct {
	// Raw keeps the original listing item for fallback lookups that are
	// only needed lazily (account display string, nested token claims).
	Raw map[string]any

	AuthIndex string
	Provider  string
	Kind      ProviderKind
	Label     string
	ProjectID string
	AccountID string
	FileName  string
	Status    string
}

// EntryFromMap decodes one listing item into an AuthEntry, tolerating the
// field-name variants the upstream listing is known to produce.
func EntryFromMap(m map[string]any) AuthEntry {
	e := AuthEntry{Raw: m}
	e.AuthIndex = indexString(firstValue(m, "auth_index", "authIndex", "index", "id"))
	e.Provider = firstString(m, "provider", "type", "kind", "name")
	e.Kind = KindOf(e.Provider)
	e.Label = firstString(m, "label", "email", "name", "file")
	e.ProjectID = firstString(m, "project_id", "projectId")
	e.AccountID = firstString(m, "account_id", "accountId", "chatgpt_account_id", "chatgptAccountId")
	if e.AccountID == "" {
		if tok, ok := m["id_token"].(map[string]any); ok {
			e.AccountID = firstString(tok, "chatgpt_account_id")
		}
	}
	e.FileName = firstString(m, "name", "id")
	e.Status = firstString(m, "status", "state")
	if e.Status == "" {
		if disabled, ok := m["disabled"].(bool); ok && disabled {
			e.Status = "disabled"
		}
	}
	return e
}

// Key returns the display key used to address this entry in the result store:
// the file name when present, otherwise the label, otherwise "auth#<index>".
func (e AuthEntry) Key() string {
	if e.FileName != "" {
		return e.FileName
	}
	if e.Label != "" {
		return e.Label
	}
	return "auth#" + e.AuthIndex
}

// AccountString returns the free-form account display string from the raw
// listing item, used for project-id extraction.
func (e AuthEntry) AccountString() string {
	if e.Raw == nil {
		return ""
	}
	return firstString(e.Raw, "account")
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case bool:
			// Skip booleans: "disabled": true is not a display value.
			continue
		default:
			if t := strings.TrimSpace(fmt.Sprintf("%v", v)); t != "" {
				return t
			}
		}
	}
	return ""
}

// indexString renders an auth index value as a non-empty string, or "".
func indexString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}
