package models

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		provider string
		want     ProviderKind
	}{
		{"codex", ProviderCodex},
		{"ChatGPT", ProviderCodex},
		{"openai-chatgpt", ProviderCodex},
		{"gemini-cli", ProviderGeminiCLI},
		{"Gemini CLI", ProviderGeminiCLI},
		{"gemini", ProviderUnknown},
		{"antigravity", ProviderAntigravity},
		{"Antigravity OAuth", ProviderAntigravity},
		{"claude", ProviderUnknown},
		{"", ProviderUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.provider); got != tt.want {
			t.Errorf("KindOf(%q) = %s, want %s", tt.provider, got, tt.want)
		}
	}
}

func TestEntryFromMap_FieldFallbacks(t *testing.T) {
	e := EntryFromMap(map[string]any{
		"authIndex": float64(3),
		"type":      "gemini-cli",
		"email":     "user@example.com",
		"projectId": "proj-1",
		"name":      "gemini-user.json",
		"state":     "active",
	})
	if e.AuthIndex != "3" {
		t.Errorf("expected index 3, got %q", e.AuthIndex)
	}
	if e.Kind != ProviderGeminiCLI {
		t.Errorf("expected gemini kind, got %s", e.Kind)
	}
	if e.Label != "user@example.com" {
		t.Errorf("expected email label, got %q", e.Label)
	}
	if e.ProjectID != "proj-1" {
		t.Errorf("expected proj-1, got %q", e.ProjectID)
	}
	if e.Status != "active" {
		t.Errorf("expected active, got %q", e.Status)
	}
}

func TestEntryFromMap_NestedAccountID(t *testing.T) {
	e := EntryFromMap(map[string]any{
		"provider": "codex",
		"id_token": map[string]any{"chatgpt_account_id": "acct_7"},
	})
	if e.AccountID != "acct_7" {
		t.Errorf("expected acct_7, got %q", e.AccountID)
	}

	// A top-level account id wins over the nested claim.
	e = EntryFromMap(map[string]any{
		"provider":           "codex",
		"chatgpt_account_id": "top",
		"id_token":           map[string]any{"chatgpt_account_id": "nested"},
	})
	if e.AccountID != "top" {
		t.Errorf("expected top, got %q", e.AccountID)
	}
}

func TestEntryFromMap_DisabledFlag(t *testing.T) {
	e := EntryFromMap(map[string]any{"provider": "codex", "disabled": true})
	if e.Status != "disabled" {
		t.Errorf("expected disabled, got %q", e.Status)
	}
	e = EntryFromMap(map[string]any{"provider": "codex", "disabled": false})
	if e.Status != "" {
		t.Errorf("expected empty status, got %q", e.Status)
	}
}

func TestEntryKey(t *testing.T) {
	tests := []struct {
		entry AuthEntry
		want  string
	}{
		{AuthEntry{FileName: "a.json", Label: "lbl", AuthIndex: "1"}, "a.json"},
		{AuthEntry{Label: "lbl", AuthIndex: "1"}, "lbl"},
		{AuthEntry{AuthIndex: "1"}, "auth#1"},
		{AuthEntry{}, "auth#"},
	}
	for _, tt := range tests {
		if got := tt.entry.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}

func TestAccountString(t *testing.T) {
	e := EntryFromMap(map[string]any{"account": "user@example.com (proj)"})
	if got := e.AccountString(); got != "user@example.com (proj)" {
		t.Errorf("unexpected account string %q", got)
	}
	if (AuthEntry{}).AccountString() != "" {
		t.Error("expected empty account string without raw data")
	}
}
