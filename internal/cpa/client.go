// Package cpa is a client for the CLIProxyAPI management HTTP API. It covers
// the slice of the API the dashboard consumes: auth-file listing and
// download, the generic authenticated passthrough call, and the config.yaml
// endpoints. Bearer tokens for upstream providers never pass through here;
// the management API substitutes them server-side.
package cpa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

const managementPrefix = "/v0/management"

// APICallRequest describes one generic authenticated call routed through
// the management API on behalf of a stored credential.
type APICallRequest struct {
	AuthIndex string
	Method    string
	URL       string
	Header    map[string]string
	Data      string
}

// MarshalJSON emits the auth index under both field-name conventions, since
// deployed management APIs disagree on which one they read.
func (r APICallRequest) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"auth_index": r.AuthIndex,
		"authIndex":  r.AuthIndex,
		"method":     r.Method,
		"url":        r.URL,
		"header":     r.Header,
	}
	if r.Data != "" {
		payload["data"] = r.Data
	}
	return json.Marshal(payload)
}

// Client talks to one CPA instance.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// New creates a client for the management API at baseURL, authenticated
// with the given management key.
func New(baseURL, key string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		key:        key,
		httpClient: &http.Client{Timeout: 35 * time.Second},
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAuthFiles fetches the auth-file listing and flattens it into entries.
// Any of the known top-level listing shapes is accepted.
func (c *Client) ListAuthFiles(ctx context.Context) ([]models.AuthEntry, error) {
	body, err := c.get(ctx, managementPrefix+"/auth-files", nil)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse auth file listing: %w", err)
	}

	var entries []models.AuthEntry
	for _, item := range flattenListing(raw) {
		entries = append(entries, models.EntryFromMap(item))
	}
	return entries, nil
}

// flattenListing normalizes the listing payload: a bare array, or an object
// wrapping the array under files, items, auths, data, or status.
func flattenListing(raw any) []map[string]any {
	items, ok := raw.([]any)
	if !ok {
		obj, isObj := raw.(map[string]any)
		if !isObj {
			return nil
		}
		for _, key := range []string{"files", "items", "auths", "data", "status"} {
			if arr, found := obj[key].([]any); found {
				items = arr
				break
			}
		}
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// DownloadAuthFileJSON fetches the full JSON content of one auth file.
func (c *Client) DownloadAuthFileJSON(ctx context.Context, name string) (map[string]any, error) {
	query := url.Values{"name": {name}}
	body, err := c.get(ctx, managementPrefix+"/auth-files/download", query)
	if err != nil {
		return nil, err
	}
	var details map[string]any
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to parse auth file %q: %w", name, err)
	}
	return details, nil
}

// APICall issues a generic authenticated call and returns the raw response
// value for envelope normalization by the caller.
func (c *Client) APICall(ctx context.Context, req APICallRequest) (any, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode api call: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, managementPrefix+"/api-call", nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse api call response: %w", err)
	}
	return raw, nil
}

// GetConfigYAML fetches the service configuration file as text.
func (c *Client) GetConfigYAML(ctx context.Context) (string, error) {
	body, err := c.get(ctx, managementPrefix+"/config.yaml", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// SaveConfigYAML replaces the service configuration file.
func (c *Client) SaveConfigYAML(ctx context.Context, content string) error {
	_, err := c.do(ctx, http.MethodPut, managementPrefix+"/config.yaml",
		nil, strings.NewReader(content), "application/yaml")
	return err
}

// ServiceVersion reports the running CPA build version, or an empty string
// when the endpoint does not exist on this deployment.
func (c *Client) ServiceVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, managementPrefix+"/version", nil)
	if err != nil {
		return "", err
	}
	var payload struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// Some builds serve the version as plain text.
		return strings.TrimSpace(string(body)), nil
	}
	return payload.Version, nil
}

// Ping probes the service root; any HTTP response means the service is up.
// Used as the keep-alive for a locally managed CPA process.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, "")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		if msg == "" {
			return nil, fmt.Errorf("management API returned HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("management API returned HTTP %d: %s", resp.StatusCode, msg)
	}
	return data, nil
}
