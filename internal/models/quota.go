package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// QuotaResult is the stored outcome of one quota query for one entry.
// Exactly one of the two arms is populated: a successful query carries the
// raw upstream body plus its parsed summary, a failed query carries the
// error text. Parsed may be nil even on success when the body lacked the
// expected fields ("nothing to show" rather than failure).
type QuotaResult struct {
	Raw    any
	Parsed Summary
	Err    string
}

// Failed reports whether this result records a query failure.
func (r QuotaResult) Failed() bool {
	return r.Err != ""
}

// Summary is the provider-specific normalized shape of a quota response.
type Summary interface {
	summary()
}

// CodexUsage is the usage-window shape: a plan type and up to three rate
// windows in fixed order (primary, secondary, code review).
type CodexUsage struct {
	PlanType string
	Windows  []UsageWindow
}

func (*CodexUsage) summary() {}

// UsageWindow is one rate-limit window. Percent values are clamped to
// [0,100]; nil means the upstream value was missing or non-finite.
type UsageWindow struct {
	Key              string
	Label            string
	UsedPercent      *int
	RemainingPercent *int
	ResetAt          any
}

// GeminiQuota is the quota-bucket shape, order preserved from upstream.
type GeminiQuota struct {
	Buckets []QuotaBucket
}

func (*GeminiQuota) summary() {}

// QuotaBucket is one per-model quota bucket.
type QuotaBucket struct {
	ModelID           string
	TokenType         string
	RemainingFraction *float64
	RemainingAmount   any
	ResetTime         any
}

// AntigravityModels is the model-quota shape: named groups of models with
// remaining quota, grouped by recommendation tier or flattened per scope.
type AntigravityModels struct {
	Groups []ModelGroup
}

func (*AntigravityModels) summary() {}

// ModelGroup is one titled group of model quota items.
type ModelGroup struct {
	Title string
	Items []ModelQuotaItem
}

// ModelQuotaItem is quota state for a single model id.
type ModelQuotaItem struct {
	ID                string
	DisplayName       string
	RemainingFraction *float64
	ResetTime         any
	Recommended       bool
}

// ClampPercent rounds a percent value into [0,100]. The second return is
// false when the input is not a finite number.
func ClampPercent(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	n := int(math.Round(v))
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n, true
}

// ParseResetTime interprets a reset-time value from any of the upstream
// conventions: unix seconds as a number, unix seconds as a numeric string of
// at least 9 digits, or a parseable timestamp string.
func ParseResetTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.Unix(int64(t), 0), true
	case int64:
		return time.Unix(t, 0), true
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil && len(s) >= 9 {
			return time.Unix(int64(n), 0), true
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// FormatResetTime renders a reset-time value as "MM/DD HH:MM", or "-" when
// the value cannot be interpreted.
func FormatResetTime(v any) string {
	d, ok := ParseResetTime(v)
	if !ok {
		return "-"
	}
	return d.Local().Format("01/02 15:04")
}
