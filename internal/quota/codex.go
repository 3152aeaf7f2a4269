package quota

import (
	"strings"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// Window labels in fixed order: primary, secondary, code review.
const (
	codexPrimaryLabel    = "5-hour limit"
	codexSecondaryLabel  = "Weekly limit"
	codexCodeReviewLabel = "Code review limit"
)

// ParseCodexUsage normalizes a Codex usage body into the usage-window shape.
// Returns nil when the body is not an object; windows without a source
// object are omitted, not zero-filled.
func ParseCodexUsage(body any) *models.CodexUsage {
	m := asObject(body)
	if m == nil {
		return nil
	}

	usage := &models.CodexUsage{
		PlanType: capitalize(strField(m, "plan_type", "planType")),
	}

	rate := objField(m, "rate_limit", "rateLimit")
	codeReview := objField(m, "code_review_rate_limit", "codeReviewRateLimit")

	appendWindow := func(src map[string]any, key, label string) {
		if src == nil {
			return
		}
		w := models.UsageWindow{
			Key:     key,
			Label:   label,
			ResetAt: anyField(src, "reset_at", "resetAt"),
		}
		if used, ok := numField(src, "used_percent", "usedPercent"); ok {
			if p, finite := models.ClampPercent(used); finite {
				remaining := 100 - p
				w.UsedPercent = &p
				w.RemainingPercent = &remaining
			}
		}
		usage.Windows = append(usage.Windows, w)
	}

	if rate != nil {
		appendWindow(objField(rate, "primary_window", "primaryWindow"), "primary", codexPrimaryLabel)
		appendWindow(objField(rate, "secondary_window", "secondaryWindow"), "secondary", codexSecondaryLabel)
	}
	if codeReview != nil {
		appendWindow(objField(codeReview, "primary_window", "primaryWindow"), "code_review", codexCodeReviewLabel)
	}

	return usage
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
