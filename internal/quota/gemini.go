package quota

import "github.com/doowtsen/cpa-quota-dashboard/internal/models"

// ParseGeminiQuota normalizes a Gemini CLI quota body into the quota-bucket
// shape, preserving upstream bucket order. Missing numeric fields stay nil
// rather than defaulting to zero.
func ParseGeminiQuota(body any) *models.GeminiQuota {
	m := asObject(body)
	if m == nil {
		return nil
	}

	raw := sliceField(m, "buckets")
	q := &models.GeminiQuota{Buckets: make([]models.QuotaBucket, 0, len(raw))}
	for _, item := range raw {
		b, ok := item.(map[string]any)
		if !ok {
			continue
		}
		bucket := models.QuotaBucket{
			ModelID:         strField(b, "modelId", "model_id"),
			TokenType:       strField(b, "tokenType", "token_type"),
			RemainingAmount: anyField(b, "remainingAmount", "remaining_amount"),
			ResetTime:       anyField(b, "resetTime", "reset_time"),
		}
		if f, ok := numField(b, "remainingFraction", "remaining_fraction"); ok {
			bucket.RemainingFraction = &f
		}
		q.Buckets = append(q.Buckets, bucket)
	}
	return q
}
