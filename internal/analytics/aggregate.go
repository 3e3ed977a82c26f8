// Package analytics derives frequency counts from stored input records.
package analytics

import "github.com/DeafMist/ops-radar/backend/internal/models"

// Aggregate counts records per category and tag occurrences per tag in a single pass.
// Keys are reported in the order they are first encountered.
func Aggregate(records []models.InputRecord) models.Analytics {
	out := models.Analytics{
		Categories: models.NewCounts(),
		Tags:       models.NewCounts(),
		Total:      len(records),
	}
	for _, rec := range records {
		out.Categories.Inc(string(rec.Category))
		for _, tag := range rec.Tags {
			out.Tags.Inc(tag)
		}
	}
	return out
}
