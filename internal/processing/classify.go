package processing

import (
	"strings"

	"github.com/DeafMist/ops-radar/backend/internal/models"
)

type keywordFamily struct {
	category models.Category
	keywords []string
}

// families is checked top to bottom; the first family with a matching keyword wins.
var families = []keywordFamily{
	{models.CategoryIssue, []string{"failed", "overheating", "broken", "error", "defect"}},
	{models.CategoryEvent, []string{"event", "meeting", "conference", "scheduled", "announcement"}},
	{models.CategoryTask, []string{"delay", "shipment", "schedule", "assign", "complete"}},
	{models.CategoryIncident, []string{"incident", "accident", "emergency", "crash", "outage"}},
	{models.CategoryLog, []string{"observed", "log", "recorded", "monitored", "reading"}},
}

// Classify assigns a category to text by substring matching against the keyword families.
// Text matching no family is a Note.
func Classify(text string) models.Category {
	lower := strings.ToLower(text)
	for _, family := range families {
		for _, kw := range family.keywords {
			if strings.Contains(lower, kw) {
				return family.category
			}
		}
	}
	return models.CategoryNote
}
