package processing

import "github.com/DeafMist/ops-radar/backend/internal/models"

// Keywords returns a copy of the keyword list checked for category.
// Note has no keywords.
func Keywords(category models.Category) []string {
	for _, family := range families {
		if family.category == category {
			return append([]string(nil), family.keywords...)
		}
	}
	return nil
}
