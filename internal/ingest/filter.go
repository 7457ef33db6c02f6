package ingest

import (
	"strings"

	"github.com/vpearl/leadsync/internal/model"
)

// Separate splits records into those qualifying for import and the rest.
// A record qualifies when its dwelling-unit cell is populated, or when its
// nature-of-development text contains one of the keywords. Order is
// preserved in both halves.
func Separate(records []model.RawRecord, keywords []string) (qualified, skipped []model.RawRecord) {
	for _, rec := range records {
		if qualifies(rec, keywords) {
			qualified = append(qualified, rec)
		} else {
			skipped = append(skipped, rec)
		}
	}
	return qualified, skipped
}

func qualifies(rec model.RawRecord, keywords []string) bool {
	if strings.TrimSpace(rec.DwellingUnitInfo) != "" {
		return true
	}

	nature := strings.ToLower(strings.TrimSpace(rec.NatureOfDevelopment))
	if nature == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(nature, kw) {
			return true
		}
	}
	return false
}
