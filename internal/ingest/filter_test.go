package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpearl/leadsync/internal/model"
)

var testKeywords = []string{"units", "mall", "hospital"}

func TestSeparate(t *testing.T) {
	records := []model.RawRecord{
		{Row: 2, DwellingUnitInfo: "3"},
		{Row: 3, NatureOfDevelopment: "Shopping Mall"},
		{Row: 4, NatureOfDevelopment: "Compound wall"},
		{Row: 5, NatureOfDevelopment: "Multi-Speciality HOSPITAL Building"},
		{Row: 6},
	}

	qualified, skipped := Separate(records, testKeywords)

	require.Len(t, qualified, 3)
	assert.Equal(t, []int{2, 3, 5}, rows(qualified))
	require.Len(t, skipped, 2)
	assert.Equal(t, []int{4, 6}, rows(skipped))
}

func TestSeparate_DwellingUnitsAlwaysQualify(t *testing.T) {
	qualified, skipped := Separate([]model.RawRecord{
		{DwellingUnitInfo: "12", NatureOfDevelopment: "irrelevant"},
	}, testKeywords)
	assert.Len(t, qualified, 1)
	assert.Empty(t, skipped)
}

func TestSeparate_NoKeywords(t *testing.T) {
	qualified, skipped := Separate([]model.RawRecord{
		{NatureOfDevelopment: "Shopping Mall"},
	}, nil)
	assert.Empty(t, qualified)
	assert.Len(t, skipped, 1)
}

func rows(recs []model.RawRecord) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.Row
	}
	return out
}
