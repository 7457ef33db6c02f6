package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpearl/leadsync/internal/model"
)

func testTable() *Table {
	return NewTable([]Owner{
		{Name: "Abhishek", Areas: []string{"Adyar", "T. Nagar", "Besant Nagar"}},
		{Name: "Jagan", Areas: []string{"Velachery", "Guindy"}},
		{Name: "Jagan / Balachander", Areas: []string{"Tambaram", "Chromepet"}},
	})
}

func TestResolve_Exact(t *testing.T) {
	r := New(testTable())

	for _, area := range []string{"Adyar", "adyar", "  ADYAR ", "Adyar!"} {
		owner, ok := r.Resolve(area)
		require.True(t, ok, "area %q", area)
		assert.Equal(t, "Abhishek", owner)
	}
}

func TestResolve_Fuzzy(t *testing.T) {
	r := New(testTable())

	// One-character typo against a nine-letter key clears the 0.85 default.
	owner, ok := r.Resolve("Velachary")
	require.True(t, ok)
	assert.Equal(t, "Jagan", owner)
}

func TestResolve_FuzzyBelowThreshold(t *testing.T) {
	r := New(testTable())

	_, ok := r.Resolve("completely different place")
	assert.False(t, ok)
}

func TestResolve_FuzzyDisabled(t *testing.T) {
	r := New(testTable(), WithFuzzyThreshold(1.0))

	// Exact still works.
	owner, ok := r.Resolve("Guindy")
	require.True(t, ok)
	assert.Equal(t, "Jagan", owner)

	// The typo that fuzzy matching would have caught now misses.
	_, ok = r.Resolve("Velachary")
	assert.False(t, ok)
}

func TestResolve_Empty(t *testing.T) {
	r := New(testTable())

	_, ok := r.Resolve("")
	assert.False(t, ok)
	_, ok = r.Resolve("   ")
	assert.False(t, ok)
}

func recs(areas ...string) []model.RawRecord {
	out := make([]model.RawRecord, len(areas))
	for i, a := range areas {
		out[i] = model.RawRecord{AreaName: a, Row: i + 2}
	}
	return out
}

func TestAssign_SingleOwner(t *testing.T) {
	r := New(testTable())

	res := r.Assign(recs("Adyar", "Guindy", "unknown-zzz"))
	require.Len(t, res.Matched, 2)
	require.Len(t, res.Unmatched, 1)

	assert.Equal(t, "Abhishek", res.Matched[0].Owner)
	assert.Equal(t, "Jagan", res.Matched[1].Owner)
	assert.Equal(t, "unknown-zzz", res.Unmatched[0].AreaName)
}

func TestAssign_JointOwnersRoundRobin(t *testing.T) {
	r := New(testTable())

	// Five records under "Jagan / Balachander": first owner takes three,
	// second takes two, original order preserved within each share.
	res := r.Assign(recs("Tambaram", "Tambaram", "Chromepet", "Tambaram", "Chromepet"))
	require.Len(t, res.Matched, 5)
	require.Empty(t, res.Unmatched)

	owners := make([]string, len(res.Matched))
	rows := make([]int, len(res.Matched))
	for i, a := range res.Matched {
		owners[i] = a.Owner
		rows[i] = a.Record.Row
	}
	assert.Equal(t, []string{"Jagan", "Jagan", "Jagan", "Balachander", "Balachander"}, owners)
	assert.Equal(t, []int{2, 3, 4, 5, 6}, rows)
}

func TestAssign_JointOwnersEvenSplit(t *testing.T) {
	r := New(testTable())

	res := r.Assign(recs("Tambaram", "Tambaram", "Tambaram", "Tambaram"))
	require.Len(t, res.Matched, 4)
	assert.Equal(t, "Jagan", res.Matched[0].Owner)
	assert.Equal(t, "Jagan", res.Matched[1].Owner)
	assert.Equal(t, "Balachander", res.Matched[2].Owner)
	assert.Equal(t, "Balachander", res.Matched[3].Owner)
}

func TestAssign_JointAndSingleInterleaved(t *testing.T) {
	r := New(testTable())

	res := r.Assign(recs("Adyar", "Tambaram", "Guindy", "Tambaram"))
	require.Len(t, res.Matched, 4)

	// Single-owner rows keep their place; joint rows split across co-owners
	// in encounter order.
	assert.Equal(t, "Abhishek", res.Matched[0].Owner)
	assert.Equal(t, "Jagan", res.Matched[1].Owner)
	assert.Equal(t, "Jagan", res.Matched[2].Owner)
	assert.Equal(t, "Balachander", res.Matched[3].Owner)
}

func TestAssign_Empty(t *testing.T) {
	r := New(testTable())

	res := r.Assign(nil)
	assert.Empty(t, res.Matched)
	assert.Empty(t, res.Unmatched)
}
