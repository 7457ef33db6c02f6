package assign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_ExactLookup(t *testing.T) {
	table := NewTable([]Owner{
		{Name: "Abhishek", Areas: []string{"Adyar", "T. Nagar"}},
		{Name: "Jagan", Areas: []string{"Velachery"}},
	})

	owner, ok := table.Lookup(Normalize("T. Nagar"))
	require.True(t, ok)
	assert.Equal(t, "Abhishek", owner)

	owner, ok = table.Lookup(Normalize("velachery"))
	require.True(t, ok)
	assert.Equal(t, "Jagan", owner)

	_, ok = table.Lookup(Normalize("Nowhere"))
	assert.False(t, ok)
}

func TestNewTable_DuplicateKeyFirstListedWins(t *testing.T) {
	table := NewTable([]Owner{
		{Name: "Abhishek", Areas: []string{"Adyar"}},
		{Name: "Jagan", Areas: []string{"adyar"}},
	})

	owner, ok := table.Lookup("adyar")
	require.True(t, ok)
	assert.Equal(t, "Abhishek", owner)
	assert.Equal(t, 1, table.Len())
}

func TestNewTable_SkipsBlankAreas(t *testing.T) {
	table := NewTable([]Owner{
		{Name: "Abhishek", Areas: []string{"", "  ", "Adyar"}},
	})
	assert.Equal(t, 1, table.Len())
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`owners:
  - name: Abhishek
    areas: [Adyar, "T. Nagar"]
  - name: Jagan / Balachander
    areas: [Tambaram]
`), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	owner, ok := table.Lookup("tambaram")
	require.True(t, ok)
	assert.Equal(t, "Jagan / Balachander", owner)
}

func TestLoadTable_Missing(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadTable_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("owners: []\n"), 0o644))

	_, err := LoadTable(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no owners")
}

func TestSplitOwners(t *testing.T) {
	assert.Equal(t, []string{"Abhishek"}, SplitOwners("Abhishek"))
	assert.Equal(t, []string{"Jagan", "Balachander"}, SplitOwners("Jagan / Balachander"))
	assert.Equal(t, []string{"A", "B", "C"}, SplitOwners("A/B / C"))
}
