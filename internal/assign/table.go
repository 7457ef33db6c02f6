package assign

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Owner is one salesperson (or joint "A / B" ownership) and the areas they
// cover. The table file lists owners in precedence order.
type Owner struct {
	Name  string   `yaml:"name"`
	Areas []string `yaml:"areas"`
}

type tableFile struct {
	Owners []Owner `yaml:"owners"`
}

// entry is one normalized area key bound to an owner key, in table order.
type entry struct {
	norm  string
	area  string
	owner string
}

// Table is the static area-to-owner reference data. It is immutable after
// load and safe for concurrent reads.
type Table struct {
	entries []entry
	exact   map[string]string
}

// LoadTable reads the owner-area table from a YAML file.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "assign: read table file")
	}

	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, eris.Wrap(err, "assign: parse table file")
	}
	if len(tf.Owners) == 0 {
		return nil, eris.Errorf("assign: table file %s has no owners", path)
	}

	return NewTable(tf.Owners), nil
}

// NewTable builds a Table from an ordered owner list. When the same
// normalized area appears under more than one owner, the first-listed entry
// wins and the duplicate is logged; the source data is known to carry such
// conflicts.
func NewTable(owners []Owner) *Table {
	log := zap.L().With(zap.String("component", "assign.table"))

	t := &Table{exact: make(map[string]string)}
	for _, o := range owners {
		for _, area := range o.Areas {
			norm := Normalize(area)
			if norm == "" {
				continue
			}
			if prev, ok := t.exact[norm]; ok {
				if prev != o.Name {
					log.Warn("duplicate area key, keeping first-listed owner",
						zap.String("area", area),
						zap.String("kept", prev),
						zap.String("dropped", o.Name),
					)
				}
				continue
			}
			t.exact[norm] = o.Name
			t.entries = append(t.entries, entry{norm: norm, area: area, owner: o.Name})
		}
	}
	return t
}

// Lookup returns the owner key for an exact normalized area match.
func (t *Table) Lookup(norm string) (string, bool) {
	owner, ok := t.exact[norm]
	return owner, ok
}

// Len reports the number of distinct normalized area keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// SplitOwners expands an owner key into its individual salespeople. A joint
// key such as "Jagan / Balachander" yields both names in listed order.
func SplitOwners(key string) []string {
	parts := strings.Split(key, "/")
	owners := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			owners = append(owners, p)
		}
	}
	return owners
}
