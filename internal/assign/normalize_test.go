package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "ADYAR", "adyar"},
		{"trims", "  Adyar  ", "adyar"},
		{"strips punctuation", "T. Nagar", "t nagar"},
		{"collapses whitespace", "t   nagar", "t nagar"},
		{"mixed", "  T.  Nagar! ", "t nagar"},
		{"empty", "", ""},
		{"only punctuation", "?!.", ""},
		{"keeps digits", "Sector 21", "sector 21"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"T. Nagar", "  ADYAR ", "Anna-Nagar West", "sector 21"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_VariantsCollide(t *testing.T) {
	variants := []string{"T. Nagar", "T Nagar", "t nagar", " T.  NAGAR "}
	want := Normalize(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, want, Normalize(v), "variant %q", v)
	}
}
