// Package assign maps free-text area names to owning salespeople.
package assign

import (
	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/vpearl/leadsync/internal/model"
)

// Resolver resolves area names against the owner-area table, exactly first
// and fuzzily as a fallback.
type Resolver struct {
	table     *Table
	threshold float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFuzzyThreshold sets the minimum similarity score (0..1) a fuzzy match
// must reach. Thresholds >= 1.0 disable fuzzy matching.
func WithFuzzyThreshold(t float64) Option {
	return func(r *Resolver) {
		r.threshold = t
	}
}

// New creates a Resolver over the given table. Fuzzy matching defaults to a
// 0.85 similarity threshold.
func New(table *Table, opts ...Option) *Resolver {
	r := &Resolver{table: table, threshold: 0.85}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps an area name to its owner key. The second return is false
// when neither an exact nor a fuzzy match was found.
func (r *Resolver) Resolve(area string) (string, bool) {
	norm := Normalize(area)
	if norm == "" {
		return "", false
	}

	if owner, ok := r.table.Lookup(norm); ok {
		return owner, true
	}

	if r.threshold >= 1.0 {
		return "", false
	}

	// Fuzzy fallback: best score wins, ties resolved by table order.
	params := levenshtein.NewParams()
	var (
		best      float64
		bestOwner string
		found     bool
	)
	for _, e := range r.table.entries {
		score := levenshtein.Similarity(norm, e.norm, params)
		if score >= r.threshold && score > best {
			best = score
			bestOwner = e.owner
			found = true
		}
	}
	if found {
		zap.L().Debug("fuzzy area match",
			zap.String("area", area),
			zap.String("owner", bestOwner),
			zap.Float64("score", best),
		)
	}
	return bestOwner, found
}

// Assignment binds one record to one individual salesperson.
type Assignment struct {
	Record model.RawRecord
	Owner  string
}

// Resolution is the outcome of assigning one batch of records.
type Resolution struct {
	Matched   []Assignment
	Unmatched []model.RawRecord
}

// Assign resolves every record's area and distributes records under joint
// owner keys across the co-owners: floor(n/k) each, the first n mod k owners
// taking one extra, preserving original row order within each share.
// Records whose area matches nothing land in Unmatched rather than being
// dropped.
func (r *Resolver) Assign(records []model.RawRecord) Resolution {
	type resolved struct {
		rec model.RawRecord
		key string
	}

	var (
		res    Resolution
		hits   []resolved
		groups = make(map[string][]int) // joint owner key -> positions in hits
	)

	for _, rec := range records {
		owner, ok := r.Resolve(rec.AreaName)
		if !ok {
			res.Unmatched = append(res.Unmatched, rec)
			continue
		}
		hits = append(hits, resolved{rec: rec, key: owner})
		if len(SplitOwners(owner)) > 1 {
			groups[owner] = append(groups[owner], len(hits)-1)
		}
	}

	// Precompute the individual owner for each position of every joint
	// group, then emit assignments in original record order.
	jointOwner := make(map[int]string)
	for key, positions := range groups {
		owners := SplitOwners(key)
		per := len(positions) / len(owners)
		rem := len(positions) % len(owners)

		idx := 0
		for i, owner := range owners {
			count := per
			if i < rem {
				count++
			}
			for j := 0; j < count; j++ {
				jointOwner[positions[idx]] = owner
				idx++
			}
		}
	}

	for i, h := range hits {
		owner := h.key
		if o, ok := jointOwner[i]; ok {
			owner = o
		}
		res.Matched = append(res.Matched, Assignment{Record: h.rec, Owner: owner})
	}

	return res
}
