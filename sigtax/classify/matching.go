package classify

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

// MatchingTaxon returns the most specific taxon in the lineage of taxon (itself included)
// whose distance threshold is set and at least d, or nil if there is none.
func MatchingTaxon(taxon *taxonomy.Taxon, d float64) *taxonomy.Taxon {
	if taxon == nil {
		return nil
	}
	for t := range taxon.Ancestors(true) {
		if thresh, ok := t.Threshold(); ok && d <= thresh {
			return t
		}
	}
	return nil
}

// ReportableTaxon returns the first taxon in the lineage of taxon (itself included) flagged
// for reporting, or nil.
func ReportableTaxon(taxon *taxonomy.Taxon) *taxonomy.Taxon {
	if taxon == nil {
		return nil
	}
	for t := range taxon.Ancestors(true) {
		if t.Report {
			return t
		}
	}
	return nil
}

// Matches groups reference indices by the taxon they matched. Taxa are kept in order of
// first occurrence and indices in ascending order.
type Matches struct {
	taxa    []*taxonomy.Taxon
	indices map[*taxonomy.Taxon][]int
}

// Len returns the number of distinct matched taxa.
func (m *Matches) Len() int { return len(m.taxa) }

// Taxa returns the matched taxa in order of first occurrence.
func (m *Matches) Taxa() []*taxonomy.Taxon { return m.taxa }

// Indices returns the reference indices matched to t.
func (m *Matches) Indices(t *taxonomy.Taxon) []int { return m.indices[t] }

// All yields each matched taxon with its indices.
func (m *Matches) All() iter.Seq2[*taxonomy.Taxon, []int] {
	return func(yield func(*taxonomy.Taxon, []int) bool) {
		for _, t := range m.taxa {
			if !yield(t, m.indices[t]) {
				return
			}
		}
	}
}

// FindMatches computes MatchingTaxon for every (genome, distance) pair and groups the pair
// positions by the resulting taxon. Pairs without a match are skipped.
func FindMatches(genomes []ReferenceGenome, dists []float64) (*Matches, error) {
	if len(genomes) != len(dists) {
		return nil, fmt.Errorf("%w: %d genomes, %d distances", ErrLengthMismatch, len(genomes), len(dists))
	}
	m := &Matches{indices: make(map[*taxonomy.Taxon][]int)}
	for i, g := range genomes {
		t := MatchingTaxon(g.Taxon(), dists[i])
		if t == nil {
			continue
		}
		if _, seen := m.indices[t]; !seen {
			m.taxa = append(m.taxa, t)
		}
		m.indices[t] = append(m.indices[t], i)
	}
	return m, nil
}

// TaxonSet is a set of taxa that remembers insertion order.
type TaxonSet struct {
	items []*taxonomy.Taxon
	index map[*taxonomy.Taxon]struct{}
}

// NewTaxonSet returns a set holding taxa, duplicates dropped.
func NewTaxonSet(taxa ...*taxonomy.Taxon) TaxonSet {
	var s TaxonSet
	for _, t := range taxa {
		s.Add(t)
	}
	return s
}

func (s *TaxonSet) Add(t *taxonomy.Taxon) {
	if s.index == nil {
		s.index = make(map[*taxonomy.Taxon]struct{})
	}
	if _, ok := s.index[t]; ok {
		return
	}
	s.index[t] = struct{}{}
	s.items = append(s.items, t)
}

func (s TaxonSet) Contains(t *taxonomy.Taxon) bool {
	_, ok := s.index[t]
	return ok
}

func (s TaxonSet) Len() int { return len(s.items) }

// Items returns the members in insertion order.
func (s TaxonSet) Items() []*taxonomy.Taxon { return s.items }

// ConsensusTaxon finds the lowest taxon that is an ancestor (or self) of every input taxon.
//
// The returned set holds the taxa found on divergent branches below the consensus; it is
// empty when all inputs lie on a single lineage. If the inputs have no common ancestor
// the consensus is nil and the set holds every input taxon.
func ConsensusTaxon(taxa []*taxonomy.Taxon) (*taxonomy.Taxon, TaxonSet) {
	if len(taxa) == 0 {
		return nil, TaxonSet{}
	}

	// Current consensus followed by its ancestors, bottom to top
	trunk := slices.Collect(taxa[0].Ancestors(true))
	var crown TaxonSet

	for _, taxon := range taxa[1:] {
		if slices.Contains(trunk, taxon) {
			continue
		}

		found := false
		for a := range taxon.Ancestors(false) {
			i := slices.Index(trunk, a)
			if i < 0 {
				continue
			}
			if i == 0 {
				// Descends from the current consensus, which moves down to it
				trunk = slices.Collect(taxon.Ancestors(true))
			} else {
				// Diverges below trunk[i], which becomes the new consensus
				crown.Add(trunk[0])
				crown.Add(taxon)
				trunk = trunk[i:]
			}
			found = true
			break
		}
		if !found {
			return nil, NewTaxonSet(taxa...)
		}
	}

	return trunk[0], crown
}
