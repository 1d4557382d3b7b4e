// Package taxonomy holds the read-only taxonomy tree that classification results refer to.
//
// A Tree owns its taxa in a flat arena; each Taxon refers to its parent by arena index.
// Trees are immutable once built and safe to share between goroutines.
package taxonomy

import (
	"fmt"
	"iter"
	"slices"
)

// Taxon is a node of a Tree. Its exported fields must not be modified.
type Taxon struct {
	ID   int64
	Key  string
	Name string
	Rank string
	// NCBIID is the external NCBI taxonomy identifier, if known.
	NCBIID *int64
	// DistanceThreshold is the largest query distance that still classifies as this taxon.
	// Nil means the taxon is never matched directly.
	DistanceThreshold *float64
	// Report marks taxa suitable for reporting to users.
	Report bool

	tree   *Tree
	index  int
	parent int
	depth  int
}

// Tree returns the tree the taxon belongs to.
func (t *Taxon) Tree() *Tree { return t.tree }

// Parent returns the parent taxon, or nil for a root.
func (t *Taxon) Parent() *Taxon {
	if t.parent < 0 {
		return nil
	}
	return t.tree.taxa[t.parent]
}

// IsRoot reports whether t has no parent.
func (t *Taxon) IsRoot() bool { return t.parent < 0 }

// Depth is the number of edges between t and its root.
func (t *Taxon) Depth() int { return t.depth }

// Threshold returns the distance threshold and whether one is set.
func (t *Taxon) Threshold() (float64, bool) {
	if t.DistanceThreshold == nil {
		return 0, false
	}
	return *t.DistanceThreshold, true
}

// Ancestors yields t (if inclSelf) and then each ancestor up to the root. The sequence is
// lazy and may be iterated any number of times.
func (t *Taxon) Ancestors(inclSelf bool) iter.Seq[*Taxon] {
	return func(yield func(*Taxon) bool) {
		cur := t
		if !inclSelf {
			cur = t.Parent()
		}
		for cur != nil {
			if !yield(cur) {
				return
			}
			cur = cur.Parent()
		}
	}
}

// IsAncestorOf reports whether t lies on other's ancestor chain. A taxon is its own ancestor
// when inclSelf is set.
func (t *Taxon) IsAncestorOf(other *Taxon, inclSelf bool) bool {
	if t.tree != other.tree || t.depth > other.depth {
		return false
	}
	cur := other
	for cur.depth > t.depth {
		cur = cur.Parent()
	}
	if cur == other && !inclSelf {
		return false
	}
	return cur == t
}

// Lineage returns the ancestors of t from its root down to t itself.
func (t *Taxon) Lineage() []*Taxon {
	out := slices.Collect(t.Ancestors(true))
	slices.Reverse(out)
	return out
}

// ShortRepr is a compact description used in messages.
func (t *Taxon) ShortRepr() string {
	return fmt.Sprintf("%d:%s", t.ID, t.Name)
}

func (t *Taxon) String() string {
	if t.Rank == "" {
		return fmt.Sprintf("Taxon(%d, %q)", t.ID, t.Name)
	}
	return fmt.Sprintf("Taxon(%d, %q, %s)", t.ID, t.Name, t.Rank)
}
