package taxonomy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/armon/go-radix"
)

var (
	ErrDuplicateID   = errors.New("duplicate taxon id")
	ErrDuplicateKey  = errors.New("duplicate taxon key")
	ErrMissingParent = errors.New("taxon parent not found")
	ErrCycle         = errors.New("taxon ancestry contains a cycle")
)

// Record describes one taxon to build a Tree from.
type Record struct {
	ID                int64
	Key               string
	Name              string
	Rank              string
	ParentID          *int64
	NCBIID            *int64
	DistanceThreshold *float64
	Report            bool
}

// Tree is an immutable arena of taxa. A tree may have several roots.
type Tree struct {
	taxa     []*Taxon
	byID     map[int64]*Taxon
	keys     *radix.Tree
	children [][]int
	roots    []int

	metricsOnce sync.Once
	metrics     TreeMetrics
}

// Builder collects records in any order and links them into a Tree.
type Builder struct {
	records []Record
}

func NewBuilder() *Builder { return &Builder{} }

// Add appends records. Parents may be added after their children.
func (b *Builder) Add(records ...Record) *Builder {
	b.records = append(b.records, records...)
	return b
}

// Build validates ids, keys and parent links and returns the tree. Taxa keep the order
// in which they were added.
func (b *Builder) Build() (*Tree, error) {
	n := len(b.records)
	tr := &Tree{
		taxa:     make([]*Taxon, n),
		byID:     make(map[int64]*Taxon, n),
		keys:     radix.New(),
		children: make([][]int, n),
	}

	for i, r := range b.records {
		if _, dup := tr.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		t := &Taxon{
			ID:                r.ID,
			Key:               r.Key,
			Name:              r.Name,
			Rank:              r.Rank,
			NCBIID:            r.NCBIID,
			DistanceThreshold: r.DistanceThreshold,
			Report:            r.Report,
			tree:              tr,
			index:             i,
			parent:            -1,
		}
		tr.taxa[i] = t
		tr.byID[r.ID] = t
		if r.Key != "" {
			if _, exists := tr.keys.Insert(r.Key, t); exists {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, r.Key)
			}
		}
	}

	for i, r := range b.records {
		if r.ParentID == nil {
			tr.roots = append(tr.roots, i)
			continue
		}
		p, ok := tr.byID[*r.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: taxon %d has parent %d", ErrMissingParent, r.ID, *r.ParentID)
		}
		tr.taxa[i].parent = p.index
		tr.children[p.index] = append(tr.children[p.index], i)
	}

	// Depths are assigned breadth-first from the roots; taxa never reached sit on a cycle.
	reached := 0
	queue := append([]int(nil), tr.roots...)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		reached++
		for _, c := range tr.children[i] {
			tr.taxa[c].depth = tr.taxa[i].depth + 1
			queue = append(queue, c)
		}
	}
	if reached != n {
		for _, t := range tr.taxa {
			if t.parent >= 0 && t.depth == 0 {
				return nil, fmt.Errorf("%w: involving taxon %d", ErrCycle, t.ID)
			}
		}
		return nil, ErrCycle
	}
	return tr, nil
}

// Len returns the number of taxa.
func (tr *Tree) Len() int { return len(tr.taxa) }

// Taxa returns all taxa in insertion order.
func (tr *Tree) Taxa() []*Taxon { return tr.taxa }

// ByID looks up a taxon by database id.
func (tr *Tree) ByID(id int64) (*Taxon, bool) {
	t, ok := tr.byID[id]
	return t, ok
}

// ByKey looks up a taxon by its unique key.
func (tr *Tree) ByKey(key string) (*Taxon, bool) {
	v, ok := tr.keys.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Taxon), true
}

// WithKeyPrefix returns the taxa whose key starts with prefix, in lexical key order.
func (tr *Tree) WithKeyPrefix(prefix string) []*Taxon {
	var out []*Taxon
	tr.keys.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		out = append(out, v.(*Taxon))
		return false
	})
	return out
}

// Roots returns the taxa without a parent.
func (tr *Tree) Roots() []*Taxon { return tr.pick(tr.roots) }

// Children returns the direct children of t.
func (tr *Tree) Children(t *Taxon) []*Taxon {
	if t.tree != tr {
		return nil
	}
	return tr.pick(tr.children[t.index])
}

func (tr *Tree) pick(idx []int) []*Taxon {
	out := make([]*Taxon, len(idx))
	for i, j := range idx {
		out[i] = tr.taxa[j]
	}
	return out
}
