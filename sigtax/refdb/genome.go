package refdb

import "github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"

// AnnotatedGenome is a reference genome with its assigned taxon resolved.
type AnnotatedGenome struct {
	ID  int64
	Key string

	desc  string
	taxon *taxonomy.Taxon
}

// NewAnnotatedGenome builds a genome outside the database, mostly for tests and imports.
func NewAnnotatedGenome(id int64, key, description string, taxon *taxonomy.Taxon) *AnnotatedGenome {
	return &AnnotatedGenome{ID: id, Key: key, desc: description, taxon: taxon}
}

// Taxon returns the assigned taxon, or nil.
func (g *AnnotatedGenome) Taxon() *taxonomy.Taxon { return g.taxon }

// Description returns the stored description, falling back to the key.
func (g *AnnotatedGenome) Description() string {
	if g.desc == "" {
		return g.Key
	}
	return g.desc
}
