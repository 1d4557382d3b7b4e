// Package classify predicts the taxonomy of a query genome from its distances to a set of
// annotated reference genomes.
package classify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

var (
	ErrLengthMismatch = errors.New("classify: genome and distance counts differ")
	ErrNoReferences   = errors.New("classify: no reference genomes")
)

const (
	warnPrimaryNotClosest = "Primary genome match is not closest match."
	errNoCommonAncestor   = "Matched taxa have no common ancestor."
)

// ReferenceGenome is a reference genome annotated with its assigned taxon.
type ReferenceGenome interface {
	// Taxon returns the taxon the genome is assigned to, or nil.
	Taxon() *taxonomy.Taxon
	Description() string
}

// GenomeMatch is the match between a query and a single reference genome. It does not imply
// that the match produced the overall prediction.
type GenomeMatch struct {
	Genome ReferenceGenome
	// Index of the genome in the reference list
	Index    int
	Distance float64
	// Prediction from this match alone: the genome's taxon, one of its ancestors, or nil
	MatchedTaxon *taxonomy.Taxon
}

// NewGenomeMatch builds a match and derives its taxon with MatchingTaxon.
func NewGenomeMatch(genome ReferenceGenome, index int, d float64) GenomeMatch {
	return GenomeMatch{
		Genome:       genome,
		Index:        index,
		Distance:     d,
		MatchedTaxon: MatchingTaxon(genome.Taxon(), d),
	}
}

// ClassifierResult is the outcome of classifying one query.
//
// Success reports whether classification ran without fatal error; a successful result may
// still carry no prediction. PrimaryMatch is the closest reference whose match lies at or
// below PredictedTaxon and is nil when no prediction was made.
type ClassifierResult struct {
	Success        bool
	PredictedTaxon *taxonomy.Taxon
	PrimaryMatch   *GenomeMatch
	ClosestMatch   GenomeMatch
	Warnings       []string
	Error          string
}

// Classify predicts a taxon for a query given its distances to each genome.
//
// In non-strict mode only the closest genome is considered. In strict mode every genome
// within its taxon's threshold counts as a match and the prediction is the consensus of the
// matched taxa. Ties between equal distances go to the lowest index.
func Classify(genomes []ReferenceGenome, dists []float64, strict bool) (*ClassifierResult, error) {
	if err := checkInputs(genomes, dists); err != nil {
		return nil, err
	}

	closestIdx := floats.MinIdx(dists)
	closest := NewGenomeMatch(genomes[closestIdx], closestIdx, dists[closestIdx])

	if !strict {
		res := &ClassifierResult{
			Success:        true,
			PredictedTaxon: closest.MatchedTaxon,
			ClosestMatch:   closest,
		}
		if closest.MatchedTaxon != nil {
			res.PrimaryMatch = &closest
		}
		return res, nil
	}

	matches, err := FindMatches(genomes, dists)
	if err != nil {
		return nil, err
	}
	if matches.Len() == 0 {
		return &ClassifierResult{Success: true, ClosestMatch: closest}, nil
	}

	consensus, crown := ConsensusTaxon(matches.Taxa())
	res := &ClassifierResult{
		Success:        true,
		PredictedTaxon: consensus,
		ClosestMatch:   closest,
	}
	if consensus != nil {
		res.PrimaryMatch = primaryMatch(genomes, dists, matches, consensus)
	}

	if crown.Len() > 0 {
		res.Warnings = append(res.Warnings, inconsistentWarning(crown))
	}
	if consensus == nil {
		res.Success = false
		res.Error = errNoCommonAncestor
	}
	if res.PrimaryMatch != nil && res.PrimaryMatch.Index != closest.Index {
		res.Warnings = append(res.Warnings, warnPrimaryNotClosest)
	}
	return res, nil
}

// primaryMatch picks the closest genome among matches whose taxon lies at or below consensus.
func primaryMatch(genomes []ReferenceGenome, dists []float64, matches *Matches, consensus *taxonomy.Taxon) *GenomeMatch {
	bestIdx := -1
	bestDist := math.Inf(1)
	var bestTaxon *taxonomy.Taxon

	for taxon, idxs := range matches.All() {
		if !consensus.IsAncestorOf(taxon, true) {
			continue
		}
		for _, i := range idxs {
			if dists[i] < bestDist || (dists[i] == bestDist && i < bestIdx) {
				bestIdx, bestDist, bestTaxon = i, dists[i], taxon
			}
		}
	}
	if bestIdx < 0 {
		return nil
	}
	return &GenomeMatch{
		Genome:       genomes[bestIdx],
		Index:        bestIdx,
		Distance:     bestDist,
		MatchedTaxon: bestTaxon,
	}
}

func inconsistentWarning(crown TaxonSet) string {
	names := make([]string, 0, crown.Len())
	for _, t := range crown.Items() {
		names = append(names, t.ShortRepr())
	}
	return fmt.Sprintf("Query matched %d inconsistent taxa: %s. Reporting lowest common ancestor of this set.",
		crown.Len(), strings.Join(names, ", "))
}

func checkInputs(genomes []ReferenceGenome, dists []float64) error {
	if len(genomes) != len(dists) {
		return fmt.Errorf("%w: %d genomes, %d distances", ErrLengthMismatch, len(genomes), len(dists))
	}
	if len(genomes) == 0 {
		return ErrNoReferences
	}
	return nil
}
