package query

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ZanzyTHEbar/sigtax/sigtax/classify"
	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

type taxonJSON struct {
	ID                int64    `json:"id"`
	Key               string   `json:"key"`
	Name              string   `json:"name"`
	Rank              string   `json:"rank,omitempty"`
	NCBIID            *int64   `json:"ncbi_id,omitempty"`
	DistanceThreshold *float64 `json:"distance_threshold,omitempty"`
}

type genomeJSON struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Taxon       *taxonJSON `json:"taxon"`
}

type matchJSON struct {
	Genome       genomeJSON `json:"genome"`
	Distance     float64    `json:"distance"`
	MatchedTaxon *taxonJSON `json:"matched_taxon"`
}

type itemJSON struct {
	Query          string     `json:"query"`
	Success        bool       `json:"success"`
	PredictedTaxon *taxonJSON `json:"predicted_taxon"`
	ReportTaxon    *taxonJSON `json:"report_taxon"`
	PrimaryMatch   *matchJSON `json:"primary_match"`
	ClosestMatch   matchJSON  `json:"closest_match"`
	Warnings       []string   `json:"warnings"`
	Error          string     `json:"error,omitempty"`
}

type paramsJSON struct {
	Strict    bool `json:"strict"`
	ChunkSize int  `json:"chunk_size"`
	Workers   int  `json:"workers"`
}

type resultsJSON struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Params    paramsJSON `json:"params"`
	Items     []itemJSON `json:"items"`
}

// WriteJSON writes res as an indented JSON document.
func WriteJSON(w io.Writer, res *Results) error {
	doc := resultsJSON{
		ID:        res.ID.String(),
		Timestamp: res.Timestamp.UTC(),
		Params: paramsJSON{
			Strict:    res.Params.Strict,
			ChunkSize: res.Params.ChunkSize,
			Workers:   res.Params.Workers,
		},
		Items: make([]itemJSON, len(res.Items)),
	}
	for i, it := range res.Items {
		cr := it.Result
		item := itemJSON{
			Query:          it.label(),
			Success:        cr.Success,
			PredictedTaxon: toTaxonJSON(cr.PredictedTaxon),
			ReportTaxon:    toTaxonJSON(it.ReportTaxon),
			ClosestMatch:   toMatchJSON(cr.ClosestMatch),
			Warnings:       cr.Warnings,
			Error:          cr.Error,
		}
		if item.Warnings == nil {
			item.Warnings = []string{}
		}
		if cr.PrimaryMatch != nil {
			m := toMatchJSON(*cr.PrimaryMatch)
			item.PrimaryMatch = &m
		}
		doc.Items[i] = item
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toTaxonJSON(t *taxonomy.Taxon) *taxonJSON {
	if t == nil {
		return nil
	}
	return &taxonJSON{
		ID:                t.ID,
		Key:               t.Key,
		Name:              t.Name,
		Rank:              t.Rank,
		NCBIID:            t.NCBIID,
		DistanceThreshold: t.DistanceThreshold,
	}
}

func toMatchJSON(m classify.GenomeMatch) matchJSON {
	return matchJSON{
		Genome: genomeJSON{
			Index:       m.Index,
			Description: m.Genome.Description(),
			Taxon:       toTaxonJSON(m.Genome.Taxon()),
		},
		Distance:     m.Distance,
		MatchedTaxon: toTaxonJSON(m.MatchedTaxon),
	}
}
