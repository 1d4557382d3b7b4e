package taxonomy

// TreeMetrics holds statistical information about the tree
type TreeMetrics struct {
	TotalTaxa     int
	Roots         int
	Leaves        int
	MaxDepth      int
	WithThreshold int
	Reportable    int
	RankCounts    map[string]int
}

// Metrics computes summary statistics once and caches them.
func (tr *Tree) Metrics() TreeMetrics {
	tr.metricsOnce.Do(func() {
		m := TreeMetrics{
			TotalTaxa:  len(tr.taxa),
			Roots:      len(tr.roots),
			RankCounts: make(map[string]int),
		}
		for i, t := range tr.taxa {
			if len(tr.children[i]) == 0 {
				m.Leaves++
			}
			if t.depth > m.MaxDepth {
				m.MaxDepth = t.depth
			}
			if t.DistanceThreshold != nil {
				m.WithThreshold++
			}
			if t.Report {
				m.Reportable++
			}
			if t.Rank != "" {
				m.RankCounts[t.Rank]++
			}
		}
		tr.metrics = m
	})
	return tr.metrics
}
