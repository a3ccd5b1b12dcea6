package relevance

import (
	"cmp"
	"slices"

	"github.com/poiesic/fauna/core"
)

// Cluster groups records by every category they carry. Records without a
// category fall under core.Animal. Clusters are ordered by descending count;
// ties keep the order in which their labels were first seen.
func Cluster(records []*core.SpeciesRecord) []core.Cluster {
	var clusters []core.Cluster
	index := make(map[core.TypeLabel]int)

	for _, r := range records {
		if r == nil {
			continue
		}
		labels := r.Categories
		if len(labels) == 0 {
			labels = []core.TypeLabel{core.Animal}
		}
		seen := make(map[core.TypeLabel]bool, len(labels))
		for _, l := range labels {
			if seen[l] {
				continue
			}
			seen[l] = true
			i, ok := index[l]
			if !ok {
				i = len(clusters)
				index[l] = i
				clusters = append(clusters, core.Cluster{Label: l})
			}
			clusters[i].Count++
			clusters[i].Members = append(clusters[i].Members, r)
		}
	}

	slices.SortStableFunc(clusters, func(a, b core.Cluster) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return clusters
}
