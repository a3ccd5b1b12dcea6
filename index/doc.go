// Package index connects the catalog to an OpenSearch species index.
//
// Records are published as flat documents in which every statistic is split
// into a pair of numeric fields (weight_kg_min, weight_kg_max, ...). Queries
// combine a boosted multi-field text match with range filters derived from
// core.RangePredicate values, so numeric filtering happens inside the index.
//
// Basic usage:
//
//	client, err := index.NewClient(index.NewConfig(index.WithIndex("wildlife")), logger)
//	searcher, err := index.NewSearcher(client, logger)
//	records, err := searcher.Search(ctx, index.Query{Text: "big cat"})
package index
