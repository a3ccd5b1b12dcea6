// Package relevance scores, ranks and groups species records.
//
// Similarity between two records is a fixed weighted sum:
//
//	0.4 * text Jaccard of the overviews
//	+ 0.3 when both records share a primary category
//	+ 0.2 * overlap ratio of their length ranges
//
// The weights sum to 0.9, so scores lie in [0, 0.9]. Every function in this
// package is pure and safe for concurrent use.
package relevance
