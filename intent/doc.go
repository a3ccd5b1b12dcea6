// Package intent reads numeric filters out of free-text search queries.
//
// A query such as "animals under 50 kg" yields a core.QueryIntent whose weight
// filter carries every number found in the query. Numbers are not attributed to
// individual filters: when several trigger words appear, each matched filter
// receives the whole list. Predicates turns an intent into the range predicates
// the search index applies.
package intent
