// Package ingestion turns scraped species descriptions into catalog records.
//
// The Pipeline type manages the ingestion workflow:
//   - Enriching RawRecords (unit normalization, classification, text cleaning)
//   - Storing the enriched records in the catalog, replacing earlier versions
//
// The Publisher type pushes catalog records to the search index, resuming
// from a stored checkpoint so that only records updated since the last run
// are sent again.
//
// Enrichment is performed concurrently using a worker pool. Records that fail
// validation are logged and skipped; they do not fail the ingestion.
package ingestion
