package main

import (
	"bufio"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/fauna"
	"github.com/poiesic/fauna/cache"
	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/index"
	"github.com/poiesic/fauna/ingestion"
	"github.com/poiesic/fauna/intent"
	"github.com/poiesic/fauna/relevance"
	"github.com/poiesic/fauna/search"
	"github.com/poiesic/fauna/stats"
	"github.com/poiesic/fauna/storage"
	"github.com/poiesic/fauna/taxonomy"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("records file is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	records, err := readRecords(path)
	if err != nil {
		return err
	}
	if source := c.String("source"); source != "" {
		for i := range records {
			if records[i].Source == "" {
				records[i].Source = source
			}
		}
	}

	classifier, err := loadClassifier(c.String("dictionary"))
	if err != nil {
		return err
	}

	catalog, err := fauna.NewCatalog(c.String("db"), fauna.WithClassifier(classifier))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer catalog.Close()

	opts := []ingestion.Option{ingestion.WithBatchSize(c.Int("batch-size"))}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}
	pipeline, err := catalog.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(c.Context, records)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Received: %d\nSkipped: %d\nStored: %d\n", result.Received, result.Skipped, result.Stored)
	return nil
}

func publishCommand(c *cli.Context) error {
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	sent, err := catalog.Publish(c.Context, c.Bool("full"), c.Int("batch-size"))
	if err != nil {
		return fmt.Errorf("publish failed after %d records: %w", sent, err)
	}

	fmt.Fprintf(c.App.Writer, "Published %d records to %s\n", sent, catalog.IndexClient().Index())
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")

	refinement, err := refinementFromFlags(c)
	if err != nil {
		return err
	}

	vocab, err := intent.LoadVocabulary(c.String("vocabulary"))
	if err != nil {
		return err
	}
	parser, err := intent.NewParser(vocab)
	if err != nil {
		return err
	}

	catalog, err := openCatalog(c, fauna.WithParser(parser))
	if err != nil {
		return err
	}
	defer catalog.Close()

	searcher, err := catalog.NewSearcher(search.WithRows(c.Int("rows")))
	if err != nil {
		return err
	}
	defer searcher.Release()

	result, err := searcher.Search(c.Context, query, &search.Options{Refinement: refinement})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResult(c.App.Writer, result)
	return nil
}

func relatedCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("record id is required")
	}

	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	base, err := catalog.SpeciesRepository().GetSpecies(c.Context, ingestion.CanonicalURL(id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no species with id %q in the catalog", id)
	}
	if err != nil {
		return err
	}

	searcher, err := catalog.NewSearcher(search.WithRelatedLimit(c.Int("limit")))
	if err != nil {
		return err
	}
	defer searcher.Release()

	related, err := searcher.Related(c.Context, base)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Related to %s [%s]\n", base.Name, base.Category())
	for i, r := range related {
		fmt.Fprintf(w, "%d. %s [%s] %0.3f %s\n", i+1, r.Name, r.Category(), relevance.Similarity(base, r), r.URL)
	}
	return nil
}

func classifyCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	classifier, err := loadClassifier(c.String("dictionary"))
	if err != nil {
		return err
	}

	scores := classifier.Score(text)
	w := c.App.Writer
	fmt.Fprintln(w, classifier.Select(scores))

	labels := make([]core.TypeLabel, 0, len(scores))
	for label, score := range scores {
		if score > 0 {
			labels = append(labels, label)
		}
	}
	slices.SortFunc(labels, func(a, b core.TypeLabel) int {
		return cmp.Or(cmp.Compare(scores[b], scores[a]), cmp.Compare(a, b))
	})
	for _, label := range labels {
		fmt.Fprintf(w, "  %s: %d\n", label, scores[label])
	}
	return nil
}

func normalizeCommand(c *cli.Context) error {
	field := core.StatField(strings.ToLower(strings.TrimSpace(c.String("field"))))
	if !slices.Contains(core.StatFields, field) {
		return fmt.Errorf("unknown field %q", c.String("field"))
	}

	r, ok := stats.NewNormalizer().Normalize(field, strings.Join(c.Args().Slice(), " "))
	if !ok {
		fmt.Fprintln(c.App.Writer, "no value")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%s\t[%g, %g]\n", r.Format(field.BaseUnit()), r.Min, r.Max)
	return nil
}

// openCatalog opens the catalog with the index and cache settings from c.
func openCatalog(c *cli.Context, extra ...fauna.CatalogOption) (*fauna.Catalog, error) {
	cfg := index.NewConfig(
		index.WithAddresses(c.StringSlice("opensearch-url")...),
		index.WithCredentials(c.String("opensearch-user"), c.String("opensearch-password")),
		index.WithIndex(c.String("index")),
		index.WithInsecureSkipVerify(c.Bool("insecure")),
	)
	cfg.Normalize()

	opts := []fauna.CatalogOption{fauna.WithIndexConfig(cfg)}
	if addr := c.String("redis-addr"); addr != "" {
		client, err := cache.Connect(c.Context, addr, c.String("redis-password"), c.Int("redis-db"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts = append(opts, fauna.WithCache(cache.NewRedisCache(client)))
	}

	catalog, err := fauna.NewCatalog(c.String("db"), append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return catalog, nil
}

func loadClassifier(path string) (*taxonomy.Classifier, error) {
	dict, err := taxonomy.LoadDictionary(path)
	if err != nil {
		return nil, err
	}
	return taxonomy.NewClassifier(dict)
}

// readRecords reads a JSON array of raw records, or one record per line when
// path ends in .jsonl.
func readRecords(path string) ([]ingestion.RawRecord, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeRecords(f, strings.EqualFold(filepath.Ext(path), ".jsonl"))
}

func decodeRecords(r io.Reader, lines bool) ([]ingestion.RawRecord, error) {
	if !lines {
		var records []ingestion.RawRecord
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		return records, nil
	}

	var records []ingestion.RawRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record ingestion.RawRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("decoding record on line %d: %w", n, err)
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}

// refinementFromFlags builds the result refinement from the bound and type flags.
func refinementFromFlags(c *cli.Context) (relevance.Refinement, error) {
	var f relevance.Refinement
	var err error
	if f.Weight, err = boundFromFlags(c, "weight"); err != nil {
		return f, err
	}
	if f.Length, err = boundFromFlags(c, "length"); err != nil {
		return f, err
	}
	if f.Population, err = boundFromFlags(c, "population"); err != nil {
		return f, err
	}
	for _, t := range c.StringSlice("type") {
		label, err := parseTypeLabel(t)
		if err != nil {
			return f, err
		}
		f.Types = append(f.Types, label)
	}
	return f, nil
}

// boundFromFlags returns nil when neither --min-name nor --max-name is set.
func boundFromFlags(c *cli.Context, name string) (*core.NormalizedRange, error) {
	minFlag, maxFlag := "min-"+name, "max-"+name
	if !c.IsSet(minFlag) && !c.IsSet(maxFlag) {
		return nil, nil
	}
	bound := core.NormalizedRange{Min: 0, Max: math.MaxFloat64}
	if c.IsSet(minFlag) {
		bound.Min = c.Float64(minFlag)
	}
	if c.IsSet(maxFlag) {
		bound.Max = c.Float64(maxFlag)
	}
	if err := core.ValidateRange(bound); err != nil {
		return nil, fmt.Errorf("%s bounds: %w", name, err)
	}
	return &bound, nil
}

// parseTypeLabel matches s against the known labels case-insensitively.
func parseTypeLabel(s string) (core.TypeLabel, error) {
	for _, label := range core.TypeLabels {
		if strings.EqualFold(strings.TrimSpace(s), string(label)) {
			return label, nil
		}
	}
	return "", core.ValidateTypeLabel(core.TypeLabel(s))
}

func printResult(w io.Writer, result *search.Result) {
	fmt.Fprintf(w, "Found %d results\n", result.Total)
	for i, hit := range result.Top {
		printRecord(w, i+1, hit.Record)
		for _, r := range hit.Related {
			fmt.Fprintf(w, "      related: %s [%s]\n", r.Name, r.Category())
		}
	}
	for _, cluster := range result.Clusters {
		fmt.Fprintf(w, "%s (%d)\n", cluster.Label, cluster.Count)
		for _, r := range cluster.Members {
			fmt.Fprintf(w, "  - %s\n", r.Name)
		}
	}
}

func printRecord(w io.Writer, n int, r *core.SpeciesRecord) {
	fmt.Fprintf(w, "%d. %s [%s] %s\n", n, r.Name, r.Category(), r.URL)
	for _, field := range core.StatFields {
		if v := r.Stats.Get(field); v != nil {
			fmt.Fprintf(w, "      %s: %s\n", field, v.Format(field.BaseUnit()))
		}
	}
}
