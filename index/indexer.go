package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/poiesic/fauna/core"
)

// Indexer writes species documents with the bulk API.
type Indexer struct {
	client *Client
	logger *slog.Logger
}

// NewIndexer creates an Indexer on client.
func NewIndexer(client *Client, logger *slog.Logger) (*Indexer, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if logger == nil {
		logger = client.logger
	}
	return &Indexer{client: client, logger: logger}, nil
}

type bulkAction struct {
	Index  *bulkTarget `json:"index,omitempty"`
	Delete *bulkTarget `json:"delete,omitempty"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool                                `json:"errors"`
	Items  []map[string]bulkItemResponseStatus `json:"items"`
}

type bulkItemResponseStatus struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// Index writes records as documents keyed by record ID, replacing existing documents.
// Item failures are joined into a single error.
func (i *Indexer) Index(ctx context.Context, records ...*core.SpeciesRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, record := range records {
		action := bulkAction{Index: &bulkTarget{Index: i.client.Index(), ID: record.ID}}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(NewDocument(record)); err != nil {
			return fmt.Errorf("encoding %s: %w", record.ID, err)
		}
	}

	if err := i.bulk(ctx, &buf); err != nil {
		return err
	}
	i.logger.Debug("indexed species", "count", len(records))
	return nil
}

// Delete removes documents by ID. Missing documents are ignored.
func (i *Indexer) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if err := enc.Encode(bulkAction{Delete: &bulkTarget{Index: i.client.Index(), ID: id}}); err != nil {
			return err
		}
	}
	return i.bulk(ctx, &buf)
}

func (i *Indexer) bulk(ctx context.Context, body *bytes.Buffer) error {
	req := opensearchapi.BulkRequest{
		Body:    bytes.NewReader(body.Bytes()),
		Refresh: i.client.config.Refresh,
	}

	var resp bulkResponse
	if err := i.client.perform(ctx, req, &resp); err != nil {
		return err
	}
	if !resp.Errors {
		return nil
	}

	var errs []error
	for _, item := range resp.Items {
		for op, status := range item {
			if status.Error == nil {
				continue
			}
			if op == "delete" && status.Status == 404 {
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %s %s: %s: %s",
				ErrIndexRequest, op, status.ID, status.Error.Type, status.Error.Reason))
		}
	}
	return errors.Join(errs...)
}
