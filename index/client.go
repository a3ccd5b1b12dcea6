package index

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Client is a connection to the species index.
type Client struct {
	client *opensearch.Client
	config *Config
	logger *slog.Logger
}

// NewClient validates cfg and creates a Client. It does not contact the cluster.
func NewClient(cfg *Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryOnStatus: []int{429, 502, 503, 504},
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
		Transport:     transport,
	})
	if err != nil {
		return nil, fmt.Errorf("creating opensearch client: %w", err)
	}

	return &Client{
		client: osClient,
		config: cfg,
		logger: logger.With("component", "index"),
	}, nil
}

// Index returns the name of the species index.
func (c *Client) Index() string {
	return c.config.Index
}

// Ping checks that the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.perform(ctx, opensearchapi.PingRequest{}, nil)
}

// EnsureIndex creates the species index with its mapping when it does not exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("%w: checking index: %w", ErrIndexRequest, err)
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: checking index: status %d", ErrIndexRequest, resp.StatusCode)
	}

	body, err := json.Marshal(indexMapping())
	if err != nil {
		return err
	}
	req := opensearchapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(body),
	}
	if err := c.perform(ctx, req, nil); err != nil {
		return err
	}
	c.logger.Info("created index", "index", c.config.Index)
	return nil
}

// DeleteIndex drops the species index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := opensearchapi.IndicesDeleteRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("%w: deleting index: %w", ErrIndexRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return responseError(resp)
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.config.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// perform runs req and decodes a successful response body into out when out is not nil.
func (c *Client) perform(ctx context.Context, req opensearchapi.Request, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexRequest, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("index request", "status", resp.StatusCode, "took", time.Since(start))

	if resp.IsError() {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

// responseError turns an error response into an ErrIndexRequest carrying
// the server's reason when the body has one.
func responseError(resp *opensearchapi.Response) error {
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Reason != "" {
		return fmt.Errorf("%w: status %d: %s: %s", ErrIndexRequest, resp.StatusCode, body.Error.Type, body.Error.Reason)
	}
	return fmt.Errorf("%w: status %d", ErrIndexRequest, resp.StatusCode)
}
