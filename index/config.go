// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for the OpenSearch connection.
type Config struct {
	// Addresses are the cluster node URLs.
	// Example: "http://localhost:9200"
	Addresses []string

	// Username and Password enable basic authentication when Username is set.
	Username string
	Password string

	// Index is the name of the species index.
	// Default: "wildlife"
	Index string

	// MaxRetries is the number of retries for requests that fail with
	// 429, 502, 503 or 504.
	// Default: 3
	MaxRetries int

	// RequestTimeout bounds every request. Zero disables the bound.
	// Default: 10s
	RequestTimeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Refresh is passed as the refresh parameter of bulk requests
	// ("", "true", "false" or "wait_for").
	Refresh string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAddresses sets the cluster node URLs.
func WithAddresses(addresses ...string) ConfigOption {
	return func(c *Config) {
		c.Addresses = addresses
	}
}

// WithCredentials sets basic authentication credentials.
func WithCredentials(username, password string) ConfigOption {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithIndex sets the index name.
func WithIndex(name string) ConfigOption {
	return func(c *Config) {
		c.Index = name
	}
}

// WithMaxRetries sets the retry count.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) ConfigOption {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}

// WithRefresh sets the refresh policy for bulk requests.
func WithRefresh(policy string) ConfigOption {
	return func(c *Config) {
		c.Refresh = policy
	}
}

// DefaultConfig returns a Config for a local single-node cluster.
func DefaultConfig() *Config {
	return &Config{
		Addresses:      []string{"http://localhost:9200"},
		Index:          "wildlife",
		MaxRetries:     3,
		RequestTimeout: 10 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAddresses("https://search.internal:9200"),
//	    WithCredentials("admin", "secret"),
//	    WithIndex("species"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize trims addresses and lowercases the index name, which OpenSearch requires.
func (c *Config) Normalize() {
	addresses := c.Addresses[:0]
	for _, a := range c.Addresses {
		if a = strings.TrimSuffix(strings.TrimSpace(a), "/"); a != "" {
			addresses = append(addresses, a)
		}
	}
	c.Addresses = addresses
	c.Index = strings.ToLower(strings.TrimSpace(c.Index))
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if len(c.Addresses) == 0 {
		return errors.New("index config: at least one address is required")
	}
	if c.Index == "" {
		return errors.New("index config: Index is required")
	}
	if strings.ContainsAny(c.Index, `\/*?"<>| ,#:`) {
		return errors.New("index config: Index contains invalid characters")
	}
	if c.MaxRetries < 0 {
		return errors.New("index config: MaxRetries must be >= 0")
	}
	if c.RequestTimeout < 0 {
		return errors.New("index config: RequestTimeout must be >= 0")
	}
	switch c.Refresh {
	case "", "true", "false", "wait_for":
	default:
		return errors.New("index config: Refresh must be one of true, false, wait_for")
	}
	return nil
}
