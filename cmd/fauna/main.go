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

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/fauna/index"
	"github.com/poiesic/fauna/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB catalog directory",
		EnvVars:  []string{"FAUNA_DB"},
		Required: true,
	}
}

func dictionaryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "dictionary",
		Usage:   "YAML file with classifier dictionary overrides",
		EnvVars: []string{"FAUNA_DICTIONARY"},
	}
}

func indexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "opensearch-url",
			Usage:   "OpenSearch node URL (repeatable)",
			EnvVars: []string{"FAUNA_OPENSEARCH_URL"},
			Value:   cli.NewStringSlice(index.DefaultConfig().Addresses...),
		},
		&cli.StringFlag{
			Name:    "opensearch-user",
			Usage:   "OpenSearch user name",
			EnvVars: []string{"FAUNA_OPENSEARCH_USER"},
		},
		&cli.StringFlag{
			Name:    "opensearch-password",
			Usage:   "OpenSearch password",
			EnvVars: []string{"FAUNA_OPENSEARCH_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "index",
			Usage:   "Name of the species index",
			EnvVars: []string{"FAUNA_INDEX"},
			Value:   index.DefaultConfig().Index,
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address for the result cache (disabled when empty)",
			EnvVars: []string{"FAUNA_REDIS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{"FAUNA_REDIS_PASSWORD"},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			EnvVars: []string{"FAUNA_REDIS_DB"},
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fauna",
		Usage: "Wildlife record normalization, classification and search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"FAUNA_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Enrich raw species records and store them in the catalog",
				ArgsUsage: "<records.json|records.jsonl>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					dictionaryFlag(),
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source label for records that do not carry one",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records stored per write",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of enrichment workers (0 uses half the CPUs)",
					},
				},
			},
			{
				Name:   "publish",
				Usage:  "Send catalog records changed since the last publish to the search index",
				Action: publishCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Ignore the checkpoint and publish the whole catalog",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records per bulk request",
						Value: ingestion.DefaultBatchSize,
					},
				}, indexFlags()...),
			},
			{
				Name:      "search",
				Usage:     "Search the index and print top results, clusters and related species",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "vocabulary",
						Usage:   "YAML file with query vocabulary overrides",
						EnvVars: []string{"FAUNA_VOCABULARY"},
					},
					&cli.IntFlag{
						Name:  "rows",
						Usage: "Number of hits requested from the index",
						Value: index.DefaultSize,
					},
					&cli.Float64Flag{Name: "min-weight", Usage: "Minimum weight in kg"},
					&cli.Float64Flag{Name: "max-weight", Usage: "Maximum weight in kg"},
					&cli.Float64Flag{Name: "min-length", Usage: "Minimum length in cm"},
					&cli.Float64Flag{Name: "max-length", Usage: "Maximum length in cm"},
					&cli.Float64Flag{Name: "min-population", Usage: "Minimum population"},
					&cli.Float64Flag{Name: "max-population", Usage: "Maximum population"},
					&cli.StringSliceFlag{Name: "type", Usage: "Keep only these categories (repeatable)"},
				}, indexFlags()...),
			},
			{
				Name:      "related",
				Usage:     "Print species related to a catalog record",
				ArgsUsage: "<record-id>",
				Action:    relatedCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of related species",
						Value: 5,
					},
				}, indexFlags()...),
			},
			{
				Name:      "classify",
				Usage:     "Classify a description into a category",
				ArgsUsage: "<text>",
				Action:    classifyCommand,
				Flags:     []cli.Flag{dictionaryFlag()},
			},
			{
				Name:      "normalize",
				Usage:     "Normalize a unit-laden statistic into its base unit",
				ArgsUsage: "<text>",
				Action:    normalizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "field",
						Aliases:  []string{"f"},
						Usage:    "Statistic (weight, length, height, wingspan, tail, lifespan, gestation, population)",
						Required: true,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
