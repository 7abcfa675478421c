package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rentascout/rentascout-mvp/pkg/fn"
	"github.com/rentascout/rentascout-mvp/pkg/openai"
)

// connectNeo4j dials the catalog database and verifies connectivity,
// retrying while the database warms up.
func connectNeo4j(ctx context.Context, cfg Config, log *slog.Logger) (neo4j.DriverWithContext, error) {
	result := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[neo4j.DriverWithContext] {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Pass, ""))
		if err != nil {
			return fn.Err[neo4j.DriverWithContext](err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			return fn.Err[neo4j.DriverWithContext](err)
		}
		return fn.Ok(driver)
	})
	driver, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("neo4j connect: %w", err)
	}
	log.Info("connected to Neo4j", "uri", cfg.Neo4j.URI)
	return driver, nil
}

// connectNATS dials the event broker, retrying briefly. An empty URL
// means events are disabled and (nil, nil) is returned.
func connectNATS(ctx context.Context, cfg Config, log *slog.Logger) (*nats.Conn, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}
	result := fn.Retry(ctx, fn.DefaultRetry, func(_ context.Context) fn.Result[*nats.Conn] {
		return fn.FromPair(nats.Connect(cfg.NATS.URL, nats.Name("rentascout")))
	})
	nc, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("connected to NATS", "url", cfg.NATS.URL)
	return nc, nil
}

// newEmbedder builds the embeddings client from config, reading the API
// key from the configured environment variable.
func newEmbedder(cfg Config) (*openai.EmbedClient, error) {
	key := os.Getenv(cfg.OpenAI.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("embeddings API key missing: set %s", cfg.OpenAI.APIKeyEnv)
	}
	return openai.NewEmbedClient(openai.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  key,
		Model:   cfg.OpenAI.Model,
	}), nil
}
