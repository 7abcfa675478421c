package embedcache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// Embedder computes an embedding vector for a text. The embedding model
// itself is an external collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Outcome reports what the detector did with a document's embedding.
type Outcome int

const (
	// Embedded means a fresh embedding was computed and assigned.
	Embedded Outcome = iota
	// Reused means the stored embedding was carried over verbatim.
	Reused
	// Failed means the external embed call errored; the document carries
	// no embedding and a future run will retry via the no-embedding branch.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Embedded:
		return "embedded"
	case Reused:
		return "reused"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Detector owns the reuse-or-recompute decision.
type Detector struct {
	embedder Embedder
	logger   *slog.Logger
}

// New creates a Detector.
func New(embedder Embedder, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{embedder: embedder, logger: logger}
}

// Apply returns incoming with its embedding resolved against stored, the
// previously persisted document for the same URL (nil for a new listing).
//
// The stored embedding is reused only when stored has one and both
// documents render to the same canonical-text projection; any other case
// computes a fresh embedding. An embed failure is not fatal: the document
// comes back without an embedding, with the error for the caller to log.
func (d *Detector) Apply(ctx context.Context, incoming domain.VehicleDocument, stored *domain.VehicleDocument) (domain.VehicleDocument, Outcome, error) {
	projection := Projection(&incoming)

	if stored != nil && stored.HasEmbedding() && Projection(stored) == projection {
		incoming.Embedding = stored.Embedding
		return incoming, Reused, nil
	}

	vec, err := d.embedder.Embed(ctx, projection)
	if err != nil {
		incoming.Embedding = nil
		return incoming, Failed, fmt.Errorf("%w: %v", domain.ErrEmbedFailed, err)
	}
	incoming.Embedding = vec
	return incoming, Embedded, nil
}
