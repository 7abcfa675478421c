// Package catalog persists canonical vehicle documents in Neo4j: one
// (:Vehicle) node per listing URL with flat scalar/attribute properties,
// plus one (:PriceOffer) node per price row linked by [:HAS_OFFER].
// Upserts are full-document replacements, atomic per URL; the catalog
// never deletes vehicles.
package catalog

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// Store provides catalog operations on top of a Neo4j driver.
type Store struct {
	driver neo4j.DriverWithContext
}

// New creates a catalog Store.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// Upsert inserts or fully replaces the document for its URL, offers
// included, in one transaction. Returns whether the document was inserted
// (as opposed to replacing an existing one).
func (s *Store) Upsert(ctx context.Context, doc domain.VehicleDocument) (bool, error) {
	if doc.URL == "" {
		return false, fmt.Errorf("catalog: upsert: document without url")
	}

	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	inserted, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existing, err := tx.Run(ctx,
			`MATCH (v:Vehicle {url: $url}) RETURN v.url LIMIT 1`,
			map[string]any{"url": doc.URL})
		if err != nil {
			return nil, err
		}
		wasKnown := existing.Next(ctx)

		// SET v = $props (not +=) so stale attribute keys from the
		// previous scrape don't survive the replace.
		if _, err := tx.Run(ctx,
			`MERGE (v:Vehicle {url: $url}) SET v = $props`,
			map[string]any{"url": doc.URL, "props": docToProps(doc)}); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx,
			`MATCH (v:Vehicle {url: $url})-[:HAS_OFFER]->(o:PriceOffer) DETACH DELETE o`,
			map[string]any{"url": doc.URL}); err != nil {
			return nil, err
		}

		if len(doc.PriceRows) > 0 {
			if _, err := tx.Run(ctx,
				`MATCH (v:Vehicle {url: $url})
				 UNWIND $rows AS row
				 CREATE (v)-[:HAS_OFFER]->(o:PriceOffer)
				 SET o = row`,
				map[string]any{"url": doc.URL, "rows": rowsToProps(doc.PriceRows)}); err != nil {
				return nil, err
			}
		}
		return !wasKnown, nil
	})
	if err != nil {
		return false, fmt.Errorf("catalog: upsert %s: %w", doc.URL, err)
	}
	return inserted.(bool), nil
}

// FindByURL returns the stored document for a URL, or (nil, nil) when the
// URL is unknown.
func (s *Store) FindByURL(ctx context.Context, url string) (*domain.VehicleDocument, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	doc, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			`MATCH (v:Vehicle {url: $url})
			 OPTIONAL MATCH (v)-[:HAS_OFFER]->(o:PriceOffer)
			 RETURN v, collect(o) AS offers`,
			map[string]any{"url": url})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, nil
		}
		record := result.Record()

		node, _, err := neo4j.GetRecordValue[dbtype.Node](record, "v")
		if err != nil {
			return nil, err
		}
		offersVal, _ := record.Get("offers")

		var offers []map[string]any
		if list, ok := offersVal.([]any); ok {
			for _, raw := range list {
				if offer, ok := raw.(dbtype.Node); ok {
					offers = append(offers, offer.Props)
				}
			}
		}
		d := docFromProps(node.Props, offers)
		return &d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: find %s: %w", url, err)
	}
	if doc == nil {
		return nil, nil
	}
	return doc.(*domain.VehicleDocument), nil
}

// Known reports whether a URL exists in the catalog. Cheaper than
// FindByURL, it never touches the offer nodes.
func (s *Store) Known(ctx context.Context, url string) (bool, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	known, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			`MATCH (v:Vehicle {url: $url}) RETURN v.url LIMIT 1`,
			map[string]any{"url": url})
		if err != nil {
			return nil, err
		}
		return result.Next(ctx), nil
	})
	if err != nil {
		return false, fmt.Errorf("catalog: known %s: %w", url, err)
	}
	return known.(bool), nil
}
