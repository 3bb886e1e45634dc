package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads catalog snapshots from the merchant product database. The
// pipeline never writes back; ownership of the catalog stays with the
// external store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// LoadProducts fetches the full product and variant snapshot for one
// merchant. The result feeds a wholesale index rebuild.
func (s *Store) LoadProducts(ctx context.Context, merchantID string) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, COALESCE(sku, ''), COALESCE(price, 0),
		       COALESCE(search_text, '')
		FROM products
		WHERE merchant_id = $1
		ORDER BY title`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.SKU, &p.Price, &p.SearchText); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		byID[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if len(products) == 0 {
		return nil, nil
	}

	vrows, err := s.pool.Query(ctx, `
		SELECT v.id, v.product_id, v.title, COALESCE(v.sku, ''),
		       COALESCE(v.price, 0), COALESCE(v.options, '[]'::jsonb)
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.merchant_id = $1
		ORDER BY v.position, v.id`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			v         Variant
			productID uuid.UUID
			optionsJS []byte
		)
		if err := vrows.Scan(&v.ID, &productID, &v.Title, &v.SKU, &v.Price, &optionsJS); err != nil {
			return nil, fmt.Errorf("scan variant row: %w", err)
		}
		if len(optionsJS) > 0 {
			if err := json.Unmarshal(optionsJS, &v.Options); err != nil {
				return nil, fmt.Errorf("parse variant options %s: %w", v.ID, err)
			}
		}
		idx, ok := byID[productID]
		if !ok {
			continue
		}
		products[idx].Variants = append(products[idx].Variants, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant rows: %w", err)
	}

	return products, nil
}
