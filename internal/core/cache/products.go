package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/retailerid"
)

// UpsertProducts bulk-upserts top-level products (simple or variable) in
// a single transaction.
func (s *Store) UpsertProducts(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: begin upsert products: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, retailer_id, parent_id, kind, name, sku, permalink, regular_price, sale_price,
			stock_status, stock_quantity, description, images_json, attributes_json, categories_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			retailer_id=excluded.retailer_id, parent_id=excluded.parent_id, kind=excluded.kind, name=excluded.name, sku=excluded.sku,
			permalink=excluded.permalink, regular_price=excluded.regular_price, sale_price=excluded.sale_price,
			stock_status=excluded.stock_status, stock_quantity=excluded.stock_quantity, description=excluded.description,
			images_json=excluded.images_json, attributes_json=excluded.attributes_json,
			categories_json=excluded.categories_json, updated_at=excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("cache: prepare upsert products: %w", err)
	}
	defer stmt.Close()

	now := nowUTC()
	for _, p := range products {
		if err := execProductUpsert(ctx, stmt, p, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertVariations bulk-upserts a group of variations in a single
// transaction, so a reader never sees a half-written variation set.
func (s *Store) UpsertVariations(ctx context.Context, variations []product.Product) error {
	if len(variations) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: begin upsert variations: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO variations (id, retailer_id, parent_id, name, sku, permalink, regular_price, sale_price,
			stock_status, stock_quantity, description, images_json, attributes_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			retailer_id=excluded.retailer_id, parent_id=excluded.parent_id, name=excluded.name, sku=excluded.sku,
			permalink=excluded.permalink, regular_price=excluded.regular_price, sale_price=excluded.sale_price,
			stock_status=excluded.stock_status, stock_quantity=excluded.stock_quantity, description=excluded.description,
			images_json=excluded.images_json, attributes_json=excluded.attributes_json, updated_at=excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("cache: prepare upsert variations: %w", err)
	}
	defer stmt.Close()

	now := nowUTC()
	for _, v := range variations {
		retailerID := retailerid.ForProduct(v)
		imagesJSON, err := json.Marshal(v.Images)
		if err != nil {
			return fmt.Errorf("cache: encode images for %d: %w", v.ID, err)
		}
		attrsJSON, err := json.Marshal(v.Attributes)
		if err != nil {
			return fmt.Errorf("cache: encode attributes for %d: %w", v.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, retailerID, v.ParentID, v.Name, v.SKU, v.Permalink,
			v.RegularPrice.String(), nullableDecimal(v.SalePrice), string(v.StockStatus), v.StockQuantity,
			v.Description, string(imagesJSON), string(attrsJSON), now); err != nil {
			return fmt.Errorf("cache: upsert variation %d: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

func execProductUpsert(ctx context.Context, stmt *sql.Stmt, p product.Product, now interface{}) error {
	retailerID := retailerid.ForProduct(p)
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("cache: encode images for %d: %w", p.ID, err)
	}
	attrsJSON, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("cache: encode attributes for %d: %w", p.ID, err)
	}
	catsJSON, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("cache: encode categories for %d: %w", p.ID, err)
	}
	if _, err := stmt.ExecContext(ctx, p.ID, retailerID, p.ParentID, string(p.Kind), p.Name, p.SKU, p.Permalink,
		p.RegularPrice.String(), nullableDecimal(p.SalePrice), string(p.StockStatus), p.StockQuantity,
		p.Description, string(imagesJSON), string(attrsJSON), string(catsJSON), now); err != nil {
		return fmt.Errorf("cache: upsert product %d: %w", p.ID, err)
	}
	return nil
}

func nullableDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// GetProduct returns a cached top-level product by source id. Top-level
// rows have no parent of their own; ParentID on the returned value is
// always zero.
func (s *Store) GetProduct(ctx context.Context, id int64) (product.Product, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, sku, permalink, regular_price, sale_price,
			stock_status, stock_quantity, description, images_json, attributes_json, categories_json
		FROM products WHERE id = ?`, id)

	var p product.Product
	var kind, stockStatus, imagesJSON, attrsJSON, catsJSON string
	var salePrice sql.NullString
	var regularPrice string
	err := row.Scan(&p.ID, &kind, &p.Name, &p.SKU, &p.Permalink, &regularPrice, &salePrice,
		&stockStatus, &p.StockQuantity, &p.Description, &imagesJSON, &attrsJSON, &catsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, false, nil
	}
	if err != nil {
		return product.Product{}, false, fmt.Errorf("cache: scan product: %w", err)
	}
	if err := hydrateProduct(&p, kind, stockStatus, regularPrice, salePrice, imagesJSON, attrsJSON, catsJSON); err != nil {
		return product.Product{}, false, err
	}
	return p, true, nil
}

func hydrateProduct(p *product.Product, kind, stockStatus, regularPrice string, salePrice sql.NullString, imagesJSON, attrsJSON, catsJSON string) error {
	p.Kind = product.Kind(kind)
	p.StockStatus = product.StockStatus(stockStatus)

	rp, err := decimal.NewFromString(regularPrice)
	if err != nil {
		return fmt.Errorf("cache: parse regular_price %q: %w", regularPrice, err)
	}
	p.RegularPrice = rp

	if salePrice.Valid {
		sp, err := decimal.NewFromString(salePrice.String)
		if err != nil {
			return fmt.Errorf("cache: parse sale_price %q: %w", salePrice.String, err)
		}
		p.SalePrice = &sp
	}

	if err := json.Unmarshal([]byte(imagesJSON), &p.Images); err != nil {
		return fmt.Errorf("cache: decode images: %w", err)
	}
	if err := json.Unmarshal([]byte(attrsJSON), &p.Attributes); err != nil {
		return fmt.Errorf("cache: decode attributes: %w", err)
	}
	if catsJSON != "" {
		if err := json.Unmarshal([]byte(catsJSON), &p.Categories); err != nil {
			return fmt.Errorf("cache: decode categories: %w", err)
		}
	}
	return nil
}

// ListVariationsByParent returns all cached variations of one parent.
func (s *Store) ListVariationsByParent(ctx context.Context, parentID int64) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, name, sku, permalink, regular_price, sale_price,
			stock_status, stock_quantity, description, images_json, attributes_json
		FROM variations WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, fmt.Errorf("cache: list variations for %d: %w", parentID, err)
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var v product.Product
		var stockStatus, imagesJSON, attrsJSON string
		var salePrice sql.NullString
		var regularPrice string
		if err := rows.Scan(&v.ID, &v.ParentID, &v.Name, &v.SKU, &v.Permalink, &regularPrice, &salePrice,
			&stockStatus, &v.StockQuantity, &v.Description, &imagesJSON, &attrsJSON); err != nil {
			return nil, fmt.Errorf("cache: scan variation: %w", err)
		}
		v.Kind = product.KindVariation
		if err := hydrateProduct(&v, string(product.KindVariation), stockStatus, regularPrice, salePrice, imagesJSON, attrsJSON, "[]"); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListInStockSimple returns in-stock simple products for the feed's fast
// path.
func (s *Store) ListInStockSimple(ctx context.Context) ([]product.Product, error) {
	return s.listProductsWhere(ctx, "kind = ? AND stock_status != ?", string(product.KindSimple), string(product.StockOutOfStock))
}

// ListVariableProducts returns all variable parents regardless of
// aggregate stock (the feed computes aggregate availability itself).
func (s *Store) ListVariableProducts(ctx context.Context) ([]product.Product, error) {
	return s.listProductsWhere(ctx, "kind = ?", string(product.KindVariable))
}

// ListAllProducts returns every top-level product row, used by the bulk
// replication engine after a fresh upsert.
func (s *Store) ListAllProducts(ctx context.Context) ([]product.Product, error) {
	return s.listProductsWhere(ctx, "1 = 1")
}

func (s *Store) listProductsWhere(ctx context.Context, where string, args ...interface{}) ([]product.Product, error) {
	query := fmt.Sprintf(`
		SELECT id, kind, name, sku, permalink, regular_price, sale_price,
			stock_status, stock_quantity, description, images_json, attributes_json, categories_json
		FROM products WHERE %s`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cache: list products: %w", err)
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var p product.Product
		var kind, stockStatus, imagesJSON, attrsJSON, catsJSON string
		var salePrice sql.NullString
		var regularPrice string
		if err := rows.Scan(&p.ID, &kind, &p.Name, &p.SKU, &p.Permalink, &regularPrice, &salePrice,
			&stockStatus, &p.StockQuantity, &p.Description, &imagesJSON, &attrsJSON, &catsJSON); err != nil {
			return nil, fmt.Errorf("cache: scan product: %w", err)
		}
		if err := hydrateProduct(&p, kind, stockStatus, regularPrice, salePrice, imagesJSON, attrsJSON, catsJSON); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProduct removes a top-level product row; its variations and
// sync-status cascade via the schema's FK/triggers.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("cache: delete product %d: %w", id, err)
	}
	return nil
}

// DeleteVariation removes one variation row; its sync-status cascades via
// the schema's trigger.
func (s *Store) DeleteVariation(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM variations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("cache: delete variation %d: %w", id, err)
	}
	return nil
}

// CachedStock is the old stock-status/quantity the event processor diffs
// a webhook payload against.
type CachedStock struct {
	StockStatus   string
	StockQuantity *int
	Found         bool
}

// GetCachedStock looks up the current stock fields for a source id
// regardless of whether it is a top-level product or a variation row.
func (s *Store) GetCachedStock(ctx context.Context, id int64) (CachedStock, error) {
	var cs CachedStock
	row := s.db.QueryRowContext(ctx, `SELECT stock_status, stock_quantity FROM products WHERE id = ?`, id)
	err := row.Scan(&cs.StockStatus, &cs.StockQuantity)
	if err == nil {
		cs.Found = true
		return cs, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return cs, fmt.Errorf("cache: get cached stock (product) %d: %w", id, err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT stock_status, stock_quantity FROM variations WHERE id = ?`, id)
	err = row.Scan(&cs.StockStatus, &cs.StockQuantity)
	if err == nil {
		cs.Found = true
		return cs, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return CachedStock{}, nil
	}
	return cs, fmt.Errorf("cache: get cached stock (variation) %d: %w", id, err)
}
