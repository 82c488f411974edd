// Package feed generates the two CSV catalog exports, operating entirely
// on the cache store in fast mode and additionally repopulating it from
// the source store in refresh mode.
package feed

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/replication"
)

// Styles are the two image-service style tags; the feed generator always
// produces one CSV per style.
var Styles = []string{"standard", "christmas"}

// Generator builds CSV rows from the cache, optionally refreshing it
// from the source store first.
type Generator struct {
	store  *cache.Store
	engine *replication.Engine
	cfg    mapper.Config
	log    zerolog.Logger
}

func New(store *cache.Store, engine *replication.Engine, cfg mapper.Config, log zerolog.Logger) *Generator {
	return &Generator{store: store, engine: engine, cfg: cfg, log: log}
}

// Rows runs the fast or refresh mode for one style and returns the full
// CSV row set, header included.
func (g *Generator) Rows(ctx context.Context, style string, refresh bool) ([][]string, error) {
	if refresh {
		if err := g.engine.RefreshCache(ctx); err != nil {
			return nil, fmt.Errorf("feed: refresh: %w", err)
		}
	}
	return g.fast(ctx, style)
}

// fast walks the cache only: in-stock simple products, in-stock variable
// products and their cached variations, one row per variable parent plus
// one row per in-stock variation. Parents appear here even though the
// replication engine skips them — the CSV consumer reads parent rows as
// catalog anchors.
func (g *Generator) fast(ctx context.Context, style string) ([][]string, error) {
	simples, err := g.store.ListInStockSimple(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: list simple products: %w", err)
	}
	variables, err := g.store.ListVariableProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: list variable products: %w", err)
	}

	jobs := make([]rowJob, 0, len(simples)+len(variables))
	for _, p := range simples {
		jobs = append(jobs, rowJob{p: p})
	}

	for _, parent := range variables {
		variations, err := g.store.ListVariationsByParent(ctx, parent.ID)
		if err != nil {
			return nil, fmt.Errorf("feed: list variations for %d: %w", parent.ID, err)
		}

		parentRow, anyInStock := aggregateVariable(parent, variations)
		if !anyInStock {
			continue
		}
		jobs = append(jobs, rowJob{p: parentRow})

		for _, v := range variations {
			if !v.InStock() {
				continue
			}
			p := parent
			jobs = append(jobs, rowJob{p: v, parent: &p})
		}
	}

	rows := mapRowsParallel(jobs, style, g.cfg)

	out := make([][]string, 0, len(rows)+1)
	out = append(out, mapper.CSVColumns)
	out = append(out, rows...)
	return out, nil
}

// aggregateVariable sums child stock-quantities and marks the parent
// in-stock if any child is in-stock.
func aggregateVariable(parent product.Product, variations []product.Product) (product.Product, bool) {
	anyInStock := false
	total := 0
	haveQty := false
	for _, v := range variations {
		if v.InStock() {
			anyInStock = true
		}
		if v.StockQuantity != nil {
			total += *v.StockQuantity
			haveQty = true
		}
	}

	row := parent
	if anyInStock {
		row.StockStatus = product.StockInStock
	} else {
		row.StockStatus = product.StockOutOfStock
	}
	if haveQty {
		q := total
		row.StockQuantity = &q
	}
	return row, anyInStock
}

// WriteCSV renders rows to w in the fixed, fully-quoted CSV shape the
// feed consumer expects.
func WriteCSV(w io.Writer, rows [][]string) error {
	return writeAllQuoted(w, rows)
}
