// Package recommendation suggests purchase quantities for products that have
// fallen to their minimum stock level.
package recommendation

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"posadmin/internal/cache"
	"posadmin/internal/domain"
)

const CacheKey = "posadmin:reorder:suggestions"

type Engine struct {
	cache     cache.SuggestionCache
	cacheTTL  time.Duration
	window    time.Duration
	coverDays float64
}

func NewEngine(cacheStore cache.SuggestionCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopSuggestionCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	return &Engine{
		cache:     cacheStore,
		cacheTTL:  cacheTTL,
		window:    30 * 24 * time.Hour,
		coverDays: 14,
	}
}

// Suggest lists active tracked products at or below minStock. The target
// level is the larger of twice minStock and two weeks of sales at the
// velocity seen in the ledger over the last 30 days.
func (e *Engine) Suggest(ctx context.Context, products []domain.Product, logs []domain.InventoryLogEntry, now time.Time) domain.ReorderSuggestionResponse {
	if cached, ok, err := e.cache.Get(ctx, CacheKey); err == nil && ok {
		return *cached
	}

	velocity := salesVelocity(logs, now, e.window)

	suggestions := make([]domain.ReorderSuggestion, 0, 8)
	for _, product := range products {
		if product.Status != domain.ProductStatusActive || !product.Tracked() {
			continue
		}
		current := product.Stock()
		if current > product.MinStock {
			continue
		}

		perDay := velocity[product.ID]
		target := max(product.MinStock*2, int(math.Ceil(perDay*e.coverDays)))
		recommended := target - current
		if recommended < 1 {
			continue
		}

		suggestions = append(suggestions, domain.ReorderSuggestion{
			ProductID:      product.ID,
			Name:           product.Name,
			SKU:            product.SKU,
			VendorID:       product.VendorID,
			CurrentStock:   current,
			MinStock:       product.MinStock,
			DailyVelocity:  round2(perDay),
			RecommendedQty: recommended,
			EstimatedCost:  product.Cost.Mul(decimal.NewFromInt(int64(recommended))),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].CurrentStock != suggestions[j].CurrentStock {
			return suggestions[i].CurrentStock < suggestions[j].CurrentStock
		}
		return suggestions[i].EstimatedCost.GreaterThan(suggestions[j].EstimatedCost)
	})

	resp := domain.ReorderSuggestionResponse{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Suggestions: suggestions,
	}
	if err := e.cache.Set(ctx, CacheKey, &resp, e.cacheTTL); err != nil {
		log.Debug().Err(err).Msg("recommendation: cache write failed")
	}
	return resp
}

// Invalidate drops the cached suggestions after catalogue or stock changes.
func (e *Engine) Invalidate(ctx context.Context) {
	if err := e.cache.Delete(ctx, CacheKey); err != nil {
		log.Debug().Err(err).Msg("recommendation: cache invalidation failed")
	}
}

// salesVelocity returns units sold per day per product from sale entries.
func salesVelocity(logs []domain.InventoryLogEntry, now time.Time, window time.Duration) map[string]float64 {
	cutoff := now.Add(-window)
	days := window.Hours() / 24
	sold := make(map[string]int)
	for _, entry := range logs {
		if entry.ReasonType != domain.ReasonSale || entry.Timestamp.Before(cutoff) {
			continue
		}
		if entry.QuantityChange < 0 {
			sold[entry.ProductID] += -entry.QuantityChange
		}
	}

	velocity := make(map[string]float64, len(sold))
	for id, units := range sold {
		velocity[id] = float64(units) / days
	}
	return velocity
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
