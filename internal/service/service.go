package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
	"posadmin/internal/metrics"
	"posadmin/internal/pricing"
	"posadmin/internal/recommendation"
	"posadmin/internal/store"
)

var (
	ErrEmptyCart            = fmt.Errorf("%w: cart is empty", store.ErrInvalidTransaction)
	ErrInvalidQuantity      = fmt.Errorf("%w: invalid quantity", store.ErrInvalidTransaction)
	ErrInvalidStatus        = fmt.Errorf("%w: unknown order status", store.ErrInvalidTransaction)
	ErrOrderNotRefundable   = fmt.Errorf("%w: only completed or partially refunded orders can be refunded", store.ErrInvalidTransaction)
	ErrNothingToRefund      = fmt.Errorf("%w: select at least one item to refund", store.ErrInvalidTransaction)
	ErrRefundExceedsBalance = fmt.Errorf("%w: refund exceeds remaining balance", store.ErrInvalidTransaction)
	ErrAlreadyRestocked     = fmt.Errorf("%w: refund already restocked", store.ErrInvalidTransaction)
	ErrReasonRequired       = fmt.Errorf("%w: a valid reason is required", store.ErrInvalidTransaction)
	ErrNegativeStock        = fmt.Errorf("%w: stock cannot go below zero", store.ErrInvalidTransaction)
	ErrNothingImported      = fmt.Errorf("%w: no record could be imported", store.ErrInvalidTransaction)
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service implements the admin operations on top of whole-collection
// storage. Every mutation reads the full collection, changes it and writes
// it back; mu serialises those cycles within one process.
type Service struct {
	mu          sync.Mutex
	repo        store.Repository
	recommender *recommendation.Engine
	metrics     *metrics.Metrics
	taxRate     decimal.Decimal
	now         func() time.Time
	lastLogID   int64
}

type Option func(*Service)

func WithTaxRate(rate decimal.Decimal) Option {
	return func(s *Service) { s.taxRate = rate }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo store.Repository, recommender *recommendation.Engine, opts ...Option) *Service {
	if recommender == nil {
		recommender = recommendation.NewEngine(nil, 0)
	}

	s := &Service{
		repo:        repo,
		recommender: recommender,
		taxRate:     pricing.DefaultTaxRate,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	log.Info().
		Str("actor", actor.Username).
		Str("role", actor.Role).
		Str("action", action).
		Str("entity", entityType).
		Str("entity_id", entityID).
		Str("detail", detail).
		Msg("audit")
}

func findIndex[T any](items []T, id string, idOf func(T) string) int {
	if id == "" {
		return -1
	}
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}

func productID(p domain.Product) string            { return p.ID }
func customerID(c domain.Customer) string          { return c.ID }
func orderID(o domain.Order) string                { return o.ID }
func categoryID(c domain.Category) string          { return c.ID }
func vendorID(v domain.Vendor) string              { return v.ID }
func logEntryID(e domain.InventoryLogEntry) string { return e.ID }

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidTransaction, fmt.Sprintf(format, args...))
}
