package memory

import (
	"context"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"posadmin/internal/domain"
	"posadmin/internal/store"
)

// Store keeps every document in process memory. Values are copied on the
// way in and out so callers never share a backing array with the store.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = slices.Clone(value)
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Keys lists the stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// NewSeeded returns a store holding a small demo catalogue and the default
// admin and cashier logins.
func NewSeeded() *Store {
	s := New()
	repo := store.NewRepository(s)
	ctx := context.Background()
	now := time.Now().UTC()

	categories := []domain.Category{
		{ID: "cat-beverage", Name: "Beverages", CreatedAt: now, UpdatedAt: now},
		{ID: "cat-bakery", Name: "Bakery", CreatedAt: now, UpdatedAt: now},
		{ID: "cat-merch", Name: "Merchandise", CreatedAt: now, UpdatedAt: now},
	}
	vendors := []domain.Vendor{
		{ID: "ven-roastery", Name: "North Roastery", Email: "orders@northroastery.test", CreatedAt: now, UpdatedAt: now},
		{ID: "ven-bakehouse", Name: "Corner Bakehouse", Phone: "555-0142", CreatedAt: now, UpdatedAt: now},
	}
	products := []domain.Product{
		seedProduct("prod-espresso-beans", "Espresso Beans 1kg", "24.00", "13.50", intPtr(40), 10, "BEV-ESP-1K", "cat-beverage", "ven-roastery", now, "coffee", "wholesale"),
		seedProduct("prod-cold-brew", "Cold Brew Bottle", "4.50", "1.80", intPtr(60), 12, "BEV-CB-330", "cat-beverage", "ven-roastery", now, "coffee", "cold"),
		seedProduct("prod-croissant", "Butter Croissant", "3.25", "1.10", intPtr(24), 8, "BAK-CRS-01", "cat-bakery", "ven-bakehouse", now, "pastry"),
		seedProduct("prod-sourdough", "Sourdough Loaf", "7.00", "2.60", intPtr(6), 8, "BAK-SRD-01", "cat-bakery", "ven-bakehouse", now, "bread"),
		seedProduct("prod-tote", "Canvas Tote", "15.00", "4.00", nil, 0, "MER-TOTE-01", "cat-merch", "", now, "gift"),
	}

	for _, seed := range []func() error{
		func() error { return repo.SaveCategories(ctx, categories) },
		func() error { return repo.SaveVendors(ctx, vendors) },
		func() error { return repo.SaveProducts(ctx, products) },
		func() error { return seedUsers(ctx, repo, now) },
	} {
		if err := seed(); err != nil {
			log.Fatal().Err(err).Msg("memory store: seeding failed")
		}
	}
	return s
}

// seedUsers reads SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD, falling back
// to dev defaults with a warning. These logins only exist for the in-memory store.
func seedUsers(ctx context.Context, repo store.Repository, now time.Time) error {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Warn().Msg("memory store: using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := repo.CreateUser(ctx, domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

func seedProduct(id, name, price, cost string, inventory *int, minStock int, sku, categoryID, vendorID string, now time.Time, tags ...string) domain.Product {
	return domain.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Cost:       decimal.RequireFromString(cost),
		Inventory:  inventory,
		MinStock:   minStock,
		SKU:        sku,
		CategoryID: categoryID,
		VendorID:   vendorID,
		Status:     domain.ProductStatusActive,
		Tags:       tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func intPtr(v int) *int {
	return &v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
