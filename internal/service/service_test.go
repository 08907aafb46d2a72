package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"posadmin/internal/domain"
	"posadmin/internal/store"
	"posadmin/internal/store/memory"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	repo := store.NewRepository(memory.NewSeeded())
	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New(repo, nil, WithClock(clock.Now)), repo
}

var errWriteFailed = errors.New("write failed")

// failingBlob wraps the seeded memory store and refuses writes to the keys
// marked with failOn.
type failingBlob struct {
	store.Blob
	mu    sync.Mutex
	fails map[string]bool
}

func (b *failingBlob) failOn(keys ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails = make(map[string]bool, len(keys))
	for _, key := range keys {
		b.fails[key] = true
	}
}

func (b *failingBlob) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	fail := b.fails[key]
	b.mu.Unlock()
	if fail {
		return errWriteFailed
	}
	return b.Blob.Set(ctx, key, value)
}

func (b *failingBlob) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	fail := b.fails[key]
	b.mu.Unlock()
	if fail {
		return errWriteFailed
	}
	return b.Blob.Remove(ctx, key)
}

func newFailingService(t *testing.T) (*Service, *failingBlob) {
	t.Helper()
	blob := &failingBlob{Blob: memory.NewSeeded()}
	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New(store.NewRepository(blob), nil, WithClock(clock.Now)), blob
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intp(v int) *int {
	return &v
}

func addCustomer(t *testing.T, svc *Service, name string) domain.Customer {
	t.Helper()
	c, err := svc.AddCustomer(adminCtx(), domain.Customer{FullName: name, Email: name + "@example.test"})
	require.NoError(t, err)
	return c
}

func cashCheckout(t *testing.T, svc *Service, customer *domain.OrderCustomer, applyTax bool, items ...domain.CartItem) domain.Order {
	t.Helper()
	order, err := svc.Checkout(adminCtx(), domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: items, ApplyTax: applyTax},
		Customer:    customer,
		Payment:     domain.CashTendered(dec("10000")),
	})
	require.NoError(t, err)
	return order
}
