package store

import (
	"context"
	"errors"

	"posadmin/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Keys under which each logical collection is stored as one JSON document.
const (
	KeyProducts      = "products"
	KeyCustomers     = "customers"
	KeyOrders        = "orders"
	KeyVendors       = "vendors"
	KeyCategories    = "categories"
	KeyInventoryLogs = "inventoryLogs"
	KeySettings      = "store_settings"
	KeyUsers         = "users"
)

var Keys = []string{
	KeyProducts, KeyCustomers, KeyOrders, KeyVendors,
	KeyCategories, KeyInventoryLogs, KeySettings, KeyUsers,
}

// Blob is a string-keyed store of opaque JSON documents. A missing key is
// reported with ok == false and a nil error.
type Blob interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Repository exposes every collection as a whole: callers read the full
// list, transform it and write it back.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SaveProducts(ctx context.Context, products []domain.Product) error
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	SaveCustomers(ctx context.Context, customers []domain.Customer) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
	SaveOrders(ctx context.Context, orders []domain.Order) error
	ListInventoryLogs(ctx context.Context) ([]domain.InventoryLogEntry, error)
	SaveInventoryLogs(ctx context.Context, entries []domain.InventoryLogEntry) error
	ClearInventoryLogs(ctx context.Context) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	SaveCategories(ctx context.Context, categories []domain.Category) error
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	SaveVendors(ctx context.Context, vendors []domain.Vendor) error
	GetSettings(ctx context.Context) (domain.Settings, bool, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
