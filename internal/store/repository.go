package store

import (
	"context"
	"fmt"
	"strings"

	"posadmin/internal/domain"
)

type BlobRepository struct {
	products      *Collection[domain.Product]
	customers     *Collection[domain.Customer]
	orders        *Collection[domain.Order]
	inventoryLogs *Collection[domain.InventoryLogEntry]
	categories    *Collection[domain.Category]
	vendors       *Collection[domain.Vendor]
	users         *Collection[domain.UserAccount]
	settings      *Document[domain.Settings]
}

func NewRepository(blob Blob) *BlobRepository {
	return &BlobRepository{
		products:      NewCollection[domain.Product](blob, KeyProducts),
		customers:     NewCollection[domain.Customer](blob, KeyCustomers),
		orders:        NewCollection[domain.Order](blob, KeyOrders),
		inventoryLogs: NewCollection[domain.InventoryLogEntry](blob, KeyInventoryLogs),
		categories:    NewCollection[domain.Category](blob, KeyCategories),
		vendors:       NewCollection[domain.Vendor](blob, KeyVendors),
		users:         NewCollection[domain.UserAccount](blob, KeyUsers),
		settings:      NewDocument[domain.Settings](blob, KeySettings),
	}
}

func (r *BlobRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return r.products.Load(ctx)
}

func (r *BlobRepository) SaveProducts(ctx context.Context, products []domain.Product) error {
	return r.products.Save(ctx, products)
}

func (r *BlobRepository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return r.customers.Load(ctx)
}

func (r *BlobRepository) SaveCustomers(ctx context.Context, customers []domain.Customer) error {
	return r.customers.Save(ctx, customers)
}

func (r *BlobRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return r.orders.Load(ctx)
}

func (r *BlobRepository) SaveOrders(ctx context.Context, orders []domain.Order) error {
	return r.orders.Save(ctx, orders)
}

func (r *BlobRepository) ListInventoryLogs(ctx context.Context) ([]domain.InventoryLogEntry, error) {
	return r.inventoryLogs.Load(ctx)
}

func (r *BlobRepository) SaveInventoryLogs(ctx context.Context, entries []domain.InventoryLogEntry) error {
	return r.inventoryLogs.Save(ctx, entries)
}

func (r *BlobRepository) ClearInventoryLogs(ctx context.Context) error {
	return r.inventoryLogs.Clear(ctx)
}

func (r *BlobRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return r.categories.Load(ctx)
}

func (r *BlobRepository) SaveCategories(ctx context.Context, categories []domain.Category) error {
	return r.categories.Save(ctx, categories)
}

func (r *BlobRepository) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return r.vendors.Load(ctx)
}

func (r *BlobRepository) SaveVendors(ctx context.Context, vendors []domain.Vendor) error {
	return r.vendors.Save(ctx, vendors)
}

func (r *BlobRepository) GetSettings(ctx context.Context) (domain.Settings, bool, error) {
	return r.settings.Load(ctx)
}

func (r *BlobRepository) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return r.settings.Save(ctx, settings)
}

func (r *BlobRepository) CreateUser(ctx context.Context, user domain.UserAccount) error {
	users, err := r.users.Load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Username, user.Username) {
			return fmt.Errorf("%w: username already exists", ErrInvalidTransaction)
		}
	}
	return r.users.Save(ctx, append(users, user))
}

func (r *BlobRepository) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	return r.users.Load(ctx)
}

func (r *BlobRepository) UpdateUserPassword(ctx context.Context, username string, password string) error {
	users, err := r.users.Load(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			users[i].Password = password
			return r.users.Save(ctx, users)
		}
	}
	return ErrNotFound
}
