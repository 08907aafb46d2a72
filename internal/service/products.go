package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
	"posadmin/internal/store"
	"posadmin/internal/xid"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	idx := findIndex(products, id, productID)
	if idx < 0 {
		return domain.Product{}, store.ErrNotFound
	}
	return products[idx], nil
}

func (s *Service) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	created, err := s.prepareProduct(product, products)
	if err != nil {
		return domain.Product{}, err
	}

	products = append(products, created)
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return domain.Product{}, fmt.Errorf("save products: %w", err)
	}

	s.recommender.Invalidate(ctx)
	s.logAudit(ctx, "product.create", "product", created.ID, created.Name)
	return created, nil
}

// prepareProduct validates a new product and fills in id, status and
// timestamps.
func (s *Service) prepareProduct(product domain.Product, existing []domain.Product) (domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	} else if findIndex(existing, product.ID, productID) >= 0 {
		return domain.Product{}, invalid("product %s already exists", product.ID)
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}
	product.Tags = normalizeTags(product.Tags)

	now := s.clock()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	return product, nil
}

func validateProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return invalid("product name is required")
	}
	if product.Price.IsNegative() || product.Cost.IsNegative() {
		return invalid("price and cost must not be negative")
	}
	if product.MinStock < 0 {
		return invalid("minStock must not be negative")
	}
	if product.Status != "" && !product.Status.Valid() {
		return invalid("unknown product status %q", product.Status)
	}
	return nil
}

// UpdateProduct merges the set fields of patch into the product. An unknown
// id is not an error; the result is nil.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.updateProduct(ctx, id, patch)
	if err != nil || updated == nil {
		return updated, err
	}
	s.logAudit(ctx, "product.update", "product", id, updated.Name)
	return updated, nil
}

func (s *Service) updateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	idx := findIndex(products, id, productID)
	if idx < 0 {
		return nil, nil
	}

	merged := applyProductPatch(products[idx], patch)
	if err := validateProduct(merged); err != nil {
		return nil, err
	}
	merged.UpdatedAt = s.clock()
	products[idx] = merged

	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("save products: %w", err)
	}
	s.recommender.Invalidate(ctx)
	return &merged, nil
}

func applyProductPatch(p domain.Product, patch domain.ProductPatch) domain.Product {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Cost != nil {
		p.Cost = *patch.Cost
	}
	if patch.Inventory.Set {
		if patch.Inventory.Value == nil {
			p.Inventory = nil
		} else {
			v := *patch.Inventory.Value
			p.Inventory = &v
		}
	}
	if patch.MinStock != nil {
		p.MinStock = *patch.MinStock
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.VendorID != nil {
		p.VendorID = *patch.VendorID
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Tags != nil {
		p.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	return p
}

// DeleteProduct removes the product. Orders and categories referring to it
// are left alone.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return err
	}
	idx := findIndex(products, id, productID)
	if idx < 0 {
		return nil
	}
	name := products[idx].Name
	products = slices.Delete(products, idx, idx+1)
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	s.recommender.Invalidate(ctx)
	s.logAudit(ctx, "product.delete", "product", id, name)
	return nil
}

func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return SearchProducts(products, query), nil
}

// SearchProducts matches query case-insensitively against name, sku,
// barcode and description. An empty query matches everything.
func SearchProducts(products []domain.Product, query string) []domain.Product {
	q := normalizeQuery(query)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q == "" || containsFold(p.Name, q) || containsFold(p.SKU, q) ||
			containsFold(p.Barcode, q) || containsFold(p.Description, q) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) FilterProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.SortBy != "" && !slices.Contains(productSortFields, filter.SortBy) {
		return nil, invalid("cannot sort products by %q", filter.SortBy)
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, filter), nil
}

var productSortFields = []string{"name", "price", "cost", "inventory", "createdAt", "updatedAt", "sku"}

func StockStatusOf(p domain.Product) domain.StockStatus {
	if !p.Tracked() {
		return domain.StockUntracked
	}
	stock := p.Stock()
	switch {
	case stock <= 0:
		return domain.StockOut
	case stock <= p.MinStock:
		return domain.StockLow
	default:
		return domain.StockInStock
	}
}

func FilterProducts(products []domain.Product, filter domain.ProductFilter) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.VendorID != "" && p.VendorID != filter.VendorID {
			continue
		}
		if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.StockStatus != "" && StockStatusOf(p) != filter.StockStatus {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(p.Tags, filter.Tags) {
			continue
		}
		out = append(out, p)
	}

	if filter.SortBy != "" {
		desc := filter.SortDir == domain.SortDescending
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			c := compareProducts(a, b, filter.SortBy)
			if desc {
				return -c
			}
			return c
		})
	}
	return out
}

func hasAnyTag(tags []string, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}

// compareProducts orders untracked inventory before any count.
func compareProducts(a, b domain.Product, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "sku":
		return strings.Compare(a.SKU, b.SKU)
	case "price":
		return a.Price.Cmp(b.Price)
	case "cost":
		return a.Cost.Cmp(b.Cost)
	case "inventory":
		switch {
		case !a.Tracked() && !b.Tracked():
			return 0
		case !a.Tracked():
			return -1
		case !b.Tracked():
			return 1
		}
		return a.Stock() - b.Stock()
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

// InventoryValue is the cost of all tracked stock on hand.
func InventoryValue(products []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		if p.Tracked() && p.Stock() > 0 {
			total = total.Add(p.Cost.Mul(decimal.NewFromInt(int64(p.Stock()))))
		}
	}
	return total
}
