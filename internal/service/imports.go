package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"posadmin/internal/domain"
)

const (
	entityProducts  = "products"
	entityCustomers = "customers"
	entityInventory = "inventory"
)

// ImportProducts merges parsed rows into the catalogue.
//
//	add      every row becomes a new product with a fresh id
//	update   rows matching an existing id, or failing that a sku, overwrite
//	         the non-empty fields of that product; other rows are added
//	replace  the catalogue is emptied first; ids in the file are kept
//
// Rows that fail validation are skipped and reported. When no row survives
// nothing is written, so a bad file never empties the catalogue.
func (s *Service) ImportProducts(ctx context.Context, rows []domain.Product, mode domain.ImportMode) (domain.ImportReport, error) {
	if !mode.Valid() {
		return domain.ImportReport{}, invalid("unknown import mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.ImportReport{Entity: entityProducts, Mode: mode}
	var products []domain.Product
	if mode != domain.ImportReplace {
		existing, err := s.repo.ListProducts(ctx)
		if err != nil {
			return report, err
		}
		products = existing
	}

	for i, row := range rows {
		if mode == domain.ImportAdd {
			row.ID = ""
		}
		if mode == domain.ImportUpdate {
			if idx := matchProduct(products, row); idx >= 0 {
				merged := mergeProduct(products[idx], row)
				if err := validateProduct(merged); err != nil {
					reportSkip(&report, i, err)
					continue
				}
				merged.UpdatedAt = s.clock()
				products[idx] = merged
				report.Updated++
				continue
			}
		}
		if row.ID != "" && findIndex(products, row.ID, productID) >= 0 {
			row.ID = ""
		}
		created, err := s.prepareProduct(row, products)
		if err != nil {
			reportSkip(&report, i, err)
			continue
		}
		products = append(products, created)
		report.Added++
	}

	if err := checkImported(report, len(rows)); err != nil {
		return report, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return report, fmt.Errorf("save products: %w", err)
	}
	s.recommender.Invalidate(ctx)
	s.finishImport(ctx, report)
	return report, nil
}

func matchProduct(products []domain.Product, row domain.Product) int {
	if idx := findIndex(products, row.ID, productID); idx >= 0 {
		return idx
	}
	sku := strings.TrimSpace(row.SKU)
	if sku == "" {
		return -1
	}
	for i, p := range products {
		if strings.EqualFold(p.SKU, sku) {
			return i
		}
	}
	return -1
}

// mergeProduct takes every non-empty field of row. Zero prices and minimum
// stock count as empty; a blank inventory cell leaves tracking unchanged.
func mergeProduct(p domain.Product, row domain.Product) domain.Product {
	if v := strings.TrimSpace(row.Name); v != "" {
		p.Name = v
	}
	if row.Description != "" {
		p.Description = row.Description
	}
	if !row.Price.IsZero() {
		p.Price = row.Price
	}
	if !row.Cost.IsZero() {
		p.Cost = row.Cost
	}
	if row.Inventory != nil {
		v := *row.Inventory
		p.Inventory = &v
	}
	if row.MinStock != 0 {
		p.MinStock = row.MinStock
	}
	if row.SKU != "" {
		p.SKU = row.SKU
	}
	if row.Barcode != "" {
		p.Barcode = row.Barcode
	}
	if row.CategoryID != "" {
		p.CategoryID = row.CategoryID
	}
	if row.VendorID != "" {
		p.VendorID = row.VendorID
	}
	if row.Status != "" {
		p.Status = row.Status
	}
	if len(row.Tags) > 0 {
		p.Tags = normalizeTags(row.Tags)
	}
	if row.Image != "" {
		p.Image = row.Image
	}
	return p
}

// ImportCustomers follows the same modes as ImportProducts, matching on id
// and then email. Updates never change order counts or spend.
func (s *Service) ImportCustomers(ctx context.Context, rows []domain.Customer, mode domain.ImportMode) (domain.ImportReport, error) {
	if !mode.Valid() {
		return domain.ImportReport{}, invalid("unknown import mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.ImportReport{Entity: entityCustomers, Mode: mode}
	var customers []domain.Customer
	if mode != domain.ImportReplace {
		existing, err := s.repo.ListCustomers(ctx)
		if err != nil {
			return report, err
		}
		customers = existing
	}

	for i, row := range rows {
		if mode == domain.ImportAdd {
			row.ID = ""
		}
		if mode == domain.ImportUpdate {
			if idx := matchCustomer(customers, row); idx >= 0 {
				customers[idx] = mergeCustomer(customers[idx], row)
				customers[idx].UpdatedAt = s.clock()
				report.Updated++
				continue
			}
		}
		if row.ID != "" && findIndex(customers, row.ID, customerID) >= 0 {
			row.ID = ""
		}
		created, err := s.prepareCustomer(row, customers)
		if err != nil {
			reportSkip(&report, i, err)
			continue
		}
		customers = append(customers, created)
		report.Added++
	}

	if err := checkImported(report, len(rows)); err != nil {
		return report, err
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	if err := s.repo.SaveCustomers(ctx, customers); err != nil {
		return report, fmt.Errorf("save customers: %w", err)
	}
	s.finishImport(ctx, report)
	return report, nil
}

func matchCustomer(customers []domain.Customer, row domain.Customer) int {
	if idx := findIndex(customers, row.ID, customerID); idx >= 0 {
		return idx
	}
	email := strings.TrimSpace(row.Email)
	if email == "" {
		return -1
	}
	for i, c := range customers {
		if strings.EqualFold(c.Email, email) {
			return i
		}
	}
	return -1
}

func mergeCustomer(c domain.Customer, row domain.Customer) domain.Customer {
	if v := strings.TrimSpace(row.FullName); v != "" {
		c.FullName = v
	}
	if v := strings.TrimSpace(row.Email); v != "" {
		c.Email = v
	}
	if row.Phone != "" {
		c.Phone = row.Phone
	}
	if row.CompanyName != "" {
		c.CompanyName = row.CompanyName
	}
	if row.Address.Street != "" {
		c.Address.Street = row.Address.Street
	}
	if row.Address.City != "" {
		c.Address.City = row.Address.City
	}
	if row.Address.State != "" {
		c.Address.State = row.Address.State
	}
	if row.Address.Zip != "" {
		c.Address.Zip = row.Address.Zip
	}
	if row.Address.Country != "" {
		c.Address.Country = row.Address.Country
	}
	if row.Notes != "" {
		c.Notes = row.Notes
	}
	return c
}

// ImportInventoryLogs loads historical ledger rows. They keep their own ids
// and timestamps when present and go in front of the existing ledger;
// replace clears the ledger first. Update behaves as add.
func (s *Service) ImportInventoryLogs(ctx context.Context, rows []domain.InventoryLogEntry, mode domain.ImportMode) (domain.ImportReport, error) {
	if !mode.Valid() {
		return domain.ImportReport{}, invalid("unknown import mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.ImportReport{Entity: entityInventory, Mode: mode}
	var existing []domain.InventoryLogEntry
	if mode != domain.ImportReplace {
		loaded, err := s.repo.ListInventoryLogs(ctx)
		if err != nil {
			return report, err
		}
		existing = loaded
	}

	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.ID] = struct{}{}
	}

	imported := make([]domain.InventoryLogEntry, 0, len(rows))
	for i, row := range rows {
		if !row.ReasonType.Valid() {
			reportSkip(&report, i, fmt.Errorf("%w: %q", ErrReasonRequired, row.ReasonType))
			continue
		}
		if row.ProductID == "" {
			reportSkip(&report, i, invalid("missing product id"))
			continue
		}
		if row.Timestamp.IsZero() {
			row.Timestamp = s.clock()
		}
		if _, dup := taken[row.ID]; row.ID == "" || dup {
			row.ID = s.nextLogID(row.Timestamp)
		}
		taken[row.ID] = struct{}{}
		row.QuantityChange = row.NewQuantity - row.PreviousQuantity
		imported = append(imported, row)
		report.Added++
	}

	if err := checkImported(report, len(rows)); err != nil {
		return report, err
	}
	ledger := make([]domain.InventoryLogEntry, 0, len(imported)+len(existing))
	ledger = append(ledger, imported...)
	ledger = append(ledger, existing...)
	if err := s.repo.SaveInventoryLogs(ctx, ledger); err != nil {
		return report, fmt.Errorf("save inventory logs: %w", err)
	}
	s.recommender.Invalidate(ctx)
	s.finishImport(ctx, report)
	return report, nil
}

func (s *Service) finishImport(ctx context.Context, report domain.ImportReport) {
	s.metrics.ImportRows(report.Entity, "added", report.Added)
	s.metrics.ImportRows(report.Entity, "updated", report.Updated)
	s.metrics.ImportRows(report.Entity, "skipped", report.Skipped)
	s.logAudit(ctx, "import."+string(report.Mode), report.Entity, "",
		fmt.Sprintf("added=%d updated=%d skipped=%d", report.Added, report.Updated, report.Skipped))
}

func checkImported(report domain.ImportReport, total int) error {
	if report.Added+report.Updated > 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d records skipped", ErrNothingImported, report.Skipped, total)
}

func reportSkip(report *domain.ImportReport, index int, err error) {
	report.Skipped++
	msg := fmt.Sprintf("record %d: %v", index+1, err)
	report.Errors = append(report.Errors, msg)
	log.Warn().Str("entity", report.Entity).Int("record", index+1).Err(err).Msg("import: record skipped")
}
