package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"posadmin/internal/domain"
	"posadmin/internal/store"
)

func (s *Service) ListInventoryLogs(ctx context.Context) ([]domain.InventoryLogEntry, error) {
	return s.repo.ListInventoryLogs(ctx)
}

// AddInventoryLog stamps entry with a fresh id and the current time,
// recomputes quantityChange and puts it at the head of the ledger.
func (s *Service) AddInventoryLog(ctx context.Context, entry domain.InventoryLogEntry) (domain.InventoryLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.appendInventoryLogs(ctx, []domain.InventoryLogEntry{entry})
	if err != nil {
		return domain.InventoryLogEntry{}, err
	}
	return entries[0], nil
}

// appendInventoryLogs prepends entries newest first. The caller holds mu.
func (s *Service) appendInventoryLogs(ctx context.Context, entries []domain.InventoryLogEntry) ([]domain.InventoryLogEntry, error) {
	for _, entry := range entries {
		if !entry.ReasonType.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrReasonRequired, entry.ReasonType)
		}
		if entry.ProductID == "" {
			return nil, invalid("ledger entry needs a product id")
		}
	}

	existing, err := s.repo.ListInventoryLogs(ctx)
	if err != nil {
		return nil, err
	}

	stamped := make([]domain.InventoryLogEntry, len(entries))
	for i, entry := range entries {
		at := s.clock()
		entry.ID = s.nextLogID(at)
		entry.Timestamp = at
		entry.QuantityChange = entry.NewQuantity - entry.PreviousQuantity
		if entry.UserID == "" {
			if actor, ok := ActorFromContext(ctx); ok {
				entry.UserID = actor.Username
				entry.UserName = actor.Username
			}
		}
		stamped[len(entries)-1-i] = entry
	}

	ledger := make([]domain.InventoryLogEntry, 0, len(stamped)+len(existing))
	ledger = append(ledger, stamped...)
	ledger = append(ledger, existing...)
	if err := s.repo.SaveInventoryLogs(ctx, ledger); err != nil {
		return nil, fmt.Errorf("save inventory logs: %w", err)
	}
	s.recommender.Invalidate(ctx)

	// Hand back in the order they were given.
	out := make([]domain.InventoryLogEntry, len(stamped))
	for i := range stamped {
		out[i] = stamped[len(stamped)-1-i]
	}
	return out, nil
}

// nextLogID is the entry time in unix nanoseconds, bumped so ids stay
// unique when the clock does not advance between entries.
func (s *Service) nextLogID(at time.Time) string {
	nanos := at.UnixNano()
	if nanos <= s.lastLogID {
		nanos = s.lastLogID + 1
	}
	s.lastLogID = nanos
	return strconv.FormatInt(nanos, 10)
}

func (s *Service) ClearInventoryLogs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearInventoryLogs(ctx); err != nil {
		return fmt.Errorf("clear inventory logs: %w", err)
	}
	s.logAudit(ctx, "inventory.clear_logs", "inventory_log", "", "")
	return nil
}

func (s *Service) LogsByProductID(ctx context.Context, productID string) ([]domain.InventoryLogEntry, error) {
	return s.filterLogs(ctx, func(e domain.InventoryLogEntry) bool { return e.ProductID == productID })
}

// LogsByDateRange includes both ends of the range.
func (s *Service) LogsByDateRange(ctx context.Context, from time.Time, to time.Time) ([]domain.InventoryLogEntry, error) {
	return s.filterLogs(ctx, func(e domain.InventoryLogEntry) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	})
}

func (s *Service) LogsByUser(ctx context.Context, userID string) ([]domain.InventoryLogEntry, error) {
	return s.filterLogs(ctx, func(e domain.InventoryLogEntry) bool { return e.UserID == userID })
}

func (s *Service) LogsByReasonType(ctx context.Context, reason domain.ReasonType) ([]domain.InventoryLogEntry, error) {
	return s.filterLogs(ctx, func(e domain.InventoryLogEntry) bool { return e.ReasonType == reason })
}

func (s *Service) filterLogs(ctx context.Context, keep func(domain.InventoryLogEntry) bool) ([]domain.InventoryLogEntry, error) {
	entries, err := s.repo.ListInventoryLogs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryLogEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// AdjustStock applies each change in turn: the product's inventory is set to
// its current count plus the change and a ledger entry is appended. Reasons
// are checked for every change before anything is written. A change that
// would take stock below zero stops the run; changes already applied stay.
func (s *Service) AdjustStock(ctx context.Context, changes []domain.StockChange) ([]domain.InventoryLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, change := range changes {
		if !change.ReasonType.Valid() {
			return nil, fmt.Errorf("%w: product %s", ErrReasonRequired, change.ProductID)
		}
	}

	applied := make([]domain.InventoryLogEntry, 0, len(changes))
	for _, change := range changes {
		if change.QuantityChange == 0 {
			continue
		}
		entry, err := s.adjustOne(ctx, change)
		if err != nil {
			return applied, err
		}
		applied = append(applied, entry)
		s.metrics.StockAdjusted(string(change.ReasonType))
	}

	if len(applied) > 0 {
		s.logAudit(ctx, "inventory.adjust", "product", "", fmt.Sprintf("%d entries", len(applied)))
	}
	return applied, nil
}

func (s *Service) adjustOne(ctx context.Context, change domain.StockChange) (domain.InventoryLogEntry, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.InventoryLogEntry{}, err
	}
	idx := findIndex(products, change.ProductID, productID)
	if idx < 0 {
		return domain.InventoryLogEntry{}, fmt.Errorf("product %s: %w", change.ProductID, store.ErrNotFound)
	}
	product := products[idx]

	current := product.Stock()
	next := current + change.QuantityChange
	if next < 0 {
		return domain.InventoryLogEntry{}, fmt.Errorf("%w: %s has %d, change %d", ErrNegativeStock, product.Name, current, change.QuantityChange)
	}

	if _, err := s.updateProduct(ctx, product.ID, domain.ProductPatch{Inventory: domain.SomeInt(next)}); err != nil {
		return domain.InventoryLogEntry{}, err
	}

	entries, err := s.appendInventoryLogs(ctx, []domain.InventoryLogEntry{{
		ProductID:        product.ID,
		ProductName:      product.Name,
		ProductSKU:       product.SKU,
		PreviousQuantity: current,
		NewQuantity:      next,
		ReasonType:       change.ReasonType,
		Notes:            change.Notes,
		ReferenceNumber:  change.ReferenceNumber,
	}})
	if err != nil {
		return domain.InventoryLogEntry{}, err
	}
	return entries[0], nil
}
