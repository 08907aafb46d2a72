package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
	"posadmin/internal/store"
	"posadmin/internal/xid"
)

var fullyRefundedTolerance = decimal.RequireFromString("0.01")

// ProcessRefund records one refund against an order. Tax is returned at the
// rate the order was charged (order tax / order subtotal). The order becomes
// refunded once refunds add up to its total within a cent, otherwise
// partial-refunded. Inventory is never touched here; see RestockRefund.
func (s *Service) ProcessRefund(ctx context.Context, id string, req domain.RefundRequest) (domain.RefundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.RefundResult{}, err
	}
	idx := findIndex(orders, id, orderID)
	if idx < 0 {
		return domain.RefundResult{}, store.ErrNotFound
	}
	order := orders[idx]
	if order.Status != domain.OrderStatusCompleted && order.Status != domain.OrderStatusPartialRefunded {
		return domain.RefundResult{}, ErrOrderNotRefundable
	}

	method := req.Method
	if method == "" {
		method = domain.RefundMethod(order.Payment.Method)
	}
	if !method.Valid() {
		return domain.RefundResult{}, invalid("unknown refund method %q", method)
	}

	lines, err := refundLines(order, req.Items)
	if err != nil {
		return domain.RefundResult{}, err
	}

	taxRate := decimal.Zero
	if !order.Subtotal.IsZero() {
		taxRate = order.Tax.Div(order.Subtotal)
	}

	subtotal := decimal.Zero
	items := make([]domain.RefundItem, 0, len(lines))
	restockable := false
	for _, line := range lines {
		gross := line.item.Price.Mul(decimal.NewFromInt(int64(line.quantity)))
		subtotal = subtotal.Add(gross)
		items = append(items, domain.RefundItem{
			ID:        line.item.ID,
			Name:      line.item.Name,
			Price:     line.item.Price,
			Quantity:  line.quantity,
			Condition: line.condition,
			Tax:       gross.Mul(taxRate),
		})
		if line.condition == domain.ConditionNew {
			restockable = true
		}
	}
	tax := subtotal.Mul(taxRate)
	amount := subtotal.Add(tax)

	if order.Status != domain.OrderStatusCompleted && amount.GreaterThan(GetRemainingBalance(order)) {
		return domain.RefundResult{}, fmt.Errorf("%w: %s requested, %s remaining", ErrRefundExceedsBalance, amount, GetRemainingBalance(order))
	}

	now := s.clock()
	refund := domain.Refund{
		ID:        xid.New("REF"),
		OrderID:   order.ID,
		Timestamp: now,
		Subtotal:  subtotal,
		Tax:       tax,
		Amount:    amount,
		Items:     items,
		Method:    method,
		Note:      req.Note,
	}
	order.Refunds = append(order.Refunds, refund)
	if order.RefundedAmount().Sub(order.Total).Abs().LessThan(fullyRefundedTolerance) {
		order.Status = domain.OrderStatusRefunded
	} else {
		order.Status = domain.OrderStatusPartialRefunded
	}
	order.UpdatedAt = now
	orders[idx] = order

	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return domain.RefundResult{}, fmt.Errorf("save orders: %w", err)
	}

	s.metrics.RefundProcessed(string(order.Status), amount.InexactFloat64())
	s.logAudit(ctx, "order.refund", "order", order.ID, fmt.Sprintf("%s %s via %s", refund.ID, amount, method))

	return domain.RefundResult{
		Order:                order,
		Refund:               refund,
		RemainingBalance:     GetRemainingBalance(order),
		HasRestockCandidates: restockable,
		InventoryUpdated:     false,
	}, nil
}

type refundLine struct {
	item      domain.OrderItem
	quantity  int
	condition domain.ItemCondition
}

// refundLines checks the requested lines against the order. Lines with a zero
// quantity are dropped; at least one must remain. Units refunded earlier count
// against the original line quantity.
func refundLines(order domain.Order, requested []domain.RefundLine) ([]refundLine, error) {
	byID := make(map[string]domain.OrderItem, len(order.Items))
	for _, item := range order.Items {
		byID[item.ID] = item
	}

	perItem := make(map[string]int, len(order.Items))
	for _, refund := range order.Refunds {
		for _, item := range refund.Items {
			perItem[item.ID] += item.Quantity
		}
	}
	lines := make([]refundLine, 0, len(requested))
	for _, line := range requested {
		if line.Quantity < 0 {
			return nil, fmt.Errorf("%w: %s quantity %d", ErrInvalidQuantity, line.ItemID, line.Quantity)
		}
		if line.Quantity == 0 {
			continue
		}
		item, ok := byID[line.ItemID]
		if !ok {
			return nil, invalid("item %s is not on order %s", line.ItemID, order.ID)
		}
		perItem[line.ItemID] += line.Quantity
		if perItem[line.ItemID] > item.Quantity {
			return nil, fmt.Errorf("%w: %s refunds %d of %d sold", ErrInvalidQuantity, item.Name, perItem[line.ItemID], item.Quantity)
		}
		condition := line.Condition
		if condition == "" {
			condition = domain.ConditionNew
		}
		if !condition.Valid() {
			return nil, invalid("unknown item condition %q", line.Condition)
		}
		lines = append(lines, refundLine{item: item, quantity: line.Quantity, condition: condition})
	}
	if len(lines) == 0 {
		return nil, ErrNothingToRefund
	}
	return lines, nil
}

// RestockRefund puts the items of a refund that came back in new condition
// back on the shelf and writes a return entry for each. A refund is restocked
// at most once. Untracked or deleted products are skipped.
//
// Stock moves in a single products write before the refund is stamped, so a
// failed write leaves the refund open for a retry. The ledger is written last;
// when only that write fails the stock and stamp stand and the error is
// returned.
func (s *Service) RestockRefund(ctx context.Context, id string, refundID string) (domain.RestockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.RestockResult{}, err
	}
	idx := findIndex(orders, id, orderID)
	if idx < 0 {
		return domain.RestockResult{}, store.ErrNotFound
	}
	order := orders[idx]
	ridx := -1
	for i, r := range order.Refunds {
		if r.ID == refundID {
			ridx = i
			break
		}
	}
	if ridx < 0 {
		return domain.RestockResult{}, fmt.Errorf("refund %s: %w", refundID, store.ErrNotFound)
	}
	refund := order.Refunds[ridx]
	if refund.RestockedAt != nil {
		return domain.RestockResult{}, ErrAlreadyRestocked
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.RestockResult{}, err
	}
	before := slices.Clone(products)

	now := s.clock()
	pending := make([]domain.InventoryLogEntry, 0, len(refund.Items))
	for _, item := range refund.Items {
		if item.Condition != domain.ConditionNew {
			continue
		}
		pidx := findIndex(products, item.ID, productID)
		if pidx < 0 || !products[pidx].Tracked() {
			continue
		}
		current := products[pidx].Stock()
		next := current + item.Quantity
		products[pidx].Inventory = &next
		products[pidx].UpdatedAt = now
		pending = append(pending, domain.InventoryLogEntry{
			ProductID:        products[pidx].ID,
			ProductName:      products[pidx].Name,
			ProductSKU:       products[pidx].SKU,
			PreviousQuantity: current,
			NewQuantity:      next,
			ReasonType:       domain.ReasonReturn,
			Notes:            fmt.Sprintf("Restock from order %s", order.ID),
			ReferenceNumber:  refund.ID,
		})
	}

	if len(pending) > 0 {
		if err := s.repo.SaveProducts(ctx, products); err != nil {
			return domain.RestockResult{}, fmt.Errorf("save products: %w", err)
		}
		s.recommender.Invalidate(ctx)
	}

	refunds := slices.Clone(order.Refunds)
	refunds[ridx].RestockedAt = &now
	order.Refunds = refunds
	orders[idx] = order
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		if len(pending) > 0 {
			if rerr := s.repo.SaveProducts(ctx, before); rerr != nil {
				log.Error().Err(rerr).Str("order", order.ID).Str("refund", refund.ID).
					Msg("restock: stock moved but refund not stamped")
			}
		}
		return domain.RestockResult{}, fmt.Errorf("save orders: %w", err)
	}
	refund = refunds[ridx]

	entries := []domain.InventoryLogEntry{}
	if len(pending) > 0 {
		appended, err := s.appendInventoryLogs(ctx, pending)
		if err != nil {
			log.Error().Err(err).Str("order", order.ID).Str("refund", refund.ID).
				Msg("restock: stock moved but return entries not written")
			return domain.RestockResult{Refund: refund, Entries: entries}, err
		}
		entries = appended
		for range entries {
			s.metrics.StockAdjusted(string(domain.ReasonReturn))
		}
	}

	s.logAudit(ctx, "order.restock", "order", order.ID, fmt.Sprintf("%s: %d entries", refund.ID, len(entries)))
	return domain.RestockResult{Refund: refund, Entries: entries}, nil
}
