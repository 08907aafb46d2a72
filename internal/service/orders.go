package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
	"posadmin/internal/pricing"
	"posadmin/internal/store"
	"posadmin/internal/xid"
)

// QuoteCart prices a cart against the current catalogue without saving
// anything.
func (s *Service) QuoteCart(ctx context.Context, cart domain.CartRequest) (domain.CartQuote, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.CartQuote{}, err
	}
	quote, _, err := s.priceCart(cart, products)
	return quote, err
}

func (s *Service) priceCart(cart domain.CartRequest, products []domain.Product) (domain.CartQuote, *domain.Discount, error) {
	if len(cart.Items) == 0 {
		return domain.CartQuote{}, nil, ErrEmptyCart
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	seen := make(map[string]struct{}, len(cart.Items))
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.Quantity <= 0 {
			return domain.CartQuote{}, nil, fmt.Errorf("%w: %s quantity %d", ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
		if _, dup := seen[line.ProductID]; dup {
			return domain.CartQuote{}, nil, invalid("product %s appears twice in cart", line.ProductID)
		}
		seen[line.ProductID] = struct{}{}

		product, ok := byID[line.ProductID]
		if !ok {
			return domain.CartQuote{}, nil, fmt.Errorf("product %s: %w", line.ProductID, store.ErrNotFound)
		}
		if product.Status != domain.ProductStatusActive {
			return domain.CartQuote{}, nil, invalid("product %s is not for sale", product.Name)
		}

		item := domain.OrderItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			SKU:      product.SKU,
			Quantity: line.Quantity,
		}
		if line.Discount != nil {
			gross := pricing.Gross(pricing.LineFromItem(item))
			discount, err := line.Discount.Apply(gross)
			if err != nil {
				return domain.CartQuote{}, nil, invalid("%s: %s", product.Name, err.Error())
			}
			if discount.Amount.GreaterThan(gross) {
				return domain.CartQuote{}, nil, invalid("discount on %s exceeds the line total", product.Name)
			}
			item.Discount = &discount
		}
		items = append(items, item)
	}

	var orderDiscount *domain.Discount
	if cart.OrderDiscount != nil {
		lines := make([]pricing.Line, 0, len(items))
		for _, item := range items {
			lines = append(lines, pricing.LineFromItem(item))
		}
		subtotal := pricing.Subtotal(lines)
		discount, err := cart.OrderDiscount.Apply(subtotal)
		if err != nil {
			return domain.CartQuote{}, nil, invalid("order discount: %s", err.Error())
		}
		if discount.Amount.GreaterThan(subtotal) {
			return domain.CartQuote{}, nil, invalid("order discount exceeds the subtotal")
		}
		orderDiscount = &discount
	}

	totals := pricing.ComputeItems(items, orderDiscount, cart.ApplyTax, s.taxRate)
	return domain.CartQuote{
		Items:    items,
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Tax:      totals.Tax,
		Total:    totals.Total,
	}, orderDiscount, nil
}

// Checkout records the cart as an order. Completed sales to a known customer
// add to that customer's order count and spend. Stock is not moved.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := req.Status
	if status == "" {
		status = domain.OrderStatusCompleted
	}
	if status != domain.OrderStatusCompleted && status != domain.OrderStatusPending {
		return domain.Order{}, invalid("new orders must be completed or pending")
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	quote, orderDiscount, err := s.priceCart(req.CartRequest, products)
	if err != nil {
		return domain.Order{}, err
	}

	payment, err := s.settlePayment(ctx, req.Payment, quote.Total, status)
	if err != nil {
		return domain.Order{}, err
	}

	customer, err := s.resolveCustomer(ctx, req.Customer)
	if err != nil {
		return domain.Order{}, err
	}

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	order := domain.Order{
		ID:            s.nextOrderID(orders, now),
		Date:          now,
		Customer:      customer,
		Items:         quote.Items,
		Subtotal:      quote.Subtotal,
		Discount:      quote.Discount,
		OrderDiscount: orderDiscount,
		Tax:           quote.Tax,
		Total:         quote.Total,
		Payment:       payment,
		Notes:         strings.TrimSpace(req.Notes),
		Tags:          normalizeTags(req.Tags),
		Status:        status,
		Refunds:       []domain.Refund{},
		UpdatedAt:     now,
	}

	orders = append(orders, order)
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return domain.Order{}, fmt.Errorf("save orders: %w", err)
	}

	if order.Status == domain.OrderStatusCompleted && !order.IsWalkIn() {
		if err := s.updateCustomerOrderStats(ctx, order.Customer.ID, order.Total); err != nil {
			return order, fmt.Errorf("order %s saved, customer stats not updated: %w", order.ID, err)
		}
	}

	s.metrics.OrderCreated(string(order.Status), order.Total.InexactFloat64(), order.Status == domain.OrderStatusCompleted)
	s.logAudit(ctx, "order.create", "order", order.ID, order.Total.String())
	return order, nil
}

func (s *Service) settlePayment(ctx context.Context, payment domain.Payment, total decimal.Decimal, status domain.OrderStatus) (domain.Payment, error) {
	if err := payment.Validate(); err != nil {
		return domain.Payment{}, invalid("%s", err.Error())
	}
	settings, err := s.getSettings(ctx)
	if err != nil {
		return domain.Payment{}, err
	}
	if !settings.PaymentMethods.Allows(payment.Method) {
		return domain.Payment{}, invalid("payment method %s is disabled", payment.Method)
	}

	if payment.Method == domain.PaymentCash {
		cash := *payment.Cash
		if status == domain.OrderStatusCompleted && cash.Tendered.LessThan(total) {
			return domain.Payment{}, invalid("cash tendered %s is less than total %s", cash.Tendered, total)
		}
		cash.Change = decimal.Max(decimal.Zero, cash.Tendered.Sub(total))
		payment.Cash = &cash
	}
	return payment, nil
}

// resolveCustomer fills the display name of a known customer. Unknown ids
// are kept as given; the reference is weak.
func (s *Service) resolveCustomer(ctx context.Context, ref *domain.OrderCustomer) (*domain.OrderCustomer, error) {
	if ref == nil {
		return nil, nil
	}
	out := domain.OrderCustomer{ID: strings.TrimSpace(ref.ID), Name: strings.TrimSpace(ref.Name)}
	if out.ID == "" && out.Name == "" {
		return nil, nil
	}
	if out.ID != "" && out.Name == "" {
		customers, err := s.repo.ListCustomers(ctx)
		if err != nil {
			return nil, err
		}
		if idx := findIndex(customers, out.ID, customerID); idx >= 0 {
			out.Name = customers[idx].FullName
		}
	}
	return &out, nil
}

// nextOrderID keeps ORD-<millis> unique by stepping a millisecond past any
// id already taken.
func (s *Service) nextOrderID(orders []domain.Order, at time.Time) string {
	taken := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		taken[o.ID] = struct{}{}
	}
	for {
		id := xid.Timestamped("ORD", at)
		if _, ok := taken[id]; !ok {
			return id
		}
		at = at.Add(time.Millisecond)
	}
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	idx := findIndex(orders, id, orderID)
	if idx < 0 {
		return domain.Order{}, store.ErrNotFound
	}
	return orders[idx], nil
}

func (s *Service) OrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.filterOrders(ctx, func(o domain.Order) bool {
		return !o.IsWalkIn() && o.Customer.ID == customerID
	})
}

func (s *Service) OrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.filterOrders(ctx, func(o domain.Order) bool { return o.Status == status })
}

func (s *Service) filterOrders(ctx context.Context, keep func(domain.Order) bool) ([]domain.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// UpdateOrderStatus sets any known status; there is no transition check.
// An unknown order id yields nil.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var previous domain.OrderStatus
	updated, err := s.patchOrderLocked(ctx, id, func(o *domain.Order) {
		previous = o.Status
		o.Status = status
	})
	if err != nil || updated == nil {
		return updated, err
	}
	// A pending sale is counted against its customer once it completes.
	if previous == domain.OrderStatusPending && status == domain.OrderStatusCompleted && !updated.IsWalkIn() {
		if err := s.updateCustomerOrderStats(ctx, updated.Customer.ID, updated.Total); err != nil {
			return updated, fmt.Errorf("order %s saved, customer stats not updated: %w", id, err)
		}
	}
	s.logAudit(ctx, "order.status", "order", id, string(status))
	return updated, nil
}

func (s *Service) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.UpdateOrderStatus(ctx, id, domain.OrderStatusCancelled)
}

// UpdateOrderCustomer swaps the customer reference. Nil makes the order a
// walk-in sale. Customer stats are not recalculated.
func (s *Service) UpdateOrderCustomer(ctx context.Context, id string, ref *domain.OrderCustomer) (*domain.Order, error) {
	s.mu.Lock()
	resolved, err := s.resolveCustomer(ctx, ref)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	updated, err := s.patchOrder(ctx, id, func(o *domain.Order) { o.Customer = resolved })
	if err != nil || updated == nil {
		return updated, err
	}
	s.logAudit(ctx, "order.customer", "order", id, "")
	return updated, nil
}

func (s *Service) patchOrder(ctx context.Context, id string, mutate func(*domain.Order)) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchOrderLocked(ctx, id, mutate)
}

func (s *Service) patchOrderLocked(ctx context.Context, id string, mutate func(*domain.Order)) (*domain.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	idx := findIndex(orders, id, orderID)
	if idx < 0 {
		return nil, nil
	}
	order := orders[idx]
	mutate(&order)
	order.UpdatedAt = s.clock()
	orders[idx] = order
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("save orders: %w", err)
	}
	return &order, nil
}

// GetRemainingBalance is what may still be refunded on an order. Completed
// orders report their full total.
func GetRemainingBalance(order domain.Order) decimal.Decimal {
	if order.Status == domain.OrderStatusCompleted {
		return order.Total
	}
	return decimal.Max(decimal.Zero, order.Total.Sub(order.RefundedAmount()))
}

func (s *Service) RemainingBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return GetRemainingBalance(order), nil
}
