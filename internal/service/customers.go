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

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	idx := findIndex(customers, id, customerID)
	if idx < 0 {
		return domain.Customer{}, store.ErrNotFound
	}
	return customers[idx], nil
}

func (s *Service) AddCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	created, err := s.prepareCustomer(customer, customers)
	if err != nil {
		return domain.Customer{}, err
	}
	customers = append(customers, created)
	if err := s.repo.SaveCustomers(ctx, customers); err != nil {
		return domain.Customer{}, fmt.Errorf("save customers: %w", err)
	}
	s.logAudit(ctx, "customer.create", "customer", created.ID, created.FullName)
	return created, nil
}

func (s *Service) prepareCustomer(customer domain.Customer, existing []domain.Customer) (domain.Customer, error) {
	customer.FullName = strings.TrimSpace(customer.FullName)
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.FullName == "" {
		return domain.Customer{}, invalid("customer name is required")
	}
	if customer.Orders < 0 || customer.AmountSpent.IsNegative() {
		return domain.Customer{}, invalid("order stats must not be negative")
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	} else if findIndex(existing, customer.ID, customerID) >= 0 {
		return domain.Customer{}, invalid("customer %s already exists", customer.ID)
	}

	now := s.clock()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	customer.UpdatedAt = now
	return customer, nil
}

// UpdateCustomer merges contact fields only; order stats move through
// UpdateCustomerOrderStats.
func (s *Service) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	idx := findIndex(customers, id, customerID)
	if idx < 0 {
		return nil, nil
	}

	c := customers[idx]
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if name == "" {
			return nil, invalid("customer name is required")
		}
		c.FullName = name
	}
	if patch.Email != nil {
		c.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.CompanyName != nil {
		c.CompanyName = *patch.CompanyName
	}
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	c.UpdatedAt = s.clock()
	customers[idx] = c

	if err := s.repo.SaveCustomers(ctx, customers); err != nil {
		return nil, fmt.Errorf("save customers: %w", err)
	}
	s.logAudit(ctx, "customer.update", "customer", id, c.FullName)
	return &c, nil
}

// DeleteCustomer keeps the weak references held by past orders.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return err
	}
	idx := findIndex(customers, id, customerID)
	if idx < 0 {
		return nil
	}
	name := customers[idx].FullName
	customers = slices.Delete(customers, idx, idx+1)
	if err := s.repo.SaveCustomers(ctx, customers); err != nil {
		return fmt.Errorf("save customers: %w", err)
	}
	s.logAudit(ctx, "customer.delete", "customer", id, name)
	return nil
}

func (s *Service) SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return SearchCustomers(customers, query), nil
}

func SearchCustomers(customers []domain.Customer, query string) []domain.Customer {
	q := normalizeQuery(query)
	out := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if q == "" || containsFold(c.FullName, q) || containsFold(c.Email, q) ||
			containsFold(c.Phone, q) || containsFold(c.CompanyName, q) {
			out = append(out, c)
		}
	}
	return out
}

// UpdateCustomerOrderStats counts one more order and adds amount to the
// lifetime spend. It is not idempotent. An unknown customer is ignored.
func (s *Service) UpdateCustomerOrderStats(ctx context.Context, id string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCustomerOrderStats(ctx, id, amount)
}

func (s *Service) updateCustomerOrderStats(ctx context.Context, id string, amount decimal.Decimal) error {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return err
	}
	idx := findIndex(customers, id, customerID)
	if idx < 0 {
		return nil
	}
	customers[idx].Orders++
	customers[idx].AmountSpent = customers[idx].AmountSpent.Add(amount)
	customers[idx].UpdatedAt = s.clock()
	if err := s.repo.SaveCustomers(ctx, customers); err != nil {
		return fmt.Errorf("save customers: %w", err)
	}
	return nil
}
