package service

import (
	"context"

	"posadmin/internal/domain"
)

func (s *Service) ReorderSuggestions(ctx context.Context) (domain.ReorderSuggestionResponse, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.ReorderSuggestionResponse{}, err
	}
	logs, err := s.repo.ListInventoryLogs(ctx)
	if err != nil {
		return domain.ReorderSuggestionResponse{}, err
	}
	return s.recommender.Suggest(ctx, products, logs, s.clock()), nil
}

// LowStockProducts lists tracked products at or below their minimum.
func (s *Service) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, p := range products {
		if st := StockStatusOf(p); st == domain.StockLow || st == domain.StockOut {
			out = append(out, p)
		}
	}
	return out, nil
}
