package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
)

var hundredPercent = decimal.NewFromInt(100)

// GetSettings returns the stored settings, or the defaults when none have
// been saved yet.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.getSettings(ctx)
}

func (s *Service) getSettings(ctx context.Context) (domain.Settings, error) {
	settings, ok, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if !ok {
		return domain.DefaultSettings(s.taxRate), nil
	}
	return settings, nil
}

func (s *Service) SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.StoreInfo.Name = strings.TrimSpace(settings.StoreInfo.Name)
	if settings.StoreInfo.Name == "" {
		return domain.Settings{}, invalid("store name is required")
	}
	if settings.TaxSettings.Rate.IsNegative() || settings.TaxSettings.Rate.GreaterThan(hundredPercent) {
		return domain.Settings{}, invalid("tax rate must be between 0 and 100")
	}
	methods := settings.PaymentMethods
	if !methods.Cash && !methods.Card && !methods.StoreCredit && !methods.Other {
		return domain.Settings{}, invalid("at least one payment method must be enabled")
	}

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.logAudit(ctx, "settings.update", "settings", "store_settings", settings.StoreInfo.Name)
	return settings, nil
}
