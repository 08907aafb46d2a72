package cache

import (
	"context"
	"time"

	"posadmin/internal/domain"
)

type SuggestionCache interface {
	Get(ctx context.Context, key string) (*domain.ReorderSuggestionResponse, bool, error)
	Set(ctx context.Context, key string, value *domain.ReorderSuggestionResponse, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopSuggestionCache struct{}

func (NoopSuggestionCache) Get(_ context.Context, _ string) (*domain.ReorderSuggestionResponse, bool, error) {
	return nil, false, nil
}

func (NoopSuggestionCache) Set(_ context.Context, _ string, _ *domain.ReorderSuggestionResponse, _ time.Duration) error {
	return nil
}

func (NoopSuggestionCache) Delete(_ context.Context, _ string) error {
	return nil
}
