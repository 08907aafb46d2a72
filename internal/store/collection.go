package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Document is a single JSON value stored under one key.
//
// Reads never fail on bad data: a backend error or an undecodable payload is
// logged and reported as absent. Writes return their errors.
type Document[T any] struct {
	blob Blob
	key  string
}

func NewDocument[T any](blob Blob, key string) *Document[T] {
	return &Document[T]{blob: blob, key: key}
}

func (d *Document[T]) Key() string {
	return d.key
}

func (d *Document[T]) Load(ctx context.Context) (T, bool, error) {
	var value T
	if err := ctx.Err(); err != nil {
		return value, false, err
	}

	raw, ok, err := d.blob.Get(ctx, d.key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return value, false, ctxErr
		}
		log.Warn().Err(err).Str("key", d.key).Msg("storage read failed, using empty value")
		return value, false, nil
	}
	if !ok || len(raw) == 0 {
		return value, false, nil
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		log.Warn().Err(err).Str("key", d.key).Msg("stored document is corrupt, using empty value")
		var zero T
		return zero, false, nil
	}
	return value, true, nil
}

func (d *Document[T]) Save(ctx context.Context, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.key, err)
	}
	if err := d.blob.Set(ctx, d.key, payload); err != nil {
		return fmt.Errorf("write %s: %w", d.key, err)
	}
	return nil
}

func (d *Document[T]) Clear(ctx context.Context) error {
	if err := d.blob.Remove(ctx, d.key); err != nil {
		return fmt.Errorf("remove %s: %w", d.key, err)
	}
	return nil
}

// Collection is a JSON array stored under one key.
type Collection[T any] struct {
	doc *Document[[]T]
}

func NewCollection[T any](blob Blob, key string) *Collection[T] {
	return &Collection[T]{doc: NewDocument[[]T](blob, key)}
}

// Load returns the whole collection, never nil.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	items, _, err := c.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.doc.Save(ctx, items)
}

func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.doc.Clear(ctx)
}
