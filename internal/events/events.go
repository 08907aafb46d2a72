// Package events broadcasts storage writes so open views can reload the
// collection that changed. Delivery is best effort and carries no data, only
// the key: readers fetch the new state themselves, and the last writer wins.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"posadmin/internal/store"
)

const (
	OpSet    = "set"
	OpRemove = "remove"
)

type Change struct {
	Key    string    `json:"key"`
	Op     string    `json:"op"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin"`
}

type Publisher interface {
	Publish(change Change)
}

// Publishers fans one change out to several publishers.
type Publishers []Publisher

func (ps Publishers) Publish(change Change) {
	for _, p := range ps {
		if p != nil {
			p.Publish(change)
		}
	}
}

type Hub struct {
	mu     sync.RWMutex
	origin string
	nextID int
	subs   map[int]chan Change
}

// NewHub creates an in-process hub; origin identifies this process on relays.
func NewHub(origin string) *Hub {
	return &Hub{origin: origin, subs: make(map[int]chan Change)}
}

func (h *Hub) Origin() string {
	return h.origin
}

// Subscribe returns a buffered channel of changes and a function that
// unsubscribes and closes it. Slow subscribers miss changes rather than
// blocking writers.
func (h *Hub) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(change Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- change:
		default:
			log.Debug().Int("subscriber", id).Str("key", change.Key).Msg("events: dropped change for slow subscriber")
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ObservedBlob publishes a Change after every successful write.
type ObservedBlob struct {
	store.Blob
	publisher Publisher
	origin    string
	now       func() time.Time
}

func Observe(blob store.Blob, publisher Publisher, origin string) *ObservedBlob {
	return &ObservedBlob{Blob: blob, publisher: publisher, origin: origin, now: time.Now}
}

func (o *ObservedBlob) Set(ctx context.Context, key string, value []byte) error {
	if err := o.Blob.Set(ctx, key, value); err != nil {
		return err
	}
	o.publisher.Publish(Change{Key: key, Op: OpSet, At: o.now().UTC(), Origin: o.origin})
	return nil
}

func (o *ObservedBlob) Remove(ctx context.Context, key string) error {
	if err := o.Blob.Remove(ctx, key); err != nil {
		return err
	}
	o.publisher.Publish(Change{Key: key, Op: OpRemove, At: o.now().UTC(), Origin: o.origin})
	return nil
}
