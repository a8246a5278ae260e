package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/construction-crm/internal/core/events"
)

type subscriber struct {
	onSnapshot SnapshotFunc
	onError    ErrorFunc
}

// Hub is the in-memory Feed implementation. Writes replace documents and
// synchronously fan the new full snapshot out to every subscriber of the
// touched collection.
type Hub struct {
	mu          sync.RWMutex
	collections map[string]Snapshot
	subscribers map[string]map[int64]subscriber
	nextSubID   int64

	bus    *events.EventBus
	logger *slog.Logger
}

func NewHub(bus *events.EventBus, logger *slog.Logger) *Hub {
	return &Hub{
		collections: make(map[string]Snapshot),
		subscribers: make(map[string]map[int64]subscriber),
		bus:         bus,
		logger:      logger,
	}
}

// Subscribe registers a snapshot listener and immediately delivers the
// current snapshot, mirroring the attach behavior of the external store.
func (h *Hub) Subscribe(collection string, onSnapshot SnapshotFunc, onError ErrorFunc) Unsubscribe {
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	if h.subscribers[collection] == nil {
		h.subscribers[collection] = make(map[int64]subscriber)
	}
	h.subscribers[collection][id] = subscriber{onSnapshot: onSnapshot, onError: onError}
	current := h.collections[collection].Clone()
	h.mu.Unlock()

	if onSnapshot != nil {
		onSnapshot(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[collection], id)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Set(ctx context.Context, collection, docID string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, docID, err)
	}

	h.mu.Lock()
	if h.collections[collection] == nil {
		h.collections[collection] = make(Snapshot)
	}
	h.collections[collection][docID] = raw
	h.mu.Unlock()

	h.publish(collection)
	return nil
}

// Update shallow-merges partial fields into an existing document. Updating
// a missing document is an error: updates never fabricate documents.
func (h *Hub) Update(ctx context.Context, collection, docID string, partial map[string]interface{}) error {
	h.mu.Lock()
	existing, ok := h.collections[collection][docID]
	if !ok {
		h.mu.Unlock()
		return ErrDocNotFound
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(existing, &doc); err != nil || doc == nil {
		doc = make(map[string]interface{})
	}
	for k, v := range partial {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		h.mu.Unlock()
		return fmt.Errorf("merge document %s/%s: %w", collection, docID, err)
	}
	h.collections[collection][docID] = raw
	h.mu.Unlock()

	h.publish(collection)
	return nil
}

func (h *Hub) Delete(ctx context.Context, collection, docID string) error {
	h.mu.Lock()
	if _, ok := h.collections[collection][docID]; !ok {
		h.mu.Unlock()
		return ErrDocNotFound
	}
	delete(h.collections[collection], docID)
	h.mu.Unlock()

	h.publish(collection)
	return nil
}

// Replace swaps the entire collection for a new snapshot, used by backing
// stores replaying external state into the hub.
func (h *Hub) Replace(collection string, snapshot Snapshot) {
	h.mu.Lock()
	h.collections[collection] = snapshot.Clone()
	h.mu.Unlock()

	h.publish(collection)
}

// NotifyError fans a feed failure out to the collection's subscribers.
// Subscribers keep operating on their last-known snapshot.
func (h *Hub) NotifyError(collection string, err error) {
	h.mu.RLock()
	subs := make([]subscriber, 0, len(h.subscribers[collection]))
	for _, s := range h.subscribers[collection] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

func (h *Hub) publish(collection string) {
	h.mu.RLock()
	snapshot := h.collections[collection].Clone()
	subs := make([]subscriber, 0, len(h.subscribers[collection]))
	for _, s := range h.subscribers[collection] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if s.onSnapshot != nil {
			s.onSnapshot(snapshot.Clone())
		}
	}

	if h.bus != nil {
		if err := h.bus.Publish(context.Background(), events.NewSnapshotChangedEvent(collection, len(snapshot))); err != nil {
			h.logger.Error("failed to publish snapshot event", "collection", collection, "error", err)
		}
	}
}
