// Package store keeps the live place collections the HTTP surface operates
// on, keyed by generated id.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"nasapower/internal/places"
)

// ErrNotFound is returned when no collection exists for a given id.
var ErrNotFound = errors.New("no collection for id")

// entry pairs a collection with the mutex serialising access to it. Batch
// operations replace multi-field derived state non-atomically, so every
// collection is confined to one caller at a time.
type entry struct {
	mu         sync.Mutex
	collection *places.Collection
}

// Registry is a concurrency-safe in-memory registry of place collections.
type Registry struct {
	mu   sync.RWMutex
	data map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		data: make(map[string]*entry),
	}
}

// Add registers a collection and returns its generated id.
func (r *Registry) Add(collection *places.Collection) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[id] = &entry{collection: collection}

	return id
}

// With runs fn with exclusive access to the identified collection. All reads
// and mutations of a registered collection go through here.
func (r *Registry) With(id string, fn func(*places.Collection) error) error {
	r.mu.RLock()
	e, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.collection)
}

// Len reports the number of registered collections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
