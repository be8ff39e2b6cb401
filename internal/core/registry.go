package core

import (
	"fmt"
	"sync"

	"github.com/JonMunkholm/csvprof/internal/dataset"
	"github.com/JonMunkholm/csvprof/internal/profile"
)

// Entry is one loaded dataset and the profiler bound to it.
type Entry struct {
	Name    string
	Data    *dataset.Dataset
	Profile *profile.Profiler
}

func newEntry(name string, ds *dataset.Dataset) Entry {
	return Entry{Name: name, Data: ds, Profile: profile.New(ds)}
}

// Registry is an ordered set of entries keyed by upload file name.
// Names are unique; order is first-insertion order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Put inserts ds under name. An existing entry with the same name is
// replaced in place and keeps its position.
func (r *Registry) Put(name string, ds *dataset.Dataset) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := newEntry(name, ds)
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = e
	return e
}

// Get returns the entry for name. A missing name is a normal outcome.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e, ok
}

// Replace swaps the dataset of an existing entry and rebuilds its profiler.
func (r *Registry) Replace(name string, ds *dataset.Dataset) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return Entry{}, fmt.Errorf("replace %q: %w", name, ErrNotFound)
	}
	e := newEntry(name, ds)
	r.entries[name] = e
	return e, nil
}

// Remove drops one entry. It reports whether the name was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns entry names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Entries returns all entries in insertion order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.order))
	for i, name := range r.order {
		out[i] = r.entries[name]
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
	r.order = nil
}
