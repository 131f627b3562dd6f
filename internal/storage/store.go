// Package storage provides the object-store backends behind locator schemes
// and the Registry the obfuscation service resolves them through.
package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"obfuscator/internal/obfuscation/models"
	"obfuscator/internal/obfuscation/ports"
)

// Registry maps locator schemes to object stores. Scheme lookup is
// case-insensitive.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]ports.ObjectStore
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]ports.ObjectStore)}
}

// Register binds scheme to store, replacing any previous binding.
func (r *Registry) Register(scheme string, store ports.ObjectStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[strings.ToLower(scheme)] = store
}

// Store returns the store for scheme. Unknown schemes fail with
// models.KindInvalidLocator.
func (r *Registry) Store(scheme string) (ports.ObjectStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.stores[strings.ToLower(scheme)]; ok {
		return s, nil
	}
	return nil, models.NewError(models.KindInvalidLocator, "no object store for scheme %q", scheme)
}

// Schemes lists the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.stores))
	for s := range r.stores {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func objectName(container, path string) string {
	return fmt.Sprintf("%s/%s", container, path)
}
