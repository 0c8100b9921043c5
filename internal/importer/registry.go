package importer

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]RuleSet)
	registryMu sync.RWMutex
)

// Register adds a rule set to the registry.
// Panics if a variant with the same name is already registered.
func Register(rs RuleSet) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[rs.Name]; exists {
		panic(fmt.Sprintf("variant already registered: %s", rs.Name))
	}
	registry[rs.Name] = rs
}

// Get returns a rule set by variant name.
// Returns false if not found.
func Get(name string) (RuleSet, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	rs, ok := registry[name]
	return rs, ok
}

// Variants returns all registered variant names, sorted for consistent ordering.
func Variants() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registered variants.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]RuleSet)
}
