package taskrunner

import (
	"fmt"
	"sort"
)

// State is the default shared context of a run. The zero value is empty and ready to use;
// every task of the run receives the same *State.
type State struct {
	values map[string]any
}

// Set stores value under key.
func (state *State) Set(key string, value any) {
	if state.values == nil {
		state.values = make(map[string]any)
	}
	state.values[key] = value
}

// Get returns the value stored under key.
func (state *State) Get(key string) (any, bool) {
	value, exists := state.values[key]
	return value, exists
}

// String returns the value stored under key formatted as a string, or "" when absent.
func (state *State) String(key string) string {
	value, exists := state.values[key]
	if !exists || value == nil {
		return ""
	}
	if text, isText := value.(string); isText {
		return text
	}
	return fmt.Sprint(value)
}

// Delete removes key.
func (state *State) Delete(key string) {
	delete(state.values, key)
}

// Keys returns the stored keys in sorted order.
func (state *State) Keys() []string {
	keys := make([]string, 0, len(state.values))
	for key := range state.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the stored values.
func (state *State) Snapshot() map[string]any {
	snapshot := make(map[string]any, len(state.values))
	for key, value := range state.values {
		snapshot[key] = value
	}
	return snapshot
}
