package nav

import (
	"fmt"
	"sort"
	"sync"
)

// Type identifies a navigation engine implementation.
type Type string

// Replay is the scripted engine registered by package replay.
const Replay Type = "replay"

// Opener opens the disc at path.
type Opener func(path string) (Engine, error)

var (
	mu      sync.RWMutex
	openers = make(map[Type]Opener)
)

// Register registers an engine opener for the given type.
func Register(t Type, o Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[t] = o
}

// Lookup returns the opener registered for t.
func Lookup(t Type) (Opener, error) {
	mu.RLock()
	o, ok := openers[t]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown navigation engine type: %s", t)
	}
	return o, nil
}

// Types lists the registered engine types in name order.
func Types() []Type {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]Type, 0, len(openers))
	for t := range openers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// DefaultType returns the engine used when configuration names none.
func DefaultType() Type {
	return Replay
}

// Open opens path with the engine registered for t.
func Open(t Type, path string) (Engine, error) {
	o, err := Lookup(t)
	if err != nil {
		return nil, err
	}
	return o(path)
}
