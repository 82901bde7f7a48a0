// Package backend selects an inference adapter at runtime by name. Adapters
// register themselves from their package init; the native runtime choice is
// configuration, not a build flag.
package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samcharles93/inferd/internal/inference"
)

const (
	ONNX   = "onnx"
	Remote = "remote"
	Mock   = "mock"
)

// Factory constructs a loaded engine from options. A failed load returns a
// typed error; it never terminates the process.
type Factory func(ctx context.Context, opts inference.Options) (inference.Engine, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a factory under a normalized name. Called from adapter
// package inits; a duplicate name is a programming error and panics there.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("backend %q registered twice", name))
	}
	factories[name] = f
}

// Normalize canonicalizes a backend name from config or flags.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return ONNX, nil
	}
	mu.RLock()
	_, ok := factories[backend]
	mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return backend, nil
}

// Open loads a model with the named backend.
func Open(ctx context.Context, name string, opts inference.Options) (inference.Engine, error) {
	normalized, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	mu.RLock()
	f := factories[normalized]
	mu.RUnlock()
	return f(ctx, opts.Normalized())
}

// Names lists the registered backends in stable order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
