package device

import (
	"fmt"
	"sync"
)

// Config carries backend construction options.
type Config struct {
	// Path names the output file for file-sink backends.
	Path string
}

type Factory func(f Format, cfg Config) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("device: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("device: Register called twice for " + name)
	}
	registry[name] = factory
}

func Open(name string, f Format, cfg Config) (Device, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("device: unknown backend %q (registered: %v)", name, ListBackends())
	}
	return factory(f, cfg)
}

func ListBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
