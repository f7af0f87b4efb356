package transformer

import "fmt"

// Factory defines the function signature for creating a transformer backend.
type Factory func(cfg Config) (Transformer, error)

// registry holds registered transformer factories.
var registry = make(map[string]Factory)

// Register registers a transformer factory with the given name. Backend
// packages call this from their init functions.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Registered returns the map of registered transformer factories.
func Registered() map[string]Factory {
	return registry
}

// New builds the named transformer from its registered factory.
func New(name string, cfg Config) (Transformer, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformer backend: %s", name)
	}
	return factory(cfg)
}
