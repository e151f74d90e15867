package adapter

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Options carries the per-adapter settings from the config file.
type Options map[string]string

func (o Options) Get(key, def string) string {
	if v, ok := o[key]; ok && v != "" {
		return v
	}
	return def
}

func (o Options) Require(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return "", fmt.Errorf("adapter option %q is required", key)
	}
	return v, nil
}

// Factory builds a ready adapter from its options and a shared HTTP client.
type Factory func(opts Options, client *http.Client) (Handler, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func registryKey(typ, name string) string {
	return strings.ToLower(typ) + "/" + strings.ToLower(name)
}

// Register makes a factory available under (type, name). Registering the
// same pair twice panics.
func (r *Registry) Register(typ, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(typ, name)
	if factory == nil {
		panic("adapter: nil factory for " + key)
	}
	if _, ok := r.factories[key]; ok {
		panic("adapter: duplicate registration of " + key)
	}
	r.factories[key] = factory
}

func (r *Registry) New(typ, name string, opts Options, client *http.Client) (Handler, error) {
	key := registryKey(typ, name)

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, key)
	}
	if opts == nil {
		opts = Options{}
	}
	h, err := factory(opts, client)
	if err != nil {
		return nil, fmt.Errorf("can't create adapter %s: %w", key, err)
	}
	return &instrumentedHandler{Handler: h, name: key}, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for key := range r.factories {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry. Adapter packages call it
// from init.
func Register(typ, name string, factory Factory) {
	defaultRegistry.Register(typ, name, factory)
}

func New(typ, name string, opts Options, client *http.Client) (Handler, error) {
	return defaultRegistry.New(typ, name, opts, client)
}

func Names() []string {
	return defaultRegistry.Names()
}
