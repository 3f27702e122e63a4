package adapter

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/zlink-cloudtech/spec-kit/internal/errors"
)

// Factory constructs an adapter instance.
type Factory func() (Adapter, error)

// Registry holds the known adapters. One instance is created at startup and
// injected wherever adapters are resolved; there is no package-level default.
type Registry struct {
	mu          sync.RWMutex
	adapters    map[string]Adapter
	defaultName string
	logger      *slog.Logger
}

// NewRegistry returns a registry with the builtin adapters registered and
// copilot as the default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		adapters:    make(map[string]Adapter),
		defaultName: "copilot",
		logger:      logger,
	}
	r.Register(NewCopilot)
	r.Register(NewClaude)
	return r
}

// Register constructs and stores an adapter. A factory failure is logged and
// the registration skipped; a broken adapter must not take the engine down.
func (r *Registry) Register(f Factory) {
	a, err := f()
	if err != nil {
		r.logger.Warn("adapter registration failed", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[name]
	if !ok {
		return nil, errors.ErrAdapterNotFound(name, r.namesLocked())
	}
	return a, nil
}

// Default returns the default adapter.
func (r *Registry) Default() (Adapter, error) {
	r.mu.RLock()
	name := r.defaultName
	r.mu.RUnlock()
	return r.Get(name)
}

// SetDefault changes the default adapter name.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[name]; !ok {
		return errors.ErrAdapterNotFound(name, r.namesLocked())
	}
	r.defaultName = name
	return nil
}

// Names returns the registered adapter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info describes one registered adapter for listings.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	Default     bool   `json:"default"`
	Available   bool   `json:"available"`
}

// List returns metadata for every registered adapter, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.adapters))
	for _, name := range r.namesLocked() {
		a := r.adapters[name]
		infos = append(infos, Info{
			Name:        a.Name(),
			Description: a.Description(),
			Executable:  a.Executable(),
			Default:     name == r.defaultName,
			Available:   a.Available(),
		})
	}
	return infos
}
