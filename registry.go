package tinydi

import (
	"sync"
)

// DefaultContainerID is the well-known id of the registry's root container,
// the single owner of all singleton-scoped records.
const DefaultContainerID = "default"

// Registry is the process-wide index of named containers. It is an explicit
// object with its own lifecycle rather than ambient package state; the
// package-level helpers below merely delegate to the lazily created default
// instance.
type Registry struct {
	mu         sync.RWMutex
	containers map[string]*container
	root       *container
}

func NewRegistry() *Registry {
	return &Registry{containers: make(map[string]*container)}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, created on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})

	return defaultRegistry
}

// Default returns the registry's root container, creating it lazily.
func (r *Registry) Default() Container {
	return r.defaultContainer()
}

func (r *Registry) defaultContainer() *container {
	r.mu.Lock()
	root := r.root
	r.mu.Unlock()

	if root != nil {
		return root
	}

	// newContainer registers itself, which records r.root.
	return newContainer(DefaultContainerID, nil, []ContainerOption{WithRegistry(r)})
}

func (r *Registry) GetContainer(id string) (Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.containers[id]
	if !ok {
		return nil, newContainerNotFoundError(id)
	}

	return c, nil
}

func (r *Registry) HasContainer(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.containers[id]

	return ok
}

// RegisterContainer adds an externally created container to the registry.
func (r *Registry) RegisterContainer(c Container) error {
	impl, ok := c.(*container)
	if !ok || impl == nil {
		return ErrNilContainer
	}

	return r.register(impl)
}

func (r *Registry) register(c *container) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.containers[c.id]; ok && existing != c {
		return ErrDuplicateContainerID
	}

	r.containers[c.id] = c

	if c.id == DefaultContainerID && r.root == nil {
		r.root = c
	}

	return nil
}

func (r *Registry) isDefault(c *container) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.root == c
}

// Default returns the root container of the default registry.
func Default() Container {
	return DefaultRegistry().Default()
}

// GetContainer looks a named container up in the default registry.
func GetContainer(id string) (Container, error) {
	return DefaultRegistry().GetContainer(id)
}

// HasContainer reports whether the default registry knows the id.
func HasContainer(id string) bool {
	return DefaultRegistry().HasContainer(id)
}

// RegisterContainer adds a container to the default registry.
func RegisterContainer(c Container) error {
	return DefaultRegistry().RegisterContainer(c)
}
