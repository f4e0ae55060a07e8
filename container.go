package tinydi

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

var _ Container = new(container)

// ContainerOption configures a container at creation time.
type ContainerOption func(*container)

var (
	// WithLocalOnlyLookup makes resolution consult only this container's
	// own registrations, never its parent chain or the default container.
	WithLocalOnlyLookup ContainerOption = func(c *container) { c.localOnly = true }

	// WithoutSingletonLookup hides globally registered singletons from this
	// container while leaving parent delegation intact.
	WithoutSingletonLookup ContainerOption = func(c *container) { c.allowSingletonLookup = false }

	// WithFactoryFallback lets a FactoryRef whose factory service is not
	// registered fall back to bare reflect construction of the referenced
	// type, bypassing the factory's own dependencies. Off by default.
	WithFactoryFallback ContainerOption = func(c *container) { c.factoryFallback = true }
)

// WithRegistry binds the container to a registry other than the default one.
func WithRegistry(r *Registry) ContainerOption {
	return func(c *container) { c.registry = r }
}

// New creates a container registered in the default registry (or the one
// supplied with WithRegistry). An empty id is replaced with a generated one.
func New(id string, opts ...ContainerOption) Container {
	return newContainer(id, nil, opts)
}

func newContainer(id string, parent *container, opts []ContainerOption) *container {
	if id == "" {
		id = uuid.NewString()
	}

	c := &container{
		id:                   id,
		parent:               parent,
		err:                  &atomic.Value{},
		records:              make(map[ServiceID]*serviceRecord),
		groups:               make(map[ServiceID]*tokenGroup),
		allowSingletonLookup: true,
	}

	if parent != nil {
		c.registry = parent.registry
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = DefaultRegistry()
	}

	if err := c.registry.register(c); err != nil {
		c.fail(err)
	}

	return c
}

// tokenGroup is the masked face of a Multiple registration: an ordered list
// of minted tokens, each pointing at an ordinary single record.
type tokenGroup struct {
	scope  Scope
	tokens []*Token
}

// A container owns its record store, its multi-registration groups, its
// handler list and its resolution stack. Cross-container interaction is
// one-directional: a child reads its parent and the default container,
// never the other way around. A container confines resolution to one
// goroutine at a time; only the disposed flag is shared state.
type container struct {
	id       string
	registry *Registry
	parent   *container
	err      *atomic.Value
	records  map[ServiceID]*serviceRecord
	groups   map[ServiceID]*tokenGroup
	handlers []Handler
	stack    []ServiceID
	disposed atomic.Bool

	localOnly            bool
	allowSingletonLookup bool
	factoryFallback      bool
}

func (c *container) sealed() {}

func (c *container) ID() string {
	return c.id
}

func (c *container) Err() error {
	if errVal := c.err.Load(); errVal != nil {
		return errVal.(error)
	}

	return nil
}

// fail stores the first error raised by a chained registration call.
func (c *container) fail(err error) {
	c.err.CompareAndSwap(nil, err)
}

func (c *container) guard() error {
	if c.disposed.Load() {
		return newDisposedError(c.id)
	}

	return c.Err()
}

func (c *container) Set(options ServiceOptions) Container {
	if c.disposed.Load() {
		c.fail(newDisposedError(c.id))
		return c
	}

	if errVal := c.err.Load(); errVal != nil {
		return c
	}

	// Singleton registrations live on the default container only.
	if options.Scope == Singleton && !c.isDefault() {
		c.registry.defaultContainer().Set(options)
		return c
	}

	id := options.ID
	var ctor *constructorInfo

	if options.Type != nil {
		var err error
		if ctor, err = parseConstructor(options.Type, options.Async); err != nil {
			c.fail(err)
			return c
		}

		if id == nil {
			id = ctor.out
		}
	}

	if options.Factory != nil {
		if err := validateFactory(options.Factory, options.Async); err != nil {
			c.fail(err)
			return c
		}
	}

	if id == nil {
		c.fail(ErrMissingServiceID)
		return c
	}

	record := c.records[id]
	fresh := record == nil || options.Multiple

	if fresh {
		record = &serviceRecord{id: id, scope: options.Scope}
	} else if record.constructed() &&
		(options.Type != nil || options.Factory != nil || options.Value != nil) {
		// a re-registration that changes how the service is built
		// invalidates the memoized instance
		c.release(context.Background(), record)
	}

	// Merge supplied fields so anyone holding the record sees updates.
	if options.Type != nil {
		record.typ = options.Type
		record.ctor = ctor
	}
	if options.Factory != nil {
		record.factory = options.Factory
	}
	if options.Value != nil {
		record.value = options.Value
	}
	if options.Lifecycle != nil {
		record.lifecycle = options.Lifecycle
	}
	record.scope = options.Scope
	record.eager = options.Eager
	record.async = options.Async

	if options.Multiple {
		// Mask the group member behind a minted token and keep the
		// original identifier only in the ordered group list.
		token := NewToken(idString(id))
		record.id = token

		group := c.groups[id]
		if group == nil {
			group = &tokenGroup{scope: options.Scope}
			c.groups[id] = group
		}

		group.tokens = append(group.tokens, token)
		c.records[token] = record
	} else if fresh {
		c.records[id] = record
	}

	// Async eager services are constructed by Init, not here.
	if record.eager && record.scope != Transient && !record.async && !record.constructed() {
		if _, err := c.construct(context.Background(), c, record, false); err != nil {
			c.fail(err)
		}
	}

	return c
}

func (c *container) Has(id ServiceID) bool {
	if c.disposed.Load() {
		return false
	}

	if _, ok := c.records[id]; ok {
		return true
	}

	if _, ok := c.groups[id]; ok {
		return true
	}

	if c.allowExternal() && !c.isDefault() {
		root := c.registry.defaultContainer()

		if record, ok := root.records[id]; ok && record.scope == Singleton {
			return true
		}

		if group, ok := root.groups[id]; ok && group.scope == Singleton {
			return true
		}
	}

	if c.parent != nil && !c.localOnly {
		return c.parent.Has(id)
	}

	return false
}

func (c *container) Remove(ids ...ServiceID) Container {
	if c.disposed.Load() {
		c.fail(newDisposedError(c.id))
		return c
	}

	for _, id := range ids {
		if record, ok := c.records[id]; ok {
			c.release(context.Background(), record)
			delete(c.records, id)
		}

		if group, ok := c.groups[id]; ok {
			for _, token := range group.tokens {
				if record, ok := c.records[token]; ok {
					c.release(context.Background(), record)
					delete(c.records, token)
				}
			}

			delete(c.groups, id)
		}
	}

	return c
}

func (c *container) RegisterHandler(h Handler) Container {
	if c.disposed.Load() {
		c.fail(newDisposedError(c.id))
		return c
	}

	normalized, err := h.normalize()
	if err != nil {
		c.fail(err)
		return c
	}

	c.handlers = append(c.handlers, normalized)

	return c
}

func (c *container) CreateChild(id string, opts ...ContainerOption) Container {
	child := newContainer(id, c, opts)

	if c.disposed.Load() {
		child.fail(newDisposedError(c.id))
	}

	return child
}

func (c *container) isDefault() bool {
	return c.registry.isDefault(c)
}

// allowExternal gates the default-container singleton shortcut.
func (c *container) allowExternal() bool {
	return !c.localOnly && c.allowSingletonLookup
}

// record and group are the local store accessors used by resolution.
func (c *container) record(id ServiceID) *serviceRecord {
	return c.records[id]
}

func (c *container) group(id ServiceID) *tokenGroup {
	return c.groups[id]
}
