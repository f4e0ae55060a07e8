package tinydi

import (
	"context"
	"reflect"
)

// ServiceID addresses a registration. Valid kinds are string (named service),
// *Token (nominal identity) and reflect.Type (obtained via TypeOf).
type ServiceID = any

type Scope int

const (
	// For `ContainerScoped` services one instance is cached per owning container.
	ContainerScoped Scope = iota
	// For `Transient` services a new instance is returned on every resolution.
	Transient
	// For `Singleton` services same instance is shared process-wide,
	// stored on the default container of the registry.
	Singleton
)

func (s Scope) String() string {
	switch s {
	case ContainerScoped:
		return "Container"
	case Transient:
		return "Transient"
	case Singleton:
		return "Singleton"
	default:
		return "Unknown"
	}
}

type ResetStrategy int

const (
	// ResetValue disposes constructed instances but keeps registrations,
	// so the next resolution rebuilds fresh instances.
	ResetValue ResetStrategy = iota
	// ResetServices additionally clears registrations, multi-registration
	// groups and this container's own handlers.
	ResetServices
)

type ResetOptions struct {
	Strategy ResetStrategy
}

// Manages service registrations, their resolution and their lifetime scope.
// This interface is sealed.
type Container interface {
	sealed()

	// Returns this container's id within its registry.
	ID() string
	// Returns the first registration error stored by chained calls, if any.
	Err() error

	// Registers a service. Returns the container for chaining; malformed
	// input is stored as the container error instead of being returned.
	Set(options ServiceOptions) Container
	// Resolves a single service by its identifier.
	Get(id ServiceID) (any, error)
	// Resolves a single service, passing ctx into context-aware
	// constructors, factories and OnInit hooks.
	GetCtx(ctx context.Context, id ServiceID) (any, error)
	// Resolves every value registered under a Multiple identifier,
	// in registration order.
	GetMany(id ServiceID) ([]any, error)
	GetManyCtx(ctx context.Context, id ServiceID) ([]any, error)
	// Reports whether the identifier is resolvable from this container.
	// A disposed container reports false for every identifier.
	Has(id ServiceID) bool
	// Removes local registrations, tearing down constructed instances.
	Remove(ids ...ServiceID) Container

	// Appends an injection directive to this container's own handler list.
	RegisterHandler(h Handler) Container

	// Creates a child container registered in the same registry.
	CreateChild(id string, opts ...ContainerOption) Container

	// Constructs all eager and async services and runs pending OnInit hooks.
	Init(ctx context.Context) error
	// Tears down every constructed instance and marks the container
	// disposed. Every later call fails with a DisposedError.
	Dispose(ctx context.Context) error
	// Close is Dispose with a background context, so a container
	// satisfies io.Closer.
	Close() error
	// Clears instances and, depending on strategy, registrations.
	Reset(options ResetOptions) error
}

var containerInterface = reflect.TypeOf((*Container)(nil)).Elem()

// TypeOf returns the reflect.Type of T, the type-reference form of ServiceID.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get resolves a service registered under TypeOf[T]().
func Get[T any](c Container) (T, error) {
	return GetNamed[T](c, TypeOf[T]())
}

// GetNamed resolves a service registered under an arbitrary identifier
// and asserts it to T.
func GetNamed[T any](c Container, id ServiceID) (T, error) {
	v, err := c.Get(id)
	if err != nil {
		var zero T
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, newServiceBuilderError(newWrongTypeError(TypeOf[T](), v), id, c.ID())
	}

	return t, nil
}

// MustGet is Get that panics on error.
func MustGet[T any](c Container) T {
	v, err := Get[T](c)
	if err != nil {
		panic(err)
	}

	return v
}

// GetManyOf resolves a Multiple registration group and asserts every
// value to T, preserving registration order.
func GetManyOf[T any](c Container, id ServiceID) ([]T, error) {
	values, err := c.GetMany(id)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(values))
	for _, v := range values {
		t, ok := v.(T)
		if !ok {
			return nil, newServiceBuilderError(newWrongTypeError(TypeOf[T](), v), id, c.ID())
		}

		result = append(result, t)
	}

	return result, nil
}

// Val wraps a literal value for ServiceOptions.Value. The pointer is what
// distinguishes "no value supplied" from a supplied nil, zero or false.
func Val(v any) *any {
	return &v
}
