package tinydi

import (
	"context"
	"reflect"
	"sync"
)

// Lifecycle carries optional per-service hooks. OnInit runs after a service
// is constructed and wired on the context-aware path (GetCtx or Init);
// OnDestroy runs before the instance is released.
type Lifecycle struct {
	OnInit    func(ctx context.Context, instance any) error
	OnDestroy func(ctx context.Context, instance any) error
}

// FactoryRef names a registered service and a method on it that builds the
// target service. The method is called with the owning container and the
// service identifier being resolved.
type FactoryRef struct {
	ID     ServiceID
	Method string
}

// Factory is the plain factory function form.
type Factory = func(c Container, id ServiceID) (any, error)

// FactoryCtx is the context-aware factory function form, allowed only for
// Async registrations.
type FactoryCtx = func(ctx context.Context, c Container, id ServiceID) (any, error)

// ServiceOptions describes a registration passed to Container.Set.
type ServiceOptions struct {
	// ID addresses the registration; when omitted it is inferred from the
	// Type constructor's first return type.
	ID ServiceID
	// Type is a constructor function func(deps...) (T[, error]).
	// Parameters are resolved from the container by their reflect.Type
	// unless a parameter handler overrides them; a Container parameter
	// receives the requesting container; a leading context.Context
	// parameter is allowed only together with Async.
	Type any
	// Factory is a Factory, FactoryCtx or FactoryRef; it takes precedence
	// over Type.
	Factory any
	// Value registers a literal instance, wrapped with Val so that nil and
	// zero values stay distinguishable from "not supplied".
	Value *any
	// Multiple appends this registration to an ordered group under ID
	// instead of replacing it; the group is fetched with GetMany.
	Multiple bool
	// Eager constructs the service at registration time (unless Transient
	// or Async; Async eager services are the contract of Init).
	Eager bool
	// Async marks the service as context-aware: its constructor or factory
	// may take a context and its OnInit hook runs on the GetCtx/Init path.
	Async bool
	// Scope defaults to ContainerScoped.
	Scope Scope
	// Lifecycle hooks, optional.
	Lifecycle *Lifecycle
}

type serviceRecord struct {
	id        ServiceID
	typ       any
	factory   any
	value     *any
	eager     bool
	async     bool
	scope     Scope
	lifecycle *Lifecycle

	// set once the OnInit hook has run for the current instance
	initialized bool

	ctor      *constructorInfo
	asyncWarn sync.Once
}

func (r *serviceRecord) constructed() bool {
	return r.value != nil
}

func (r *serviceRecord) store(v any) {
	r.value = &v
}

func (r *serviceRecord) clear() {
	r.value = nil
	r.initialized = false
}

// constructorInfo is the pre-computed shape of a Type constructor.
type constructorInfo struct {
	fn        reflect.Value
	t         reflect.Type
	out       reflect.Type
	withError bool
	withCtx   bool
}

var (
	errorInterface   = reflect.TypeOf((*error)(nil)).Elem()
	contextInterface = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// parseConstructor validates a Type constructor against the supported
// templates and captures its call shape. A context.Context parameter is
// allowed only in first position and only for Async registrations, since
// the synchronous path has no caller context to hand it.
func parseConstructor(ctor any, async bool) (*constructorInfo, error) {
	t := reflect.TypeOf(ctor)

	if t == nil || t.Kind() != reflect.Func {
		return nil, newBadConstructorError(ErrConstructorNotAFunction, t)
	}

	if t.IsVariadic() {
		return nil, newBadConstructorError(ErrVariadicConstructor, t)
	}

	info := &constructorInfo{fn: reflect.ValueOf(ctor), t: t}

	for i := 0; i < t.NumIn(); i++ {
		argT := t.In(i)
		if !argT.Implements(contextInterface) {
			continue
		}

		if i > 0 {
			return nil, newBadConstructorError(ErrMisplacedContext, t)
		}

		if !async {
			return nil, newBadConstructorError(ErrContextRequiresAsync, t)
		}

		info.withCtx = true
	}

	switch t.NumOut() {
	case 1:
		if out := t.Out(0); out.Implements(errorInterface) {
			return nil, newBadConstructorError(ErrConstructorReturnsOnlyError, t)
		}
	case 2:
		info.withError = true

		if errType := t.Out(1); !errType.Implements(errorInterface) {
			return nil, newBadConstructorError(ErrConstructorSecondReturn, t)
		}
	default:
		return nil, newBadConstructorError(ErrConstructorReturnCount, t)
	}

	info.out = t.Out(0)

	return info, nil
}

// validateFactory checks the Factory field against the accepted forms.
func validateFactory(factory any, async bool) error {
	switch f := factory.(type) {
	case Factory:
		return nil
	case FactoryCtx:
		if !async {
			return newBadFactoryError(ErrContextRequiresAsync, factory)
		}

		return nil
	case FactoryRef:
		if f.ID == nil {
			return newBadFactoryError(ErrFactoryRefMissingID, factory)
		}

		if f.Method == "" {
			return newBadFactoryError(ErrFactoryRefMissingMethod, factory)
		}

		return nil
	default:
		return newBadFactoryError(ErrUnsupportedFactory, factory)
	}
}
