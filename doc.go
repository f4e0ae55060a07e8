/*
This package provides an in-process inversion-of-control container: services
are registered under an identifier (a string, a *Token or a reflect.Type) and
constructed lazily with their dependencies injected, once per scope.

To install tinydi:

	go get -u github.com/andriiyaremenko/tinydi

How to use:

	type Storage interface {
		Load(key string) (string, error)
	}

	type memoryStorage struct{}

	func (memoryStorage) Load(key string) (string, error) { return "", nil }

	type Greeter struct {
		Storage Storage
	}

	func NewGreeter(storage Storage) *Greeter {
		return &Greeter{Storage: storage}
	}

	c := tinydi.New("app")
	c.
		Set(tinydi.ServiceOptions{
			ID:    tinydi.TypeOf[Storage](),
			Type:  func() Storage { return memoryStorage{} },
			Scope: tinydi.Singleton,
		}).
		Set(tinydi.ServiceOptions{Type: NewGreeter})
	if err := c.Err(); err != nil {
		// handle error
	}

	greeter, err := tinydi.Get[*Greeter](c)
	if err != nil {
		// handle error
	}

	// use greeter

Scopes:

	tinydi.ContainerScoped - one instance per owning container (default)
	tinydi.Singleton       - one instance process-wide, kept on the default container
	tinydi.Transient       - a new instance on every resolution

Registrations take a constructor (Type), a factory (Factory, FactoryCtx or
FactoryRef) or a literal value (Value, wrapped with tinydi.Val). Multiple
values can be grouped under one identifier with Multiple and fetched in
registration order with GetMany. Handlers registered with RegisterHandler
inject struct fields or constructor parameters declaratively and are
inherited by child containers created with CreateChild.

Lifecycle: Eager services are built at registration, Async services are the
contract of Init, which also runs OnInit hooks. Dispose tears every instance
down (OnDestroy, then Dispose or Close on the instance), tolerating partial
failures, and permanently disposes the container. Reset clears instances
(ResetValue) or the whole registration state including this container's
handlers (ResetServices).

Constructor templates:
  - func(T1, T2, ...) [T|(T, error)] - any scope
  - func(context.Context, T1, T2, ...) [T|(T, error)] - Async registrations only
  - a parameter of type tinydi.Container receives the requesting container
*/
package tinydi
