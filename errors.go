package tinydi

import (
	"fmt"
	"reflect"
)

var (
	ErrVariadicConstructor         = fmt.Errorf("variadic constructor is not supported")
	ErrConstructorNotAFunction     = fmt.Errorf("constructor must be a function")
	ErrConstructorReturnsOnlyError = fmt.Errorf("constructor must return a service, not only an error")
	ErrConstructorSecondReturn     = fmt.Errorf("constructor second return value must be an error")
	ErrConstructorReturnCount      = fmt.Errorf("constructor must return T or (T, error)")
	ErrMisplacedContext            = fmt.Errorf("context.Context is allowed only as the first parameter")
	ErrContextRequiresAsync        = fmt.Errorf("context.Context parameter requires an Async registration")
	ErrUnsupportedFactory          = fmt.Errorf("factory must be a Factory, FactoryCtx or FactoryRef")
	ErrFactoryRefMissingID         = fmt.Errorf("FactoryRef requires a service ID")
	ErrFactoryRefMissingMethod     = fmt.Errorf("FactoryRef requires a method name")
	ErrMissingServiceID            = fmt.Errorf("registration needs an ID or a Type to infer it from")
	ErrSingularMultiService        = fmt.Errorf("identifier holds a Multiple registration group, use GetMany")
	ErrNilHandlerResolver          = fmt.Errorf("handler needs a Resolve function")
	ErrNilHandlerTarget            = fmt.Errorf("handler needs a Target type")
	ErrAmbiguousHandler            = fmt.Errorf("handler must set exactly one of PropertyName or Index")
	ErrNoSuchField                 = fmt.Errorf("target has no settable field with this name")
	ErrDuplicateContainerID        = fmt.Errorf("container with this id is already registered")
	ErrNilContainer                = fmt.Errorf("got nil container")
)

// idString renders a ServiceID for diagnostics.
func idString(id ServiceID) string {
	switch v := id.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case *Token:
		return v.String()
	case reflect.Type:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

type ContainerNotFoundError struct {
	ID string
}

func newContainerNotFoundError(id string) error {
	return &ContainerNotFoundError{ID: id}
}

func (err *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container %q is not registered", err.ID)
}

type ServiceNotFoundError struct {
	ID          ServiceID
	ContainerID string
}

func newServiceNotFoundError(id ServiceID, containerID string) error {
	return &ServiceNotFoundError{ID: id, ContainerID: containerID}
}

func (err *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service %s not found in container %q", idString(err.ID), err.ContainerID)
}

type CircularDependencyError struct {
	ID   ServiceID
	Path []ServiceID
}

func newCircularDependencyError(id ServiceID, stack []ServiceID) error {
	path := make([]ServiceID, len(stack), len(stack)+1)
	copy(path, stack)

	return &CircularDependencyError{ID: id, Path: append(path, id)}
}

func (err *CircularDependencyError) Error() string {
	path := ""
	for i, id := range err.Path {
		if i > 0 {
			path += " -> "
		}

		path += idString(id)
	}

	return fmt.Sprintf("circular constructor dependency on %s: %s", idString(err.ID), path)
}

type CannotInstantiateError struct {
	ID ServiceID
}

func newCannotInstantiateError(id ServiceID) error {
	return &CannotInstantiateError{ID: id}
}

func (err *CannotInstantiateError) Error() string {
	return fmt.Sprintf("service %s has neither factory nor constructor and no value", idString(err.ID))
}

type CannotInjectError struct {
	cause        error
	Target       reflect.Type
	PropertyName string
}

func newCannotInjectError(cause error, target reflect.Type, propertyName string) error {
	return &CannotInjectError{cause: cause, Target: target, PropertyName: propertyName}
}

func (err *CannotInjectError) Error() string {
	return fmt.Sprintf("cannot inject %s.%s: %s", err.Target, err.PropertyName, err.cause)
}

func (err *CannotInjectError) Unwrap() error {
	return err.cause
}

type DisposedError struct {
	ContainerID string
}

func newDisposedError(containerID string) error {
	return &DisposedError{ContainerID: containerID}
}

func (err *DisposedError) Error() string {
	return fmt.Sprintf("container %q cannot be used after disposal", err.ContainerID)
}

type BadConstructorError struct {
	cause           error
	ConstructorType reflect.Type
}

func newBadConstructorError(cause error, constructorType reflect.Type) error {
	return &BadConstructorError{cause: cause, ConstructorType: constructorType}
}

func (err *BadConstructorError) Error() string {
	return fmt.Sprintf("bad constructor %s: %s", err.ConstructorType, err.cause)
}

func (err *BadConstructorError) Unwrap() error {
	return err.cause
}

type BadFactoryError struct {
	cause   error
	Factory any
}

func newBadFactoryError(cause error, factory any) error {
	return &BadFactoryError{cause: cause, Factory: factory}
}

func (err *BadFactoryError) Error() string {
	return fmt.Sprintf("bad factory %T: %s", err.Factory, err.cause)
}

func (err *BadFactoryError) Unwrap() error {
	return err.cause
}

type BadHandlerError struct {
	cause error
}

func newBadHandlerError(cause error) error {
	return &BadHandlerError{cause: cause}
}

func (err *BadHandlerError) Error() string {
	return fmt.Sprintf("bad handler: %s", err.cause)
}

func (err *BadHandlerError) Unwrap() error {
	return err.cause
}

// ServiceBuilderError wraps any failure raised while building a service,
// preserving the underlying cause.
type ServiceBuilderError struct {
	cause       error
	ID          ServiceID
	ContainerID string
}

func newServiceBuilderError(cause error, id ServiceID, containerID string) error {
	return &ServiceBuilderError{cause: cause, ID: id, ContainerID: containerID}
}

func (err *ServiceBuilderError) Error() string {
	return fmt.Sprintf("cannot build %s in container %q: %s", idString(err.ID), err.ContainerID, err.cause)
}

func (err *ServiceBuilderError) Unwrap() error {
	return err.cause
}

type WrongTypeError struct {
	Expected reflect.Type
	Got      any
}

func newWrongTypeError(expected reflect.Type, got any) error {
	return &WrongTypeError{Expected: expected, Got: got}
}

func (err *WrongTypeError) Error() string {
	return fmt.Sprintf("expected %s, got %T", err.Expected, err.Got)
}
