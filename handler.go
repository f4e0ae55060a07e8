package tinydi

import (
	"reflect"
)

// Handler is a declarative injection directive: it names a target type and
// either a struct field (property injection) or a constructor-parameter
// index, plus the function that produces the dependency. The Resolve
// function always receives the requesting container, which is not
// necessarily the container the handler was registered on.
type Handler struct {
	// Target identifies the type the directive was declared on. Both T and
	// *T are accepted and normalized to the struct type.
	Target any
	// PropertyName is the struct field to set; empty for parameter handlers.
	PropertyName string
	// Index is the constructor-parameter position; negative for property
	// handlers.
	Index int

	Resolve func(c Container) (any, error)

	target reflect.Type
}

// PropertyHandler declares field injection on T.
func PropertyHandler[T any](field string, resolve func(c Container) (any, error)) Handler {
	return Handler{Target: TypeOf[T](), PropertyName: field, Index: -1, Resolve: resolve}
}

// ParameterHandler declares constructor-parameter injection on T.
func ParameterHandler[T any](index int, resolve func(c Container) (any, error)) Handler {
	return Handler{Target: TypeOf[T](), Index: index, Resolve: resolve}
}

func (h Handler) normalize() (Handler, error) {
	if h.Resolve == nil {
		return h, newBadHandlerError(ErrNilHandlerResolver)
	}

	if h.PropertyName != "" && h.Index >= 0 {
		return h, newBadHandlerError(ErrAmbiguousHandler)
	}

	if h.PropertyName == "" && h.Index < 0 {
		return h, newBadHandlerError(ErrAmbiguousHandler)
	}

	t, ok := h.Target.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(h.Target)
	}

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil {
		return h, newBadHandlerError(ErrNilHandlerTarget)
	}

	h.target = t

	return h, nil
}

func (h Handler) isProperty() bool {
	return h.PropertyName != ""
}

// allHandlers returns this container's handlers followed by every
// ancestor's, most local first. The seen set tolerates degenerate
// hierarchies wired into a cycle.
func (c *container) allHandlers() []Handler {
	handlers := make([]Handler, 0, len(c.handlers))
	seen := make(map[string]bool)

	for node := c; node != nil; node = node.parent {
		if seen[node.id] {
			break
		}

		seen[node.id] = true
		handlers = append(handlers, node.handlers...)
	}

	return handlers
}

// typeAncestors returns t followed by its embedded struct types, depth
// first in declaration order. Embedding is the Go counterpart of the
// inheritance chain: a handler declared against a base struct applies to
// every type that embeds it.
func typeAncestors(t reflect.Type) []reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil {
		return nil
	}

	ancestors := []reflect.Type{t}

	if t.Kind() != reflect.Struct {
		return ancestors
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}

		ancestors = append(ancestors, typeAncestors(field.Type)...)
	}

	return ancestors
}

// findParameterHandler matches most-derived first: an exact target match
// wins over one declared on an embedded ancestor.
func (c *container) findParameterHandler(target reflect.Type, index int) *Handler {
	handlers := c.allHandlers()

	for _, ancestor := range typeAncestors(target) {
		for i := range handlers {
			h := &handlers[i]
			if !h.isProperty() && h.Index == index && h.target == ancestor {
				return h
			}
		}
	}

	return nil
}

// applyPropertyHandlers wires an instance after construction. Each field is
// set at most once, by the most local applicable handler; fields promoted
// from embedded structs are reached through FieldByName.
func (c *container) applyPropertyHandlers(requester *container, instance any) error {
	value := reflect.ValueOf(instance)
	if !value.IsValid() || value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return nil
	}

	handlers := c.allHandlers()
	applied := make(map[string]bool)

	// most-derived target first, then registration locality, matching
	// findParameterHandler
	for _, ancestor := range typeAncestors(value.Type()) {
		for _, h := range handlers {
			if !h.isProperty() || h.target != ancestor || applied[h.PropertyName] {
				continue
			}

			field := value.Elem().FieldByName(h.PropertyName)
			if !field.IsValid() || !field.CanSet() {
				return newCannotInjectError(ErrNoSuchField, h.target, h.PropertyName)
			}

			resolved, err := h.Resolve(requester)
			if err != nil {
				return newCannotInjectError(err, h.target, h.PropertyName)
			}

			reflected := reflect.ValueOf(resolved)
			if !reflected.IsValid() {
				reflected = reflect.Zero(field.Type())
			} else if !reflected.Type().AssignableTo(field.Type()) {
				return newCannotInjectError(newWrongTypeError(field.Type(), resolved), h.target, h.PropertyName)
			}

			field.Set(reflected)
			applied[h.PropertyName] = true
		}
	}

	return nil
}
