// NOTE: resolution is two-phased on purpose: "construct" participates in
// the resolution stack and is cycle-checked, "wire" (property handlers and
// OnInit) runs after the id is popped and the value is cached. That is what
// lets mutual property references resolve against the already-cached
// instance while mutual constructor references are rejected.
package tinydi

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
)

func (c *container) Get(id ServiceID) (any, error) {
	return c.get(context.Background(), id, c, false)
}

func (c *container) GetCtx(ctx context.Context, id ServiceID) (any, error) {
	return c.get(ctx, id, c, true)
}

func (c *container) GetMany(id ServiceID) ([]any, error) {
	return c.getMany(context.Background(), id, false)
}

func (c *container) GetManyCtx(ctx context.Context, id ServiceID) ([]any, error) {
	return c.getMany(ctx, id, true)
}

// get implements the lookup algorithm: prefer a globally registered
// singleton, then the local record, then pull a global container-scoped
// definition down into this container, then delegate to the parent chain.
func (c *container) get(ctx context.Context, id ServiceID, requester *container, withCtx bool) (any, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	local := c.record(id)

	var global *serviceRecord
	root := c.registry.defaultContainer()
	if c.allowExternal() && root != c {
		global = root.record(id)
	}

	if c.hasGroup(id, root) {
		return nil, newServiceBuilderError(ErrSingularMultiService, id, c.id)
	}

	preferred, owner := local, c
	if global != nil && global.scope == Singleton {
		preferred, owner = global, root
	}

	if preferred != nil {
		if preferred.async && !withCtx {
			preferred.asyncWarn.Do(func() {
				logger().Warn(
					"synchronous Get on an Async service, OnInit will not run until Init or GetCtx",
					"service", idString(id),
					"container", c.id,
				)
			})
		}

		return owner.construct(ctx, requester, preferred, withCtx)
	}

	// A container-scoped service registered globally is cloned down with
	// an empty value, so this container caches its own instance. The clone
	// happens before construction to keep recursion from looping.
	if global != nil && !c.isDefault() {
		clone := &serviceRecord{
			id:        global.id,
			typ:       global.typ,
			factory:   global.factory,
			eager:     global.eager,
			async:     global.async,
			scope:     global.scope,
			lifecycle: global.lifecycle,
			ctor:      global.ctor,
		}
		c.records[id] = clone

		return c.construct(ctx, requester, clone, withCtx)
	}

	if c.parent != nil && !c.localOnly {
		return c.parent.get(ctx, id, requester, withCtx)
	}

	return nil, newServiceNotFoundError(id, c.id)
}

func (c *container) hasGroup(id ServiceID, root *container) bool {
	if c.group(id) != nil {
		return true
	}

	if c.allowExternal() && root != c {
		if group := root.group(id); group != nil && group.scope == Singleton {
			return true
		}
	}

	return false
}

func (c *container) getMany(ctx context.Context, id ServiceID, withCtx bool) ([]any, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	group, owner := c.group(id), c

	if group == nil && c.allowExternal() && !c.isDefault() {
		root := c.registry.defaultContainer()
		if g := root.group(id); g != nil && g.scope == Singleton {
			group, owner = g, root
		}
	}

	if group == nil {
		return nil, newServiceNotFoundError(id, c.id)
	}

	values := make([]any, 0, len(group.tokens))
	for _, token := range group.tokens {
		v, err := owner.get(ctx, token, c, withCtx)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

// construct is the memoizing construction entry. The record's id sits on
// the owner's resolution stack only while the instance is built; property
// wiring and OnInit run after the pop.
func (c *container) construct(ctx context.Context, requester *container, record *serviceRecord, withCtx bool) (any, error) {
	if record.constructed() {
		// an instance built through the synchronous path still owes its
		// OnInit hook to the first context-aware resolution
		if err := c.runPendingInit(ctx, record, *record.value, withCtx); err != nil {
			return nil, err
		}

		return *record.value, nil
	}

	if record.factory == nil && record.typ == nil {
		return nil, newServiceBuilderError(newCannotInstantiateError(record.id), record.id, c.id)
	}

	if slices.Contains(c.stack, record.id) {
		return nil, newCircularDependencyError(record.id, c.stack)
	}

	c.stack = append(c.stack, record.id)
	value, err := c.build(ctx, requester, record, withCtx)
	c.stack = c.stack[:len(c.stack)-1]

	if err != nil {
		return nil, err
	}

	if record.scope != Transient {
		record.store(value)
	}

	if err := c.applyPropertyHandlers(requester, value); err != nil {
		return nil, err
	}

	if err := c.runPendingInit(ctx, record, value, withCtx); err != nil {
		return nil, err
	}

	return value, nil
}

// runPendingInit fires the OnInit hook once per instance, on the
// context-aware path only.
func (c *container) runPendingInit(ctx context.Context, record *serviceRecord, instance any, withCtx bool) error {
	if !withCtx || record.lifecycle == nil || record.lifecycle.OnInit == nil || record.initialized {
		return nil
	}

	// transient resolutions each produce a fresh instance, so the
	// once-per-instance latch only applies to cached scopes
	if record.scope != Transient {
		record.initialized = true
	}

	if err := record.lifecycle.OnInit(ctx, instance); err != nil {
		return newServiceBuilderError(err, record.id, c.id)
	}

	return nil
}

// build invokes the record's factory or constructor with panic recovery.
func (c *container) build(ctx context.Context, requester *container, record *serviceRecord, withCtx bool) (service any, err error) {
	defer func() {
		if rp := recover(); rp != nil {
			err = newServiceBuilderError(
				fmt.Errorf("recovered from panic: %v", rp),
				record.id,
				c.id,
			)
		}
	}()

	switch factory := record.factory.(type) {
	case nil:
	case Factory:
		service, err = factory(requester, record.id)
		if err != nil {
			return nil, newServiceBuilderError(err, record.id, c.id)
		}

		return service, nil
	case FactoryCtx:
		service, err = factory(ctx, requester, record.id)
		if err != nil {
			return nil, newServiceBuilderError(err, record.id, c.id)
		}

		return service, nil
	case FactoryRef:
		return c.buildFromFactoryRef(ctx, requester, record, factory, withCtx)
	default:
		return nil, newServiceBuilderError(newBadFactoryError(ErrUnsupportedFactory, factory), record.id, c.id)
	}

	return c.buildFromConstructor(ctx, requester, record, withCtx)
}

// buildFromFactoryRef resolves the factory service and calls the named
// method with the owning container and the requested identifier.
func (c *container) buildFromFactoryRef(
	ctx context.Context, requester *container, record *serviceRecord, ref FactoryRef, withCtx bool,
) (any, error) {
	factoryInstance, err := c.get(ctx, ref.ID, c, withCtx)

	var notFound *ServiceNotFoundError
	if err != nil && errors.As(err, &notFound) && c.factoryFallback {
		factoryInstance, err = bareConstruct(ref.ID)
	}
	if err != nil {
		return nil, newServiceBuilderError(err, record.id, c.id)
	}

	method := reflect.ValueOf(factoryInstance).MethodByName(ref.Method)
	if !method.IsValid() {
		return nil, newServiceBuilderError(
			newBadFactoryError(fmt.Errorf("%T has no method %s", factoryInstance, ref.Method), ref),
			record.id,
			c.id,
		)
	}

	results := method.Call([]reflect.Value{reflect.ValueOf(Container(requester)), reflect.ValueOf(record.id)})

	return interpretResults(results, record.id, c.id)
}

// bareConstruct is the opt-in FactoryRef fallback: the referenced type is
// built with reflect.New, bypassing its own dependency injection.
func bareConstruct(id ServiceID) (any, error) {
	t, ok := id.(reflect.Type)
	if !ok {
		return nil, newServiceNotFoundError(id, "")
	}

	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface(), nil
	}

	return reflect.New(t).Elem().Interface(), nil
}

// buildFromConstructor resolves the constructor's parameters in declared
// order and calls it. A parameter handler wins over by-type resolution;
// a Container parameter receives the requesting container.
func (c *container) buildFromConstructor(ctx context.Context, requester *container, record *serviceRecord, withCtx bool) (any, error) {
	info := record.ctor
	args := make([]reflect.Value, 0, info.t.NumIn())

	for i := 0; i < info.t.NumIn(); i++ {
		argT := info.t.In(i)

		switch {
		case i == 0 && info.withCtx:
			args = append(args, reflect.ValueOf(ctx))
		case argT == containerInterface:
			args = append(args, reflect.ValueOf(Container(requester)))
		default:
			value, err := c.resolveParameter(ctx, requester, record, argT, i, withCtx)
			if err != nil {
				return nil, err
			}

			reflected := reflect.ValueOf(value)
			if !reflected.IsValid() {
				reflected = reflect.Zero(argT)
			} else if !reflected.Type().AssignableTo(argT) {
				return nil, newServiceBuilderError(newWrongTypeError(argT, value), record.id, c.id)
			}

			args = append(args, reflected)
		}
	}

	return interpretResults(info.fn.Call(args), record.id, c.id)
}

func (c *container) resolveParameter(
	ctx context.Context, requester *container, record *serviceRecord, argT reflect.Type, index int, withCtx bool,
) (any, error) {
	if handler := c.findParameterHandler(record.ctor.out, index); handler != nil {
		value, err := handler.Resolve(requester)
		if err != nil {
			return nil, newServiceBuilderError(
				newCannotInjectError(err, record.ctor.out, fmt.Sprintf("parameter %d", index)),
				record.id,
				c.id,
			)
		}

		return value, nil
	}

	value, err := c.get(ctx, argT, c, withCtx)
	if err != nil {
		return nil, newServiceBuilderError(err, record.id, c.id)
	}

	return value, nil
}

func interpretResults(results []reflect.Value, id ServiceID, containerID string) (any, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if err, ok := results[1].Interface().(error); ok && err != nil {
			return nil, newServiceBuilderError(err, id, containerID)
		}

		return results[0].Interface(), nil
	default:
		return nil, newServiceBuilderError(
			fmt.Errorf("unexpected result count %d", len(results)),
			id,
			containerID,
		)
	}
}
