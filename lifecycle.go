package tinydi

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Disposable is the explicit teardown capability a service can implement.
// io.Closer is honored as well for services that already follow that
// convention.
type Disposable interface {
	Dispose() error
}

// Init constructs every eager or async service that has no instance yet and
// runs pending OnInit hooks for async services that were constructed through
// the synchronous path. The fan-out is serialized to one worker: container
// state is single-threaded cooperative, the errgroup only provides the
// join-and-first-error shape.
func (c *container) Init(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(1)

	// Constructing may pull global definitions down into this container,
	// so iterate over a snapshot of the store.
	records := make([]*serviceRecord, 0, len(c.records))
	for _, record := range c.records {
		records = append(records, record)
	}

	for _, record := range records {
		record := record

		switch {
		case !record.constructed() && (record.eager || record.async):
			g.Go(func() error {
				_, err := c.construct(ctx, c, record, true)
				return err
			})
		case record.constructed() && record.async:
			g.Go(func() error {
				return c.runPendingInit(ctx, record, *record.value, true)
			})
		}
	}

	return g.Wait()
}

// Dispose tears down every constructed instance concurrently, then clears
// the store and permanently marks the container disposed. One service's
// teardown failure is logged and never blocks the others.
func (c *container) Dispose(ctx context.Context) error {
	if c.disposed.Load() {
		return newDisposedError(c.id)
	}

	var g errgroup.Group

	for _, record := range c.records {
		record := record
		if !record.constructed() {
			continue
		}

		g.Go(func() error {
			c.release(ctx, record)
			return nil
		})
	}

	_ = g.Wait()

	c.records = make(map[ServiceID]*serviceRecord)
	c.groups = make(map[ServiceID]*tokenGroup)
	c.disposed.Store(true)

	return nil
}

func (c *container) Close() error {
	return c.Dispose(context.Background())
}

func (c *container) Reset(options ResetOptions) error {
	if c.disposed.Load() {
		return newDisposedError(c.id)
	}

	ctx := context.Background()
	for _, record := range c.records {
		if record.constructed() {
			c.release(ctx, record)
		}
	}

	if options.Strategy == ResetServices {
		c.records = make(map[ServiceID]*serviceRecord)
		c.groups = make(map[ServiceID]*tokenGroup)
		// Clearing only this container's handlers keeps handler state from
		// leaking across reset boundaries without touching any ancestor.
		c.handlers = nil
	}

	c.err = &atomic.Value{}

	return nil
}

// release runs teardown hooks for a record's instance and empties its value.
// Failures are logged, not propagated.
func (c *container) release(ctx context.Context, record *serviceRecord) {
	if !record.constructed() {
		return
	}

	instance := *record.value

	if record.lifecycle != nil && record.lifecycle.OnDestroy != nil {
		if err := record.lifecycle.OnDestroy(ctx, instance); err != nil {
			logger().Error(
				"OnDestroy failed",
				"service", idString(record.id),
				"container", c.id,
				"error", err,
			)
		}
	}

	switch v := instance.(type) {
	case Disposable:
		if err := v.Dispose(); err != nil {
			logger().Error(
				"Dispose failed",
				"service", idString(record.id),
				"container", c.id,
				"error", err,
			)
		}
	case io.Closer:
		if err := v.Close(); err != nil {
			logger().Error(
				"Close failed",
				"service", idString(record.id),
				"container", c.id,
				"error", err,
			)
		}
	}

	record.clear()
}
