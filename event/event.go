// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
)

var _ SubscriptionFactory[struct{}] = (FactoryFunc[struct{}])(nil)

// SubscriptionFactory returns an instance of a concrete Subscription
type SubscriptionFactory[T any] interface {
	New() (Subscription[T], error)
}

// Subscription defines how to consume events
type Subscription[T any] interface {
	// Accept returns fatal errors
	Accept(ctx context.Context, t T) error
	// Close returns fatal errors
	Close() error
}

// FactoryFunc adapts a constructor to [SubscriptionFactory].
type FactoryFunc[T any] func() (Subscription[T], error)

func (f FactoryFunc[T]) New() (Subscription[T], error) {
	return f()
}

// NewSubscriptions builds one subscription from each factory. If any
// factory fails, the subscriptions already built are closed.
func NewSubscriptions[T any](factories ...SubscriptionFactory[T]) ([]Subscription[T], error) {
	subs := make([]Subscription[T], 0, len(factories))
	for _, f := range factories {
		sub, err := f.New()
		if err != nil {
			return nil, errors.Join(err, CloseAll(subs...))
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// NotifyAll delivers [e] to every subscription in order. A failing
// subscription does not prevent delivery to the ones after it.
func NotifyAll[T any](ctx context.Context, e T, subs ...Subscription[T]) error {
	var errs []error
	for _, sub := range subs {
		if err := sub.Accept(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func CloseAll[T any](subs ...Subscription[T]) error {
	var errs []error
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
