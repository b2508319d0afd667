// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	errAccept = errors.New("accept failed")
	errNew    = errors.New("new failed")
	errClose  = errors.New("close failed")
)

type recorder struct {
	seen     []int
	err      error
	closed   bool
	closeErr error
}

func (r *recorder) Accept(_ context.Context, i int) error {
	r.seen = append(r.seen, i)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return r.closeErr
}

type factory struct {
	sub Subscription[int]
	err error
}

func (f factory) New() (Subscription[int], error) {
	return f.sub, f.err
}

func TestNotifyAll(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	first := &recorder{err: errAccept}
	second := &recorder{}
	third := &recorder{}

	require.ErrorIs(NotifyAll[int](ctx, 1, first, second, third), errAccept)
	require.NoError(NotifyAll[int](ctx, 2, second, third))
	require.Equal([]int{1}, first.seen)
	require.Equal([]int{1, 2}, second.seen)
	require.Equal([]int{1, 2}, third.seen)

	require.NoError(NotifyAll[int](ctx, 3))
}

func TestNewSubscriptions(t *testing.T) {
	require := require.New(t)

	built := &recorder{}
	subs, err := NewSubscriptions[int](
		factory{sub: built},
		FactoryFunc[int](func() (Subscription[int], error) {
			return &recorder{}, nil
		}),
	)
	require.NoError(err)
	require.Len(subs, 2)

	leaked := &recorder{closeErr: errClose}
	_, err = NewSubscriptions[int](factory{sub: leaked}, factory{err: errNew})
	require.ErrorIs(err, errNew)
	require.ErrorIs(err, errClose)
	require.True(leaked.closed)

	require.NoError(CloseAll(subs...))
	require.True(built.closed)
}
