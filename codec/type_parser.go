// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "fmt"

// TypeParser maps the type ID of a [Typed] object to the function that
// decodes it.
type TypeParser[T Typed] struct {
	typeToIndex    map[string]uint8
	indexToDecoder map[uint8]func(*Packer) (T, error)
}

// NewTypeParser returns an instance of a Typeparser with generic type [T].
func NewTypeParser[T Typed]() *TypeParser[T] {
	return &TypeParser[T]{
		typeToIndex:    map[string]uint8{},
		indexToDecoder: map[uint8]func(*Packer) (T, error){},
	}
}

// Register registers [instance] under its type ID. It errors if either the
// type or the type ID was already registered.
func (p *TypeParser[T]) Register(instance Typed, f func(*Packer) (T, error)) error {
	name := fmt.Sprintf("%T", instance)
	if _, ok := p.typeToIndex[name]; ok {
		return ErrDuplicateItem
	}
	index := instance.GetTypeID()
	if _, ok := p.indexToDecoder[index]; ok {
		return ErrDuplicateItem
	}
	p.typeToIndex[name] = index
	p.indexToDecoder[index] = f
	return nil
}

// LookupIndex returns the decoder function and success of lookup of [index]
// from Typeparser [p].
func (p *TypeParser[T]) LookupIndex(index uint8) (func(*Packer) (T, error), bool) {
	f, ok := p.indexToDecoder[index]
	return f, ok
}

// Len returns the number of registered types.
func (p *TypeParser[T]) Len() int {
	return len(p.indexToDecoder)
}
