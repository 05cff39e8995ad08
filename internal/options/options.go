package options

import (
	"errors"
	"fmt"

	"github.com/arloliu/sensorpipe/errs"
)

// Option configures a target of type T, typically a pointer to a component's
// settings struct (reader, engine, pipeline, processor).
type Option[T any] interface {
	apply(T) error
}

// Func adapts a plain function to the Option interface.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an option from a function that may reject its argument.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies opts to target in order and stops at the first failure.
//
// Option failures are configuration errors: the returned error always matches
// errs.ErrInvalidConfig in addition to whatever sentinel the option itself wrapped.
// Nil options are skipped.
func Apply[T any](target T, opts ...Option[T]) error {
	for i, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			if errors.Is(err, errs.ErrInvalidConfig) {
				return fmt.Errorf("option %d: %w", i, err)
			}

			return fmt.Errorf("option %d: %w: %w", i, errs.ErrInvalidConfig, err)
		}
	}

	return nil
}
