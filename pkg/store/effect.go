package store

import (
	"context"

	"github.com/foodit-dev/foodit/pkg/resource"
)

// Fetch returns an Effect that runs fetch through resource.Call and emits
// each emission (Loading, then the terminal outcome) wrapped by wrap.
func Fetch[E, T any](fetch func(context.Context) resource.Resource[T], wrap func(resource.Resource[T]) E, opts ...resource.CallOption) Effect[E] {
	return func(ctx context.Context, emit func(E)) {
		resource.Call(ctx, fetch, func(r resource.Resource[T]) {
			emit(wrap(r))
		}, opts...)
	}
}
