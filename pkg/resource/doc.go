// Package resource provides the tri-state result type returned by FoodIt
// repositories and consumed by view-models.
//
// A Resource is exactly one of:
//
//   - Loading: a call is in flight (or has stopped being in flight)
//   - Success: the call produced a result
//   - Failure: the call failed with an ErrorKind
//
// Every asynchronous call produces exactly one terminal outcome (Success or
// Failure), optionally preceded by a single Loading emission.
//
// Basic Usage:
//
//	res := repo.GetAll(ctx)
//
//	resource.Match(res,
//	    func(loading bool) { ... },
//	    func(list []restaurant.Restaurant) { ... },
//	    func(kind resource.ErrorKind) { toast.Error(resource.Message(kind)) },
//	)
//
// Inside an effect, Call wraps a blocking fetcher and emits the Loading
// marker followed by the terminal outcome:
//
//	resource.Call(ctx, func(ctx context.Context) resource.Resource[[]Restaurant] {
//	    return repo.GetAll(ctx)
//	}, func(r resource.Resource[[]Restaurant]) { emit(restaurantsLoaded{r}) })
package resource
