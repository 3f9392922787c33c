// Package store provides the single-writer state container behind every
// FoodIt view-model.
//
// A Store owns an immutable snapshot of screen state and one goroutine, the
// event loop, that is the only writer of that snapshot. Callers Dispatch
// events; the loop runs the Reducer, which returns the next state, the
// effects to start and the toasts to surface:
//
//	func reduce(s State, e Event) store.Update[State, Event] {
//	    switch e := e.(type) {
//	    case refresh:
//	        s.IsRefreshing = true
//	        return store.Next(s, fetchRestaurants(repo))
//	    case loaded:
//	        ...
//	    }
//	    return store.Next[State, Event](s)
//	}
//
// Effects run on their own goroutines and report back by emitting events,
// so results of asynchronous repository calls flow through the reducer like
// any other event. State is replaced wholesale under lock; observers never
// see a partially applied update.
//
// Toasts go to a separate toast.Queue and are delivered once.
package store
