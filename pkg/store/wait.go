package store

import "context"

// WaitFor blocks until the store's state satisfies pred, ctx is done or the
// store closes, and returns the matching snapshot.
func WaitFor[S, E any](ctx context.Context, s *Store[S, E], pred func(S) bool) (S, error) {
	matched := make(chan S, 1)
	unsubscribe := s.Subscribe(func(state S) {
		if pred(state) {
			select {
			case matched <- state:
			default:
			}
		}
	})
	defer unsubscribe()

	select {
	case state := <-matched:
		return state, nil
	case <-ctx.Done():
		var zero S
		return zero, ctx.Err()
	case <-s.Done():
		var zero S
		return zero, ErrClosed
	}
}
