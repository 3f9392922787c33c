package resource

// Match calls the handler for r's variant. Nil handlers are skipped.
func Match[T any](r Resource[T], onLoading func(bool), onSuccess func(T), onFailure func(ErrorKind)) {
	switch v := r.(type) {
	case Loading[T]:
		if onLoading != nil {
			onLoading(v.IsLoading)
		}
	case Success[T]:
		if onSuccess != nil {
			onSuccess(v.Result)
		}
	case Failure[T]:
		if onFailure != nil {
			onFailure(v.Err)
		}
	}
}

// Fold is Match with a return value.
func Fold[T, R any](r Resource[T], onLoading func(bool) R, onSuccess func(T) R, onFailure func(ErrorKind) R) R {
	switch v := r.(type) {
	case Loading[T]:
		return onLoading(v.IsLoading)
	case Success[T]:
		return onSuccess(v.Result)
	case Failure[T]:
		return onFailure(v.Err)
	}
	var zero R
	return zero
}
