package salesapi

// Result carries either fetched data or the reason the fetch failed. A
// successful fetch with no rows has a nil Err and empty Data.
type Result[T any] struct {
	Data T
	Err  error
}

// OK wraps a successful fetch.
func OK[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Fail wraps a failed fetch.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Failed reports whether the fetch failed.
func (r Result[T]) Failed() bool { return r.Err != nil }

// Unwrap returns the pair in the usual Go order.
func (r Result[T]) Unwrap() (T, error) { return r.Data, r.Err }
