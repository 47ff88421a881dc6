package domain

// Result is the consumer contract shared by every engine and the fusion layer.
// A nil Data means "not yet available", never "empty".
type Result[T any] struct {
	Data    *T      `json:"data"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
}

// Ready wraps a loaded value.
func Ready[T any](v *T) Result[T] {
	return Result[T]{Data: v}
}

// Pending is the result of a source still loading. last may carry the
// previous value.
func Pending[T any](last *T) Result[T] {
	return Result[T]{Data: last, Loading: true}
}

// Failed reports err, keeping the last known good value if any.
func Failed[T any](last *T, err error) Result[T] {
	msg := err.Error()
	return Result[T]{Data: last, Error: &msg}
}

// Available reports whether data is present.
func (r Result[T]) Available() bool {
	return r.Data != nil
}
