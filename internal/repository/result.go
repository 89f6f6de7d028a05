// internal/repository/result.go
package repository

import "context"

// Result is one emission of a sync operation: a tagged success value or a
// tagged failure. Streams carry zero, one, or two of them, in order, and
// terminate by closing the channel.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok tags a success emission.
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Fail tags a failure emission.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// IsSuccess reports whether the emission carries a value.
func (r Result[T]) IsSuccess() bool {
	return r.Err == nil
}

// send delivers one result unless the observer's context is torn down.
// Reports whether the delivery happened.
func send[T any](ctx context.Context, out chan<- Result[T], r Result[T]) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains a result stream to completion. Test and daemon helper.
func Collect[T any](ch <-chan Result[T]) []Result[T] {
	var results []Result[T]
	for r := range ch {
		results = append(results, r)
	}
	return results
}
