// Package results provides the generic outcome type returned by service operations.
//
// A service call has three possible shapes:
//   - Success set: the operation completed.
//   - Failure set: a business-level failure (policy rejection, not found, conflict).
//     Handlers publish a failure event and acknowledge the message.
//   - A non-nil error alongside an empty result: an infrastructure failure that
//     callers should surface or retry.
package results

// OperationResult carries either a success payload or a domain failure.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult builds a result carrying a success payload.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult builds a result carrying a failure payload.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

// IsSuccess reports whether the result holds a success payload.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether the result holds a failure payload.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}
