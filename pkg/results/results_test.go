package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := SuccessResult[int, error](42)
		assert.True(t, r.IsSuccess())
		assert.False(t, r.IsFailure())
		assert.Equal(t, 42, *r.Success)
	})

	t.Run("failure", func(t *testing.T) {
		wantErr := errors.New("rejected")
		r := FailureResult[int, error](wantErr)
		assert.False(t, r.IsSuccess())
		assert.True(t, r.IsFailure())
		assert.ErrorIs(t, *r.Failure, wantErr)
	})

	t.Run("zero value is neither", func(t *testing.T) {
		var r OperationResult[string, error]
		assert.False(t, r.IsSuccess())
		assert.False(t, r.IsFailure())
	})
}
