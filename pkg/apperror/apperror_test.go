package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cause := errors.New("connection refused")

	fetch := fmt.Errorf("load page: %w", Fetch("movie", cause))
	assert.True(t, IsFetch(fetch))
	assert.False(t, IsMutation(fetch))
	assert.ErrorIs(t, fetch, cause)

	mutation := Mutation("submit review", cause)
	assert.True(t, IsMutation(mutation))
	assert.Equal(t, "failed to submit review: connection refused", mutation.Error())

	assert.True(t, IsValidation(Validation(nil)))
}

func TestValidationErrorIsSorted(t *testing.T) {
	err := Validation(map[string]string{"rating": "is required", "comment": "must be at least 10 characters"})
	assert.Equal(t, "validation failed: comment must be at least 10 characters, rating is required", err.Error())
	assert.Equal(t, "validation failed", Validation(nil).Error())
}
