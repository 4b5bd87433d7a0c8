package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesKind(t *testing.T) {
	err := fmt.Errorf("bulk replace: %w", InvalidItem(3, "name", "is required"))

	assert.ErrorIs(t, err, ErrValidation)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, 3, ve.Index)
	assert.Contains(t, err.Error(), "index 3")
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Invalid("ficha", "is required"), http.StatusBadRequest},
		{fmt.Errorf("restore: %w", ErrInvalidFormat), http.StatusBadRequest},
		{NotFound("product", 7), http.StatusNotFound},
		{ErrDenied, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("put object: %w", ErrStorageFailure), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: connection refused")))
	assert.Equal(t, "product 9: not found", Message(NotFound("product", 9)))
}
