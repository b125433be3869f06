package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{CodePersistence, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("weird"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestErrorsIs(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("get one: %w", Persistence("tracker.GetOne", cause))

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFrom(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})

	t.Run("app_error_passes_through", func(t *testing.T) {
		ae := From(Validation("bad body", FieldError{Field: "value", Message: "value is required"}))
		assert.Equal(t, CodeValidation, ae.Code)
		assert.Len(t, ae.Fields, 1)
	})

	t.Run("plain_error_is_internal", func(t *testing.T) {
		ae := From(errors.New("boom"))
		assert.Equal(t, CodeInternal, ae.Code)
		assert.Equal(t, "internal error", ae.Message)
	})
}
