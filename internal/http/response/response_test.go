package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dextrack/internal/apperr"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"unauthenticated", apperr.Unauthenticated("invalid token", errors.New("sig")), http.StatusUnauthorized, "unauthenticated", "invalid token"},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "forbidden", "nope"},
		{"validation", apperr.Validation("bad", apperr.FieldError{Field: "value", Message: "value is required"}), http.StatusBadRequest, "validation_failed", "bad"},
		{"not_found", apperr.NotFound("missing"), http.StatusNotFound, "not_found", "missing"},
		{"persistence_hides_detail", apperr.Persistence("tracker.GetAll", errors.New("dial tcp 10.0.0.3:5432")), http.StatusInternalServerError, "persistence_error", "internal server error"},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			rr.Header().Set(HeaderXRequestID, "req-1")
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			Err(rr, req, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotContains(t, rr.Body.String(), "10.0.0.3")

			var env Envelope
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMessage, env.Error.Message)
			assert.Equal(t, "req-1", env.Error.RequestID)
		})
	}
}

func TestErr_FieldsAreReported(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/", nil)

	Err(rr, req, apperr.Validation("bad",
		apperr.FieldError{Field: "formType", Message: "formType is required"},
		apperr.FieldError{Field: "value", Message: "value is required"},
	))

	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Len(t, env.Error.Fields, 2)
}

func TestData(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Data(rr, req, http.StatusOK, []string{})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"success":true,"data":[]}`, rr.Body.String())
}

func TestMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)

	Message(rr, req, http.StatusOK, "deleted")

	assert.JSONEq(t, `{"success":true,"message":"deleted"}`, rr.Body.String())
}
