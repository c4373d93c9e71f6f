package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", customError.WrapLoanNotFound("L1"), http.StatusNotFound},
		{"already exists", customError.WrapLoanAlreadyExists("L1"), http.StatusConflict},
		{"already closed", customError.WrapLoanAlreadyClosed("L1"), http.StatusConflict},
		{"validation", customError.WrapValidation(errors.New("bad")), http.StatusBadRequest},
		{"unsupported", customError.Unsupported("frequency %q", "X"), http.StatusBadRequest},
		{"currency mismatch", customError.WrapCurrencyMismatch("USD", "EUR"), http.StatusBadRequest},
		{"upstream", customError.Upstream("tranche"), http.StatusUnprocessableEntity},
		{"invariant", customError.Invariant("sum"), http.StatusInternalServerError},
		{"database", customError.WrapDatabaseError(errors.New("down")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusOf(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	t.Run("client error keeps its detail", func(t *testing.T) {
		w := httptest.NewRecorder()

		FromError(w, customError.WrapValidation(errors.New("principal must be positive")))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, customError.ErrCodeValidation, body.Code)
		assert.Contains(t, body.Error, "principal must be positive")
	})

	t.Run("server error hides its cause", func(t *testing.T) {
		w := httptest.NewRecorder()

		FromError(w, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", body.Message)
		assert.NotContains(t, w.Body.String(), "10.0.0.3")
	})
}
