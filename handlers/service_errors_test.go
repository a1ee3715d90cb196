package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/access-control-plane/services"
	"github.com/upb/access-control-plane/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "not found error",
			err:            services.ErrCompanyNotFound,
			expectedStatus: http.StatusNotFound,
			expectedError:  "not_found",
		},
		{
			name:           "wrapped not found error",
			err:            fmt.Errorf("%w: b3d1", services.ErrActorNotFound),
			expectedStatus: http.StatusNotFound,
			expectedError:  "not_found",
		},
		{
			name:           "unauthenticated error",
			err:            services.ErrInvalidSession,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:           "unauthorized error",
			err:            services.ErrNotPermitted,
			expectedStatus: http.StatusForbidden,
			expectedError:  "forbidden",
		},
		{
			name:           "resolver failure",
			err:            services.ErrSubscriptionUnavailable,
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "resolver_unavailable",
		},
		{
			name:           "stale state error",
			err:            services.ErrStaleSnapshot,
			expectedStatus: http.StatusConflict,
			expectedError:  "stale_state",
		},
		{
			name:           "unknown error",
			err:            errors.New("something broke"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var resp utils.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleServiceError(rec, nil, logger)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})

	t.Run("internal errors do not leak the cause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleServiceError(rec, errors.New("pq: password authentication failed"), logger)

		var resp utils.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotContains(t, resp.Message, "password")
	})
}

func TestHandleValidationError(t *testing.T) {
	logger := zap.NewNop()

	t.Run("validator errors carry field details", func(t *testing.T) {
		err := utils.ValidateStruct(CreateSessionRequest{Email: "not-an-email"})
		require.Error(t, err)

		rec := httptest.NewRecorder()
		HandleValidationError(rec, err, logger)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp utils.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "bad_request", resp.Error)
		assert.Contains(t, resp.Details, "Email")
	})

	t.Run("plain errors are still 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleValidationError(rec, errors.New("unreadable body"), logger)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
