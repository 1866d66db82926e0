package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-dashboard/internal/types"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "categorized error is returned as-is",
			err:        NewConflictError("symbol already on watchlist"),
			wantCode:   CodeConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "wrapped categorized error is found",
			err:        fmt.Errorf("save watchlist item: %w", NewConflictError("dup")),
			wantCode:   CodeConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "service error unauthorized",
			err:        &types.ServiceError{Code: CodeUnauthorized, Message: "no session"},
			wantCode:   CodeUnauthorized,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "service error user not found",
			err:        &types.ServiceError{Code: CodeUserNotFound, Message: "no profile"},
			wantCode:   CodeUserNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "service error unavailable",
			err:        &types.ServiceError{Code: CodeServiceUnavailable, Message: "no backend"},
			wantCode:   CodeServiceUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "plain error becomes internal",
			err:        stderrors.New("boom"),
			wantCode:   CodeInternal,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantStatus, GetHTTPStatusCode(tt.err))
		})
	}
}

func TestCategorize_Nil(t *testing.T) {
	assert.Nil(t, Categorize(nil))
	assert.False(t, IsUserError(nil))
	assert.False(t, IsSystemError(nil))
}

func TestCategorizedError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewDatabaseError("get user", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, IsSystemError(err))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewServiceUnavailableError("backend"))

	assert.True(t, HasCode(err, CodeServiceUnavailable))
	assert.False(t, HasCode(err, CodeConflict))
}

func TestToServiceError(t *testing.T) {
	err := NewInvalidParameterError("endpoint", "must not contain '..'")
	svc := err.ToServiceError()

	assert.Equal(t, CodeInvalidParameter, svc.Code)
	assert.Equal(t, "endpoint", svc.Details["parameter"])
	assert.True(t, IsUserError(err))
}
