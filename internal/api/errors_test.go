package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		showDetails bool
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:       "api error",
			err:        NewNotFoundError("batch", "x"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("outer: %w", NewConflictError("busy")),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "echo http error",
			err:        echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "HTTP_ERROR",
		},
		{
			name:       "unknown error hides details",
			err:        errors.New("secret"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "UNKNOWN_ERROR",
		},
		{
			name:        "unknown error with details",
			err:         errors.New("secret"),
			showDetails: true,
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "UNKNOWN_ERROR",
			wantDetails: "secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(echo.New(), http.MethodGet, "/", nil, "")
			NewErrorHandler(nil, tt.showDetails)(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantDetails, body.Details)
		})
	}
}

func TestErrorHandlerHead(t *testing.T) {
	c, rec := newContext(echo.New(), http.MethodHead, "/", nil, "")
	NewErrorHandler(nil, false)(NewNotFoundError("file", "x"), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAPIErrorConstructors(t *testing.T) {
	err := NewBadRequestError("bad", errors.New("cause"))
	assert.Equal(t, "cause", err.Details)
	assert.Equal(t, "BAD_REQUEST: bad", err.Error())

	assert.Equal(t, http.StatusUnsupportedMediaType, NewUnsupportedFileTypeError("a.csv", []string{".txt"}).Status)
	assert.Equal(t, http.StatusRequestEntityTooLarge, NewPayloadTooLargeError(10, 5).Status)
	assert.Empty(t, NewInternalError("x", nil).Details)
}
