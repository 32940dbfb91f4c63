package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

func TestFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    int
		message string
	}{
		{
			name:    "business error",
			err:     domain.NewError(domain.KindArticleAccessDenied),
			status:  http.StatusForbidden,
			code:    2003,
			message: domain.KindArticleAccessDenied.Entry().Message,
		},
		{
			name:    "wrapped business error",
			err:     fmt.Errorf("handler: %w", domain.NewError(domain.KindAlreadyFollowed)),
			status:  http.StatusConflict,
			code:    1011,
			message: domain.KindAlreadyFollowed.Entry().Message,
		},
		{
			name:    "validation detail",
			err:     domain.Validation("Invalid userId."),
			status:  http.StatusBadRequest,
			code:    1002,
			message: "Invalid userId.",
		},
		{
			name:    "unclassified error hides its text",
			err:     errors.New("pq: connection refused"),
			status:  http.StatusInternalServerError,
			code:    5000,
			message: domain.KindInternalServerError.Entry().Message,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Failure(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.ErrorCode)
			assert.Equal(t, tt.message, body.Message)
			assert.Nil(t, body.Data)
		})
	}
}

func TestSuccessEnvelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"articleId": "7"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(0), got["error_code"])
	assert.Equal(t, map[string]any{"articleId": "7"}, got["data"])
	assert.NotContains(t, got, "message")
}

func TestMessageOmitsData(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusOK, "Article deleted.")

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Article deleted.", got["message"])
	assert.NotContains(t, got, "data")
}

func TestErrorWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/article/9", nil)

	Error(rec, req, logger.Nop(), domain.NewError(domain.KindArticleNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var got Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2002, got.ErrorCode)
	assert.NotEmpty(t, got.Message)
}
