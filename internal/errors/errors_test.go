package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thomas-vilte/issuebot/internal/models"
)

func TestAppError_WithError(t *testing.T) {
	baseErr := errors.New("original error")
	appErr := ErrConfigDecode.WithError(baseErr)

	assert.Equal(t, baseErr, appErr.Err)
	assert.Equal(t, TypeConfiguration, appErr.Type)
	assert.True(t, errors.Is(appErr, baseErr))
}

func TestAppError_ChainedContext(t *testing.T) {
	appErr := ErrInvalidRepository.
		WithContext("field", "repositories[1]").
		WithContext("organization", "acme")

	assert.Equal(t, "repositories[1]", appErr.Context["field"])
	assert.Equal(t, "acme", appErr.Context["organization"])
	assert.Contains(t, appErr.Error(), "repositories[1]")

	// the sentinel must stay untouched
	assert.Nil(t, ErrInvalidRepository.Context)
}

func TestAppError_Error_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		contains []string
	}{
		{
			name:     "Simple error without underlying error",
			err:      ErrNoRepositories,
			contains: []string{"CONFIGURATION", "No repositories to monitor"},
		},
		{
			name:     "Error with underlying error",
			err:      ErrConfigDecode.WithError(errors.New("line 3: expected '='")),
			contains: []string{"CONFIGURATION", "could not be decoded", "line 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, substr := range tt.contains {
				assert.Contains(t, tt.err.Error(), substr)
			}
		})
	}
}

func TestRemoteAPIError(t *testing.T) {
	repo := models.NewRepository("acme", "widgets")

	t.Run("with status code", func(t *testing.T) {
		inner := errors.New("Not Found")
		err := NewRemoteAPIError(repo, http.StatusNotFound, "https://api.github.com/repos/acme/widgets/issues", inner)

		assert.Contains(t, err.Error(), "acme/widgets")
		assert.Contains(t, err.Error(), "404")
		assert.Equal(t, inner, errors.Unwrap(err))
		assert.True(t, IsNotFound(err))
		assert.False(t, IsRateLimited(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		err := NewRemoteAPIError(repo, 0, "https://api.github.com/repos/acme/widgets/issues", errors.New("connection refused"))

		assert.Contains(t, err.Error(), "connection refused")
		assert.False(t, IsNotFound(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		forbidden := NewRemoteAPIError(repo, http.StatusForbidden, "u", nil)
		forbidden.RateLimited = true
		tooMany := NewRemoteAPIError(repo, http.StatusTooManyRequests, "u", nil)

		assert.True(t, IsRateLimited(forbidden))
		assert.True(t, IsRateLimited(tooMany))
		assert.False(t, IsRateLimited(errors.New("plain")))
	})

	t.Run("should be found through wrapping", func(t *testing.T) {
		err := NewRemoteAPIError(repo, http.StatusBadGateway, "u", nil)
		wrapped := ErrObserverPanic.WithError(err)

		var apiErr *RemoteAPIError
		assert.True(t, errors.As(wrapped, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})
}

func TestObserverDispatchError(t *testing.T) {
	inner := errors.New("label rejected")
	issue := models.Issue{Number: 42, Repository: models.NewRepository("acme", "widgets")}
	err := NewObserverDispatchError("triage", issue, inner)

	assert.Contains(t, err.Error(), "triage")
	assert.Contains(t, err.Error(), "acme/widgets#42")
	assert.True(t, errors.Is(err, inner))
}

func TestMalformedLinkError(t *testing.T) {
	err := NewMalformedLinkError(`https://x; rel="next"`, "missing angle brackets")

	assert.Contains(t, err.Error(), "missing angle brackets")
	var linkErr *MalformedLinkError
	assert.True(t, errors.As(err, &linkErr))
}
