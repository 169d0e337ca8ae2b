package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/issuebot/internal/config"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/models"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.GitHub.BaseURL = baseURL
	cfg.Repositories = []config.RepositoryConfig{
		{Organization: "acme", Name: "widgets"},
		{Organization: "acme", Name: "widgets"},
		{Organization: "acme", Name: "gadgets"},
	}
	return cfg
}

func TestContainer(t *testing.T) {
	trans, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	t.Run("should build the monitor once with normalized repositories", func(t *testing.T) {
		c := NewContainer(testConfig("https://github.example.com/api/v3"), trans)

		m, err := c.Monitor()
		require.NoError(t, err)
		again, err := c.Monitor()
		require.NoError(t, err)

		assert.Same(t, m, again)
		assert.Equal(t, []models.Repository{
			models.NewRepository("acme", "widgets"),
			models.NewRepository("acme", "gadgets"),
		}, m.Repositories())
	})

	t.Run("should send the issuebot user agent", func(t *testing.T) {
		var agent atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent.Store(r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("[]"))
		}))
		defer server.Close()

		c := NewContainer(testConfig(server.URL), trans)
		source, err := c.IssueClient()
		require.NoError(t, err)

		_, err = source.FetchAllOpenIssues(context.Background(), models.NewRepository("acme", "widgets"))
		require.NoError(t, err)
		assert.Contains(t, agent.Load(), "issuebot/")
	})

	t.Run("should register triage when enabled", func(t *testing.T) {
		cfg := testConfig("https://github.example.com/api/v3")
		cfg.Observer.Triage.Enabled = true

		list, err := NewContainer(cfg, trans).Observers()

		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("should surface credential errors", func(t *testing.T) {
		cfg := testConfig("")
		cfg.GitHub.Token = "t"
		cfg.GitHub.Username = "u"

		_, err := NewContainer(cfg, trans).Monitor()

		assert.Error(t, err)
	})
}
