package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/models"
)

const issuesPath = "/repos/acme/widgets/issues"

var widgets = models.NewRepository("acme", "widgets")

// fakeIssuesAPI serves numbered pages of issues. Page i holds the issues
// listed in pages[i-1] and links to page i+1 unless it is the last page.
type fakeIssuesAPI struct {
	server   *httptest.Server
	pages    [][]int
	calls    atomic.Int32
	mu       sync.Mutex
	requests []string
	link     func(serverURL string, page int) string
	status   func(page int) int
}

func newFakeIssuesAPI(t *testing.T, pages ...[]int) *fakeIssuesAPI {
	api := &fakeIssuesAPI{pages: pages}
	api.link = func(serverURL string, page int) string {
		if page >= len(api.pages) {
			return ""
		}
		return fmt.Sprintf(`<%s%s?state=open&page=%d>; rel="next", <%s%s?state=open&page=%d>; rel="last"`,
			serverURL, issuesPath, page+1, serverURL, issuesPath, len(api.pages))
	}

	mux := http.NewServeMux()
	mux.HandleFunc(issuesPath, func(w http.ResponseWriter, r *http.Request) {
		api.calls.Add(1)
		api.mu.Lock()
		api.requests = append(api.requests, r.URL.RequestURI())
		api.mu.Unlock()

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}

		if api.status != nil {
			if status := api.status(page); status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = fmt.Fprint(w, `{"message":"upstream failure"}`)
				return
			}
		}

		if link := api.link(api.server.URL, page); link != "" {
			w.Header().Set("Link", link)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, issuesJSON(api.pages[page-1]))
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (api *fakeIssuesAPI) client(t *testing.T, opts ...IssueClientOption) *IssueClient {
	apiClient, err := NewAPIClient(Config{BaseURL: api.server.URL, Token: "secret"})
	require.NoError(t, err)
	return NewIssueClient(apiClient, opts...)
}

func (api *fakeIssuesAPI) requested() []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]string(nil), api.requests...)
}

func issuesJSON(numbers []int) string {
	out := "["
	for i, n := range numbers {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"id":%d,"number":%d,"title":"issue %d","body":"body %d","state":"open","labels":[{"name":"bug"}],"user":{"login":"alice"},"html_url":"https://github.com/acme/widgets/issues/%d"}`,
			1000+n, n, n, n, n)
	}
	return out + "]"
}

func numbersOf(issues []models.Issue) []int {
	numbers := make([]int, 0, len(issues))
	for _, issue := range issues {
		numbers = append(numbers, issue.Number)
	}
	return numbers
}

func TestIssueClient_FetchAllOpenIssues(t *testing.T) {
	t.Run("should fetch a single page when there is no link header", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1, 2})

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbersOf(issues))
		assert.Equal(t, int32(1), api.calls.Load())

		first := issues[0]
		assert.Equal(t, widgets, first.Repository)
		assert.Equal(t, int64(1001), first.ID)
		assert.Equal(t, "issue 1", first.Title)
		assert.Equal(t, "body 1", first.Body)
		assert.Equal(t, []string{"bug"}, first.Labels)
		assert.Equal(t, "alice", first.Author)
		assert.False(t, first.PullRequest)
	})

	t.Run("should concatenate every page in order", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1, 2}, []int{3, 4}, []int{5})

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, numbersOf(issues))
		assert.Equal(t, int32(3), api.calls.Load())
		for _, issue := range issues {
			assert.Equal(t, widgets, issue.Repository)
		}
	})

	t.Run("should request open issues with the configured page size", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1})

		_, err := api.client(t, WithPerPage(50)).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		requests := api.requested()
		require.Len(t, requests, 1)
		assert.Equal(t, issuesPath+"?state=open&per_page=50", requests[0])
	})

	t.Run("should follow the exact next url", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2})
		api.link = func(serverURL string, page int) string {
			if page == 1 {
				return fmt.Sprintf(`<%s%s?page=2&cursor=abc>; rel="next"`, serverURL, issuesPath)
			}
			return ""
		}

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbersOf(issues))
		requests := api.requested()
		require.Len(t, requests, 2)
		assert.Equal(t, issuesPath+"?page=2&cursor=abc", requests[1])
	})

	t.Run("should stop when only a last relation is present", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2})
		api.link = func(serverURL string, _ int) string {
			return fmt.Sprintf(`<%s%s?page=2>; rel="last"`, serverURL, issuesPath)
		}

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1}, numbersOf(issues))
		assert.Equal(t, int32(1), api.calls.Load())
	})

	t.Run("should stop when the next entry is malformed", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2})
		api.link = func(serverURL string, _ int) string {
			return fmt.Sprintf(`%s%s?page=2; rel="next"`, serverURL, issuesPath)
		}

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1}, numbersOf(issues))
		assert.Equal(t, int32(1), api.calls.Load())
	})

	t.Run("should fail without partial results when a later page fails", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2}, []int{3})
		api.status = func(page int) int {
			if page == 2 {
				return http.StatusInternalServerError
			}
			return http.StatusOK
		}

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		assert.Nil(t, issues)
		var apiErr *domainErrors.RemoteAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, widgets, apiErr.Repository)
		assert.Contains(t, apiErr.URL, "page=2")
		assert.Equal(t, int32(2), api.calls.Load())
	})

	t.Run("should report a missing repository as not found", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1})
		api.status = func(int) int { return http.StatusNotFound }

		_, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		assert.True(t, domainErrors.IsNotFound(err))
	})

	t.Run("should flag rate limited responses", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(issuesPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "4102444800")
			w.WriteHeader(http.StatusForbidden)
			_, _ = fmt.Fprint(w, `{"message":"API rate limit exceeded for 127.0.0.1."}`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		apiClient, err := NewAPIClient(Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = NewIssueClient(apiClient).FetchAllOpenIssues(context.Background(), widgets)

		assert.True(t, domainErrors.IsRateLimited(err))
	})

	t.Run("should stop on a pagination cycle", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2})
		api.link = func(serverURL string, page int) string {
			if page == 1 {
				return fmt.Sprintf(`<%s%s?page=2>; rel="next"`, serverURL, issuesPath)
			}
			return fmt.Sprintf(`<%s%s?page=2>; rel="next"`, serverURL, issuesPath)
		}

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbersOf(issues))
		assert.Equal(t, int32(2), api.calls.Load())
	})

	t.Run("should honour the page limit", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2}, []int{3})

		issues, err := api.client(t, WithMaxPages(2)).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbersOf(issues))
		assert.Equal(t, int32(2), api.calls.Load())
	})

	t.Run("should not follow a next link to another host", func(t *testing.T) {
		// Arrange
		var foreignCalls atomic.Int32
		var foreignAuth atomic.Value
		foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			foreignCalls.Add(1)
			foreignAuth.Store(r.Header.Get("Authorization"))
			_, _ = fmt.Fprint(w, issuesJSON([]int{99}))
		}))
		defer foreign.Close()

		api := newFakeIssuesAPI(t, []int{1}, []int{2})
		api.link = func(serverURL string, page int) string {
			return fmt.Sprintf(`<%s%s?page=2>; rel="next"`, foreign.URL, issuesPath)
		}

		// Act
		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []int{1}, numbersOf(issues))
		assert.Equal(t, int32(1), api.calls.Load())
		assert.Equal(t, int32(0), foreignCalls.Load())
		assert.Nil(t, foreignAuth.Load())
	})

	t.Run("should follow a relative next link", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1}, []int{2})
		api.link = func(serverURL string, page int) string {
			if page == 1 {
				return fmt.Sprintf(`<%s?page=2>; rel="next"`, issuesPath[1:])
			}
			return ""
		}

		issues, err := api.client(t).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbersOf(issues))
	})

	t.Run("should mark pull requests", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(issuesPath, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `[{"number":7,"title":"pr","pull_request":{"url":"https://api.github.com/repos/acme/widgets/pulls/7"}}]`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		apiClient, err := NewAPIClient(Config{BaseURL: server.URL})
		require.NoError(t, err)

		issues, err := NewIssueClient(apiClient).FetchAllOpenIssues(context.Background(), widgets)

		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.True(t, issues[0].PullRequest)
	})
}

func TestIssuePages_Next(t *testing.T) {
	t.Run("should yield pages lazily and then nil", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1, 2}, []int{}, []int{3})
		pages := api.client(t).OpenIssues(widgets)
		ctx := context.Background()

		assert.Equal(t, int32(0), api.calls.Load())

		first, err := pages.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbersOf(first))
		assert.Equal(t, int32(1), api.calls.Load())

		empty, err := pages.Next(ctx)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		last, err := pages.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, numbersOf(last))

		done, err := pages.Next(ctx)
		require.NoError(t, err)
		assert.Nil(t, done)
		assert.Equal(t, 3, pages.Pages())
		assert.Equal(t, int32(3), api.calls.Load())
	})

	t.Run("should stay exhausted after an error", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1})
		api.status = func(int) int { return http.StatusBadGateway }
		pages := api.client(t).OpenIssues(widgets)

		_, err := pages.Next(context.Background())
		require.Error(t, err)

		issues, err := pages.Next(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, issues)
		assert.Equal(t, int32(1), api.calls.Load())
	})

	t.Run("should fail when the server is unreachable", func(t *testing.T) {
		api := newFakeIssuesAPI(t, []int{1})
		client := api.client(t)
		api.server.Close()

		_, err := client.OpenIssues(widgets).Next(context.Background())

		var apiErr *domainErrors.RemoteAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 0, apiErr.StatusCode)
	})
}
