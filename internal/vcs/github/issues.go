package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v80/github"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/models"
)

const defaultPerPage = 100

// Requester is the part of *github.Client used to walk issue pages. Do
// decodes the JSON body into v and fails on any non-2xx status.
type Requester interface {
	NewRequest(method, urlStr string, body any, opts ...github.RequestOption) (*http.Request, error)
	Do(ctx context.Context, req *http.Request, v any) (*github.Response, error)
}

var _ Requester = (*github.Client)(nil)

// IssueClient retrieves the open issues of a repository, following the
// "next" relation of the Link header until the collection is exhausted.
type IssueClient struct {
	requester Requester
	perPage   int
	maxPages  int
}

type IssueClientOption func(*IssueClient)

// WithPerPage sets the page size requested from the API (1..100).
func WithPerPage(perPage int) IssueClientOption {
	return func(c *IssueClient) {
		if perPage > 0 {
			c.perPage = perPage
		}
	}
}

// WithMaxPages stops pagination after n pages. Zero means no limit.
func WithMaxPages(n int) IssueClientOption {
	return func(c *IssueClient) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

func NewIssueClient(requester Requester, opts ...IssueClientOption) *IssueClient {
	c := &IssueClient{
		requester: requester,
		perPage:   defaultPerPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenIssues returns a lazy iterator over the pages of open issues of repo.
// Every call starts a fresh walk; the iterator itself cannot be restarted.
func (c *IssueClient) OpenIssues(repo models.Repository) *IssuePages {
	return &IssuePages{
		client:  c,
		repo:    repo,
		nextURL: fmt.Sprintf("repos/%s/%s/issues?state=open&per_page=%d", repo.Organization, repo.Name, c.perPage),
		visited: make(map[string]struct{}),
	}
}

// FetchAllOpenIssues collects every page of open issues of repo in API order.
// Any failed page fails the whole call and no partial result is returned.
func (c *IssueClient) FetchAllOpenIssues(ctx context.Context, repo models.Repository) ([]models.Issue, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	pages := c.OpenIssues(repo)
	var all []models.Issue
	for {
		issues, err := pages.Next(ctx)
		if err != nil {
			return nil, err
		}
		if issues == nil {
			break
		}
		all = append(all, issues...)
	}

	log.Debug("open issues fetched",
		"repository", repo.String(),
		"count", len(all),
		"pages", pages.Pages(),
		"duration_ms", time.Since(start).Milliseconds())

	return all, nil
}

// IssuePages walks the pages of one repository's open issues.
//
// It is not safe for concurrent use.
type IssuePages struct {
	client  *IssueClient
	repo    models.Repository
	nextURL string
	origin  string
	visited map[string]struct{}
	pages   int
	done    bool
}

// Next fetches the next page. It returns nil, nil once the collection is
// exhausted; an empty page yields a non-nil empty slice.
func (p *IssuePages) Next(ctx context.Context) ([]models.Issue, error) {
	if p.done {
		return nil, nil
	}

	log := logger.FromContext(ctx)

	req, err := p.client.requester.NewRequest(http.MethodGet, p.nextURL, nil)
	if err != nil {
		p.done = true
		return nil, domainErrors.NewRemoteAPIError(p.repo, 0, p.nextURL, err)
	}
	requestURL := req.URL.String()
	p.visited[requestURL] = struct{}{}
	if p.origin == "" {
		p.origin = originOf(req.URL)
	}

	var page []*github.Issue
	resp, err := p.client.requester.Do(ctx, req, &page)
	if err != nil {
		p.done = true
		return nil, p.remoteError(requestURL, resp, err)
	}
	p.pages++

	issues := make([]models.Issue, 0, len(page))
	for _, ghIssue := range page {
		if ghIssue == nil {
			continue
		}
		issues = append(issues, toIssue(p.repo, ghIssue))
	}

	relations, malformed := ParseLinkHeaderEntries(resp.Header.Get("Link"))
	for _, linkErr := range malformed {
		log.Warn("ignoring malformed pagination entry",
			"repository", p.repo.String(),
			"url", requestURL,
			"error", linkErr)
	}

	p.advance(ctx, relations[RelNext])
	return issues, nil
}

// Pages reports how many pages have been fetched so far.
func (p *IssuePages) Pages() int {
	return p.pages
}

func (p *IssuePages) advance(ctx context.Context, next string) {
	log := logger.FromContext(ctx)

	switch {
	case next == "":
		p.done = true
	case !p.sameOrigin(next):
		log.Warn("pagination link points outside the API host, stopping",
			"repository", p.repo.String(),
			"url", next,
			"pages", p.pages)
		p.done = true
	case p.seen(next):
		log.Warn("pagination cycle detected, stopping",
			"repository", p.repo.String(),
			"url", next,
			"pages", p.pages)
		p.done = true
	case p.client.maxPages > 0 && p.pages >= p.client.maxPages:
		log.Warn("page limit reached, remaining issues skipped",
			"repository", p.repo.String(),
			"pages", p.pages)
		p.done = true
	default:
		p.nextURL = next
	}
}

func (p *IssuePages) seen(next string) bool {
	if _, ok := p.visited[next]; ok {
		return true
	}
	// relative links are resolved by NewRequest, compare the resolved form too
	resolved, err := p.resolve(next)
	if err != nil {
		return false
	}
	_, ok := p.visited[resolved.String()]
	return ok
}

// sameOrigin reports whether next resolves to the scheme and host of the
// first page, which always comes from the client's BaseURL. Credentials are
// attached to every request, so links to other hosts are never followed.
func (p *IssuePages) sameOrigin(next string) bool {
	resolved, err := p.resolve(next)
	if err != nil {
		return false
	}
	return originOf(resolved) == p.origin
}

func (p *IssuePages) resolve(next string) (*url.URL, error) {
	req, err := p.client.requester.NewRequest(http.MethodGet, next, nil)
	if err != nil {
		return nil, err
	}
	return req.URL, nil
}

func originOf(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

func (p *IssuePages) remoteError(requestURL string, resp *github.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	apiErr := domainErrors.NewRemoteAPIError(p.repo, status, requestURL, err)

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	apiErr.RateLimited = errors.As(err, &rateErr) || errors.As(err, &abuseErr)

	return apiErr
}

func toIssue(repo models.Repository, ghIssue *github.Issue) models.Issue {
	labels := make([]string, 0, len(ghIssue.Labels))
	for _, label := range ghIssue.Labels {
		if label.GetName() != "" {
			labels = append(labels, label.GetName())
		}
	}

	return models.Issue{
		ID:          ghIssue.GetID(),
		Number:      ghIssue.GetNumber(),
		Title:       ghIssue.GetTitle(),
		Body:        ghIssue.GetBody(),
		State:       ghIssue.GetState(),
		Labels:      labels,
		Author:      ghIssue.GetUser().GetLogin(),
		URL:         ghIssue.GetHTMLURL(),
		CreatedAt:   ghIssue.GetCreatedAt().Time,
		UpdatedAt:   ghIssue.GetUpdatedAt().Time,
		PullRequest: ghIssue.IsPullRequest(),
		Repository:  repo,
	}
}
