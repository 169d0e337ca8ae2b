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
	"golang.org/x/oauth2"
)

// Config describes how to reach and authenticate against the GitHub API.
// Token and Username/Password are mutually exclusive; with neither set the
// client makes anonymous calls.
type Config struct {
	BaseURL   string
	Token     string
	Username  string
	Password  string
	Timeout   time.Duration
	UserAgent string
}

// NewAPIClient builds a go-github client carrying the configured credentials.
func NewAPIClient(cfg Config) (*github.Client, error) {
	var httpClient *http.Client

	switch {
	case cfg.Token != "" && cfg.Username != "":
		return nil, domainErrors.ErrConflictingCredentials
	case cfg.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	case cfg.Username != "":
		transport := &github.BasicAuthTransport{
			Username: cfg.Username,
			Password: cfg.Password,
		}
		httpClient = transport.Client()
	default:
		httpClient = &http.Client{}
	}
	httpClient.Timeout = cfg.Timeout

	client := github.NewClient(httpClient)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", cfg.BaseURL, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		client.BaseURL = base
	}

	return client, nil
}

type IssuesService interface {
	AddLabelsToIssue(ctx context.Context, owner, repo string, number int, labels []string) ([]*github.Label, *github.Response, error)
}

// LabelClient applies labels to issues of any watched repository.
type LabelClient struct {
	issuesService IssuesService
}

func NewLabelClient(client *github.Client) *LabelClient {
	return &LabelClient{issuesService: client.Issues}
}

func NewLabelClientWithService(issuesService IssuesService) *LabelClient {
	return &LabelClient{issuesService: issuesService}
}

// AddLabels adds labels to issue number of repo. GitHub creates labels that
// do not exist yet.
func (lc *LabelClient) AddLabels(ctx context.Context, repo models.Repository, number int, labels []string) error {
	log := logger.FromContext(ctx)

	_, resp, err := lc.issuesService.AddLabelsToIssue(ctx, repo.Organization, repo.Name, number, labels)
	if err != nil {
		status := 0
		if resp != nil && resp.Response != nil {
			status = resp.StatusCode
		}
		apiErr := domainErrors.NewRemoteAPIError(repo, status, fmt.Sprintf("repos/%s/%s/issues/%d/labels", repo.Organization, repo.Name, number), err)

		var rateErr *github.RateLimitError
		var abuseErr *github.AbuseRateLimitError
		apiErr.RateLimited = errors.As(err, &rateErr) || errors.As(err, &abuseErr)

		log.Error("failed to add labels",
			"error", err,
			"repository", repo.String(),
			"issue_number", number,
			"status", status)
		return apiErr
	}

	log.Debug("labels added",
		"repository", repo.String(),
		"issue_number", number,
		"labels", strings.Join(labels, ","))
	return nil
}
