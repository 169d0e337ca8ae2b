package observers

import (
	"context"
	"strings"

	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/models"
)

const LogObserverName = "log"

// LogObserver writes one record per issue seen.
type LogObserver struct{}

func NewLogObserver() *LogObserver {
	return &LogObserver{}
}

func (o *LogObserver) Name() string {
	return LogObserverName
}

func (o *LogObserver) Receive(ctx context.Context, issue models.Issue) error {
	logger.Info(ctx, "open issue",
		"repository", issue.Repository.String(),
		"issue_number", issue.Number,
		"title", issue.Title,
		"author", issue.Author,
		"labels", strings.Join(issue.Labels, ","),
		"pull_request", issue.PullRequest)
	return nil
}
