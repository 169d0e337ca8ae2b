package monitor

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/issuebot/internal/models"
)

type (
	MockIssueSource struct {
		mock.Mock
	}

	MockObserver struct {
		mock.Mock
	}
)

func (m *MockIssueSource) FetchAllOpenIssues(ctx context.Context, repo models.Repository) ([]models.Issue, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Issue), args.Error(1)
}

func (m *MockObserver) Receive(ctx context.Context, issue models.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}
