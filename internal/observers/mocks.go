package observers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/issuebot/internal/models"
)

type MockLabeler struct {
	mock.Mock
}

func (m *MockLabeler) AddLabels(ctx context.Context, repo models.Repository, number int, labels []string) error {
	args := m.Called(ctx, repo, number, labels)
	return args.Error(0)
}
