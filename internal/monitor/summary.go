package monitor

import (
	"time"

	"github.com/thomas-vilte/issuebot/internal/models"
)

// CycleSummary is the bookkeeping of one completed monitoring cycle.
type CycleSummary struct {
	ID                 string              `json:"id"`
	StartedAt          time.Time           `json:"started_at"`
	FinishedAt         time.Time           `json:"finished_at"`
	Repositories       int                 `json:"repositories"`
	FailedRepositories []models.Repository `json:"failed_repositories,omitempty"`
	Issues             int                 `json:"issues"`
	ObserverErrors     int                 `json:"observer_errors"`
	Canceled           bool                `json:"canceled,omitempty"`
}

func (s CycleSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Errors counts every isolated failure of the cycle.
func (s CycleSummary) Errors() int {
	return len(s.FailedRepositories) + s.ObserverErrors
}

func (s CycleSummary) clone() CycleSummary {
	if s.FailedRepositories != nil {
		s.FailedRepositories = append([]models.Repository(nil), s.FailedRepositories...)
	}
	return s
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Running   bool          `json:"running"`
	Cycles    int           `json:"cycles"`
	LastCycle *CycleSummary `json:"last_cycle,omitempty"`
}
