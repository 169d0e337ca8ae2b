package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/models"
)

// IssueSource returns every open issue of a repository, in API order.
type IssueSource interface {
	FetchAllOpenIssues(ctx context.Context, repo models.Repository) ([]models.Issue, error)
}

// Monitor polls the watched repositories and dispatches their open issues to
// the registered observers. Repositories and observers are fixed at
// construction.
//
// At most one cycle runs at a time. A RunCycle call made while another cycle
// is running blocks until that cycle finishes and then runs a full cycle of
// its own.
type Monitor struct {
	source       IssueSource
	repositories []models.Repository
	observers    []Observer
	reporter     ErrorReporter
	now          func() time.Time

	cycleMu sync.Mutex

	stateMu sync.RWMutex
	running bool
	cycles  int
	last    *CycleSummary
}

type Option func(*Monitor)

func WithErrorReporter(r ErrorReporter) Option {
	return func(m *Monitor) {
		m.reporter = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New builds a monitor over repositories, which must already be normalized.
func New(source IssueSource, repositories []models.Repository, observers []Observer, opts ...Option) (*Monitor, error) {
	if source == nil {
		return nil, fmt.Errorf("monitor needs an issue source")
	}
	for i, repo := range repositories {
		if repo.IsZero() {
			return nil, domainErrors.ErrInvalidRepository.WithContext("field", fmt.Sprintf("repositories[%d]", i))
		}
	}
	for i, o := range observers {
		if o == nil {
			return nil, fmt.Errorf("observer %d is nil", i)
		}
	}

	m := &Monitor{
		source:       source,
		repositories: append([]models.Repository(nil), repositories...),
		observers:    append([]Observer(nil), observers...),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Repositories returns a copy of the watched repositories in polling order.
func (m *Monitor) Repositories() []models.Repository {
	return append([]models.Repository(nil), m.repositories...)
}

// LastCycle returns the summary of the most recently completed cycle and
// false when no cycle has completed yet.
func (m *Monitor) LastCycle() (CycleSummary, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.last == nil {
		return CycleSummary{}, false
	}
	return m.last.clone(), true
}

func (m *Monitor) Status() Status {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	status := Status{Running: m.running, Cycles: m.cycles}
	if m.last != nil {
		last := m.last.clone()
		status.LastCycle = &last
	}
	return status
}

// RunCycle polls every watched repository once and dispatches each open issue
// to every observer. Fetch and observer failures are reported and skipped.
// Cancelling ctx stops the cycle before the next repository or issue.
func (m *Monitor) RunCycle(ctx context.Context) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	summary := CycleSummary{
		ID:           uuid.NewString(),
		StartedAt:    m.now(),
		Repositories: len(m.repositories),
	}
	m.setRunning(true)
	defer func() {
		summary.FinishedAt = m.now()
		m.finish(summary)
	}()

	ctx = logger.With(ctx, "cycle_id", summary.ID)
	log := logger.FromContext(ctx)
	log.Info("monitoring cycle started", "repositories", len(m.repositories))

	for _, repo := range m.repositories {
		if ctx.Err() != nil {
			summary.Canceled = true
			break
		}
		m.poll(ctx, repo, &summary)
	}

	if summary.Canceled {
		log.Warn("monitoring cycle canceled", "error", ctx.Err(), "issues", summary.Issues)
		return
	}
	log.Info("monitoring cycle finished",
		"issues", summary.Issues,
		"failed_repositories", len(summary.FailedRepositories),
		"observer_errors", summary.ObserverErrors,
		"duration_ms", m.now().Sub(summary.StartedAt).Milliseconds())
}

func (m *Monitor) poll(ctx context.Context, repo models.Repository, summary *CycleSummary) {
	start := m.now()

	issues, err := m.source.FetchAllOpenIssues(ctx, repo)
	if err != nil {
		summary.FailedRepositories = append(summary.FailedRepositories, repo)
		logger.Error(ctx, "failed to fetch open issues", err, "repository", repo.String())
		m.report(ctx, err)
		return
	}

	logger.Debug(ctx, "repository polled",
		"repository", repo.String(),
		"count", len(issues),
		"duration_ms", m.now().Sub(start).Milliseconds())

	for _, issue := range issues {
		if ctx.Err() != nil {
			summary.Canceled = true
			return
		}
		// every dispatched issue belongs to the repository it was fetched for
		issue.Repository = repo
		m.dispatch(ctx, issue, summary)
	}
}

func (m *Monitor) dispatch(ctx context.Context, issue models.Issue, summary *CycleSummary) {
	summary.Issues++

	for i, o := range m.observers {
		err := m.deliver(ctx, o, issue)
		if err == nil {
			continue
		}

		summary.ObserverErrors++
		dispatchErr := domainErrors.NewObserverDispatchError(observerName(o, i), issue, err)
		logger.Error(ctx, "observer failed", err,
			"observer", dispatchErr.Observer,
			"repository", issue.Repository.String(),
			"issue_number", issue.Number)
		m.report(ctx, dispatchErr)
	}
}

func (m *Monitor) deliver(ctx context.Context, o Observer, issue models.Issue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domainErrors.ErrObserverPanic.WithError(fmt.Errorf("%v", r))
		}
	}()
	return o.Receive(ctx, issue)
}

func (m *Monitor) report(ctx context.Context, err error) {
	if m.reporter != nil {
		m.reporter.Report(ctx, err)
	}
}

func (m *Monitor) setRunning(running bool) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.running = running
}

func (m *Monitor) finish(summary CycleSummary) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.running = false
	m.cycles++
	m.last = &summary
}
