package observers

import (
	"context"
	"strings"

	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/models"
)

const TriageObserverName = "triage"

// Labeler adds labels to an issue.
type Labeler interface {
	AddLabels(ctx context.Context, repo models.Repository, number int, labels []string) error
}

// TriageObserver marks issues that nobody has labelled yet as waiting for
// triage. Pull requests and issues opened by collaborators are left alone.
type TriageObserver struct {
	labeler       Labeler
	label         string
	collaborators map[string]struct{}
	dryRun        bool
}

type TriageOption func(*TriageObserver)

// WithCollaborators skips issues authored by any of logins (case-insensitive).
func WithCollaborators(logins ...string) TriageOption {
	return func(o *TriageObserver) {
		for _, login := range logins {
			login = strings.ToLower(strings.TrimSpace(login))
			if login != "" {
				o.collaborators[login] = struct{}{}
			}
		}
	}
}

// WithDryRun logs the label that would be applied without calling the API.
func WithDryRun(dryRun bool) TriageOption {
	return func(o *TriageObserver) {
		o.dryRun = dryRun
	}
}

func NewTriageObserver(labeler Labeler, label string, opts ...TriageOption) *TriageObserver {
	o := &TriageObserver{
		labeler:       labeler,
		label:         label,
		collaborators: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *TriageObserver) Name() string {
	return TriageObserverName
}

func (o *TriageObserver) Receive(ctx context.Context, issue models.Issue) error {
	if !o.needsTriage(issue) {
		return nil
	}

	log := logger.FromContext(ctx).With(
		"repository", issue.Repository.String(),
		"issue_number", issue.Number,
		"label", o.label)

	if o.dryRun {
		log.Info("would label issue for triage")
		return nil
	}

	if err := o.labeler.AddLabels(ctx, issue.Repository, issue.Number, []string{o.label}); err != nil {
		return err
	}
	log.Info("issue labelled for triage")
	return nil
}

func (o *TriageObserver) needsTriage(issue models.Issue) bool {
	if issue.PullRequest || len(issue.Labels) > 0 {
		return false
	}
	_, collaborator := o.collaborators[strings.ToLower(issue.Author)]
	return !collaborator
}
