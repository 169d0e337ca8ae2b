package models

import "time"

// Issue is a snapshot of an open issue as returned by the hosting API during
// one monitoring cycle. A new value is built every cycle even when nothing
// changed upstream.
type Issue struct {
	ID          int64
	Number      int
	Title       string
	Body        string
	State       string
	Labels      []string
	Author      string
	URL         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PullRequest bool

	// Repository is the watched repository the issue was fetched from.
	Repository Repository
}

func (i Issue) HasLabel(name string) bool {
	for _, label := range i.Labels {
		if label == name {
			return true
		}
	}
	return false
}
