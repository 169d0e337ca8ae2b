package monitor

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/issuebot/internal/models"
)

// Observer is notified of every open issue found during a cycle.
type Observer interface {
	Receive(ctx context.Context, issue models.Issue) error
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, issue models.Issue) error

func (f ObserverFunc) Receive(ctx context.Context, issue models.Issue) error {
	return f(ctx, issue)
}

// Namer is implemented by observers that want a stable name in logs and
// dispatch errors.
type Namer interface {
	Name() string
}

type namedObserver struct {
	name string
	Observer
}

func (n namedObserver) Name() string {
	return n.name
}

// Named attaches name to o.
func Named(name string, o Observer) Observer {
	return namedObserver{name: name, Observer: o}
}

func observerName(o Observer, position int) string {
	if n, ok := o.(Namer); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("observer-%d(%T)", position, o)
}

// ErrorReporter receives every error isolated during a cycle, in addition to
// the structured log.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

type ErrorReporterFunc func(ctx context.Context, err error)

func (f ErrorReporterFunc) Report(ctx context.Context, err error) {
	f(ctx, err)
}
