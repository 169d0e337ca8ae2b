package registry

import (
	"context"
	"errors"

	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/infrastructure/di"
	"github.com/urfave/cli/v3"
)

// ContainerLoader resolves the configuration selected by cmd's flags and
// returns the dependency container built from it.
type ContainerLoader func(ctx context.Context, cmd *cli.Command) (*di.Container, error)

type CommandFactory interface {
	CreateCommand(t *i18n.Translations, load ContainerLoader) *cli.Command
}

type Registry struct {
	factories map[string]CommandFactory
	order     []string
	load      ContainerLoader
	t         *i18n.Translations
}

func NewRegistry(t *i18n.Translations, load ContainerLoader) *Registry {
	return &Registry{
		factories: make(map[string]CommandFactory),
		load:      load,
		t:         t,
	}
}

func (r *Registry) Register(name string, factory CommandFactory) error {
	if _, exists := r.factories[name]; exists {
		return errors.New(r.t.GetMessage("factory_already_registered", 0, map[string]interface{}{
			"FactoryName": name,
		}))
	}
	r.factories[name] = factory
	r.order = append(r.order, name)
	return nil
}

// CreateCommands builds every registered command in registration order.
func (r *Registry) CreateCommands() []*cli.Command {
	commands := make([]*cli.Command, 0, len(r.factories))
	for _, name := range r.order {
		commands = append(commands, r.factories[name].CreateCommand(r.t, r.load))
	}
	return commands
}
