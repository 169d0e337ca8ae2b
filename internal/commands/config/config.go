package config

import (
	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/commands"
	"github.com/thomas-vilte/issuebot/internal/config"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/urfave/cli/v3"
)

type ConfigCommandFactory struct{}

func NewConfigCommandFactory() *ConfigCommandFactory {
	return &ConfigCommandFactory{}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, load registry.ContainerLoader) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config_usage", 0, nil),
		Commands: []*cli.Command{
			c.newInitCommand(t),
			c.newShowCommand(t, load),
			c.newEditCommand(t),
		},
	}
}

// configPath is --config when given, otherwise the default location.
func configPath(cmd *cli.Command) (string, error) {
	if path := cmd.String(commands.FlagConfig); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}
