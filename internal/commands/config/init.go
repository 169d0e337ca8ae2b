package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/thomas-vilte/issuebot/internal/commands"
	"github.com/thomas-vilte/issuebot/internal/commands/completion_helper"
	"github.com/thomas-vilte/issuebot/internal/config"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/models"
	"github.com/thomas-vilte/issuebot/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newInitCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: t.GetMessage("config_init_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   t.GetMessage("config_init_repo_flag", 0, nil),
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "en or es",
				Value: config.LangEN,
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   t.GetMessage("config_init_force_flag", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action:        initConfigAction(t),
	}
}

func initConfigAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		path, err := configPath(cmd)
		if err != nil {
			return domainErrors.ErrConfigMissing.WithError(err)
		}

		if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
			return errors.New(t.GetMessage("config_init_exists", 0, map[string]interface{}{"Path": path}))
		}

		cfg := config.Default()
		cfg.Language = cmd.String("language")
		if !config.IsSupportedLanguage(cfg.Language) {
			return domainErrors.ErrUnsupportedLanguage.WithContext("field", "--language "+cfg.Language)
		}

		for _, value := range cmd.StringSlice("repo") {
			repo, err := models.ParseRepository(value)
			if err != nil {
				return domainErrors.ErrInvalidRepository.WithError(err).WithContext("field", fmt.Sprintf("--repo %s", value))
			}
			cfg.Repositories = append(cfg.Repositories, config.RepositoryConfig{
				Organization: repo.Organization,
				Name:         repo.Name,
			})
		}

		if err := config.Save(path, cfg); err != nil {
			return err
		}

		ui.PrintSuccess(commands.Writer(cmd), t.GetMessage("config_init_created", 0, map[string]interface{}{"Path": path}))
		return nil
	}
}
