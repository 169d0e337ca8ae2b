package main

import (
	"context"
	"fmt"
	"os"

	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/commands"
	configcmd "github.com/thomas-vilte/issuebot/internal/commands/config"
	"github.com/thomas-vilte/issuebot/internal/commands/repos"
	"github.com/thomas-vilte/issuebot/internal/commands/run"
	"github.com/thomas-vilte/issuebot/internal/commands/serve"
	"github.com/thomas-vilte/issuebot/internal/config"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/ui"
	"github.com/thomas-vilte/issuebot/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	translations, err := i18n.NewTranslations(startupLanguage())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error loading translations: %v\n", err)
		os.Exit(1)
	}

	app, err := newApp(translations)
	if err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

// startupLanguage is used for help output before any configuration is read;
// the configured language replaces it once a command loads its config.
func startupLanguage() string {
	if lang := os.Getenv(config.EnvLanguage); config.IsSupportedLanguage(lang) {
		return lang
	}
	return config.LangEN
}

func newApp(t *i18n.Translations, opts ...serve.Option) (*cli.Command, error) {
	registerCommand := registry.NewRegistry(t, commands.NewContainerLoader(t))

	factories := []struct {
		name    string
		factory registry.CommandFactory
	}{
		{"serve", serve.NewServeCommand(opts...)},
		{"run", run.NewRunCommand()},
		{"repos", repos.NewReposCommand()},
		{"config", configcmd.NewConfigCommandFactory()},
	}
	for _, f := range factories {
		if err := registerCommand.Register(f.name, f.factory); err != nil {
			return nil, err
		}
	}

	return &cli.Command{
		Name:                  "issuebot",
		Usage:                 t.GetMessage("app_usage", 0, nil),
		Version:               version.FullVersion(),
		Description:           t.GetMessage("app_description", 0, nil),
		Flags:                 commands.GlobalFlags(t),
		Commands:              registerCommand.CreateCommands(),
		EnableShellCompletion: true,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			format := logger.Format(cmd.String(commands.FlagLogFormat))
			if format != logger.FormatPretty && format != logger.FormatJSON {
				return ctx, fmt.Errorf("invalid --%s %q, expected %s or %s",
					commands.FlagLogFormat, format, logger.FormatPretty, logger.FormatJSON)
			}
			return commands.SetupLogger(ctx, cmd, format), nil
		},
	}, nil
}
