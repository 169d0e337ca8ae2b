package commands

import (
	"context"
	"io"
	"os"

	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/config"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/infrastructure/di"
	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/urfave/cli/v3"
)

const (
	FlagConfig    = "config"
	FlagDebug     = "debug"
	FlagVerbose   = "verbose"
	FlagLogFormat = "log-format"
)

// GlobalFlags are declared on the root command and read by every subcommand.
func GlobalFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagConfig,
			Aliases: []string{"c"},
			Usage:   t.GetMessage("flag_config_usage", 0, nil),
			Sources: cli.EnvVars("ISSUEBOT_CONFIG"),
		},
		&cli.BoolFlag{
			Name:  FlagDebug,
			Usage: t.GetMessage("flag_debug_usage", 0, nil),
		},
		&cli.BoolFlag{
			Name:  FlagVerbose,
			Usage: t.GetMessage("flag_verbose_usage", 0, nil),
		},
		&cli.StringFlag{
			Name:  FlagLogFormat,
			Usage: "pretty or json",
			Value: string(logger.FormatPretty),
		},
	}
}

// SetupLogger installs the logger selected by the global flags and returns a
// context carrying it.
func SetupLogger(ctx context.Context, cmd *cli.Command, format logger.Format) context.Context {
	l := logger.Setup(logger.Options{
		Debug:   cmd.Bool(FlagDebug),
		Verbose: cmd.Bool(FlagVerbose),
		Format:  format,
		Writer:  errWriter(cmd),
	})
	return logger.WithLogger(ctx, l)
}

// NewContainerLoader loads the configuration named by --config, or the
// default path, and switches t to the configured language.
func NewContainerLoader(t *i18n.Translations) registry.ContainerLoader {
	return func(ctx context.Context, cmd *cli.Command) (*di.Container, error) {
		path := cmd.String(FlagConfig)
		if path == "" {
			defaultPath, err := config.DefaultPath()
			if err != nil {
				return nil, domainErrors.ErrConfigMissing.WithError(err)
			}
			path = defaultPath
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}

		if err := t.SetLanguage(cfg.Language); err != nil {
			return nil, domainErrors.ErrUnsupportedLanguage.WithError(err).WithContext("field", "language")
		}

		logger.Debug(ctx, "configuration loaded",
			"path", path,
			"repositories", len(cfg.WatchedRepositories()),
			"language", cfg.Language)

		return di.NewContainer(cfg, t), nil
	}
}

func Writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.ErrWriter != nil {
		return root.ErrWriter
	}
	return os.Stderr
}
