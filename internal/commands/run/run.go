package run

import (
	"context"
	"fmt"
	"sync"

	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/commands"
	"github.com/thomas-vilte/issuebot/internal/commands/completion_helper"
	"github.com/thomas-vilte/issuebot/internal/config"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/models"
	"github.com/thomas-vilte/issuebot/internal/monitor"
	"github.com/thomas-vilte/issuebot/internal/ui"
	"github.com/urfave/cli/v3"
)

// RunCommand runs exactly one monitoring cycle.
type RunCommand struct{}

func NewRunCommand() *RunCommand {
	return &RunCommand{}
}

// errorLog keeps the errors reported during the cycle so they can be printed
// after the spinner stops. onReport, when set, receives the running count.
type errorLog struct {
	mu       sync.Mutex
	errs     []error
	onReport func(count int)
}

func (l *errorLog) Report(_ context.Context, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
	if l.onReport != nil {
		l.onReport(len(l.errs))
	}
}

func (c *RunCommand) CreateCommand(t *i18n.Translations, load registry.ContainerLoader) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: t.GetMessage("run_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "Poll only these org/name repositories instead of the configured ones",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with an error when any repository or observer failed",
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container, err := load(ctx, cmd)
			if err != nil {
				return err
			}

			if repos := cmd.StringSlice("repo"); len(repos) > 0 {
				if err := overrideRepositories(container.Config(), repos); err != nil {
					return err
				}
			}

			reported := &errorLog{}
			m, err := container.Monitor(monitor.WithErrorReporter(reported))
			if err != nil {
				return domainErrors.NewAppError(domainErrors.TypeConfiguration, t.GetMessage("error_build_monitor", 0, nil), err)
			}

			out := commands.Writer(cmd)
			count := len(m.Repositories())
			polling := t.GetMessage("run_polling", count, map[string]interface{}{"Count": count})
			spinner := ui.NewSmartSpinner(out, polling)
			reported.onReport = func(failed int) {
				spinner.UpdateMessage(t.GetMessage("run_polling_failures", failed, map[string]interface{}{
					"Polling": polling,
					"Count":   failed,
				}))
			}
			spinner.Start()
			m.RunCycle(ctx)

			summary, _ := m.LastCycle()
			finished := t.GetMessage("run_finished", summary.Errors(), map[string]interface{}{
				"Issues": summary.Issues,
				"Count":  summary.Errors(),
			})

			if summary.Errors() == 0 && !summary.Canceled {
				spinner.Success(ui.WithDuration(finished, summary.Duration()))
			} else {
				spinner.Stop()
				for _, reportedErr := range reported.errs {
					ui.PrintWarning(out, reportedErr.Error())
				}
				spinner.Warning(ui.WithDuration(finished, summary.Duration()))
			}

			if summary.Canceled {
				return ctx.Err()
			}
			if cmd.Bool("strict") && summary.Errors() > 0 {
				return cli.Exit(finished, 1)
			}
			return nil
		},
	}
}

func overrideRepositories(cfg *config.Config, values []string) error {
	repos := make([]config.RepositoryConfig, 0, len(values))
	for _, v := range values {
		repo, err := models.ParseRepository(v)
		if err != nil {
			return domainErrors.ErrInvalidRepository.WithError(err).WithContext("field", fmt.Sprintf("--repo %s", v))
		}
		repos = append(repos, config.RepositoryConfig{Organization: repo.Organization, Name: repo.Name})
	}
	cfg.Repositories = repos
	return nil
}
