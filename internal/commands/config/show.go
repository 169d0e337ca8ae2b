package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/commands"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, load registry.ContainerLoader) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container, err := load(ctx, cmd)
			if err != nil {
				return err
			}
			cfg := container.Config()
			out := commands.Writer(cmd)

			ui.PrintInfo(out, t.GetMessage("config_show_header", 0, map[string]interface{}{"Path": cfg.PathFile}))
			ui.PrintKeyValue(out, "language", cfg.Language)
			ui.PrintKeyValue(out, "github.base_url", orDefault(cfg.GitHub.BaseURL, "https://api.github.com/"))
			ui.PrintKeyValue(out, "github.auth", authMode(cfg.GitHub.Token, cfg.GitHub.Username))
			ui.PrintKeyValue(out, "github.timeout", cfg.GitHub.Timeout.String())
			ui.PrintKeyValue(out, "monitor.interval", cfg.Monitor.Interval.String())
			ui.PrintKeyValue(out, "monitor.per_page", fmt.Sprint(cfg.Monitor.PerPage))
			ui.PrintKeyValue(out, "monitor.max_pages", fmt.Sprint(cfg.Monitor.MaxPages))
			ui.PrintKeyValue(out, "monitor.run_on_start", fmt.Sprint(cfg.Monitor.RunOnStart))
			ui.PrintKeyValue(out, "server.addr", cfg.Server.Addr)
			ui.PrintKeyValue(out, "observers.log", fmt.Sprint(cfg.Observer.Log.Enabled))
			ui.PrintKeyValue(out, "observers.triage", triageSummary(cfg.Observer.Triage.Enabled, cfg.Observer.Triage.DryRun, cfg.Observer.Triage.Label))

			repos := cfg.WatchedRepositories()
			header := t.GetMessage("repos_header", len(repos), map[string]interface{}{"Count": len(repos)})
			ui.PrintRepositories(out, header, repos)
			return nil
		},
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// authMode never prints the secret itself.
func authMode(token, username string) string {
	switch {
	case token != "":
		return "token " + maskSecret(token)
	case username != "":
		return "basic (" + username + ")"
	default:
		return "anonymous"
	}
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func triageSummary(enabled, dryRun bool, label string) string {
	if !enabled {
		return "false"
	}
	if dryRun {
		return fmt.Sprintf("true (%q, dry run)", label)
	}
	return fmt.Sprintf("true (%q)", label)
}
