package repos

import (
	"context"
	"encoding/json"

	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/commands"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/ui"
	"github.com/urfave/cli/v3"
)

type ReposCommand struct{}

func NewReposCommand() *ReposCommand {
	return &ReposCommand{}
}

type repositoryJSON struct {
	Organization string `json:"organization"`
	Name         string `json:"name"`
}

func (c *ReposCommand) CreateCommand(t *i18n.Translations, load registry.ContainerLoader) *cli.Command {
	return &cli.Command{
		Name:    "repos",
		Aliases: []string{"repositories"},
		Usage:   t.GetMessage("repos_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the list as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container, err := load(ctx, cmd)
			if err != nil {
				return err
			}

			repos := container.Config().WatchedRepositories()
			out := commands.Writer(cmd)

			if cmd.Bool("json") {
				list := make([]repositoryJSON, 0, len(repos))
				for _, r := range repos {
					list = append(list, repositoryJSON{Organization: r.Organization, Name: r.Name})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			header := t.GetMessage("repos_header", len(repos), map[string]interface{}{"Count": len(repos)})
			ui.PrintRepositories(out, header, repos)
			return nil
		},
	}
}
