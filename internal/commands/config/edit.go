package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/thomas-vilte/issuebot/internal/commands"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newEditCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:   "edit",
		Usage:  t.GetMessage("config_edit_usage", 0, nil),
		Action: editConfigAction(t),
	}
}

func editConfigAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		path, err := configPath(command)
		if err != nil {
			return domainErrors.ErrConfigMissing.WithError(err)
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			if _, err := exec.LookPath("nano"); err == nil {
				editor = "nano"
			} else if _, err := exec.LookPath("vim"); err == nil {
				editor = "vim"
			} else {
				return errors.New(t.GetMessage("error_no_editor", 0, nil))
			}
		}

		cmd := exec.CommandContext(ctx, editor, path)
		cmd.Stdin = os.Stdin
		cmd.Stdout = commands.Writer(command)
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w", t.GetMessage("error_opening_editor", 0, nil), err)
		}

		return nil
	}
}
