package di

import (
	"github.com/google/go-github/v80/github"
	"github.com/thomas-vilte/issuebot/internal/config"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/monitor"
	"github.com/thomas-vilte/issuebot/internal/observers"
	vcsgithub "github.com/thomas-vilte/issuebot/internal/vcs/github"
	"github.com/thomas-vilte/issuebot/internal/version"
)

// Container wires the application's dependencies from one loaded
// configuration. Everything is built lazily and at most once.
type Container struct {
	config       *config.Config
	translations *i18n.Translations

	apiClient *github.Client
	monitor   *monitor.Monitor
}

func NewContainer(cfg *config.Config, trans *i18n.Translations) *Container {
	return &Container{
		config:       cfg,
		translations: trans,
	}
}

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Translations() *i18n.Translations {
	return c.translations
}

// APIClient returns the authenticated GitHub client.
func (c *Container) APIClient() (*github.Client, error) {
	if c.apiClient != nil {
		return c.apiClient, nil
	}

	client, err := vcsgithub.NewAPIClient(vcsgithub.Config{
		BaseURL:   c.config.GitHub.BaseURL,
		Token:     c.config.GitHub.Token,
		Username:  c.config.GitHub.Username,
		Password:  c.config.GitHub.Password,
		Timeout:   c.config.GitHub.Timeout.Std(),
		UserAgent: version.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	c.apiClient = client
	return client, nil
}

// IssueClient returns the paginating issue source.
func (c *Container) IssueClient() (*vcsgithub.IssueClient, error) {
	api, err := c.APIClient()
	if err != nil {
		return nil, err
	}
	return vcsgithub.NewIssueClient(api,
		vcsgithub.WithPerPage(c.config.Monitor.PerPage),
		vcsgithub.WithMaxPages(c.config.Monitor.MaxPages)), nil
}

// Observers builds the observers enabled in the configuration.
func (c *Container) Observers() ([]monitor.Observer, error) {
	var labeler observers.Labeler
	if c.config.Observer.Triage.Enabled {
		api, err := c.APIClient()
		if err != nil {
			return nil, err
		}
		labeler = vcsgithub.NewLabelClient(api)
	}
	return observers.Build(c.config.Observer, labeler)
}

// Monitor returns the repository monitor. opts only apply on the first call.
func (c *Container) Monitor(opts ...monitor.Option) (*monitor.Monitor, error) {
	if c.monitor != nil {
		return c.monitor, nil
	}

	source, err := c.IssueClient()
	if err != nil {
		return nil, err
	}

	list, err := c.Observers()
	if err != nil {
		return nil, err
	}

	m, err := monitor.New(source, c.config.WatchedRepositories(), list, opts...)
	if err != nil {
		return nil, err
	}

	c.monitor = m
	return m, nil
}
