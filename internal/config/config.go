package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/models"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Language string          `toml:"language" yaml:"language"`
		GitHub   GitHubConfig    `toml:"github" yaml:"github"`
		Monitor  MonitorConfig   `toml:"monitor" yaml:"monitor"`
		Server   ServerConfig    `toml:"server" yaml:"server"`
		Observer ObserversConfig `toml:"observers" yaml:"observers"`

		// Repository is the legacy single-repository form. It is only used
		// when Repositories is empty.
		Repository   *RepositoryConfig  `toml:"repository,omitempty" yaml:"repository,omitempty"`
		Repositories []RepositoryConfig `toml:"repositories" yaml:"repositories"`

		PathFile string `toml:"-" yaml:"-"`
	}

	GitHubConfig struct {
		BaseURL  string   `toml:"base_url,omitempty" yaml:"base_url,omitempty"`
		Token    string   `toml:"token,omitempty" yaml:"token,omitempty"`
		Username string   `toml:"username,omitempty" yaml:"username,omitempty"`
		Password string   `toml:"password,omitempty" yaml:"password,omitempty"`
		Timeout  Duration `toml:"timeout" yaml:"timeout"`
	}

	MonitorConfig struct {
		Interval   Duration `toml:"interval" yaml:"interval"`
		PerPage    int      `toml:"per_page" yaml:"per_page"`
		MaxPages   int      `toml:"max_pages" yaml:"max_pages"`
		RunOnStart bool     `toml:"run_on_start" yaml:"run_on_start"`
	}

	ServerConfig struct {
		Addr string `toml:"addr" yaml:"addr"`
	}

	ObserversConfig struct {
		Log    LogObserverConfig    `toml:"log" yaml:"log"`
		Triage TriageObserverConfig `toml:"triage" yaml:"triage"`
	}

	LogObserverConfig struct {
		Enabled bool `toml:"enabled" yaml:"enabled"`
	}

	TriageObserverConfig struct {
		Enabled       bool     `toml:"enabled" yaml:"enabled"`
		Label         string   `toml:"label" yaml:"label"`
		Collaborators []string `toml:"collaborators,omitempty" yaml:"collaborators,omitempty"`
		DryRun        bool     `toml:"dry_run" yaml:"dry_run"`
	}

	RepositoryConfig struct {
		Organization string `toml:"organization" yaml:"organization"`
		Name         string `toml:"name" yaml:"name"`
	}
)

const (
	defaultInterval    = 5 * time.Minute
	defaultTimeout     = 30 * time.Second
	defaultPerPage     = 100
	defaultAddr        = ":8080"
	defaultTriageLabel = "status: waiting-for-triage"

	maxPerPage = 100
)

// Environment variables that take precedence over file values.
const (
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubUsername = "GITHUB_USERNAME"
	EnvGitHubPassword = "GITHUB_PASSWORD"
	EnvLanguage       = "ISSUEBOT_LANGUAGE"
	EnvRepositories   = "ISSUEBOT_REPOSITORIES"
)

// Default returns a configuration holding every default value and no
// repositories.
func Default() *Config {
	return &Config{
		Language: LangEN,
		GitHub: GitHubConfig{
			Timeout: Duration(defaultTimeout),
		},
		Monitor: MonitorConfig{
			Interval:   Duration(defaultInterval),
			PerPage:    defaultPerPage,
			RunOnStart: true,
		},
		Server: ServerConfig{
			Addr: defaultAddr,
		},
		Observer: ObserversConfig{
			Log: LogObserverConfig{Enabled: true},
			Triage: TriageObserverConfig{
				Label: defaultTriageLabel,
			},
		},
	}
}

// DefaultPath returns ~/.issuebot/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	if home == "" {
		return "", fmt.Errorf("home directory is not set")
	}
	return filepath.Join(home, ".issuebot", "config.toml"), nil
}

// LoadConfig reads the file at path on top of the defaults, applies the
// environment overrides and validates the result. The format is chosen by
// extension. A missing file is accepted only when ISSUEBOT_REPOSITORIES
// provides the repositories.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	cfg.PathFile = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if os.Getenv(EnvRepositories) == "" {
			return nil, domainErrors.ErrConfigMissing.WithContext("field", path)
		}
	case err != nil:
		return nil, domainErrors.ErrConfigMissing.WithError(err).WithContext("field", path)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return domainErrors.ErrConfigDecode.WithError(err).WithContext("field", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return domainErrors.ErrConfigDecode.WithError(err).WithContext("field", path)
		}
	default:
		return domainErrors.ErrConfigUnsupportedFormat.WithContext("field", path)
	}
	return nil
}

// applyEnvOverrides lets environment values win over the file. A credential
// from the environment replaces the file's credentials of the other kind, so
// GITHUB_TOKEN overrides a configured username/password and vice versa.
func applyEnvOverrides(cfg *Config) error {
	token := os.Getenv(EnvGitHubToken)
	username := os.Getenv(EnvGitHubUsername)
	password := os.Getenv(EnvGitHubPassword)

	if token != "" {
		cfg.GitHub.Token = token
		if username == "" && password == "" {
			cfg.GitHub.Username = ""
			cfg.GitHub.Password = ""
		}
	}
	if username != "" || password != "" {
		if username != "" {
			cfg.GitHub.Username = username
		}
		if password != "" {
			cfg.GitHub.Password = password
		}
		if token == "" {
			cfg.GitHub.Token = ""
		}
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvRepositories); v != "" {
		repos, err := parseRepositoryList(v)
		if err != nil {
			return domainErrors.ErrInvalidRepository.WithError(err).WithContext("field", EnvRepositories)
		}
		cfg.Repositories = repos
	}
	return nil
}

// parseRepositoryList reads a comma separated list of org/name pairs.
func parseRepositoryList(s string) ([]RepositoryConfig, error) {
	var repos []RepositoryConfig
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		repo, err := models.ParseRepository(part)
		if err != nil {
			return nil, err
		}
		repos = append(repos, RepositoryConfig{Organization: repo.Organization, Name: repo.Name})
	}
	return repos, nil
}

// WatchedRepositories normalizes both configuration shapes into one ordered
// list without duplicates.
func (c *Config) WatchedRepositories() []models.Repository {
	source := c.Repositories
	if len(source) == 0 && c.Repository != nil {
		source = []RepositoryConfig{*c.Repository}
	}

	seen := make(map[models.Repository]struct{}, len(source))
	repos := make([]models.Repository, 0, len(source))
	for _, rc := range source {
		repo := models.NewRepository(rc.Organization, rc.Name)
		if _, ok := seen[repo]; ok {
			continue
		}
		seen[repo] = struct{}{}
		repos = append(repos, repo)
	}
	return repos
}

func (c *Config) Validate() error {
	source := c.Repositories
	field := "repositories"
	if len(source) == 0 && c.Repository != nil {
		source = []RepositoryConfig{*c.Repository}
		field = "repository"
	}
	if len(source) == 0 {
		return domainErrors.ErrNoRepositories
	}
	for i, rc := range source {
		if models.NewRepository(rc.Organization, rc.Name).IsZero() {
			return domainErrors.ErrInvalidRepository.WithContext("field", field+"["+strconv.Itoa(i)+"]")
		}
	}

	if c.GitHub.Token != "" && c.GitHub.Username != "" {
		return domainErrors.ErrConflictingCredentials
	}
	if c.GitHub.Password != "" && c.GitHub.Username == "" {
		return domainErrors.ErrIncompleteCredentials
	}
	if c.GitHub.Timeout < 0 {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "GitHub timeout cannot be negative", nil).
			WithContext("field", "github.timeout")
	}

	if c.Monitor.Interval <= 0 {
		return domainErrors.ErrInvalidInterval.WithContext("field", "monitor.interval")
	}
	if c.Monitor.PerPage < 1 || c.Monitor.PerPage > maxPerPage {
		return domainErrors.ErrInvalidPageSize.WithContext("field", "monitor.per_page")
	}
	if c.Monitor.MaxPages < 0 {
		return domainErrors.ErrInvalidMaxPages.WithContext("field", "monitor.max_pages")
	}

	if !IsSupportedLanguage(c.Language) {
		return domainErrors.ErrUnsupportedLanguage.WithContext("field", "language").WithContext("lang", c.Language)
	}

	if c.Observer.Triage.Enabled && strings.TrimSpace(c.Observer.Triage.Label) == "" {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "Triage observer needs a label", nil).
			WithContext("field", "observers.triage.label")
	}

	return nil
}

// Save writes cfg as TOML to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		_ = f.Close()
		return fmt.Errorf("error encoding config: %w", encErr)
	}
	return f.Close()
}
