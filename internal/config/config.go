package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Site    SiteConfig    `yaml:"site"`
	Output  OutputConfig  `yaml:"output"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
	Notify  *NotifyConfig `yaml:"notify,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// SourceConfig describes the git repository holding the blog content.
type SourceConfig struct {
	URL        string      `yaml:"url"`
	Branch     string      `yaml:"branch,omitempty"`
	Auth       *AuthConfig `yaml:"auth,omitempty"`
	ContentDir string      `yaml:"content_dir,omitempty"` // Subdirectory with markdown posts, defaults to "."
	Mirror     string      `yaml:"mirror,omitempty"`      // Local mirror directory, defaults to a workspace dir
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// SiteConfig holds index page presentation settings.
type SiteConfig struct {
	Title      string `yaml:"title"`
	IndexFile  string `yaml:"index_file,omitempty"`  // Name of the generated index page
	DateFormat string `yaml:"date_format,omitempty"` // Go reference layout for index dates
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// DaemonConfig controls continuous publishing mode.
type DaemonConfig struct {
	Interval    time.Duration `yaml:"interval,omitempty"`     // Sync/publish cadence
	Debounce    time.Duration `yaml:"debounce,omitempty"`     // Quiet period after local edits
	MetricsAddr string        `yaml:"metrics_addr,omitempty"` // Listen address for /metrics, empty disables
}

// NotifyConfig enables post-publish notifications over NATS.
type NotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig controls the publish history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite database path, empty disables persistence
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env if present so ${VAR} references in the YAML resolve.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Branch == "" {
		c.Source.Branch = "main"
	}
	if c.Source.ContentDir == "" {
		c.Source.ContentDir = "."
	}
	if c.Site.Title == "" {
		c.Site.Title = "Weblog"
	}
	if c.Site.IndexFile == "" {
		c.Site.IndexFile = "index.html"
	}
	if c.Site.DateFormat == "" {
		c.Site.DateFormat = "2006-01-02"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./public"
	}
	if c.Daemon.Interval <= 0 {
		c.Daemon.Interval = 15 * time.Minute
	}
	if c.Daemon.Debounce <= 0 {
		c.Daemon.Debounce = 2 * time.Second
	}
	if c.Notify != nil && c.Notify.Subject == "" {
		c.Notify.Subject = "blog.published"
	}
}

func (c *Config) validate() error {
	if c.Source.URL == "" && c.Source.Mirror == "" {
		return fmt.Errorf("source requires either a url or a mirror directory")
	}
	if c.Notify != nil && c.Notify.URL == "" {
		return fmt.Errorf("notify requires a url when configured")
	}
	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Source: SourceConfig{
			URL:        "https://example.com/blog-content.git",
			Branch:     "main",
			ContentDir: "posts",
		},
		Site: SiteConfig{
			Title:      "My Weblog",
			IndexFile:  "index.html",
			DateFormat: "2006-01-02",
		},
		Output: OutputConfig{
			Directory: "./public",
		},
		Daemon: DaemonConfig{
			Interval:    15 * time.Minute,
			Debounce:    2 * time.Second,
			MetricsAddr: ":9176",
		},
		History: HistoryConfig{
			Path: "./blogpress-history.db",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
