// internal/config/config.go
//
// This package handles configuration and the .roadmap directory structure.
// Every directory roadmap runs from gets a .roadmap/ folder holding the
// config file, logs and the persisted session identifier.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// RoadmapDir is the name of the directory we create in the working directory
	RoadmapDir = ".roadmap"

	// DefaultBaseURL is the remote voting service.
	DefaultBaseURL = "https://roadmap-vote-df21307c8941.herokuapp.com"
	// DefaultCelebration is how long the confetti stays up after an accepted vote.
	DefaultCelebration = 3 * time.Second
	// DefaultWebHost is the loopback interface used by `roadmap web`.
	DefaultWebHost = "127.0.0.1"
	// DefaultWebPort is the default TCP port for `roadmap web`.
	DefaultWebPort = 8787

	StoreFile   = "file"
	StoreMemory = "memory"
)

const defaultProjectConfigYAML = `# roadmap configuration
version: 1

api:
  base_url: https://roadmap-vote-df21307c8941.herokuapp.com
  # Leave empty to rely on the transport default (no timeout).
  timeout: ""

# Where the session identifier lives. "file" keeps it in .roadmap/state until
# "roadmap session clear"; "memory" drops it when the process exits.
session:
  store: file

votes:
  # Refuse a second vote for a feature while the first is still in flight.
  guard_in_flight: true
  celebration: 3s

web:
  host: 127.0.0.1
  port: 8787
`

// APIConfig points the client at the remote voting service.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout,omitempty"`
}

// SessionConfig selects the session-scoped store.
type SessionConfig struct {
	Store string `yaml:"store"`
}

// VotesConfig tunes the vote workflow.
type VotesConfig struct {
	GuardInFlight *bool  `yaml:"guard_in_flight,omitempty"`
	Celebration   string `yaml:"celebration,omitempty"`
}

// WebConfig configures the browser front end.
type WebConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// ProjectConfig models .roadmap/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Votes   VotesConfig   `yaml:"votes"`
	Web     WebConfig     `yaml:"web"`
}

// Config holds the runtime configuration for roadmap.
type Config struct {
	// ProjectDir is the directory where the user ran `roadmap` from
	ProjectDir string

	// RoadmapProjectDir is ProjectDir/.roadmap
	RoadmapProjectDir string

	Project ProjectConfig

	timeout     time.Duration
	celebration time.Duration
}

// InitRoadmapDir creates the .roadmap directory structure in the given directory.
//
// Structure created:
// .roadmap/
// ├── config.yaml
// ├── logs/    <- roadmap.log and activity.log
// └── state/   <- session.yaml
func InitRoadmapDir(projectDir string) error {
	roadmapDir := filepath.Join(projectDir, RoadmapDir)

	dirs := []string{
		filepath.Join(roadmapDir, "logs"),
		filepath.Join(roadmapDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(roadmapDir, "config.yaml"))
}

// NewConfig loads .roadmap/config.yaml (when present) and applies
// environment overrides on top of it.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		RoadmapProjectDir: filepath.Join(projectDir, RoadmapDir),
		Project:           defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.RoadmapProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.RoadmapProjectDir, "state")
}

// SessionPath returns the file backing the file session store.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir(), "session.yaml")
}

// ActivityLogPath returns the logbook shown under the board.
func (c *Config) ActivityLogPath() string {
	return filepath.Join(c.LogsDir(), "activity.log")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.RoadmapProjectDir, "config.yaml")
}

// BaseURL returns the remote service root without a trailing slash.
func (c *Config) BaseURL() string {
	return c.Project.API.BaseURL
}

// SetBaseURL overrides the remote service for this process only.
func (c *Config) SetBaseURL(raw string) error {
	normalized, err := normalizeBaseURL(raw)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.API.BaseURL = normalized
	return nil
}

// Timeout is the HTTP client timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return c.timeout
}

// SessionStore returns "file" or "memory".
func (c *Config) SessionStore() string {
	return c.Project.Session.Store
}

// GuardInFlight reports whether duplicate in-flight votes are refused.
func (c *Config) GuardInFlight() bool {
	if c.Project.Votes.GuardInFlight == nil {
		return true
	}
	return *c.Project.Votes.GuardInFlight
}

// Celebration is how long the celebratory state lasts.
func (c *Config) Celebration() time.Duration {
	if c.celebration <= 0 {
		return DefaultCelebration
	}
	return c.celebration
}

// WebAddress returns the host:port the browser front end binds to.
func (c *Config) WebAddress() string {
	return net.JoinHostPort(c.Project.Web.Host, strconv.Itoa(c.Project.Web.Port))
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("ROADMAP_API_URL")); value != "" {
		c.Project.API.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv("ROADMAP_SESSION_STORE")); value != "" {
		c.Project.Session.Store = value
	}
	if host := strings.TrimSpace(os.Getenv("ROADMAP_WEB_HOST")); host != "" {
		c.Project.Web.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("ROADMAP_WEB_PORT")); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			c.Project.Web.Port = parsed
		}
	}
}

func (c *Config) finalize() error {
	c.Project.applyDefaults()
	if err := c.Project.normalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	timeout, err := parseDuration(c.Project.API.Timeout)
	if err != nil {
		return fmt.Errorf("config: api.timeout: %w", err)
	}
	celebration, err := parseDuration(c.Project.Votes.Celebration)
	if err != nil {
		return fmt.Errorf("config: votes.celebration: %w", err)
	}
	c.timeout = timeout
	c.celebration = celebration
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API:     APIConfig{BaseURL: DefaultBaseURL},
		Session: SessionConfig{Store: StoreFile},
		Votes:   VotesConfig{Celebration: DefaultCelebration.String()},
		Web:     WebConfig{Host: DefaultWebHost, Port: DefaultWebPort},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.API.BaseURL) == "" {
		pc.API.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(pc.Session.Store) == "" {
		pc.Session.Store = StoreFile
	}
	if strings.TrimSpace(pc.Votes.Celebration) == "" {
		pc.Votes.Celebration = DefaultCelebration.String()
	}
	if strings.TrimSpace(pc.Web.Host) == "" {
		pc.Web.Host = DefaultWebHost
	}
	if pc.Web.Port == 0 {
		pc.Web.Port = DefaultWebPort
	}
}

func (pc *ProjectConfig) normalize() error {
	base, err := normalizeBaseURL(pc.API.BaseURL)
	if err != nil {
		return err
	}
	pc.API.BaseURL = base
	pc.API.Timeout = strings.TrimSpace(pc.API.Timeout)
	pc.Session.Store = strings.ToLower(strings.TrimSpace(pc.Session.Store))
	pc.Votes.Celebration = strings.TrimSpace(pc.Votes.Celebration)
	pc.Web.Host = strings.TrimSpace(pc.Web.Host)
	return nil
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Session.Store {
	case StoreFile, StoreMemory:
	default:
		return fmt.Errorf("session.store must be 'file' or 'memory'")
	}
	if !isValidPort(pc.Web.Port) {
		return fmt.Errorf("web.port %d out of range", pc.Web.Port)
	}
	return nil
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", fmt.Errorf("api.base_url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("api.base_url must be an http(s) URL")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("api.base_url is missing a host")
	}
	return trimmed, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
