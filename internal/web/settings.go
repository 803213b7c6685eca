package web

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/roadmap/internal/config"
)

const (
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes, including the upstream vote call.
	DefaultWriteTimeout = 30 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultMaxBodyBytes limits form posts.
	DefaultMaxBodyBytes int64 = 64 << 10
)

// Settings captures runtime configuration for the browser board.
type Settings struct {
	Host          string
	Port          int
	Celebration   time.Duration
	GuardInFlight bool
	MaxBodyBytes  int64
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// SettingsFromConfig builds Settings from .roadmap/config.yaml. Environment
// overrides are already folded into cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Host:          config.DefaultWebHost,
		Port:          config.DefaultWebPort,
		Celebration:   config.DefaultCelebration,
		GuardInFlight: true,
	}
	if cfg != nil {
		if host := strings.TrimSpace(cfg.Project.Web.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(cfg.Project.Web.Port) {
			settings.Port = cfg.Project.Web.Port
		}
		settings.Celebration = cfg.Celebration()
		settings.GuardInFlight = cfg.GuardInFlight()
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = config.DefaultWebHost
	}
	if !isValidPort(s.Port) {
		s.Port = config.DefaultWebPort
	}
	s.normalizeLimits()
}

// normalizeLimits fills timeouts and limits but leaves the address alone, so
// tests can bind port 0.
func (s *Settings) normalizeLimits() {
	if s.Celebration <= 0 {
		s.Celebration = config.DefaultCelebration
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
