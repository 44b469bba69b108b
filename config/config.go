// Package config loads the push agent's host-side configuration.
//
// The file lives on the trusted host (default /opt/dockhand/push.yaml) and
// carries the NAS credentials, so it must stay out of reach of the proxy
// container. Everything the agent needs for one run comes from this file;
// the agent itself takes no arguments beyond --dry-run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the push agent looks for its configuration.
const DefaultPath = "/opt/dockhand/push.yaml"

// DefaultTimeout bounds every call against the NAS management API.
const DefaultTimeout = 30 * time.Second

// Duration adds yaml "30s" syntax on top of time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config describes one NAS target and the local pipeline plumbing.
type Config struct {
	// NAS management API endpoint and session credentials.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// CertDescription is the label of the certificate record on the NAS
	// that gets replaced. Matched by exact equality against the remote
	// listing; zero or multiple matches fail the run.
	CertDescription string `yaml:"cert-description"`

	// Prefix pair translating the pointer written by the in-container
	// hook into a path the host can read.
	ContainerCertRoot string `yaml:"container-cert-root"`
	HostCertRoot      string `yaml:"host-cert-root"`

	// FlagFile is the host-side path of the marker written by the hook.
	FlagFile string `yaml:"flag-file"`

	LogFile    string `yaml:"log-file"`
	StatusFile string `yaml:"status-file,omitempty"`

	// Timeout for NAS API calls. Defaults to DefaultTimeout.
	Timeout Duration `yaml:"timeout,omitempty"`

	// InsecureTLS skips certificate verification against the NAS. LAN
	// appliances usually present a self-signed certificate, so this
	// defaults to true unless set explicitly.
	InsecureTLS *bool `yaml:"insecure-tls,omitempty"`
}

// Load reads and validates the configuration at path. A missing file is an
// error — the agent is useless without credentials, and silence here would
// mean no certificate is ever pushed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(DefaultTimeout)
	}
	return &cfg, nil
}

// Loose reports whether the file at path is readable by group or world.
// The config holds credentials; callers warn when this returns true.
func Loose(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o077 != 0
}

func (c *Config) validate() error {
	var missing []string
	for _, f := range []struct {
		key, val string
	}{
		{"host", c.Host},
		{"username", c.Username},
		{"password", c.Password},
		{"cert-description", c.CertDescription},
		{"container-cert-root", c.ContainerCertRoot},
		{"host-cert-root", c.HostCertRoot},
		{"flag-file", c.FlagFile},
		{"log-file", c.LogFile},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required key(s): %s", strings.Join(missing, ", "))
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// StatusPath returns the status artifact location: the configured
// status-file, or the log file with its extension swapped for
// ".status.json" when unset.
func (c *Config) StatusPath() string {
	if c.StatusFile != "" {
		return c.StatusFile
	}
	return strings.TrimSuffix(c.LogFile, filepath.Ext(c.LogFile)) + ".status.json"
}

// APITimeout returns the configured NAS call bound as a time.Duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.Timeout)
}

// Insecure reports whether TLS verification against the NAS is disabled.
func (c *Config) Insecure() bool {
	if c.InsecureTLS == nil {
		return true
	}
	return *c.InsecureTLS
}
