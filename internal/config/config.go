package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source protocols supported by the fetcher.
const (
	ProtocolSFTP = "sftp"
	ProtocolFTP  = "ftp"
)

// Destination modes. The mode is derived, not configured: setting an S3
// bucket selects remote mode, otherwise files land in a local directory.
const (
	ModeLocal = "local"
	ModeS3    = "s3"
)

// Config is the top-level configuration. It is resolved once at startup
// (file, then flag overrides, then environment fallbacks) and never mutated
// afterwards.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Manifest    ManifestConfig    `yaml:"manifest"`

	// DeleteAfterTransfer removes the source file once the destination
	// write is confirmed. Disabled by --no-delete.
	DeleteAfterTransfer bool `yaml:"delete_after_transfer"`

	// StrictCleanup makes cleanup failures count against the exit code.
	StrictCleanup bool `yaml:"strict_cleanup"`

	// HistoryDB is the path to the optional run-history database.
	// Empty disables the journal.
	HistoryDB string `yaml:"history_db"`
}

// SourceConfig holds the file server connection settings.
type SourceConfig struct {
	Protocol   string `yaml:"protocol"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	RemotePath string `yaml:"remote_path"`
}

// DestinationConfig holds both destination variants; Mode() picks one.
type DestinationConfig struct {
	Local LocalConfig `yaml:"local"`
	S3    S3Config    `yaml:"s3"`
}

// LocalConfig is the local-directory destination.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// S3Config is the object-store destination.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Overwrite bool   `yaml:"overwrite"`
}

// ManifestConfig holds manifest parsing settings.
type ManifestConfig struct {
	Column string `yaml:"column"`
}

// Mode returns the active destination mode.
func (d *DestinationConfig) Mode() string {
	if d.S3.Bucket != "" {
		return ModeS3
	}
	return ModeLocal
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Protocol:   ProtocolSFTP,
			RemotePath: "/",
		},
		Destination: DestinationConfig{
			Local: LocalConfig{Path: "./downloads"},
		},
		Manifest: ManifestConfig{
			Column: "filename",
		},
		DeleteAfterTransfer: true,
	}
}

// Load reads a config file from the given path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations.
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"ferry.yaml",
		"/etc/ferry/ferry.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "ferry", "ferry.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// LoadEnv loads an optional .env file into the process environment.
// A missing file is not an error; system environment wins either way.
func LoadEnv() {
	_ = godotenv.Load()
}

// Finalize fills environment-sourced secrets and normalizes derived fields.
// The S3 key prefix is normalized to end in exactly one "/" so key
// construction downstream is plain concatenation.
func (c *Config) Finalize() {
	if c.Source.Password == "" {
		c.Source.Password = os.Getenv("FERRY_SOURCE_PASSWORD")
	}
	if c.Source.Port == 0 {
		switch c.Source.Protocol {
		case ProtocolFTP:
			c.Source.Port = 21
		default:
			c.Source.Port = 22
		}
	}
	if p := c.Destination.S3.Prefix; p != "" {
		c.Destination.S3.Prefix = strings.TrimRight(p, "/") + "/"
	}
}

// Validate reports the first fatal configuration problem.
func (c *Config) Validate() error {
	switch c.Source.Protocol {
	case ProtocolSFTP, ProtocolFTP:
	default:
		return fmt.Errorf("unsupported source protocol %q (want %s or %s)",
			c.Source.Protocol, ProtocolSFTP, ProtocolFTP)
	}

	if c.Source.Host == "" {
		return fmt.Errorf("source host is required")
	}
	if c.Source.User == "" {
		return fmt.Errorf("source user is required")
	}
	if c.Source.Password == "" {
		return fmt.Errorf("source password is required (flag, config file, or FERRY_SOURCE_PASSWORD)")
	}
	if c.Source.Port < 1 || c.Source.Port > 65535 {
		return fmt.Errorf("source port %d out of range", c.Source.Port)
	}

	if c.Destination.Mode() == ModeLocal && c.Destination.Local.Path == "" {
		return fmt.Errorf("local destination path is required")
	}

	if c.Manifest.Column == "" {
		return fmt.Errorf("manifest column name is required")
	}

	return nil
}
