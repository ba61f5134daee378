package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source.Protocol != ProtocolSFTP {
		t.Errorf("expected default protocol %q, got %q", ProtocolSFTP, cfg.Source.Protocol)
	}
	if cfg.Source.RemotePath != "/" {
		t.Errorf("expected default remote path /, got %q", cfg.Source.RemotePath)
	}
	if cfg.Destination.Mode() != ModeLocal {
		t.Errorf("expected default mode %q, got %q", ModeLocal, cfg.Destination.Mode())
	}
	if cfg.Manifest.Column != "filename" {
		t.Errorf("expected default column filename, got %q", cfg.Manifest.Column)
	}
	if !cfg.DeleteAfterTransfer {
		t.Error("expected delete_after_transfer to default to true")
	}
}

func TestLoadConfig(t *testing.T) {
	content := `
source:
  host: files.example.com
  user: batch
  password: hunter2
  remote_path: /outbound
destination:
  s3:
    bucket: landing-zone
    prefix: inbound/cegid
    region: eu-west-1
delete_after_transfer: false
`
	path := filepath.Join(t.TempDir(), "ferry.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Host != "files.example.com" {
		t.Errorf("unexpected host %q", cfg.Source.Host)
	}
	if cfg.Destination.Mode() != ModeS3 {
		t.Errorf("expected mode %q, got %q", ModeS3, cfg.Destination.Mode())
	}
	if cfg.DeleteAfterTransfer {
		t.Error("expected delete_after_transfer false from file")
	}
	// Defaults survive a partial file.
	if cfg.Source.Protocol != ProtocolSFTP {
		t.Errorf("expected default protocol to survive, got %q", cfg.Source.Protocol)
	}
	if cfg.Manifest.Column != "filename" {
		t.Errorf("expected default column to survive, got %q", cfg.Manifest.Column)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestFinalize(t *testing.T) {
	t.Run("port defaults per protocol", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Finalize()
		if cfg.Source.Port != 22 {
			t.Errorf("expected sftp default port 22, got %d", cfg.Source.Port)
		}

		cfg = DefaultConfig()
		cfg.Source.Protocol = ProtocolFTP
		cfg.Finalize()
		if cfg.Source.Port != 21 {
			t.Errorf("expected ftp default port 21, got %d", cfg.Source.Port)
		}
	})

	t.Run("explicit port preserved", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Source.Port = 2222
		cfg.Finalize()
		if cfg.Source.Port != 2222 {
			t.Errorf("expected explicit port preserved, got %d", cfg.Source.Port)
		}
	})

	t.Run("password from environment", func(t *testing.T) {
		t.Setenv("FERRY_SOURCE_PASSWORD", "from-env")
		cfg := DefaultConfig()
		cfg.Finalize()
		if cfg.Source.Password != "from-env" {
			t.Errorf("expected password from env, got %q", cfg.Source.Password)
		}
	})

	t.Run("prefix normalization", func(t *testing.T) {
		cases := map[string]string{
			"":               "",
			"inbound":        "inbound/",
			"inbound/":       "inbound/",
			"inbound/cegid/": "inbound/cegid/",
			"a//":            "a/",
		}
		for in, want := range cases {
			cfg := DefaultConfig()
			cfg.Destination.S3.Prefix = in
			cfg.Finalize()
			if got := cfg.Destination.S3.Prefix; got != want {
				t.Errorf("prefix %q: expected %q, got %q", in, want, got)
			}
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Source.Host = "files.example.com"
		cfg.Source.User = "batch"
		cfg.Source.Password = "hunter2"
		cfg.Finalize()
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config to pass: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad protocol", func(c *Config) { c.Source.Protocol = "ftps" }},
		{"missing host", func(c *Config) { c.Source.Host = "" }},
		{"missing user", func(c *Config) { c.Source.User = "" }},
		{"missing password", func(c *Config) { c.Source.Password = "" }},
		{"port out of range", func(c *Config) { c.Source.Port = 70000 }},
		{"missing local path", func(c *Config) { c.Destination.Local.Path = "" }},
		{"missing column", func(c *Config) { c.Manifest.Column = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
