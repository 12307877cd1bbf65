package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Bugzilla.URL != "https://bugzilla.mozilla.org" {
		t.Errorf("bugzilla url = %q", c.Bugzilla.URL)
	}
	if c.DataDir != "data" {
		t.Errorf("data dir = %q", c.DataDir)
	}
	if len(c.Products) != 8 {
		t.Errorf("products = %v", c.Products)
	}
	if c.FetchTimeout() != 960*time.Second {
		t.Errorf("fetch timeout = %v", c.FetchTimeout())
	}
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
bugzilla:
  url: https://bugzilla.example.org
  api_key: sekrit
products:
  - Core
data_dir: /tmp/reports
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Bugzilla.URL != "https://bugzilla.example.org" {
		t.Errorf("bugzilla url = %q", c.Bugzilla.URL)
	}
	if c.Bugzilla.APIKey != "sekrit" {
		t.Errorf("api key = %q", c.Bugzilla.APIKey)
	}
	if len(c.Products) != 1 || c.Products[0] != "Core" {
		t.Errorf("products = %v", c.Products)
	}
	if c.DataDir != "/tmp/reports" {
		t.Errorf("data dir = %q", c.DataDir)
	}
	// Untouched fields keep their defaults.
	if c.ProductDetails.URL != "https://product-details.mozilla.org/1.0" {
		t.Errorf("product details url = %q", c.ProductDetails.URL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad yaml", "bugzilla: ["},
		{"empty url", "bugzilla:\n  url: \"\""},
		{"negative timeout", "fetch_timeout_seconds: -5"},
		{"api key and oauth", "bugzilla:\n  api_key: k\n  oauth:\n    client_id: c\n    client_secret: s\n    token_url: https://t"},
		{"incomplete oauth", "bugzilla:\n  oauth:\n    client_id: c"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.content)); err == nil {
				t.Errorf("expected error for %s", c.name)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/bugcycle.yml")
	if got := Path(); got != "/etc/bugcycle.yml" {
		t.Errorf("Path = %q", got)
	}
	t.Setenv("CONFIG_PATH", "")
	if got := Path(); got != "./config.yml" {
		t.Errorf("Path = %q", got)
	}
}
