package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the structure of config.yml used by the tool. Every
// field is optional; the defaults target the public Mozilla services.
type Config struct {
	Bugzilla struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
		OAuth  struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			TokenURL     string `yaml:"token_url"`
		} `yaml:"oauth"`
	} `yaml:"bugzilla"`
	ProductDetails struct {
		URL string `yaml:"url"`
	} `yaml:"product_details"`
	Products            []string `yaml:"products"`
	DataDir             string   `yaml:"data_dir"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds"`
}

// defaultProducts are the products whose bugs feed the report.
var defaultProducts = []string{
	"Core",
	"DevTools",
	"Firefox",
	"Firefox Build System",
	"Firefox for Android",
	"Testing",
	"Toolkit",
	"WebExtensions",
}

func Default() *Config {
	var c Config
	c.Bugzilla.URL = "https://bugzilla.mozilla.org"
	c.ProductDetails.URL = "https://product-details.mozilla.org/1.0"
	c.Products = append([]string(nil), defaultProducts...)
	c.DataDir = "data"
	// History payloads for a whole release cycle are large; the tracker is
	// given plenty of time per query.
	c.FetchTimeoutSeconds = 960
	return &c
}

// Load parses the YAML configuration file at path and fills in defaults for
// anything left unset. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	slog.Info("config.loaded", "path", path)
	return c, nil
}

func (c *Config) validate() error {
	if c.Bugzilla.URL == "" {
		return fmt.Errorf("bugzilla.url must not be empty")
	}
	if c.ProductDetails.URL == "" {
		return fmt.Errorf("product_details.url must not be empty")
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("products must not be empty")
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch_timeout_seconds must be positive")
	}
	if c.Bugzilla.APIKey != "" && c.Bugzilla.OAuth.ClientID != "" {
		return fmt.Errorf("bugzilla.api_key and bugzilla.oauth are mutually exclusive")
	}
	if c.Bugzilla.OAuth.ClientID != "" && (c.Bugzilla.OAuth.ClientSecret == "" || c.Bugzilla.OAuth.TokenURL == "") {
		return fmt.Errorf("bugzilla.oauth requires client_id, client_secret and token_url")
	}
	return nil
}

// FetchTimeout returns the per-query timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Path resolves the config file location: CONFIG_PATH when set, otherwise
// ./config.yml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config.yml"
}
