package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SHOPADMIN"

// Config holds the console configuration.
type Config struct {
	Addr    string `default:":8080"`
	DBPath  string `split_words:"true" default:"shopadmin.sqlite3"`
	LogPath string `split_words:"true"`

	Backend BackendConfig
	Session SessionConfig
	Image   ImageConfig
}

// BackendConfig describes the external retail API.
type BackendConfig struct {
	URL     string        `required:"true"`
	Timeout time.Duration `default:"15s"`
}

// SessionConfig controls console sessions.
type SessionConfig struct {
	TTL           time.Duration `default:"24h"`
	SecureCookie  bool          `split_words:"true"`
	SweepInterval time.Duration `split_words:"true" default:"10m"`
}

// ImageConfig controls product image preparation before upload.
type ImageConfig struct {
	MaxDimension int `split_words:"true" default:"1024"`
	MaxUploadMB  int `split_words:"true" default:"10"`
}

// Load reads an optional .env file and then the environment. Nested structs
// extend the prefix, so Backend.URL is read from SHOPADMIN_BACKEND_URL.
func Load(dotenv ...string) (*Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Backend.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url %q", c.Backend.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url must be http or https, got %q", u.Scheme)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive")
	}
	if c.Image.MaxDimension < 64 {
		return fmt.Errorf("image max dimension must be at least 64, got %d", c.Image.MaxDimension)
	}
	if c.Image.MaxUploadMB <= 0 {
		return fmt.Errorf("image upload limit must be positive")
	}
	return nil
}

// MaxUploadBytes returns the multipart body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Image.MaxUploadMB) << 20
}
