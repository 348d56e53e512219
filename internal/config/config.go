// Package config loads server settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/upload"
)

// Config holds every setting the server needs.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Database db.Config `yaml:"database"`

	Uploads struct {
		Backend  string          `yaml:"backend"` // disk or s3
		Dir      string          `yaml:"dir"`
		MaxBytes int64           `yaml:"max_bytes"`
		S3       upload.S3Config `yaml:"s3"`
	} `yaml:"uploads"`

	Timeouts struct {
		Store  time.Duration `yaml:"store"`
		Upload time.Duration `yaml:"upload"`
	} `yaml:"timeouts"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Web struct {
		StaticDir string `yaml:"static_dir"`
	} `yaml:"web"`

	Features struct {
		TimeOfDay bool `yaml:"time_of_day"`
	} `yaml:"features"`

	LogPath string `yaml:"log_path"`
}

// Upload backends.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Default returns the settings used when nothing is configured.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":5500"

	cfg.Database = db.Config{
		Driver: db.SQLite,
		Path:   "lostfound.sqlite3",
		Host:   "localhost",
		User:   "app_user",
		Name:   "lostfound",
	}

	cfg.Uploads.Backend = BackendDisk
	cfg.Uploads.Dir = "uploads"
	cfg.Uploads.MaxBytes = upload.DefaultMaxBytes

	cfg.Timeouts.Store = 5 * time.Second
	cfg.Timeouts.Upload = upload.DefaultTimeout

	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Features.TimeOfDay = true
	return cfg
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first (existing variables win). path names an
// optional YAML file; when empty, CONFIG_PATH is consulted.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings from environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	str("LOSTFOUND_ADDR", &c.Server.Addr)

	var driver string
	str("DB_DRIVER", &driver)
	if driver != "" {
		c.Database.Driver = db.Dialect(strings.ToLower(driver))
	}
	str("DB_PATH", &c.Database.Path)
	str("DB_HOST", &c.Database.Host)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)

	str("UPLOADS_BACKEND", &c.Uploads.Backend)
	str("UPLOADS_DIR", &c.Uploads.Dir)
	str("S3_ENDPOINT", &c.Uploads.S3.Endpoint)
	str("S3_ACCESS_KEY", &c.Uploads.S3.AccessKey)
	str("S3_SECRET_KEY", &c.Uploads.S3.SecretKey)
	str("S3_BUCKET", &c.Uploads.S3.Bucket)
	str("S3_REGION", &c.Uploads.S3.Region)

	str("WEB_STATIC_DIR", &c.Web.StaticDir)
	str("LOG_PATH", &c.LogPath)

	if v := getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v := getenv("UPLOADS_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing UPLOADS_MAX_BYTES: %w", err)
		}
		c.Uploads.MaxBytes = n
	}
	if v := getenv("STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing STORE_TIMEOUT: %w", err)
		}
		c.Timeouts.Store = d
	}
	if v := getenv("UPLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing UPLOAD_TIMEOUT: %w", err)
		}
		c.Timeouts.Upload = d
	}
	if v := getenv("S3_CREATE_BUCKET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing S3_CREATE_BUCKET: %w", err)
		}
		c.Uploads.S3.CreateBucket = b
	}
	if v := getenv("FEATURE_TIME_OF_DAY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing FEATURE_TIME_OF_DAY: %w", err)
		}
		c.Features.TimeOfDay = b
	}
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}

	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is empty")
	}
	if _, err := c.Database.DriverName(); err != nil {
		return err
	}
	switch c.Uploads.Backend {
	case BackendDisk:
		if c.Uploads.Dir == "" {
			return fmt.Errorf("uploads directory is empty")
		}
	case BackendS3:
		if c.Uploads.S3.Endpoint == "" || c.Uploads.S3.Bucket == "" {
			return fmt.Errorf("s3 uploads need an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown uploads backend %q", c.Uploads.Backend)
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads max_bytes must be positive")
	}
	if c.Timeouts.Store <= 0 || c.Timeouts.Upload <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
