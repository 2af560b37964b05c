// Package config loads the settings shared by the API server and the image worker.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the whole configuration of both processes
type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		MetricsPort  string        `yaml:"metrics_port"`
		HealthPort   string        `yaml:"health_port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		// PublicDomain prefixes every blob URL, e.g. https://api.example.com
		PublicDomain string `yaml:"public_domain"`
	} `yaml:"server"`

	Store struct {
		Driver string `yaml:"driver"` // postgres, memgraph or memory

		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			MaxConns int32  `yaml:"max_conns"`
			MinConns int32  `yaml:"min_conns"`
		} `yaml:"postgres"`

		Graph struct {
			URL      string `yaml:"url"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"graph"`
	} `yaml:"store"`

	Cache struct {
		Driver    string `yaml:"driver"` // memcached, redis or local
		Memcached string `yaml:"memcached"`
		Redis     struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
		} `yaml:"redis"`
		LocalSize int `yaml:"local_size"`

		ProfileTTL     time.Duration `yaml:"profile_ttl"`
		SearchTTL      time.Duration `yaml:"search_ttl"`
		SuggestionsTTL time.Duration `yaml:"suggestions_ttl"`
		PostTTL        time.Duration `yaml:"post_ttl"`
		PostListTTL    time.Duration `yaml:"post_list_ttl"`
	} `yaml:"cache"`

	Queue struct {
		URL        string        `yaml:"url"`
		Stream     string        `yaml:"stream"`
		Name       string        `yaml:"name"`
		Durable    string        `yaml:"durable"`
		AckWait    time.Duration `yaml:"ack_wait"`
		MaxDeliver int           `yaml:"max_deliver"`
		// Backoff is multiplied by the attempt number between connection retries.
		Backoff time.Duration `yaml:"backoff"`
		// MaxRetries of 0 retries the broker connection forever.
		MaxRetries int `yaml:"max_retries"`
	} `yaml:"queue"`

	Storage struct {
		Driver    string `yaml:"driver"` // local or s3
		Directory string `yaml:"directory"`
		BaseURL   string `yaml:"base_url"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		// PublicURL prefixes bucket keys, defaults to endpoint/bucket.
		PublicURL string `yaml:"public_url"`
	} `yaml:"storage"`

	Auth struct {
		Secret        string        `yaml:"secret"`
		Issuer        string        `yaml:"issuer"`
		TokenLifetime time.Duration `yaml:"token_lifetime"`
		// AdminToken grants access to account moderation routes.
		AdminToken string `yaml:"admin_token"`
	} `yaml:"auth"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Tracing struct {
		ZipkinAddress string `yaml:"zipkin_address"`
	} `yaml:"tracing"`
}

// Default returns a configuration usable for local development
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Port = "8888"
	cfg.Server.MetricsPort = "9090"
	cfg.Server.HealthPort = "50051"
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.PublicDomain = "http://localhost:8888"

	cfg.Store.Driver = "postgres"
	cfg.Store.Postgres.Host = "localhost"
	cfg.Store.Postgres.Port = 5432
	cfg.Store.Postgres.User = "postgres"
	cfg.Store.Postgres.Password = "postgres"
	cfg.Store.Postgres.DBName = "socialbook"
	cfg.Store.Postgres.MaxConns = 10
	cfg.Store.Postgres.MinConns = 2
	cfg.Store.Graph.URL = "bolt://localhost:7687"

	cfg.Cache.Driver = "memcached"
	cfg.Cache.Memcached = "localhost:11211"
	cfg.Cache.Redis.Addr = "localhost:6379"
	cfg.Cache.Redis.PoolSize = 10
	cfg.Cache.LocalSize = 10000
	cfg.Cache.ProfileTTL = 2 * time.Hour
	cfg.Cache.SearchTTL = 30 * time.Minute
	cfg.Cache.SuggestionsTTL = 5 * time.Minute
	cfg.Cache.PostTTL = 30 * time.Minute
	cfg.Cache.PostListTTL = 15 * time.Minute

	cfg.Queue.URL = "nats://localhost:4222"
	cfg.Queue.Stream = "IMAGES"
	cfg.Queue.Name = "image_processing_queue"
	cfg.Queue.Durable = "image-worker"
	cfg.Queue.AckWait = 30 * time.Second
	cfg.Queue.MaxDeliver = -1
	cfg.Queue.Backoff = 5 * time.Second
	cfg.Queue.MaxRetries = 0

	cfg.Storage.Driver = "local"
	cfg.Storage.Directory = "media"
	cfg.Storage.BaseURL = "/media/"

	cfg.Auth.Secret = "secret"
	cfg.Auth.Issuer = "https://www.gravitalia.com"
	cfg.Auth.TokenLifetime = 7 * 24 * time.Hour

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	return cfg
}

// Load reads the .env file, then the YAML file at path (if any),
// then lets environment variables override single fields.
func Load(path string) (*Config, error) {
	// Get key-value in .env file
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &c.Server.Port)
	str("METRICS_PORT", &c.Server.MetricsPort)
	str("HEALTH_PORT", &c.Server.HealthPort)
	str("MY_DOMAIN", &c.Server.PublicDomain)

	str("STORE_DRIVER", &c.Store.Driver)
	str("POSTGRES_HOST", &c.Store.Postgres.Host)
	num("POSTGRES_PORT", &c.Store.Postgres.Port)
	str("POSTGRES_USER", &c.Store.Postgres.User)
	str("POSTGRES_PASSWORD", &c.Store.Postgres.Password)
	str("POSTGRES_DB", &c.Store.Postgres.DBName)
	str("GRAPH_URL", &c.Store.Graph.URL)
	str("GRAPH_USERNAME", &c.Store.Graph.Username)
	str("GRAPH_PASSWORD", &c.Store.Graph.Password)

	str("CACHE_DRIVER", &c.Cache.Driver)
	str("MEM_URL", &c.Cache.Memcached)
	str("REDIS_ADDR", &c.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	num("REDIS_DB", &c.Cache.Redis.DB)
	dur("CACHE_PROFILE_TTL", &c.Cache.ProfileTTL)
	dur("CACHE_SEARCH_TTL", &c.Cache.SearchTTL)
	dur("CACHE_SUGGESTIONS_TTL", &c.Cache.SuggestionsTTL)

	str("NATS_URL", &c.Queue.URL)
	str("QUEUE_NAME", &c.Queue.Name)
	num("QUEUE_MAX_DELIVER", &c.Queue.MaxDeliver)
	dur("QUEUE_BACKOFF", &c.Queue.Backoff)
	num("QUEUE_MAX_RETRIES", &c.Queue.MaxRetries)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("MEDIA_ROOT", &c.Storage.Directory)
	str("MEDIA_URL", &c.Storage.BaseURL)
	str("R2_SPACES_BUCKET", &c.Storage.Bucket)
	str("R2_SPACES_REGION", &c.Storage.Region)
	str("R2_SPACES_ENDPOINT", &c.Storage.Endpoint)
	str("R2_SPACES_ACCESS_KEY", &c.Storage.AccessKey)
	str("R2_SPACES_SECRET_KEY", &c.Storage.SecretKey)
	str("R2_PUBLIC_URL", &c.Storage.PublicURL)

	str("JWT_SECRET", &c.Auth.Secret)
	str("GLOBAL_AUTH", &c.Auth.AdminToken)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("ZIPKIN_ADDRESS", &c.Tracing.ZipkinAddress)

	return errors.Join(errs...)
}

// PostgresDSN builds the connection string, DATABASE_URL wins when set
func (c *Config) PostgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Store.Postgres.User,
		c.Store.Postgres.Password,
		c.Store.Postgres.Host,
		c.Store.Postgres.Port,
		c.Store.Postgres.DBName,
	)
}
