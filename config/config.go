package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Log      Log
	HTTP     HTTP
	DB       DB
	QuoteAPI QuoteAPI
	Redis    Redis
	Cache    Cache
	Jobs     Jobs
	Import   Import
}

type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	File       string `env:"LOG_FILE" envDefault:""`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:"127.0.0.1:3001"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowOrigins    []string      `env:"CORS_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
}

type DB struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN             string        `env:"DB_DSN" envDefault:"portfolio.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`
}

type QuoteAPI struct {
	URL       string        `env:"QUOTE_API_URL" envDefault:"https://query2.finance.yahoo.com"`
	Timeout   time.Duration `env:"QUOTE_API_TIMEOUT" envDefault:"8s"`
	Debug     bool          `env:"QUOTE_API_DEBUG" envDefault:"false"`
	UserAgent string        `env:"QUOTE_USER_AGENT" envDefault:"stockfolio/1.0"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Cache struct {
	QuoteTTL time.Duration `env:"CACHE_QUOTE_TTL" envDefault:"60s"`
}

type Jobs struct {
	WarmCacheInterval time.Duration `env:"WARM_CACHE_INTERVAL" envDefault:"5m"`
}

type Import struct {
	BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"500"`
	Workers   int `env:"IMPORT_WORKERS" envDefault:"4"`
}

// CacheEnabled reports whether a redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	opts := env.Options{RequiredIfNoDef: true}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use sqlite|postgres)", cfg.DB.Driver)
	}

	if cfg.Import.BatchSize <= 0 || cfg.Import.Workers <= 0 {
		return nil, fmt.Errorf("IMPORT_BATCH_SIZE and IMPORT_WORKERS must be positive")
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}
	return cfg
}
