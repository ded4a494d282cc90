package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config is read from the environment, optionally seeded from .env files.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBDriver       string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN          string `env:"DB_DSN" envDefault:"cafe.db"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	OwnerTokenSecret string   `env:"OWNER_TOKEN_SECRET,required"`
	CORSOrigins      []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitRPS     float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst   int      `env:"RATE_LIMIT_BURST" envDefault:"10"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	MenuCacheTTL  time.Duration `env:"MENU_CACHE_TTL" envDefault:"5m"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaOrderTopic string   `env:"KAFKA_ORDER_TOPIC" envDefault:"cafe.orders"`

	PublicBaseURL        string  `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	MenuDisplayRating    float64 `env:"MENU_DISPLAY_RATING" envDefault:"4.7"`
	MenuFallbackCategory string  `env:"MENU_FALLBACK_CATEGORY" envDefault:"Uncategorized"`
	SpecialItemsLimit    int     `env:"SPECIAL_ITEMS_LIMIT" envDefault:"6"`
	SpecialItemsMaxLimit int     `env:"SPECIAL_ITEMS_MAX_LIMIT" envDefault:"24"`
	CurrencySymbol       string  `env:"CURRENCY_SYMBOL" envDefault:"Rs "`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads the given env files (default .env) and parses the environment.
// A missing file is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql, postgres or sqlite, got %q", c.DBDriver)
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return errors.New("DB_DSN is required")
	}
	if c.SpecialItemsLimit > c.SpecialItemsMaxLimit {
		return fmt.Errorf("SPECIAL_ITEMS_LIMIT (%d) exceeds SPECIAL_ITEMS_MAX_LIMIT (%d)", c.SpecialItemsLimit, c.SpecialItemsMaxLimit)
	}
	return nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// InitDB opens the configured database and sizes its pool.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	logLevel := logger.Warn
	if cfg.GinMode == "release" {
		logLevel = logger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}
