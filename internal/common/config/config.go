package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port       int    `env:"PORT" envDefault:"8080"`
		Origin     string `env:"ORIGIN" envDefault:"http://localhost:3000"`
		AdminToken string `env:"ADMIN_TOKEN,required"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"brainrot_market"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		BotToken string   `env:"BOT_TOKEN,required"`
		GuildID  string   `env:"GUILD_ID" envDefault:""`
		AdminIDs []string `env:"ADMIN_IDS" envSeparator:","`
	}

	Pricing struct {
		CoinGeckoURL string        `env:"COINGECKO_URL" envDefault:"https://api.coingecko.com"`
		CoinCapURL   string        `env:"COINCAP_URL" envDefault:"https://api.coincap.io"`
		CacheTTL     time.Duration `env:"PRICE_CACHE_TTL" envDefault:"5m"`
	}
}

// GetDSN builds the lib/pq connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User,
		c.Postgres.Password, c.Postgres.Database, c.Postgres.SSLMode)
}

// GetMigrateURL builds the URL form golang-migrate expects.
func (c *Config) GetMigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User, c.Postgres.Password, c.Postgres.Host,
		c.Postgres.Port, c.Postgres.Database, c.Postgres.SSLMode)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional, production sets the environment directly
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
