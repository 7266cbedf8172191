package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	PriceSourceFile     = "file"
	PriceSourcePostgres = "postgres"

	SinkCSV      = "csv"
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	PriceSource    string
	PricesDir      string
	PricesJSONPath string
	TradesFile     string
	DepositsFile   string
	OutputDir      string
	Sink           string
	DatabaseURL    string
	SQLitePath     string
	FirstYear      int
	LastYear       int
	TrackedUnit    string
	CurrencyUnit   string
	LogLevel       string
	LogPretty      bool
	ShowProgress   bool
}

// Load reads configuration from environment variables. It does not validate:
// callers apply their overrides first and then call Validate.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		PriceSource:    strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceFile)),
		PricesDir:      getEnv("PRICES_DIR", "./prices"),
		PricesJSONPath: getEnv("PRICES_JSONPATH", "$.data.ohlc"),
		TradesFile:     getEnv("TRADES_FILE", "./trades/trades.csv"),
		DepositsFile:   getEnv("DEPOSITS_FILE", "./deposits/deposits.csv"),
		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		Sink:           strings.ToLower(getEnv("SINK", SinkCSV)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "./output/gains.db"),
		FirstYear:      getEnvAsInt("FIRST_YEAR", 2015),
		LastYear:       getEnvAsInt("LAST_YEAR", 2020),
		TrackedUnit:    getEnv("TRACKED_UNIT", "BTC"),
		CurrencyUnit:   getEnv("CURRENCY_UNIT", "USD"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", true),
		ShowProgress:   getEnvAsBool("SHOW_PROGRESS", true),
	}

	return cfg, nil
}

// Validate checks that the settings are consistent with each other.
func (c *Config) Validate() error {
	switch c.PriceSource {
	case PriceSourceFile:
		if c.PricesDir == "" {
			return fmt.Errorf("PRICES_DIR is required for the file price source")
		}
	case PriceSourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres price source")
		}
	default:
		return fmt.Errorf("PRICE_SOURCE must be %s or %s, got %q", PriceSourceFile, PriceSourcePostgres, c.PriceSource)
	}

	switch c.Sink {
	case SinkCSV:
		if c.OutputDir == "" {
			return fmt.Errorf("OUTPUT_DIR is required for the csv sink")
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres sink")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite sink")
		}
	default:
		return fmt.Errorf("SINK must be %s, %s or %s, got %q", SinkCSV, SinkPostgres, SinkSQLite, c.Sink)
	}

	if c.TradesFile == "" {
		return fmt.Errorf("TRADES_FILE is required")
	}
	if c.FirstYear <= 0 || c.LastYear < c.FirstYear {
		return fmt.Errorf("FIRST_YEAR %d and LAST_YEAR %d do not form a range", c.FirstYear, c.LastYear)
	}
	if c.TrackedUnit == "" || c.CurrencyUnit == "" {
		return fmt.Errorf("TRACKED_UNIT and CURRENCY_UNIT are required")
	}
	if c.TrackedUnit == c.CurrencyUnit {
		return fmt.Errorf("TRACKED_UNIT and CURRENCY_UNIT must differ, both are %q", c.TrackedUnit)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
