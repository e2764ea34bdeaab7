package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StateDriverSQLite = "sqlite"
	StateDriverRedis  = "redis"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogFile  string `envconfig:"LOG_FILE" default:"./nittosodai.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Session state (cart, pastOrders)
	StateDriver string        `envconfig:"STATE_DRIVER" default:"sqlite"`
	DBDSN       string        `envconfig:"DB_DSN" default:"nittosodai.db"`
	RedisURL    string        `envconfig:"REDIS_URL"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"0s"`

	// Catalog
	SheetsAPIKey      string        `envconfig:"SHEETS_API_KEY"`
	SheetsEndpoint    string        `envconfig:"SHEETS_ENDPOINT" default:"https://sheets.googleapis.com/"`
	HomeSpreadsheetID string        `envconfig:"HOME_SPREADSHEET_ID"`
	CategorySheetName string        `envconfig:"CATEGORY_SHEET_NAME" default:"Sheet1"`
	ProductSheetName  string        `envconfig:"PRODUCT_SHEET_NAME" default:"Sheet1"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`

	// Orders
	WebhookURL   string `envconfig:"ORDER_WEBHOOK_URL"`
	HistoryLimit int    `envconfig:"ORDER_HISTORY_LIMIT" default:"0"`
	StoreName    string `envconfig:"STORE_NAME" default:"Nitto Sodai"`

	// Presentation
	TemplatesDir    string `envconfig:"TEMPLATES_DIR" default:"./web/templates"`
	StaticDir       string `envconfig:"STATIC_DIR" default:"./web/static"`
	WkhtmltopdfPath string `envconfig:"WKHTMLTOPDF_PATH"`
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.StateDriver = strings.ToLower(strings.TrimSpace(cfg.StateDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	log.Printf("[config] PORT=%s STATE_DRIVER=%s DB_DSN=%s LOG_FILE=%s HOME_SPREADSHEET_ID=%s ORDER_HISTORY_LIMIT=%d",
		cfg.Port, cfg.StateDriver, cfg.DBDSN, cfg.LogFile, cfg.HomeSpreadsheetID, cfg.HistoryLimit)
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StateDriver {
	case StateDriverSQLite:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for the %s state driver", StateDriverSQLite)
		}
	case StateDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s state driver", StateDriverRedis)
		}
	default:
		return fmt.Errorf("unknown STATE_DRIVER %q", c.StateDriver)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("ORDER_HISTORY_LIMIT must be >= 0, got %d", c.HistoryLimit)
	}
	return nil
}
