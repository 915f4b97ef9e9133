package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "KIRANAKART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Upstream     UpstreamConfig
	GoogleMaps   GoogleMapsConfig
	Delivery     DeliveryConfig
	Warehouse    WarehouseConfig
	SubmitLimit  SubmitRateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Warehouse.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KIRANAKART_APP_ENV" required:"true"`
	Port         string `envconfig:"KIRANAKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KIRANAKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KIRANAKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KIRANAKART_DB_DSN"`
	Driver string `envconfig:"KIRANAKART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KIRANAKART_DB_HOST"`
	Port     int    `envconfig:"KIRANAKART_DB_PORT" default:"5432"`
	User     string `envconfig:"KIRANAKART_DB_USER"`
	Password string `envconfig:"KIRANAKART_DB_PASSWORD"`
	Name     string `envconfig:"KIRANAKART_DB_NAME"`
	SSLMode  string `envconfig:"KIRANAKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KIRANAKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KIRANAKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KIRANAKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KIRANAKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KIRANAKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KIRANAKART_REDIS_ADDR"`
	Password     string        `envconfig:"KIRANAKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"KIRANAKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KIRANAKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KIRANAKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KIRANAKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KIRANAKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KIRANAKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"KIRANAKART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"KIRANAKART_JWT_ISSUER" required:"true"`
}

// UpstreamConfig locates the commerce platform API that owns orders, pricing,
// promo codes, and the customer address book.
type UpstreamConfig struct {
	BaseURL      string        `envconfig:"KIRANAKART_UPSTREAM_BASE_URL" required:"true"`
	ServiceToken string        `envconfig:"KIRANAKART_UPSTREAM_SERVICE_TOKEN"`
	Timeout      time.Duration `envconfig:"KIRANAKART_UPSTREAM_TIMEOUT" default:"15s"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"KIRANAKART_GOOGLE_MAPS_API_KEY"`
}

// DeliveryConfig tunes the quote pipeline.
type DeliveryConfig struct {
	QuoteWindow    time.Duration `envconfig:"KIRANAKART_DELIVERY_QUOTE_WINDOW" default:"5s"`
	FailureMemoTTL time.Duration `envconfig:"KIRANAKART_DELIVERY_FAILURE_MEMO_TTL" default:"30m"`
}

// WarehouseConfig carries the fulfilment operating window in minutes from
// midnight, local warehouse time.
type WarehouseConfig struct {
	OpenMinute  int `envconfig:"KIRANAKART_WAREHOUSE_OPEN_MINUTE" default:"360"`
	CloseMinute int `envconfig:"KIRANAKART_WAREHOUSE_CLOSE_MINUTE" default:"1380"`
}

func (w WarehouseConfig) validate() error {
	if w.OpenMinute < 0 || w.CloseMinute > 24*60 || w.OpenMinute >= w.CloseMinute {
		return fmt.Errorf("invalid warehouse operating window %d-%d", w.OpenMinute, w.CloseMinute)
	}
	return nil
}

// SubmitRateLimitConfig throttles order submission traffic.
type SubmitRateLimitConfig struct {
	Window        time.Duration `envconfig:"KIRANAKART_SUBMIT_RL_WINDOW" default:"1m"`
	IPLimit       int           `envconfig:"KIRANAKART_SUBMIT_RL_IP_LIMIT" default:"30"`
	CustomerLimit int           `envconfig:"KIRANAKART_SUBMIT_RL_CUSTOMER_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KIRANAKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KIRANAKART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "KIRANAKART_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "KIRANAKART_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "KIRANAKART_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("either KIRANAKART_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
