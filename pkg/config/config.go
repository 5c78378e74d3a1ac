package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "remakery"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Market  MarketConfig
	Pricing PricingConfig
	Cart    CartConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REMAKERY_APP_ENV" required:"true"`
	Port         string `envconfig:"REMAKERY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REMAKERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REMAKERY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"REMAKERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REMAKERY_REDIS_ADDR"`
	Password     string        `envconfig:"REMAKERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"REMAKERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REMAKERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REMAKERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REMAKERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REMAKERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REMAKERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"REMAKERY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"REMAKERY_JWT_ISSUER" required:"true"`
}

// MarketConfig points at the upstream marketplace REST services.
type MarketConfig struct {
	BaseURL       string        `envconfig:"REMAKERY_MARKET_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"REMAKERY_MARKET_TIMEOUT" default:"10s"`
	CommitTimeout time.Duration `envconfig:"REMAKERY_MARKET_COMMIT_TIMEOUT" default:"30s"`
	RetryAttempts uint64        `envconfig:"REMAKERY_MARKET_RETRY_ATTEMPTS" default:"2"`
	RetryBackoff  time.Duration `envconfig:"REMAKERY_MARKET_RETRY_BACKOFF" default:"100ms"`
}

// PricingConfig carries the flat-rate shipping fee and the informational
// commission percentage deducted from the seller payout.
type PricingConfig struct {
	FlatShippingFee string `envconfig:"REMAKERY_PRICING_FLAT_SHIPPING_FEE" default:"150.00"`
	CommissionRate  string `envconfig:"REMAKERY_PRICING_COMMISSION_RATE" default:"0.10"`
}

func (p PricingConfig) validate() error {
	if _, err := decimal.NewFromString(p.FlatShippingFee); err != nil {
		return fmt.Errorf("parsing flat shipping fee: %w", err)
	}
	if _, err := decimal.NewFromString(p.CommissionRate); err != nil {
		return fmt.Errorf("parsing commission rate: %w", err)
	}
	return nil
}

// ShippingFee returns the flat shipping fee as a decimal.
func (p PricingConfig) ShippingFee() decimal.Decimal {
	fee, err := decimal.NewFromString(p.FlatShippingFee)
	if err != nil {
		return decimal.Zero
	}
	return fee
}

// Commission returns the commission rate as a decimal.
func (p PricingConfig) Commission() decimal.Decimal {
	rate, err := decimal.NewFromString(p.CommissionRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type CartConfig struct {
	SyncDebounce time.Duration `envconfig:"REMAKERY_CART_SYNC_DEBOUNCE" default:"500ms"`
	SyncTimeout  time.Duration `envconfig:"REMAKERY_CART_SYNC_TIMEOUT" default:"10s"`
}
