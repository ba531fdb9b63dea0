package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "mesaviva"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Tracking     TrackingConfig
	Cron         CronConfig
	GoogleMaps   GoogleMapsConfig
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
	if _, err := cfg.Pricing.TaxRateDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.GratuityRateDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MESAVIVA_APP_ENV" required:"true"`
	Port         string `envconfig:"MESAVIVA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MESAVIVA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MESAVIVA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MESAVIVA_DB_DSN"`
	Driver string `envconfig:"MESAVIVA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MESAVIVA_DB_HOST"`
	Port     int    `envconfig:"MESAVIVA_DB_PORT" default:"5432"`
	User     string `envconfig:"MESAVIVA_DB_USER"`
	Password string `envconfig:"MESAVIVA_DB_PASSWORD"`
	Name     string `envconfig:"MESAVIVA_DB_NAME"`
	SSLMode  string `envconfig:"MESAVIVA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MESAVIVA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MESAVIVA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MESAVIVA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MESAVIVA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MESAVIVA_REDIS_URL"`
	Address      string        `envconfig:"MESAVIVA_REDIS_ADDR"`
	Password     string        `envconfig:"MESAVIVA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MESAVIVA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MESAVIVA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MESAVIVA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MESAVIVA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MESAVIVA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MESAVIVA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig signs the cart-session tokens. There are no user accounts;
// the token only scopes one customer's cart.
type SessionConfig struct {
	Secret     string        `envconfig:"MESAVIVA_SESSION_SECRET" required:"true"`
	Issuer     string        `envconfig:"MESAVIVA_SESSION_ISSUER" default:"mesaviva"`
	TTL        time.Duration `envconfig:"MESAVIVA_SESSION_TTL" default:"168h"`
	CartTTL    time.Duration `envconfig:"MESAVIVA_CART_TTL" default:"168h"`
	HeaderName string        `envconfig:"MESAVIVA_SESSION_HEADER" default:"X-Session-Token"`
}

type CartConfig struct {
	MaxQtyRegular int `envconfig:"MESAVIVA_CART_MAX_QTY_REGULAR" default:"20"`
	MaxQtyPremium int `envconfig:"MESAVIVA_CART_MAX_QTY_PREMIUM" default:"10"`
}

type PricingConfig struct {
	TaxRate                    string `envconfig:"MESAVIVA_TAX_RATE" default:"0.0875"`
	GratuityRate               string `envconfig:"MESAVIVA_GRATUITY_RATE" default:"0"`
	DeliveryFeeCents           int    `envconfig:"MESAVIVA_DELIVERY_FEE_CENTS" default:"500"`
	FreeDeliveryThresholdCents int    `envconfig:"MESAVIVA_FREE_DELIVERY_THRESHOLD_CENTS" default:"7500"`
	AlwaysFreeDelivery         bool   `envconfig:"MESAVIVA_ALWAYS_FREE_DELIVERY" default:"false"`
	PrepBaseMinutes            int    `envconfig:"MESAVIVA_PREP_BASE_MINUTES" default:"20"`
}

// TaxRateDecimal parses the configured tax rate.
func (p PricingConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", p.TaxRate, err)
	}
	return rate, nil
}

// GratuityRateDecimal parses the configured gratuity rate.
func (p PricingConfig) GratuityRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.GratuityRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing gratuity rate %q: %w", p.GratuityRate, err)
	}
	return rate, nil
}

type TrackingConfig struct {
	SmoothingEpsilon       time.Duration `envconfig:"MESAVIVA_TRACKING_SMOOTHING_EPSILON" default:"45s"`
	StalenessTimeout       time.Duration `envconfig:"MESAVIVA_TRACKING_STALENESS_TIMEOUT" default:"90s"`
	DefaultEstimateMinutes int           `envconfig:"MESAVIVA_TRACKING_DEFAULT_ESTIMATE_MINUTES" default:"40"`
	AssumedSpeedMPS        float64       `envconfig:"MESAVIVA_TRACKING_ASSUMED_SPEED_MPS" default:"8"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MESAVIVA_CRON_INTERVAL" default:"1m"`
	DraftTTL time.Duration `envconfig:"MESAVIVA_CRON_DRAFT_TTL" default:"24h"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"MESAVIVA_GOOGLE_MAPS_API_KEY"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MESAVIVA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"MESAVIVA_DB_HOST": db.Host,
		"MESAVIVA_DB_USER": db.User,
		"MESAVIVA_DB_NAME": db.Name,
	}
	for _, key := range []string{"MESAVIVA_DB_HOST", "MESAVIVA_DB_USER", "MESAVIVA_DB_NAME"} {
		if parts[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either MESAVIVA_DB_DSN or %s are required", strings.Join(missing, ", "))
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
