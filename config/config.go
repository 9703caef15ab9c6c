// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full environment surface of the service.
type Config struct {
	// Contest rules
	TokenMint          string  `envconfig:"TOKEN_MINT" required:"true"`
	MinHoldUSD         float64 `envconfig:"MIN_HOLD_USD" default:"5"`
	ContestDaysDefault int     `envconfig:"CONTEST_DAYS_DEFAULT" default:"14"`
	KickOnFail         bool    `envconfig:"KICK_ON_FAIL" default:"true"`
	AdminIDs           []int64 `envconfig:"ADMIN_IDS"`

	// Enforcement sweep
	SweepEverySeconds        int `envconfig:"SWEEP_EVERY_SECONDS" default:"21600"`
	SweepInitialDelaySeconds int `envconfig:"SWEEP_INITIAL_DELAY_SECONDS" default:"10"`
	SweepCheckDelayMS        int `envconfig:"SWEEP_CHECK_DELAY_MS" default:"250"`

	// Oracles
	SolRPCURL      string `envconfig:"SOL_RPC_URL" required:"true"`
	DexScreenerURL string `envconfig:"DEXSCREENER_URL" default:"https://api.dexscreener.com"`
	OracleTimeout  int    `envconfig:"ORACLE_TIMEOUT_SECONDS" default:"20"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"contest.db"`

	// HTTP
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":5200"`
	ServiceToken string `envconfig:"SERVICE_TOKEN" required:"true"`

	// Notifications
	RedisURL      string `envconfig:"REDIS_URL"`
	NotifyChannel string `envconfig:"NOTIFY_CHANNEL" default:"contest:revocations"`

	// Leaderboard snapshots + optional R2 archive
	SnapshotEverySeconds int    `envconfig:"SNAPSHOT_EVERY_SECONDS" default:"3600"`
	R2AccountID          string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID        string `envconfig:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret    string `envconfig:"R2_ACCESS_KEY_SECRET"`
	R2Bucket             string `envconfig:"R2_BUCKET_NAME"`

	// Logging
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
}

// Load reads an optional .env file and then the process environment.
// A missing .env is reported through envFileErr rather than failing the load.
func Load() (cfg *Config, envFileErr error, err error) {
	envFileErr = godotenv.Load()

	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, envFileErr, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.TokenMint = strings.TrimSpace(cfg.TokenMint)
	if err := cfg.Validate(); err != nil {
		return nil, envFileErr, err
	}
	return cfg, envFileErr, nil
}

func (c *Config) Validate() error {
	var errs []error
	for name, v := range map[string]string{
		"TOKEN_MINT":    c.TokenMint,
		"SOL_RPC_URL":   c.SolRPCURL,
		"SERVICE_TOKEN": c.ServiceToken,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if c.MinHoldUSD <= 0 {
		errs = append(errs, errors.New("MIN_HOLD_USD must be positive"))
	}
	if c.SweepEverySeconds <= 0 {
		errs = append(errs, errors.New("SWEEP_EVERY_SECONDS must be positive"))
	}
	if c.ContestDaysDefault <= 0 {
		errs = append(errs, errors.New("CONTEST_DAYS_DEFAULT must be positive"))
	}
	if c.SweepInitialDelaySeconds < 0 || c.SweepCheckDelayMS < 0 {
		errs = append(errs, errors.New("sweep delays must not be negative"))
	}
	if c.SnapshotEverySeconds <= 0 {
		errs = append(errs, errors.New("SNAPSHOT_EVERY_SECONDS must be positive"))
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepEverySeconds) * time.Second
}

func (c *Config) SweepInitialDelay() time.Duration {
	return time.Duration(c.SweepInitialDelaySeconds) * time.Second
}

func (c *Config) SweepCheckDelay() time.Duration {
	return time.Duration(c.SweepCheckDelayMS) * time.Millisecond
}

func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotEverySeconds) * time.Second
}

func (c *Config) OracleHTTPTimeout() time.Duration {
	return time.Duration(c.OracleTimeout) * time.Second
}

// R2Enabled reports whether every archive setting is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}
