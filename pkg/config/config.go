package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Staff        StaffConfig
	FeatureFlags FeatureFlagsConfig
	Hotel        HotelConfig
	Eventing     EventingConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Hotel.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"INNKEEPER_APP_ENV" required:"true"`
	Port         string   `envconfig:"INNKEEPER_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"INNKEEPER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"INNKEEPER_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"INNKEEPER_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"INNKEEPER_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"INNKEEPER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"INNKEEPER_DB_DSN"`
	Driver string `envconfig:"INNKEEPER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"INNKEEPER_DB_HOST"`
	Port     int    `envconfig:"INNKEEPER_DB_PORT" default:"5432"`
	User     string `envconfig:"INNKEEPER_DB_USER"`
	Password string `envconfig:"INNKEEPER_DB_PASSWORD"`
	Name     string `envconfig:"INNKEEPER_DB_NAME"`
	SSLMode  string `envconfig:"INNKEEPER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INNKEEPER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INNKEEPER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INNKEEPER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INNKEEPER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"INNKEEPER_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INNKEEPER_REDIS_URL"`
	Address      string        `envconfig:"INNKEEPER_REDIS_ADDR"`
	Password     string        `envconfig:"INNKEEPER_REDIS_PASSWORD"`
	DB           int           `envconfig:"INNKEEPER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INNKEEPER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INNKEEPER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INNKEEPER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INNKEEPER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INNKEEPER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"INNKEEPER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"INNKEEPER_JWT_ISSUER" default:"innkeeper"`
	ExpirationMinutes      int    `envconfig:"INNKEEPER_JWT_EXPIRATION_MINUTES" default:"480"`
	RefreshTokenTTLMinutes int    `envconfig:"INNKEEPER_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"INNKEEPER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INNKEEPER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INNKEEPER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INNKEEPER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INNKEEPER_ARGON_KEY_LEN" default:"32"`
}

// StaffConfig seeds the first manager account and bounds login attempts.
type StaffConfig struct {
	BootstrapUsername string        `envconfig:"INNKEEPER_BOOTSTRAP_MANAGER_USERNAME"`
	BootstrapPassword string        `envconfig:"INNKEEPER_BOOTSTRAP_MANAGER_PASSWORD"`
	LoginAttempts     int           `envconfig:"INNKEEPER_LOGIN_ATTEMPTS" default:"5"`
	LoginWindow       time.Duration `envconfig:"INNKEEPER_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit      int           `envconfig:"INNKEEPER_LOGIN_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INNKEEPER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INNKEEPER_AUTO_MIGRATE" default:"false"`
}

// HotelConfig carries property-wide defaults. Business policy that staff may
// change at runtime lives in the system_settings table instead.
type HotelConfig struct {
	Timezone          string `envconfig:"INNKEEPER_HOTEL_TIMEZONE" default:"UTC"`
	ReservationPrefix string `envconfig:"INNKEEPER_RESERVATION_PREFIX" default:"RSV"`
	DefaultGraceDays  int    `envconfig:"INNKEEPER_CHECK_IN_GRACE_DAYS" default:"0"`
	AllocationRetries int    `envconfig:"INNKEEPER_ALLOCATION_RETRIES" default:"1"`
}

// Location resolves the configured hotel timezone.
func (h HotelConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(h.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvHotelTimezone, name, err)
	}
	return loc, nil
}

type EventingConfig struct {
	OutboxRetentionDays int `envconfig:"INNKEEPER_OUTBOX_RETENTION_DAYS" default:"30"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"INNKEEPER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"INNKEEPER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"INNKEEPER_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Channel        string `envconfig:"INNKEEPER_OUTBOX_CHANNEL" default:"innkeeper:notifications"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"INNKEEPER_CRON_INTERVAL" default:"5m"`
	LockTTL    time.Duration `envconfig:"INNKEEPER_CRON_LOCK_TTL" default:"4m"`
	JobTimeout time.Duration `envconfig:"INNKEEPER_CRON_JOB_TIMEOUT" default:"3m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = "sqlite"
		if db.DSN == "" {
			db.DSN = "file:innkeeper.db?cache=shared"
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
