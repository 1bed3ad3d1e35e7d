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
	Pin          PinConfig
	FeatureFlags FeatureFlagsConfig
	Sequence     SequenceConfig
	Sync         SyncConfig
	Idempotency  IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BILLSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"BILLSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BILLSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BILLSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BILLSYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BILLSYNC_DB_DSN"`
	Driver string `envconfig:"BILLSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BILLSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"BILLSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BILLSYNC_DB_USER"`
	LegacyPassword string `envconfig:"BILLSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"BILLSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"BILLSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BILLSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BILLSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BILLSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BILLSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BILLSYNC_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"BILLSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BILLSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BILLSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BILLSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BILLSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BILLSYNC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BILLSYNC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BILLSYNC_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PinConfig struct {
	ArgonMemoryKB    int `envconfig:"BILLSYNC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BILLSYNC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BILLSYNC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BILLSYNC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BILLSYNC_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BILLSYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BILLSYNC_AUTO_MIGRATE" default:"false"`
}

// SequenceConfig bounds how long a bill number allocation waits on the
// per-vendor sequence row before surfacing SEQUENCE_BUSY.
type SequenceConfig struct {
	LockRetries   int           `envconfig:"BILLSYNC_SEQUENCE_LOCK_RETRIES" default:"5"`
	RetryBase     time.Duration `envconfig:"BILLSYNC_SEQUENCE_RETRY_BASE" default:"20ms"`
	RetryCap      time.Duration `envconfig:"BILLSYNC_SEQUENCE_RETRY_CAP" default:"250ms"`
	DefaultPrefix string        `envconfig:"BILLSYNC_SEQUENCE_DEFAULT_PREFIX" default:"INV"`
}

type SyncConfig struct {
	MaxBatchSize int `envconfig:"BILLSYNC_SYNC_MAX_BATCH_SIZE" default:"500"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"BILLSYNC_IDEMPOTENCY_TTL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
