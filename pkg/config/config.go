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
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Submission   SubmissionConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUOTECART_APP_ENV" required:"true"`
	Port         string `envconfig:"QUOTECART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUOTECART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"QUOTECART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"QUOTECART_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"QUOTECART_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUOTECART_DB_DSN"`
	Driver string `envconfig:"QUOTECART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUOTECART_DB_HOST"`
	LegacyPort     int    `envconfig:"QUOTECART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUOTECART_DB_USER"`
	LegacyPassword string `envconfig:"QUOTECART_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUOTECART_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUOTECART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUOTECART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUOTECART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUOTECART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUOTECART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUOTECART_REDIS_URL"`
	Address      string        `envconfig:"QUOTECART_REDIS_ADDR"`
	Password     string        `envconfig:"QUOTECART_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUOTECART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUOTECART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUOTECART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUOTECART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUOTECART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUOTECART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether enough settings exist to dial Redis.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartConfig struct {
	Storage       string        `envconfig:"QUOTECART_CART_STORAGE" default:"db"`
	KeyPrefix     string        `envconfig:"QUOTECART_CART_KEY_PREFIX" default:"quote_cart"`
	TTL           time.Duration `envconfig:"QUOTECART_CART_TTL" default:"720h"`
	SessionCookie string        `envconfig:"QUOTECART_CART_SESSION_COOKIE" default:"quote_cart_session"`
	SecureCookie  bool          `envconfig:"QUOTECART_CART_SECURE_COOKIE" default:"false"`
	SweepInterval time.Duration `envconfig:"QUOTECART_CART_SWEEP_INTERVAL" default:"1h"`
	IdleTTL       time.Duration `envconfig:"QUOTECART_CART_IDLE_TTL" default:"30m"`
	MaxSessions   int           `envconfig:"QUOTECART_CART_MAX_SESSIONS" default:"10000"`
}

// StorageBackend returns the normalized storage backend name.
func (c CartConfig) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage))
	if backend == "" {
		return CartStorageDB
	}
	return backend
}

type SubmissionConfig struct {
	Mode       string        `envconfig:"QUOTECART_SUBMISSION_MODE" default:"http"`
	APIBaseURL string        `envconfig:"QUOTECART_SUBMISSION_API_BASE_URL"`
	APIToken   string        `envconfig:"QUOTECART_SUBMISSION_API_TOKEN"`
	Timeout    time.Duration `envconfig:"QUOTECART_SUBMISSION_TIMEOUT" default:"15s"`
}

// Transport returns the normalized submission transport.
func (s SubmissionConfig) Transport() string {
	mode := strings.ToLower(strings.TrimSpace(s.Mode))
	if mode == "" {
		return SubmissionModeHTTP
	}
	return mode
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"QUOTECART_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"QUOTECART_SQLITE_PATH" default:"quotecart.db"`
	AutoMigrate bool   `envconfig:"QUOTECART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"QUOTECART_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	SubmissionTopic string `envconfig:"QUOTECART_PUBSUB_SUBMISSION_TOPIC" default:"quote-cart-submissions"`
}

func (c *Config) validate() error {
	switch c.Cart.StorageBackend() {
	case CartStorageMemory, CartStorageDB:
	case CartStorageRedis:
		if !c.Redis.Configured() {
			return fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvCartStorage, CartStorageRedis)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvCartStorage, c.Cart.Storage)
	}
	if c.Cart.IdleTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartIdleTTL)
	}
	if c.Cart.TTL > 0 && c.Cart.IdleTTL > c.Cart.TTL {
		return fmt.Errorf("%s must not exceed %s", EnvCartIdleTTL, EnvCartTTL)
	}
	if c.Cart.MaxSessions <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartMaxSessions)
	}

	switch c.Submission.Transport() {
	case SubmissionModeHTTP:
		if strings.TrimSpace(c.Submission.APIBaseURL) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvSubmissionAPIBaseURL, EnvSubmissionMode, SubmissionModeHTTP)
		}
		if _, err := url.ParseRequestURI(c.Submission.APIBaseURL); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSubmissionAPIBaseURL, err)
		}
	case SubmissionModePubSub:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvSubmissionMode, SubmissionModePubSub)
		}
		if strings.TrimSpace(c.PubSub.SubmissionTopic) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvPubSubSubmissionTopic, EnvSubmissionMode, SubmissionModePubSub)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvSubmissionMode, c.Submission.Mode)
	}
	return nil
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
