package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so it only matters for unnamed fields.
const EnvPrefix = "QUOTECART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	CartStorageMemory = "memory"
	CartStorageRedis  = "redis"
	CartStorageDB     = "db"

	SubmissionModeHTTP   = "http"
	SubmissionModePubSub = "pubsub"
)

const (
	EnvAppEnv   = "QUOTECART_APP_ENV"
	EnvPort     = "QUOTECART_APP_PORT"
	EnvLogLevel = "QUOTECART_LOG_LEVEL"

	EnvDBDSN  = "QUOTECART_DB_DSN"
	EnvDBHost = "QUOTECART_DB_HOST"
	EnvDBUser = "QUOTECART_DB_USER"
	EnvDBName = "QUOTECART_DB_NAME"

	EnvRedisURL  = "QUOTECART_REDIS_URL"
	EnvRedisAddr = "QUOTECART_REDIS_ADDR"

	EnvCartStorage     = "QUOTECART_CART_STORAGE"
	EnvCartTTL         = "QUOTECART_CART_TTL"
	EnvCartIdleTTL     = "QUOTECART_CART_IDLE_TTL"
	EnvCartMaxSessions = "QUOTECART_CART_MAX_SESSIONS"

	EnvSubmissionMode       = "QUOTECART_SUBMISSION_MODE"
	EnvSubmissionAPIBaseURL = "QUOTECART_SUBMISSION_API_BASE_URL"

	EnvUseSQLite = "QUOTECART_USE_SQLITE"

	EnvGCPProjectID          = "QUOTECART_GCP_PROJECT_ID"
	EnvPubSubSubmissionTopic = "QUOTECART_PUBSUB_SUBMISSION_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
