package config

const EnvPrefix = "FRUITSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"
)

const (
	EnvAppEnv   = "FRUITSHOP_APP_ENV"
	EnvPort     = "FRUITSHOP_APP_PORT"
	EnvLogLevel = "FRUITSHOP_LOG_LEVEL"

	EnvDBDSN    = "FRUITSHOP_DB_DSN"
	EnvDBDriver = "FRUITSHOP_DB_DRIVER"
	EnvDBHost   = "FRUITSHOP_DB_HOST"
	EnvDBUser   = "FRUITSHOP_DB_USER"
	EnvDBName   = "FRUITSHOP_DB_NAME"

	EnvRedisURL = "FRUITSHOP_REDIS_URL"

	EnvSessionSecret = "FRUITSHOP_SESSION_SECRET"
	EnvSessionTTL    = "FRUITSHOP_SESSION_TTL_MINUTES"

	EnvStorageDriver   = "FRUITSHOP_STORAGE_DRIVER"
	EnvStorageLocalDir = "FRUITSHOP_STORAGE_LOCAL_DIR"
	EnvGCSBucket       = "FRUITSHOP_GCS_BUCKET_NAME"

	EnvCORSAllowedOrigins = "FRUITSHOP_CORS_ALLOWED_ORIGINS"

	EnvTrustProxyHeaders = "FRUITSHOP_TRUST_PROXY_HEADERS"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
