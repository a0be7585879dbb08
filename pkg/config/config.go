package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Storage       StorageConfig
	GCP           GCPConfig
	GCS           GCSConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.GCS); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FRUITSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"FRUITSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FRUITSHOP_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FRUITSHOP_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FRUITSHOP_LOG_WARN_STACK" default:"false"`
	PageSize     int    `envconfig:"FRUITSHOP_PAGE_SIZE" default:"8"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"FRUITSHOP_DB_DSN"`
	Driver string `envconfig:"FRUITSHOP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FRUITSHOP_DB_HOST"`
	Port     int    `envconfig:"FRUITSHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"FRUITSHOP_DB_USER"`
	Password string `envconfig:"FRUITSHOP_DB_PASSWORD"`
	Name     string `envconfig:"FRUITSHOP_DB_NAME"`
	SSLMode  string `envconfig:"FRUITSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRUITSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRUITSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRUITSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRUITSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FRUITSHOP_REDIS_URL"`
	Address      string        `envconfig:"FRUITSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"FRUITSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRUITSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRUITSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRUITSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRUITSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRUITSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRUITSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig drives the visitor session cookie and its Redis TTL.
type SessionConfig struct {
	Secret       string `envconfig:"FRUITSHOP_SESSION_SECRET" required:"true"`
	Issuer       string `envconfig:"FRUITSHOP_SESSION_ISSUER" default:"fruitshop"`
	CookieName   string `envconfig:"FRUITSHOP_SESSION_COOKIE_NAME" default:"fruitshop_session"`
	TTLMinutes   int    `envconfig:"FRUITSHOP_SESSION_TTL_MINUTES" default:"20160"`
	SecureCookie bool   `envconfig:"FRUITSHOP_SESSION_SECURE_COOKIE" default:"false"`
}

// TTL returns the session lifetime configured in minutes.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FRUITSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FRUITSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FRUITSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FRUITSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FRUITSHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FRUITSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginAccountLimit  int           `envconfig:"FRUITSHOP_AUTH_RATE_LIMIT_LOGIN_ACCOUNT_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FRUITSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow       time.Duration `envconfig:"FRUITSHOP_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupAccountLimit int           `envconfig:"FRUITSHOP_AUTH_RATE_LIMIT_SIGNUP_ACCOUNT_LIMIT" default:"3"`
	SignupIPLimit      int           `envconfig:"FRUITSHOP_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
	// TrustProxyHeaders keys per-IP limits on X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `envconfig:"FRUITSHOP_TRUST_PROXY_HEADERS" default:"false"`
}

// StorageConfig selects where uploaded product images are written.
type StorageConfig struct {
	Driver        string `envconfig:"FRUITSHOP_STORAGE_DRIVER" default:"local"`
	LocalDir      string `envconfig:"FRUITSHOP_STORAGE_LOCAL_DIR" default:"media"`
	PublicBaseURL string `envconfig:"FRUITSHOP_STORAGE_PUBLIC_BASE_URL" default:"/media"`
	MaxUploadMB   int    `envconfig:"FRUITSHOP_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes returns the per-request upload ceiling.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

// IsGCS reports whether images go to Google Cloud Storage.
func (s StorageConfig) IsGCS() bool {
	return strings.EqualFold(strings.TrimSpace(s.Driver), StorageDriverGCS)
}

func (s StorageConfig) validate(gcs GCSConfig) error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverLocal:
		if strings.TrimSpace(s.LocalDir) == "" {
			return fmt.Errorf("%s is required for the local storage driver", EnvStorageLocalDir)
		}
		return nil
	case StorageDriverGCS:
		if strings.TrimSpace(gcs.BucketName) == "" {
			return fmt.Errorf("%s is required for the gcs storage driver", EnvGCSBucket)
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FRUITSHOP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FRUITSHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FRUITSHOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"FRUITSHOP_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"FRUITSHOP_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FRUITSHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:8080"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FRUITSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
