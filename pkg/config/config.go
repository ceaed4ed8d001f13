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
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Validation   ValidationConfig
	Uploads      UploadsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PRINTHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTHAUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTHAUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRINTHAUS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTHAUS_DB_DSN"`
	Driver string `envconfig:"PRINTHAUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTHAUS_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTHAUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTHAUS_DB_USER"`
	LegacyPassword string `envconfig:"PRINTHAUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTHAUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTHAUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTHAUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRINTHAUS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRINTHAUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRINTHAUS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRINTHAUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRINTHAUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRINTHAUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRINTHAUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRINTHAUS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRINTHAUS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRINTHAUS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"PRINTHAUS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// ValidationConfig tunes the design review pipeline.
type ValidationConfig struct {
	DecisionLockTTL time.Duration `envconfig:"PRINTHAUS_VALIDATION_DECISION_LOCK_TTL" default:"30s"`
	SweepMinAge     time.Duration `envconfig:"PRINTHAUS_VALIDATION_SWEEP_MIN_AGE" default:"168h"`
	SweepInterval   time.Duration `envconfig:"PRINTHAUS_VALIDATION_SWEEP_INTERVAL" default:"1h"`
}

type UploadsConfig struct {
	MaxUploadMB    int `envconfig:"PRINTHAUS_MAX_UPLOAD_MB" default:"25"`
	ImageMinWidth  int `envconfig:"PRINTHAUS_UPLOAD_IMAGE_MIN_WIDTH" default:"300"`
	ImageMinHeight int `envconfig:"PRINTHAUS_UPLOAD_IMAGE_MIN_HEIGHT" default:"300"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRINTHAUS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PRINTHAUS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRINTHAUS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PRINTHAUS_GCS_BUCKET_NAME" required:"true"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"PRINTHAUS_PUBSUB_NOTIFICATION_TOPIC" default:"ph-notification-events"`
	NotificationSubscription string `envconfig:"PRINTHAUS_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	DomainTopic              string `envconfig:"PRINTHAUS_PUBSUB_DOMAIN_TOPIC" default:"ph-domain-events"`
	DomainSubscription       string `envconfig:"PRINTHAUS_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PRINTHAUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PRINTHAUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PRINTHAUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
