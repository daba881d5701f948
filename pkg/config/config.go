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
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	WebPush       WebPushConfig
	Board         BoardConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERBOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERBOARD_DB_DSN"`
	Driver string `envconfig:"ORDERBOARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERBOARD_DB_USER"`
	LegacyPassword string `envconfig:"ORDERBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ORDERBOARD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ORDERBOARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ORDERBOARD_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ORDERBOARD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORDERBOARD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORDERBOARD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORDERBOARD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORDERBOARD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORDERBOARD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ORDERBOARD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ORDERBOARD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ORDERBOARD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"ORDERBOARD_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORDERBOARD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ORDERBOARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ORDERBOARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"ORDERBOARD_GCS_BUCKET_NAME" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"ORDERBOARD_MAX_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"ORDERBOARD_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"ORDERBOARD_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"ORDERBOARD_PUBSUB_NOTIFICATION_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"ORDERBOARD_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ORDERBOARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ORDERBOARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ORDERBOARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type WebPushConfig struct {
	VAPIDPublicKey  string        `envconfig:"ORDERBOARD_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `envconfig:"ORDERBOARD_VAPID_PRIVATE_KEY"`
	Subject         string        `envconfig:"ORDERBOARD_VAPID_SUBJECT" default:"mailto:admin@orderboard.local"`
	TTL             time.Duration `envconfig:"ORDERBOARD_WEBPUSH_TTL" default:"24h"`
}

type BoardConfig struct {
	FeedBuffer int `envconfig:"ORDERBOARD_BOARD_FEED_BUFFER" default:"256"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERBOARD_AUTO_MIGRATE" default:"false"`
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
