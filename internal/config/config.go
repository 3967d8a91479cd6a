package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-band-notify/internal/domain"
)

const (
	BackendSQLite = "sqlite"
	BackendDynamo = "dynamo"

	ProviderLog = "log"
	ProviderSNS = "sns"
	ProviderFCM = "fcm"

	// maxDynamoBatch is the TransactWriteItems item limit.
	maxDynamoBatch = 100
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort          string
	AppEnv           string
	AWSRegion        string
	AWSEndpointURL   string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID   string
	AWSSecretKey     string
	DynamoTables     DynamoTables
	StoreBackend     string
	SQLitePath       string
	JWTPublicKeyPath string
	AllowedOrigins   []string // CORS allowed origins
	SchedulerEnabled bool
	SchedulerToken   string // shared secret for POST /v1/delivery/cycles, empty disables the check
	Delivery         Delivery
	Push             Push
	Log              Log
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string
	DeviceTokens  string
	Preferences   string
	BandMembers   string
	BandEvents    string
}

// Delivery tunes the batch cycle.
type Delivery struct {
	BatchSize   int
	Interval    time.Duration
	ClaimTTL    time.Duration
	Concurrency int
	// CycleTimeout bounds one cycle. It must stay below ClaimTTL so a live
	// cycle never has its rows reclaimed underneath it.
	CycleTimeout time.Duration
}

type Push struct {
	Provider           string
	SNSRegion          string
	SNSAppARNIOS       string
	SNSAppARNAndroid   string
	FCMCredentialsFile string
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration
}

type Log struct {
	Level  string
	Format string // text | json
	File   string // rotated with lumberjack when set
}

// Load reads all configuration from environment variables.
func Load() *Config {
	interval := getEnvDuration("INTERVAL", 5*time.Minute)
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			DeviceTokens:  getEnv("DYNAMO_TABLE_DEVICE_TOKENS", "device_tokens"),
			Preferences:   getEnv("DYNAMO_TABLE_NOTIFICATION_PREFERENCES", "notification_preferences"),
			BandMembers:   getEnv("DYNAMO_TABLE_BAND_MEMBERS", "band_members"),
			BandEvents:    getEnv("DYNAMO_TABLE_BAND_EVENTS", "band_events"),
		},
		StoreBackend:     getEnv("STORE_BACKEND", BackendSQLite),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/notify.db"),
		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", false),
		SchedulerToken:   getEnv("SCHEDULER_TOKEN", ""),
		Delivery: Delivery{
			BatchSize:    getEnvInt("BATCH_SIZE", 100),
			Interval:     interval,
			ClaimTTL:     getEnvDuration("CLAIM_TTL", interval),
			Concurrency:  getEnvInt("DISPATCH_CONCURRENCY", 10),
			CycleTimeout: getEnvDuration("CYCLE_TIMEOUT", 2*time.Minute),
		},
		Push: Push{
			Provider:           getEnv("PUSH_PROVIDER", ProviderLog),
			SNSRegion:          getEnv("SNS_REGION", "us-east-1"),
			SNSAppARNIOS:       getEnv("SNS_PLATFORM_APP_ARN_IOS", ""),
			SNSAppARNAndroid:   getEnv("SNS_PLATFORM_APP_ARN_ANDROID", ""),
			FCMCredentialsFile: getEnv("FCM_CREDENTIALS_FILE", ""),
			BreakerMaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
			BreakerOpenTimeout: getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string
	d := c.Delivery
	if d.BatchSize < 1 {
		problems = append(problems, "BATCH_SIZE must be at least 1")
	}
	if c.StoreBackend == BackendDynamo && d.BatchSize > maxDynamoBatch {
		problems = append(problems, fmt.Sprintf("BATCH_SIZE must not exceed %d on dynamo", maxDynamoBatch))
	}
	if d.Concurrency < 1 {
		problems = append(problems, "DISPATCH_CONCURRENCY must be at least 1")
	}
	if d.Interval <= 0 {
		problems = append(problems, "INTERVAL must be positive")
	}
	if d.ClaimTTL <= 0 {
		problems = append(problems, "CLAIM_TTL must be positive")
	}
	if d.CycleTimeout <= 0 || d.CycleTimeout >= d.ClaimTTL {
		problems = append(problems, "CYCLE_TIMEOUT must be positive and shorter than CLAIM_TTL")
	}
	switch c.StoreBackend {
	case BackendSQLite, BackendDynamo:
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.Push.Provider {
	case ProviderLog, ProviderSNS, ProviderFCM:
	default:
		problems = append(problems, fmt.Sprintf("unknown PUSH_PROVIDER %q", c.Push.Provider))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, "; "), domain.ErrConfiguration)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
