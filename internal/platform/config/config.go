package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "obfuscator/pkg/platform/strings"
)

// Config is the full runtime configuration of the server and the CLI.
type Config struct {
	Server  Server
	Storage Storage
	Redis   RedisConfig
	Audit   Audit
	Log     Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	RequireAuth     bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	// BatchConcurrency bounds parallel requests inside one batch call.
	BatchConcurrency int
}

// Storage selects and configures the object-store backends.
type Storage struct {
	FileRoot       string
	S3Enabled      bool
	S3Region       string
	S3Endpoint     string
	S3UsePathStyle bool
	RedisTTL       time.Duration
	// BreakerFailures consecutive backend errors open a remote store's circuit.
	BreakerFailures int
	BreakerCooldown time.Duration
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Audit sink names.
const (
	AuditSinkNone     = "none"
	AuditSinkMemory   = "memory"
	AuditSinkPostgres = "postgres"
	AuditSinkKafka    = "kafka"
)

type Audit struct {
	Sink         string
	PostgresDSN  string
	KafkaBrokers []string
	KafkaTopic   string
	AsyncBuffer  int
}

type Log struct {
	Level  string
	Format string
}

// Load reads envFile into the process environment when it exists, then
// builds the config. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:             getEnv("OBFUSCATOR_ADDR", ":8080"),
			JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:        getEnv("JWT_ISSUER", "obfuscator"),
			JWTAudience:      getEnv("JWT_AUDIENCE", "obfuscator-api"),
			RequireAuth:      p.boolean("REQUIRE_AUTH", false),
			RequestTimeout:   p.duration("REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout:  p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxBodyBytes:     int64(p.integer("MAX_BODY_BYTES", 1<<20)),
			BatchConcurrency: p.integer("BATCH_CONCURRENCY", 4),
		},
		Storage: Storage{
			FileRoot:        os.Getenv("STORAGE_FILE_ROOT"),
			S3Enabled:       p.boolean("STORAGE_S3_ENABLED", false),
			S3Region:        getEnv("AWS_REGION", "eu-west-2"),
			S3Endpoint:      os.Getenv("STORAGE_S3_ENDPOINT"),
			S3UsePathStyle:  p.boolean("STORAGE_S3_PATH_STYLE", false),
			RedisTTL:        p.duration("STORAGE_REDIS_TTL", 0),
			BreakerFailures: p.integer("STORAGE_BREAKER_FAILURES", 5),
			BreakerCooldown: p.duration("STORAGE_BREAKER_COOLDOWN", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: Audit{
			Sink:         strings.ToLower(getEnv("AUDIT_SINK", AuditSinkMemory)),
			PostgresDSN:  os.Getenv("AUDIT_POSTGRES_DSN"),
			KafkaBrokers: pstrings.SplitList(os.Getenv("AUDIT_KAFKA_BROKERS")),
			KafkaTopic:   getEnv("AUDIT_KAFKA_TOPIC", "obfuscation-audit"),
			AsyncBuffer:  p.integer("AUDIT_ASYNC_BUFFER", 0),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.Server.RequireAuth && c.Server.JWTSigningKey == "" {
		return errors.New("REQUIRE_AUTH needs JWT_SIGNING_KEY")
	}
	if c.Server.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.Server.BatchConcurrency)
	}
	switch c.Audit.Sink {
	case AuditSinkNone, AuditSinkMemory:
	case AuditSinkPostgres:
		if c.Audit.PostgresDSN == "" {
			return errors.New("AUDIT_SINK=postgres needs AUDIT_POSTGRES_DSN")
		}
	case AuditSinkKafka:
		if len(c.Audit.KafkaBrokers) == 0 {
			return errors.New("AUDIT_SINK=kafka needs AUDIT_KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown AUDIT_SINK %q", c.Audit.Sink)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so FromEnv can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}
