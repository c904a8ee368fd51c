package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	TLSCertFile string
	TLSKeyFile  string
	DatabaseURL string

	HTTP    HTTP
	Redis   Redis
	Auth    Auth
	Argon2  Argon2
	Storage Storage
	Limits  Limits
	Log     Log
	Memo    Memo

	ImageGCSchedule string
}

type HTTP struct {
	AllowedOrigins []string
	// StrictSecurity adds the cross-origin isolation headers.
	StrictSecurity bool
	Gzip           bool
}

type Redis struct {
	URL      string // full URL, e.g. rediss://default:<token>@host:port
	Addr     string // host:port, used when URL is empty
	User     string
	Password string
}

type Auth struct {
	JWTSecret  []byte
	ClockSkew  time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Argon2 struct {
	Memory      uint32 // kibibytes
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// Explicit is true when ARGON2_MEMORY and ARGON2_ITER were both set.
	Explicit bool
}

type Storage struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

type Limits struct {
	MaxBodySize      int64
	MaxImageBytes    int64
	RateLimitRPS     float64
	RateLimitBurst   int
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

type Log struct {
	Level  string
	Format string // "json" or "text"
}

type Memo struct {
	SampleDefault int
	SampleMax     int
}

// Load reads the given dotenv files (missing files are ignored) and then the
// process environment.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	dur := func(key, def string) time.Duration {
		d, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := Config{
		AppEnv:      envString("APP_ENV", "development"),
		HTTPAddr:    envString("HTTP_ADDR", ":3000"),
		TLSCertFile: os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:  os.Getenv("TLS_KEY_FILE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTP: HTTP{
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"),
			StrictSecurity: os.Getenv("STRICT_SECURITY") == "1",
			Gzip:           os.Getenv("HTTP_GZIP") != "0",
		},
		Redis: Redis{
			URL:      os.Getenv("UPSTASH_REDIS_URL"),
			Addr:     os.Getenv("REDIS_ADDR"),
			User:     os.Getenv("REDIS_USER"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Auth: Auth{
			JWTSecret:  []byte(os.Getenv("AUTH_JWT_SECRET")),
			ClockSkew:  time.Duration(envInt("AUTH_CLOCK_SKEW_SEC", 60)) * time.Second,
			AccessTTL:  dur("AUTH_ACCESS_TTL", "15m"),
			RefreshTTL: dur("AUTH_REFRESH_TTL", "720h"),
		},
		Argon2: Argon2{
			Memory:      envUint32("ARGON2_MEMORY", 131072), // 128 MiB
			Iterations:  envUint32("ARGON2_ITER", 3),
			Parallelism: uint8(envUint32("ARGON2_PAR", 1)),
			SaltLength:  16,
			KeyLength:   32,
			Explicit:    os.Getenv("ARGON2_MEMORY") != "" && os.Getenv("ARGON2_ITER") != "",
		},
		Storage: Storage{
			Endpoint:        os.Getenv("AWS_ENDPOINT"),
			Region:          envString("AWS_REGION", "auto"),
			Bucket:          os.Getenv("AWS_BUCKET"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			PublicBaseURL:   strings.TrimRight(os.Getenv("MEMO_IMAGE_PUBLIC_BASE_URL"), "/"),
			UsePathStyle:    os.Getenv("AWS_USE_PATH_STYLE") == "1",
		},
		Limits: Limits{
			MaxBodySize:      int64(envInt("MAX_BODY_SIZE", 1<<20)),
			MaxImageBytes:    int64(envInt("MAX_IMAGE_SIZE", 10<<20)),
			RateLimitRPS:     envFloat("RATE_LIMIT_RPS", 5),
			RateLimitBurst:   envInt("RATE_LIMIT_BURST", 20),
			LoginMaxAttempts: envInt("LOGIN_MAX_ATTEMPTS", 10),
			LoginWindow:      dur("LOGIN_WINDOW", "5m"),
		},
		Log: Log{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Memo: Memo{
			SampleDefault: envInt("MEMO_SAMPLE_DEFAULT", 5),
			SampleMax:     envInt("MEMO_SAMPLE_MAX", 50),
		},
		ImageGCSchedule: envString("IMAGE_GC_SCHEDULE", "@every 10m"),
	}
	return cfg, errors.Join(errs...)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key, def string) []string {
	var out []string
	for _, v := range strings.Split(envString(key, def), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envUint32(key string, def uint32) uint32 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint32(n)
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key, def string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
