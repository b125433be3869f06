package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

type Config struct {
	ServiceName string
	AppEnv      string

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// AuthMode selects how bearer tokens are verified: locally against the
	// provider's JWT secret, or by asking the provider's user endpoint.
	AuthMode         string
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	IdentityURL      string
	IdentityAPIKey   string
	IdentityTimeout  time.Duration
	ElevatedRoles    []string
	RedisURL         string
	IdentityCacheTTL time.Duration

	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	StripUnknownFields bool
	BatchMaxItems      int
	MaxBodyBytes       int64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName: getenv("SERVICE_NAME", "dextrack"),
		AppEnv:      getenv("APP_ENV", "dev"),

		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		HTTPReadTimeout:  getDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second),
		HTTPIdleTimeout:  getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),

		DatabaseURL:       getenv("DATABASE_URL", ""),
		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBAutoMigrate:     getBool("DB_AUTO_MIGRATE", true),

		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", ""),

		AuthMode:         strings.ToLower(getenv("AUTH_MODE", AuthModeJWT)),
		JWTSecret:        getenv("JWT_SECRET", ""),
		JWTIssuer:        getenv("JWT_ISSUER", ""),
		JWTAudience:      getenv("JWT_AUDIENCE", ""),
		IdentityURL:      strings.TrimRight(getenv("IDENTITY_URL", ""), "/"),
		IdentityAPIKey:   getenv("IDENTITY_API_KEY", ""),
		IdentityTimeout:  getDuration("IDENTITY_TIMEOUT", 5*time.Second),
		ElevatedRoles:    getList("ELEVATED_ROLES", "service_role,admin"),
		RedisURL:         getenv("REDIS_URL", ""),
		IdentityCacheTTL: getDuration("IDENTITY_CACHE_TTL", time.Minute),

		RLEnabled: getBool("RL_ENABLED", true),
		RLLimit:   getInt("RL_IP_LIMIT", 300),
		RLWindow:  getDuration("RL_IP_WINDOW", time.Minute),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "console"),

		StripUnknownFields: getBool("VALIDATION_STRIP_UNKNOWN", false),
		BatchMaxItems:      getInt("BATCH_MAX_ITEMS", 500),
		MaxBodyBytes:       int64(getInt("MAX_BODY_BYTES", 1<<20)),
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("missing DATABASE_URL")
	}

	switch cfg.AuthMode {
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			return cfg, fmt.Errorf("missing JWT_SECRET (required when AUTH_MODE=jwt)")
		}
	case AuthModeRemote:
		if cfg.IdentityURL == "" {
			return cfg, fmt.Errorf("missing IDENTITY_URL (required when AUTH_MODE=remote)")
		}
	default:
		return cfg, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}

	if cfg.BatchMaxItems <= 0 {
		cfg.BatchMaxItems = 500
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getList(key, def string) []string {
	var out []string
	for _, s := range strings.Split(getenv(key, def), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
