package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// BcryptCost is the bcrypt work factor for new password hashes.
	BcryptCost int `env:"BCRYPT_COST, default=12"`

	JWT   JWTConfig
	Login LoginConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// JWTConfig holds the two independent base64-encoded signing secrets. They are
// decoded into immutable key handles once at startup; a leaked refresh key
// must not be able to forge access tokens, hence the separation.
type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,  default=5m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL, default=720h"`
}

// LoginConfig tunes the failed-login throttle.
type LoginConfig struct {
	MaxAttempts   int64         `env:"LOGIN_MAX_ATTEMPTS,   default=10"`
	AttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW, default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
