package config

import (
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port        string        `env:"PORT,default=8080"`
	GinMode     string        `env:"GIN_MODE,default=release"`
	DatabaseURL string        `env:"DATABASE_URL,required"`
	RedisURL    string        `env:"REDIS_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,default=24h"`

	DBMaxConns int `env:"DB_MAX_CONNS,default=10"`
	BcryptCost int `env:"BCRYPT_COST,default=12"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	KakaoAPIKey   string `env:"KAKAO_REST_API_KEY"`
	BookSearchURL string `env:"BOOK_SEARCH_URL,default=https://dapi.kakao.com/v3/search/book"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT,default=5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST,default=10"`
}

// Load reads .env.local, then .env, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			logrus.Info(".env not found, using environment variables")
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
