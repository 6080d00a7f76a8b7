package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev_secret_change_me"

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DBDriver    string // postgres / mysql / sqlite
	DatabaseURL string // あれば最優先

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	MySQLDSN   string
	SQLitePath string

	RedisAddr string        // 空ならキャッシュ無効
	CacheTTL  time.Duration // 商品キャッシュの有効期限

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限
	BcryptCost     int

	GoEnv    string // dev/prod
	FEURL    string // CORSの許可オリジン
	LogLevel slog.Level

	CheckoutMaxAttempts int  // 在庫競合時のリトライ上限
	StrictOrderStatus   bool // 注文ステータスの遷移表を強制するか
}

// .envがあれば読み込んでからLoadする
func LoadWithDotenv(paths ...string) (Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}
	return Load()
}

// Loadは環境変数から読む
func Load() (Config, error) {
	pgPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationEnv("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cost, err := intEnv("BCRYPT_COST", 12)
	if err != nil {
		return Config{}, err
	}
	attempts, err := intEnv("CHECKOUT_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}
	strict, err := boolEnv("STRICT_ORDER_STATUS", true)
	if err != nil {
		return Config{}, err
	}
	level, err := ParseLogLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "app"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		MySQLDSN:   os.Getenv("MYSQL_DSN"),
		SQLitePath: getenv("SQLITE_PATH", "grocery.db"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  cacheTTL,

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: accessTTL,
		BcryptCost:     cost,

		GoEnv:    getenv("GO_ENV", "dev"),
		FEURL:    getenv("FE_URL", "*"),
		LogLevel: level,

		CheckoutMaxAttempts: attempts,
		StrictOrderStatus:   strict,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック。devではJWT_SECRETを埋める。
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	case "mysql":
		if c.MySQLDSN == "" && c.DatabaseURL == "" {
			return fmt.Errorf("MYSQL_DSN is required when DB_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be postgres, mysql or sqlite: %q", c.DBDriver)
	}

	switch c.GoEnv {
	case "dev", "test":
		if c.JWTSecret == "" {
			c.JWTSecret = devJWTSecret
		}
	case "prod":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	default:
		return fmt.Errorf("GO_ENV must be dev, test or prod: %q", c.GoEnv)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if c.CheckoutMaxAttempts < 1 {
		return fmt.Errorf("CHECKOUT_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
