package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DBDriver              string
	DBHost                string
	DBPort                string
	DBUser                string
	DBPassword            string
	DBName                string
	DatabaseURL           string
	SQLitePath            string
	AutoMigrate           bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	CatalogTTLSeconds     int
	AuthSecret            string
	AdminName             string
	AdminEmail            string
	AdminPassword         string
	AccessTokenTTLMinutes int
	OverdueSchedule       string
	LowStockSchedule      string
	LowStockThreshold     int
	LogLevel              string
	LogFormat             string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DBDriver:              strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                os.Getenv("DB_PORT"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                getEnv("DB_NAME", "papeleria"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SQLitePath:            getEnv("SQLITE_PATH", "papeleria.db"),
		AutoMigrate:           getBool("DB_AUTO_MIGRATE", true),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		CatalogTTLSeconds:     getPositiveInt("CATALOG_TTL_SECONDS", 30),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AdminName:             getEnv("ADMIN_NAME", "Administrador"),
		AdminEmail:            getEnv("ADMIN_EMAIL", "admin@papeleria.local"),
		AdminPassword:         os.Getenv("ADMIN_PASSWORD"),
		AccessTokenTTLMinutes: getPositiveInt("ACCESS_TOKEN_TTL_MINUTES", 480),
		OverdueSchedule:       getEnvAllowEmpty("OVERDUE_SCHEDULE", "0 8 * * *"),
		LowStockSchedule:      getEnvAllowEmpty("LOW_STOCK_SCHEDULE", "*/30 * * * *"),
		LowStockThreshold:     getPositiveInt("LOW_STOCK_THRESHOLD", 5),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:             strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// DSN builds the connection string for the configured driver. DATABASE_URL
// wins over the individual DB_* parts.
func (c Config) DSN() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}

	switch c.DBDriver {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     net.JoinHostPort(c.DBHost, defaultString(c.DBPort, "5432")),
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, defaultString(c.DBPort, "3306"))
		mc.DBName = c.DBName
		mc.ParseTime = true
		// Row counts must report matched rows, not only changed ones.
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case "sqlite":
		return c.SQLitePath, nil
	case "memory":
		return "", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

// getEnvAllowEmpty distinguishes unset (fallback) from explicitly empty.
func getEnvAllowEmpty(key string, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(val)
}

func getPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

func defaultString(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
