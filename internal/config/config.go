package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port         string
	DBDSN        string
	DBReset      bool // drop and recreate tables on start (development)
	SeedDemo     bool
	AtomicOrders bool // wrap order + items in one transaction
	AdminLocked  bool // initial state of the admin toggle
	MaxImage     int
	BodyLimit    int
	TemplatesDir string
	LogLevel     string
	LogFile      string
	Env          string
	MetricsNS    string
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Println("[config] no .env file, using environment")
	}

	return Config{
		Port:         getEnv("PORT", "8080"),
		DBDSN:        getEnv("DB_DSN", "saboraoclique.db"),
		DBReset:      getEnvAsBool("DB_RESET", false),
		SeedDemo:     getEnvAsBool("SEED_DEMO", true),
		AtomicOrders: getEnvAsBool("CHECKOUT_ATOMIC", false),
		AdminLocked:  getEnvAsBool("ADMIN_LOCKED", true),
		MaxImage:     getEnvAsInt("MAX_IMAGE_BYTES", 4<<20),
		BodyLimit:    getEnvAsInt("BODY_LIMIT", 8<<20),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		Env:          getEnv("APP_ENV", "development"),
		MetricsNS:    getEnv("METRICS_NAMESPACE", "saboraoclique"),
	}
}

// Fields renders the config for the startup log line.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("db_dsn", c.DBDSN),
		zap.Bool("db_reset", c.DBReset),
		zap.Bool("seed_demo", c.SeedDemo),
		zap.Bool("checkout_atomic", c.AtomicOrders),
		zap.Bool("admin_locked", c.AdminLocked),
		zap.String("templates_dir", c.TemplatesDir),
		zap.String("env", c.Env),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
