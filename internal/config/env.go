package config

import (
	"os"

	"github.com/joho/godotenv"

	appLog "github.com/arnavshah/festival-planner-go/internal/log"
)

// Env holds the process environment the server and tools read.
type Env struct {
	Port            string
	GinMode         string
	DatabaseURL     string
	DataPath        string
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
	FestivalConfig  string
	LogLevel        string
}

// envPaths are tried in order; the first existing file wins.
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv loads the first .env file found near the working directory.
// Variables already set in the process are not overridden.
func LoadDotEnv() {
	loadDotEnv(envPaths)
}

// loadDotEnv returns the path it tried to load, or "" if none exists.
func loadDotEnv(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			appLog.Error("load .env failed", err, "path", p)
		}
		return p
	}
	return ""
}

// LoadEnv loads .env and reads the environment, applying defaults.
func LoadEnv() Env {
	LoadDotEnv()
	return ReadEnv()
}

// ReadEnv reads the process environment without touching .env files.
func ReadEnv() Env {
	return Env{
		Port:            getenv("PORT", "8000"),
		GinMode:         os.Getenv("GIN_MODE"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DataPath:        getenv("DATA_PATH", "festival.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		APIMasterSecret: os.Getenv("API_MASTER_SECRET"),
		AdminUsername:   getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getenv("ADMIN_PASSWORD", "admin123"),
		FestivalConfig:  getenv("FESTIVAL_CONFIG", "festival.yaml"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
