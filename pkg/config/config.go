package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment      string
	FirebaseProject  string
	FirebaseAPIKey   string
	RealtimeURL      string
	RelayPort        string
	SnapshotPageSize int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		FirebaseProject:  getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAPIKey:   getEnv("FIREBASE_API_KEY", ""),
		RealtimeURL:      getEnv("REALTIME_URL", "ws://localhost:8090/ws"),
		RelayPort:        getEnv("RELAY_PORT", "8090"),
		SnapshotPageSize: getEnvAsInt("SNAPSHOT_PAGE_SIZE", 100),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
