// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   *Server
	Database *Database
	Game     *Game
}

type Server struct {
	Address string
}

type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Game holds the knobs the rules leave open: team cap, rounds per team,
// how long the active team gets to guess, and room eviction timing.
type Game struct {
	MaxTeams        int
	DefaultRounds   int
	TurnTimeout     time.Duration
	IdleRoomTimeout time.Duration
	EvictInterval   time.Duration
	Difficulties    []string
}

// Load builds the configuration from environment variables with defaults.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxTeams, err := getEnvInt("MAX_TEAMS", 4)
	if err != nil {
		return nil, err
	}
	rounds, err := getEnvInt("DEFAULT_ROUNDS", 5)
	if err != nil {
		return nil, err
	}
	turnTimeout, err := getEnvDuration("TURN_TIMEOUT", 45*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := getEnvDuration("IDLE_ROOM_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	evictInterval, err := getEnvDuration("EVICT_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	if maxTeams < 2 {
		return nil, fmt.Errorf("MAX_TEAMS must be at least 2, got %d", maxTeams)
	}

	cfg := &Config{
		Server: &Server{
			Address: ":" + getEnv("PORT", "8080"),
		},
		Database: &Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "trivia"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Game: &Game{
			MaxTeams:        maxTeams,
			DefaultRounds:   rounds,
			TurnTimeout:     turnTimeout,
			IdleRoomTimeout: idleTimeout,
			EvictInterval:   evictInterval,
			Difficulties:    getEnvList("DIFFICULTIES", []string{"easy", "medium", "hard"}),
		},
	}
	return cfg, nil
}

// getEnv retrieves an environment variable value or returns a default value if not set
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return d, nil
}

func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
