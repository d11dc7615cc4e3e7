package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	TokenTTL   time.Duration
	Database   DatabaseConfig
	Football   FootballConfig
	CORS       CORSConfig
	Log        LogConfig
	MQ         MQConfig
}

type DatabaseConfig struct {
	// URL, when set, takes precedence over the discrete connection fields.
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// FootballConfig describes the upstream football-data provider.
// The date windows are fixed values rather than being derived from the
// current date, so they go stale unless redeployed with new values.
type FootballConfig struct {
	BaseURL     string
	APIKey      string
	APIHost     string
	Season      int
	WeeklyFrom  string
	WeeklyTo    string
	PastFrom    string
	PastTo      string
	PastLeagues []string
	Timeout     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MQConfig struct {
	// Backend is one of "none", "rabbitmq" or "pubsub".
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "pitchside"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "pitchside_db"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	footballConfig := FootballConfig{
		BaseURL:     strings.TrimRight(getEnv("FOOTBALL_API_BASE_URL", "https://api-football-v1.p.rapidapi.com/v3"), "/"),
		APIKey:      getEnv("FOOTBALL_API_KEY", ""),
		APIHost:     getEnv("FOOTBALL_API_HOST", "api-football-v1.p.rapidapi.com"),
		Season:      getEnvInt("FOOTBALL_SEASON", 2024),
		WeeklyFrom:  getEnv("FOOTBALL_WEEKLY_FROM", "2024-12-03"),
		WeeklyTo:    getEnv("FOOTBALL_WEEKLY_TO", "2024-12-10"),
		PastFrom:    getEnv("FOOTBALL_PAST_FROM", "2024-12-02"),
		PastTo:      getEnv("FOOTBALL_PAST_TO", "2024-12-08"),
		PastLeagues: getEnvList("FOOTBALL_PAST_LEAGUES", []string{"epl", "laliga"}),
		Timeout:     getEnvDuration("FOOTBALL_TIMEOUT", 15*time.Second),
	}

	mqConfig := MQConfig{
		Backend: strings.ToLower(getEnv("MQ_BACKEND", "none")),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  strings.TrimSpace(getEnv("JWT_SECRET", "")),
		TokenTTL:   getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		Database:   dbConfig,
		Football:   footballConfig,
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		MQ: mqConfig,
	}
}

// Validate reports configuration that would prevent the server from running.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 0 and 65535, got %d", c.ServerPort))
	}
	if _, err := url.ParseRequestURI(c.Football.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid FOOTBALL_API_BASE_URL: %w", err))
	}
	switch c.MQ.Backend {
	case "", "none":
	case "rabbitmq":
		if c.MQ.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required when MQ_BACKEND=rabbitmq"))
		}
	case "pubsub":
		if c.MQ.PubSub.ProjectID == "" {
			errs = append(errs, errors.New("PUBSUB_PROJECT_ID is required when MQ_BACKEND=pubsub"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MQ_BACKEND %q", c.MQ.Backend))
	}
	return errors.Join(errs...)
}

// DSN returns the postgres connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	sslmode := "disable"
	if d.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		User:   url.UserPassword(d.User, d.Password),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(valueStr, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
