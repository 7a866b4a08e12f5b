package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AMQP     AMQPConfig
	Server   ServerConfig
	Board    BoardConfig
	Transit  TransitConfig
	Redis    RedisConfig
	LogLevel string
}

// AMQPConfig holds AMQP-related configuration. An empty URL disables
// the AMQP render request path.
type AMQPConfig struct {
	URL           string
	Exchange      string
	QueueName     string
	RoutingKey    string
	PrefetchCount int // QoS prefetch count for load balancing
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  int
	WriteTimeout int
}

// BoardConfig holds board rendering configuration
type BoardConfig struct {
	FilePath      string // path to the board layout YAML file
	DefaultTarget string // render target when a request does not name one
	Workers       int    // render worker pool size
}

// TransitConfig holds transit feed configuration
type TransitConfig struct {
	BaseURL        string
	RequestTimeout int // seconds
	CacheTTL       int // seconds, for the Redis stop data cache
}

// RedisConfig holds Redis configuration. An empty Addr disables the
// stop data cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := &Config{
		AMQP: AMQPConfig{
			URL:           getEnv("AMQP_URL", ""),
			Exchange:      getEnv("AMQP_EXCHANGE", "board"),
			QueueName:     getEnv("AMQP_QUEUE", "board.render_requests"),
			RoutingKey:    getEnv("AMQP_ROUTING_KEY", "render_requests"),
			PrefetchCount: getEnvAsInt("AMQP_PREFETCH_COUNT", 1), // Default to 1 for fair distribution
		},
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Board: BoardConfig{
			FilePath:      getEnv("BOARD_FILE_PATH", "board.yaml"),
			DefaultTarget: getEnv("BOARD_DEFAULT_TARGET", "kindle"),
			Workers:       getEnvAsInt("BOARD_WORKERS", 4),
		},
		Transit: TransitConfig{
			BaseURL:        getEnv("TRANSIT_BASE_URL", "http://localhost:4000"),
			RequestTimeout: getEnvAsInt("TRANSIT_REQUEST_TIMEOUT", 10),
			CacheTTL:       getEnvAsInt("TRANSIT_CACHE_TTL", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
