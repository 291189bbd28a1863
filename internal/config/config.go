package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// PlaceholderAPIKey is the value shipped in the sample .env file. A key
// equal to it is treated the same as a missing key.
const PlaceholderAPIKey = "your_api_key_here"

// Config holds all application configuration
type Config struct {
	// TMDB
	TMDBAPIKey string
	TMDBURL    string
	Language   string

	// Search
	SearchDebounceMs int // Quiet period before a typed query is dispatched (default: 500)

	// Popular refresh
	PopularRefreshPages int // Pages kept warm by the scheduled refresh (default: 1)
	PopularCacheTTLMins int // Minutes a cached popular page stays fresh (default: 30)

	// Server
	ServerPort string

	// Paths
	FavoritesFile string // $CONFIG_DIR/favorites.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("TMDB_URL", "https://api.themoviedb.org/3")
	viper.SetDefault("LANGUAGE", "en-US")
	viper.SetDefault("SEARCH_DEBOUNCE_MS", 500)
	viper.SetDefault("POPULAR_REFRESH_PAGES", 1)
	viper.SetDefault("POPULAR_CACHE_TTL_MINUTES", 30)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "flickarr")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// TMDB
		TMDBAPIKey: viper.GetString("TMDB_API_KEY"),
		TMDBURL:    viper.GetString("TMDB_URL"),
		Language:   viper.GetString("LANGUAGE"),

		// Search
		SearchDebounceMs: viper.GetInt("SEARCH_DEBOUNCE_MS"),

		// Popular refresh
		PopularRefreshPages: viper.GetInt("POPULAR_REFRESH_PAGES"),
		PopularCacheTTLMins: viper.GetInt("POPULAR_CACHE_TTL_MINUTES"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		FavoritesFile: filepath.Join(configDir, "favorites.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields. The TMDB client re-checks the key on every
	// call, but a missing key should fail startup too.
	if config.TMDBAPIKey == "" || config.TMDBAPIKey == PlaceholderAPIKey {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}

	return config, nil
}
