package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	GeminiApiKey string
	Assessment   Assessment
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Assessment holds tunables for the attempt pipeline.
type Assessment struct {
	// GeneratorTimeout bounds every call to the LLM content generator.
	// On expiry the deterministic fallback content is used instead.
	GeneratorTimeout time.Duration
	// ExecutorTimeout bounds a single test-case execution of candidate code.
	ExecutorTimeout time.Duration
	// ViolationThreshold is the default cumulative violation score above
	// which an attempt is disqualified, unless the test overrides it.
	ViolationThreshold float64
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("GENERATOR_TIMEOUT_SECONDS", 45)
	viper.SetDefault("EXECUTOR_TIMEOUT_SECONDS", 5)
	viper.SetDefault("VIOLATION_THRESHOLD", 100)

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	config.Assessment.GeneratorTimeout = time.Duration(viper.GetInt("GENERATOR_TIMEOUT_SECONDS")) * time.Second
	config.Assessment.ExecutorTimeout = time.Duration(viper.GetInt("EXECUTOR_TIMEOUT_SECONDS")) * time.Second
	config.Assessment.ViolationThreshold = viper.GetFloat64("VIOLATION_THRESHOLD")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}
