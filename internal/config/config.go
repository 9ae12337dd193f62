package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	API        APIConfig
	Chat       ChatConfig
	Transcript TranscriptConfig
	Log        LogConfig
}

// APIConfig holds the backend API configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatConfig holds chat screen behaviour configuration
type ChatConfig struct {
	HealthPollInterval time.Duration `mapstructure:"health_poll_interval"`
	OfflineDelay       time.Duration `mapstructure:"offline_delay"`
}

// TranscriptConfig holds the local transcript mirror configuration
type TranscriptConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from config.yaml, falling back to defaults
// when the file is absent. ADMITCHAT_CONFIG overrides the search path.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path := os.Getenv("ADMITCHAT_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.admitchat")
	}

	v.SetDefault("api.base_url", "http://localhost:5001/api")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("chat.health_poll_interval", 30*time.Second)
	v.SetDefault("chat.offline_delay", 1500*time.Millisecond)
	v.SetDefault("transcript.path", "transcript.db")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
