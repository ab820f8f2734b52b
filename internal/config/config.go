package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Environment keys recognized by the service.
const (
	keyOpenAIAPIKey    = "OPENAI_API_KEY"
	keyLineAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	keyLineSecret      = "LINE_CHANNEL_SECRET"
	keyRedisURL        = "REDIS_URL"
	keyUseGPT4         = "USE_GPT4"
	keyDailyTokenLimit = "MAX_TOKENS_PER_USER_PER_DAY"
	keyEnableCommands  = "ENABLE_COMMANDS"
	keyPort            = "PORT"
)

// Config represents runtime configuration for the service.
type Config struct {
	OpenAIAPIKey           string
	LineChannelAccessToken string
	LineChannelSecret      string
	RedisURL               string
	UseGPT4                bool
	DailyTokenLimit        int
	EnableCommands         bool
	Port                   int
}

// Load reads configuration from the environment. The three credential keys
// are required; Load fails listing every missing one so the process refuses
// to start half-configured.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(keyRedisURL, "redis://localhost:6379")
	v.SetDefault(keyUseGPT4, true)
	v.SetDefault(keyDailyTokenLimit, 2000)
	v.SetDefault(keyEnableCommands, true)
	v.SetDefault(keyPort, 5000)

	var missing []string
	for _, key := range []string{keyOpenAIAPIKey, keyLineAccessToken, keyLineSecret} {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		OpenAIAPIKey:           v.GetString(keyOpenAIAPIKey),
		LineChannelAccessToken: v.GetString(keyLineAccessToken),
		LineChannelSecret:      v.GetString(keyLineSecret),
		RedisURL:               v.GetString(keyRedisURL),
		UseGPT4:                v.GetBool(keyUseGPT4),
		DailyTokenLimit:        v.GetInt(keyDailyTokenLimit),
		EnableCommands:         v.GetBool(keyEnableCommands),
		Port:                   v.GetInt(keyPort),
	}
	if cfg.DailyTokenLimit <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", keyDailyTokenLimit, cfg.DailyTokenLimit)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%s out of range: %d", keyPort, cfg.Port)
	}
	return cfg, nil
}

// Model returns the completion model name for the configured tier.
func (c *Config) Model() string {
	if c.UseGPT4 {
		return "gpt-4"
	}
	return "gpt-3.5-turbo"
}

// ServerAddress returns the listen address derived from PORT.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}
