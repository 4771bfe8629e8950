// Package config handles loading and validation of application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	TeamSpeak TeamSpeakConfig `yaml:"teamspeak"`
	Plugin    PluginConfig    `yaml:"plugin"`
	Discord   DiscordConfig   `yaml:"discord"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TeamSpeakConfig holds TeamSpeak ServerQuery connection settings.
type TeamSpeakConfig struct {
	Host      string `yaml:"host"`
	QueryPort int    `yaml:"query_port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ServerID  int    `yaml:"server_id"`
}

// PluginConfig holds info plugin settings.
type PluginConfig struct {
	ID              string        `yaml:"id"`                // Registered as the plugin ID after init
	PingSettleDelay time.Duration `yaml:"ping_settle_delay"` // Wait before sampling a client's ping
}

// DiscordConfig holds Discord bot settings used by watch.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// WatchConfig holds settings for mirroring info text.
type WatchConfig struct {
	UpdateInterval time.Duration `yaml:"update_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration from the given file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{
		// Set defaults
		TeamSpeak: TeamSpeakConfig{
			QueryPort: 10011,
			Username:  "serveradmin",
			ServerID:  1,
		},
		Plugin: PluginConfig{
			ID:              "ts3-infodata",
			PingSettleDelay: time.Second,
		},
		Watch: WatchConfig{
			UpdateInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.TeamSpeak.Host == "" {
		return fmt.Errorf("teamspeak.host is required")
	}

	if c.TeamSpeak.Password == "" {
		return fmt.Errorf("teamspeak.password is required")
	}

	if c.Plugin.PingSettleDelay < 0 {
		return fmt.Errorf("plugin.ping_settle_delay must not be negative")
	}

	if c.Watch.UpdateInterval < 5*time.Second {
		return fmt.Errorf("watch.update_interval must be at least 5s")
	}

	return nil
}

// ValidateDiscord checks the settings needed to publish to Discord.
func (c *Config) ValidateDiscord() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}

	if c.Discord.ChannelID == "" {
		return fmt.Errorf("discord.channel_id is required")
	}

	return nil
}
