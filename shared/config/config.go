package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	AI       AIConfig       `yaml:"ai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Email    EmailConfig    `yaml:"email"`
	Watch    WatchConfig    `yaml:"watch"`
}

type ServerConfig struct {
	Port      int    `yaml:"port" env:"PORT"`
	StaticDir string `yaml:"static_dir"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	// PageSize is capped at 50 by the search API.
	PageSize        int64 `yaml:"page_size"`
	TargetResults   int   `yaml:"target_results"`
	PagePauseMillis int   `yaml:"page_pause_ms"`
}

// PagePause is the wait between consecutive search page requests.
func (c *YouTubeConfig) PagePause() time.Duration {
	return time.Duration(c.PagePauseMillis) * time.Millisecond
}

type AIConfig struct {
	GeminiAPIKey    string  `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

type PipelineConfig struct {
	BatchSize        int `yaml:"batch_size"`
	BatchPauseMillis int `yaml:"batch_pause_ms"`
	TopPriorityLimit int `yaml:"top_priority_limit"`
}

// BatchPause is the wait between consecutive classifier calls.
func (c *PipelineConfig) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMillis) * time.Millisecond
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Configured reports whether enough is set to attempt SMTP delivery.
func (c *EmailConfig) Configured() bool {
	return c.SMTPServer != "" && c.Username != "" && c.Password != "" && c.ToEmail != ""
}

// WatchTarget is one name/channel pair scanned on the watch schedule.
type WatchTarget struct {
	UserName    string `yaml:"user_name"`
	ChannelName string `yaml:"channel_name"`
}

type WatchConfig struct {
	Schedule string        `yaml:"schedule"`
	DataDir  string        `yaml:"data_dir"`
	Targets  []WatchTarget `yaml:"targets"`
}

// Enabled reports whether scheduled watch runs should be started.
func (c *WatchConfig) Enabled() bool {
	return len(c.Targets) > 0
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case os.IsNotExist(err):
		// No config file is fine, env vars and defaults carry the service.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		if p := os.Getenv("PORT"); p != "" {
			fmt.Sscanf(p, "%d", &c.Server.Port)
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "static"
	}
	if c.YouTube.PageSize == 0 {
		c.YouTube.PageSize = 50
	}
	if c.YouTube.TargetResults == 0 {
		c.YouTube.TargetResults = 100
	}
	if c.YouTube.PagePauseMillis == 0 {
		c.YouTube.PagePauseMillis = 500
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 4096
	}
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = 10
	}
	if c.Pipeline.BatchPauseMillis == 0 {
		c.Pipeline.BatchPauseMillis = 1000
	}
	if c.Pipeline.TopPriorityLimit == 0 {
		c.Pipeline.TopPriorityLimit = 10
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 0 6 * * *" // Daily at 6 AM
	}
	if c.Watch.DataDir == "" {
		c.Watch.DataDir = "data"
	}
}

func (c *Config) validate() error {
	if c.YouTube.PageSize < 1 || c.YouTube.PageSize > 50 {
		return fmt.Errorf("youtube page_size must be between 1 and 50, got %d", c.YouTube.PageSize)
	}
	if c.YouTube.TargetResults < 1 {
		return fmt.Errorf("youtube target_results must be positive, got %d", c.YouTube.TargetResults)
	}
	if c.YouTube.PagePauseMillis < 500 {
		return fmt.Errorf("youtube page_pause_ms must be at least 500, got %d", c.YouTube.PagePauseMillis)
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("pipeline batch_size must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.BatchPauseMillis < 1000 {
		return fmt.Errorf("pipeline batch_pause_ms must be at least 1000, got %d", c.Pipeline.BatchPauseMillis)
	}
	if c.Pipeline.TopPriorityLimit < 1 {
		return fmt.Errorf("pipeline top_priority_limit must be positive, got %d", c.Pipeline.TopPriorityLimit)
	}
	for i, t := range c.Watch.Targets {
		if t.UserName == "" || t.ChannelName == "" {
			return fmt.Errorf("watch target %d needs both user_name and channel_name", i+1)
		}
	}
	return nil
}

// HasCredentials reports whether both external API keys are present. Without
// them every analyze call is served by the mock generator instead.
func (c *Config) HasCredentials() bool {
	return c.YouTube.APIKey != "" && c.AI.GeminiAPIKey != ""
}
