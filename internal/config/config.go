package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Sources  SourcesConfig  `yaml:"sources"`
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	History  HistoryConfig  `yaml:"history"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// SourcesConfig bounds outbound fetches.
type SourcesConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	MaxPerSource   int    `yaml:"max_per_source"`
	UserAgent      string `yaml:"user_agent,omitempty"`
}

// ProviderConfig configures one generation provider. Providers are tried in
// the order they appear in the list.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "openai" or "anthropic"
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type LLMConfig struct {
	Providers []ProviderConfig `yaml:"providers,omitempty"`
}

type HistoryConfig struct {
	Backend       string `yaml:"backend"` // "sqlite" or "file"
	Path          string `yaml:"path,omitempty"`
	RetentionDays int    `yaml:"retention_days"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram,omitempty"`
	Slack    SlackConfig    `yaml:"slack,omitempty"`
	Discord  DiscordConfig  `yaml:"discord,omitempty"`
}

type TelegramConfig struct {
	Token  string `yaml:"token,omitempty"`
	ChatID int64  `yaml:"chat_id,omitempty"`
}

type SlackConfig struct {
	BotToken string `yaml:"bot_token,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

type DiscordConfig struct {
	Token     string `yaml:"token,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
}

type ScheduleConfig struct {
	Cron         string `yaml:"cron,omitempty"` // standard 5-field expression
	Port         int    `yaml:"port,omitempty"`
	TriggerToken string `yaml:"trigger_token,omitempty"`
	Query        string `yaml:"query,omitempty"`
	Focus        string `yaml:"focus,omitempty"`
	Period       string `yaml:"period,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Sources: SourcesConfig{
			TimeoutSeconds: 10,
			MaxRetries:     2,
			MaxPerSource:   10,
			UserAgent:      "techwatch/1.0",
		},
		History: HistoryConfig{
			Backend:       "sqlite",
			RetentionDays: 14,
		},
		Schedule: ScheduleConfig{
			Cron:   "0 8 * * *",
			Port:   8787,
			Query:  "what's new in tech?",
			Focus:  "general",
			Period: "week",
		},
	}
}

func DataDir() string {
	return filepath.Join(getExecutableDir(), ".techwatch")
}

func ConfigPath() string {
	return filepath.Join(getExecutableDir(), "techwatch.yaml")
}

// HistoryPath resolves the history store location, honoring an explicit path.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	if c.History.Backend == "file" {
		return filepath.Join(DataDir(), "sent_history.json")
	}
	return filepath.Join(DataDir(), "techwatch.db")
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

func LoadFromPath(path string) (*Config, error) {
	// API keys commonly live in a .env next to the config file
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills credentials from the environment when the file leaves them
// blank, and appends default providers for any API key present but not
// configured explicitly.
func (c *Config) applyEnv() {
	if c.Notify.Telegram.Token == "" {
		c.Notify.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if c.Notify.Slack.BotToken == "" {
		c.Notify.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	if c.Notify.Discord.Token == "" {
		c.Notify.Discord.Token = os.Getenv("DISCORD_BOT_TOKEN")
	}

	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		if p.APIKey != "" {
			continue
		}
		switch p.Type {
		case "openai":
			p.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			p.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if len(c.LLM.Providers) > 0 {
		return
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{
			Name:   "openai",
			Type:   "openai",
			APIKey: key,
		})
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{
			Name:   "anthropic",
			Type:   "anthropic",
			APIKey: key,
		})
	}
}

func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}
