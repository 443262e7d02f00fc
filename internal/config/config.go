package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "AIDIGEST_CONFIG"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	smtpServerEnv    = "SMTP_SERVER"
	smtpPortEnv      = "SMTP_PORT"
	smtpUsernameEnv  = "SMTP_USERNAME"
	smtpPasswordEnv  = "SMTP_PASSWORD"
	emailFromEnv     = "EMAIL_FROM"
	emailToEnv       = "EMAIL_TO"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML parses Go duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Email     EmailConfig     `yaml:"email"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig controls console log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetrievalConfig describes the fan-out over source adapters.
type RetrievalConfig struct {
	PerSourceTimeout Duration       `yaml:"perSourceTimeout"`
	Sources          []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one adapter registration. Kind selects the adapter
// implementation; registration order fixes the merge order.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Category string            `yaml:"category"`
	URLs     []string          `yaml:"urls"`
	Options  map[string]string `yaml:"options"`
}

// AnalysisConfig bounds the stage pipeline and the model-call quota.
type AnalysisConfig struct {
	Budget              Duration `yaml:"budget"`
	MaxParallel         int      `yaml:"maxParallel"`
	ModelCallsPerMinute int      `yaml:"modelCallsPerMinute"`
	MaxRetries          int      `yaml:"maxRetries"`
	StageTimeout        Duration `yaml:"stageTimeout"`
	RetryBaseDelay      Duration `yaml:"retryBaseDelay"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// EmailConfig wires SMTP delivery of the daily report.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// TelegramConfig wires the optional side-channel digest.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines when the daily run fires.
type SchedulerConfig struct {
	At       string         `yaml:"at"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Retrieval.Sources) == 0 {
		cfg.Retrieval.Sources = defaultConfig().Retrieval.Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Email.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.Port = port
		}
	}
	if v := os.Getenv(smtpUsernameEnv); v != "" {
		c.Email.Username = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv(emailFromEnv); v != "" {
		c.Email.From = v
	}
	if v := os.Getenv(emailToEnv); v != "" {
		c.Email.To = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Retrieval.PerSourceTimeout != 0 {
		base.Retrieval.PerSourceTimeout = override.Retrieval.PerSourceTimeout
	}
	if len(override.Retrieval.Sources) > 0 {
		base.Retrieval.Sources = override.Retrieval.Sources
	}

	if override.Analysis.Budget != 0 {
		base.Analysis.Budget = override.Analysis.Budget
	}
	if override.Analysis.MaxParallel != 0 {
		base.Analysis.MaxParallel = override.Analysis.MaxParallel
	}
	if override.Analysis.ModelCallsPerMinute != 0 {
		base.Analysis.ModelCallsPerMinute = override.Analysis.ModelCallsPerMinute
	}
	if override.Analysis.MaxRetries != 0 {
		base.Analysis.MaxRetries = override.Analysis.MaxRetries
	}
	if override.Analysis.StageTimeout != 0 {
		base.Analysis.StageTimeout = override.Analysis.StageTimeout
	}
	if override.Analysis.RetryBaseDelay != 0 {
		base.Analysis.RetryBaseDelay = override.Analysis.RetryBaseDelay
	}

	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.Email.Host != "" {
		base.Email.Host = override.Email.Host
	}
	if override.Email.Port != 0 {
		base.Email.Port = override.Email.Port
	}
	if override.Email.Username != "" {
		base.Email.Username = override.Email.Username
	}
	if override.Email.Password != "" {
		base.Email.Password = override.Email.Password
	}
	if override.Email.From != "" {
		base.Email.From = override.Email.From
	}
	if override.Email.To != "" {
		base.Email.To = override.Email.To
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if override.Scheduler.At != "" {
		base.Scheduler.At = override.Scheduler.At
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Retrieval: RetrievalConfig{
			PerSourceTimeout: Duration(30 * time.Second),
			Sources: []SourceConfig{
				{
					Name:     "arxiv",
					Kind:     "rss",
					Category: "paper",
					URLs: []string{
						"https://export.arxiv.org/rss/cs.AI",
						"https://export.arxiv.org/rss/cs.LG",
					},
				},
				{
					Name:     "huggingface",
					Kind:     "huggingface",
					Category: "model-release",
					URLs:     []string{"https://huggingface.co/api/models?limit=10&sort=downloads&direction=-1"},
				},
				{
					Name:     "github-trending",
					Kind:     "github-trending",
					Category: "tool",
					URLs:     []string{"https://github.com/trending/python?since=daily"},
				},
				{
					Name:     "reddit",
					Kind:     "reddit",
					Category: "discussion",
					Options:  map[string]string{"subreddits": "MachineLearning,LocalLLaMA,artificial"},
				},
				{
					Name:     "paperswithcode",
					Kind:     "rss",
					Category: "paper",
					URLs:     []string{"https://paperswithcode.com/rss/latest"},
				},
				{
					Name:     "ai-news",
					Kind:     "rss",
					Category: "news",
					URLs: []string{
						"https://techcrunch.com/category/artificial-intelligence/feed/",
						"https://venturebeat.com/category/ai/feed/",
					},
				},
				{
					Name:     "company-blogs",
					Kind:     "rss",
					Category: "blog",
					URLs: []string{
						"https://openai.com/blog/rss.xml",
						"https://blog.google/technology/ai/rss/",
					},
				},
			},
		},
		Analysis: AnalysisConfig{
			Budget:              Duration(10 * time.Minute),
			MaxParallel:         2,
			ModelCallsPerMinute: 10,
			MaxRetries:          2,
			StageTimeout:        Duration(90 * time.Second),
			RetryBaseDelay:      Duration(2 * time.Second),
		},
		Gemini: GeminiConfig{Model: "gemini-3-flash-preview"},
		Email:  EmailConfig{Host: "smtp.gmail.com", Port: 587},
		Scheduler: SchedulerConfig{
			At:       "07:00",
			Timezone: defaultTimezone,
			location: tz,
		},
	}
}
