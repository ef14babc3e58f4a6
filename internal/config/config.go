package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath = "config.toml"
	DefaultHTTPAddr   = ":8080"
	DefaultPGHost     = "127.0.0.1"
	DefaultPGPort     = 5432
	DefaultPGUser     = "postgres"
	DefaultPGDatabase = "dealerflow"
	DefaultPGSSLMode  = "disable"
	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
)

// DefaultHandoffSentence is appended to the final automated reply when a
// conversation is handed over and the agent has no custom handoff_message.
const DefaultHandoffSentence = "I'm looping in one of our team members who will follow up with you shortly."

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Mailgun  MailgunConfig  `toml:"mailgun"`
	SMTP     SMTPConfig     `toml:"smtp"`
	LLM      LLMConfig      `toml:"llm"`
	Sending  SendingConfig  `toml:"sending"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

type MailgunConfig struct {
	APIKey            string `toml:"api_key"`
	Region            string `toml:"region"`
	WebhookSigningKey string `toml:"webhook_signing_key"`
}

// SMTPConfig configures the fallback SMTP transport for self-hosted setups.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Security string `toml:"security"` // tls, starttls, none
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SendingConfig governs the outbound send surface.
type SendingConfig struct {
	DefaultDomain   string   `toml:"default_domain"`
	AllowedDomains  []string `toml:"allowed_domains"`
	HandoffSentence string   `toml:"handoff_sentence"`
}

// DomainAllowed reports whether an agent may send from the given domain.
// The default domain is always allowed.
func (c SendingConfig) DomainAllowed(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	if domain == strings.ToLower(strings.TrimSpace(c.DefaultDomain)) {
		return true
	}
	for _, allowed := range c.AllowedDomains {
		if domain == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func (c SendingConfig) Handoff() string {
	if strings.TrimSpace(c.HandoffSentence) == "" {
		return DefaultHandoffSentence
	}
	return c.HandoffSentence
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Mailgun: MailgunConfig{
			Region: "us",
		},
		SMTP: SMTPConfig{
			Port:     587,
			Security: "starttls",
		},
		LLM: LLMConfig{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultLLMModel,
			TimeoutSeconds: 30,
		},
		Sending: SendingConfig{
			HandoffSentence: DefaultHandoffSentence,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
