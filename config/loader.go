package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

const DefaultBotConfigPath = "config_bot.json"

// BotConfig is the Telegram bot configuration. File values are read first,
// then the environment overrides the settings it names.
type BotConfig struct {
	BotToken      string  `json:"BOT_TOKEN" env:"BOT_TOKEN"`
	APIBaseURL    string  `json:"API_BASE_URL" env:"API_BASE_URL"`
	AdminUsername string  `json:"ADMIN_USERNAME" env:"ADMIN_USERNAME"`
	AdminPassword string  `json:"ADMIN_PASSWORD" env:"ADMIN_PASSWORD"`
	AdminChatIDs  ChatIDs `json:"ADMIN_CHAT_IDS"`

	RequestTimeout time.Duration `json:"-" env:"BOT_REQUEST_TIMEOUT" envDefault:"30s"`
	PollTimeout    int           `json:"-" env:"BOT_POLL_TIMEOUT" envDefault:"60"`
	TokenTTL       time.Duration `json:"-" env:"BOT_TOKEN_TTL" envDefault:"1h"`
	SweepInterval  time.Duration `json:"-" env:"BOT_TOKEN_SWEEP_INTERVAL" envDefault:"5m"`
	LogLevel       string        `json:"-" env:"LOG_LEVEL" envDefault:"info"`

	path string
}

// ChatIDs accepts chat ids written as numbers or as strings.
type ChatIDs []int64

func (c *ChatIDs) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ADMIN_CHAT_IDS must be a list: %w", err)
	}

	ids := make(ChatIDs, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case float64:
			ids = append(ids, int64(id))
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q", id)
			}
			ids = append(ids, n)
		default:
			return fmt.Errorf("invalid chat id %v", v)
		}
	}
	*c = ids
	return nil
}

// BotConfigPath is BOT_CONFIG when set, else config_bot.json.
func BotConfigPath() string {
	if p := os.Getenv("BOT_CONFIG"); p != "" {
		return p
	}
	return DefaultBotConfigPath
}

func readBotFile(path string) (*BotConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg BotConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = absPath
	return &cfg, nil
}

// LoadBotConfig reads the bot configuration file at path.
func LoadBotConfig(path string) (*BotConfig, error) {
	cfg, err := readBotFile(path)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:5000/api"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is missing from %s", cfg.path)
	}
	return cfg, nil
}

// ReloadAdminChatIDs rereads ADMIN_CHAT_IDS from the file the config was
// loaded from.
func (c *BotConfig) ReloadAdminChatIDs() ([]int64, error) {
	fresh, err := readBotFile(c.path)
	if err != nil {
		return nil, err
	}
	return fresh.AdminChatIDs, nil
}
