package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBotConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config_bot.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBotConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("API_BASE_URL", "")

	path := writeBotConfig(t, `{
		"BOT_TOKEN": "123:abc",
		"API_BASE_URL": "http://api.local/api/",
		"ADMIN_USERNAME": "admin",
		"ADMIN_PASSWORD": "admin123",
		"ADMIN_CHAT_IDS": [111, "222"]
	}`)

	cfg, err := LoadBotConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "http://api.local/api", cfg.APIBaseURL)
	assert.Equal(t, ChatIDs{111, 222}, cfg.AdminChatIDs)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestLoadBotConfigDefaultsAndOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("API_BASE_URL", "")

	cfg, err := LoadBotConfig(writeBotConfig(t, `{"BOT_TOKEN": "from-file"}`))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.BotToken)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Empty(t, cfg.AdminChatIDs)
}

func TestLoadBotConfigErrors(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := LoadBotConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadBotConfig(writeBotConfig(t, `{"API_BASE_URL": "http://x"}`))
	assert.ErrorContains(t, err, "BOT_TOKEN")

	_, err = LoadBotConfig(writeBotConfig(t, `{"BOT_TOKEN": "t", "ADMIN_CHAT_IDS": ["abc"]}`))
	assert.Error(t, err)
}

func TestReloadAdminChatIDs(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	path := writeBotConfig(t, `{"BOT_TOKEN": "t", "ADMIN_CHAT_IDS": [1]}`)

	cfg, err := LoadBotConfig(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"BOT_TOKEN": "t", "ADMIN_CHAT_IDS": [1, 2, "3"]}`), 0644))
	ids, err := cfg.ReloadAdminChatIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestBotConfigPath(t *testing.T) {
	t.Setenv("BOT_CONFIG", "")
	assert.Equal(t, DefaultBotConfigPath, BotConfigPath())

	t.Setenv("BOT_CONFIG", "/etc/bot.json")
	assert.Equal(t, "/etc/bot.json", BotConfigPath())
}
