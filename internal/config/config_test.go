package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  base_url: "https://chat.example.com"
  ws_url: "wss://chat.example.com/ws"
  token: "abc"
websocket:
  pong_wait: 45s
chat:
  typing_expiry: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "wss://chat.example.com/ws", cfg.Server.WsURL)
	assert.Equal(t, "abc", cfg.Server.Token)
	assert.Equal(t, 45*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, 3*time.Second, cfg.Chat.TypingExpiry)

	// Unset values fall back to defaults.
	assert.Equal(t, 10*time.Second, cfg.WebSocket.WriteWait)
	assert.Equal(t, 50, cfg.History.PageSize)
	assert.Equal(t, 10*time.Second, cfg.Chat.SendErrorWindow)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.Server.BaseURL)
	assert.Equal(t, int64(51200), cfg.WebSocket.MaxMessageSize)
	assert.Equal(t, 6*time.Second, cfg.Chat.TypingExpiry)
	assert.Equal(t, (30*time.Second*9)/10, cfg.WebSocket.PingPeriod)
}
