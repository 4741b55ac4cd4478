package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all chat client configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	History   HistoryConfig   `mapstructure:"history"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

// ServerConfig holds the platform endpoints and credentials
type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	WsURL   string `mapstructure:"ws_url"`
	Token   string `mapstructure:"token"`
}

// WebSocketConfig holds WebSocket connection tuning
type WebSocketConfig struct {
	MaxMessageSize   int64         `mapstructure:"max_message_size"`
	WriteWait        time.Duration `mapstructure:"write_wait"`
	PongWait         time.Duration `mapstructure:"pong_wait"`
	PingPeriod       time.Duration `mapstructure:"ping_period"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteChannelSize int           `mapstructure:"write_channel_size"`
}

// HistoryConfig holds paginated history fetch tuning
type HistoryConfig struct {
	PageSize     int           `mapstructure:"page_size"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// ChatConfig holds engine behavior tuning
type ChatConfig struct {
	// SendErrorWindow bounds how long a send keeps its one-shot error
	// correlation slot. After it elapses the send is fire-and-forget;
	// the slot is freed but the optimistic entry is NOT rolled back.
	SendErrorWindow time.Duration `mapstructure:"send_error_window"`
	// TypingExpiry clears a remote typing indicator that has not been
	// refreshed, guarding against a peer that vanished mid-typing.
	// Negative disables receiver-side expiry.
	TypingExpiry time.Duration `mapstructure:"typing_expiry"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with all defaults applied, for embedding the
// engine without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:5000"
	}
	if cfg.Server.WsURL == "" {
		cfg.Server.WsURL = "ws://localhost:5000/ws"
	}
	if cfg.WebSocket.MaxMessageSize == 0 {
		cfg.WebSocket.MaxMessageSize = 51200
	}
	if cfg.WebSocket.WriteWait == 0 {
		cfg.WebSocket.WriteWait = 10 * time.Second
	}
	if cfg.WebSocket.PongWait == 0 {
		cfg.WebSocket.PongWait = 30 * time.Second
	}
	if cfg.WebSocket.PingPeriod == 0 {
		cfg.WebSocket.PingPeriod = (cfg.WebSocket.PongWait * 9) / 10
	}
	if cfg.WebSocket.HandshakeTimeout == 0 {
		cfg.WebSocket.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WebSocket.WriteChannelSize == 0 {
		cfg.WebSocket.WriteChannelSize = 256
	}
	if cfg.History.PageSize == 0 {
		cfg.History.PageSize = 50
	}
	if cfg.History.FetchTimeout == 0 {
		cfg.History.FetchTimeout = 15 * time.Second
	}
	if cfg.Chat.SendErrorWindow == 0 {
		cfg.Chat.SendErrorWindow = 10 * time.Second
	}
	if cfg.Chat.TypingExpiry == 0 {
		cfg.Chat.TypingExpiry = 6 * time.Second
	}
}
