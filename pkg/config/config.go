// Package config loads the bot configuration from an optional YAML file,
// .env files and environment variables, in increasing priority.
package config

import (
	"errors"
	"time"

	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
	"github.com/unowned-ai/readlater/pkg/utils"
)

// ErrMissingBotToken is returned when the Telegram transport is started
// without a token.
var ErrMissingBotToken = errors.New("telegram bot token is required (set BOT_TOKEN)")

// Config is the complete bot configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Pagination PaginationConfig `yaml:"pagination"`
	Ops        OpsConfig        `yaml:"ops"`
	Logging    logger.Config    `yaml:"logging"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"READLATER_DB" validate:"required"`
	WAL  bool   `yaml:"wal" env:"READLATER_WAL"`
	Sync string `yaml:"sync" env:"READLATER_SYNC" validate:"oneof=OFF NORMAL FULL EXTRA"`
}

type TelegramConfig struct {
	Token string `yaml:"token" env:"BOT_TOKEN"`
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int  `yaml:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT" validate:"min=0,max=50"`
	Workers     int  `yaml:"workers" env:"TELEGRAM_WORKERS" validate:"min=1,max=256"`
	Debug       bool `yaml:"debug" env:"TELEGRAM_DEBUG"`
	// SendRate limits outgoing messages per chat, in messages per second.
	SendRate  float64 `yaml:"send_rate" env:"TELEGRAM_SEND_RATE" validate:"gt=0"`
	SendBurst int     `yaml:"send_burst" env:"TELEGRAM_SEND_BURST" validate:"min=1"`
}

type SessionsConfig struct {
	Backend string              `yaml:"backend" env:"SESSION_BACKEND" validate:"oneof=memory redis"`
	Redis   session.RedisConfig `yaml:"redis"`
}

type PaginationConfig struct {
	PageSize int `yaml:"page_size" env:"READLATER_PAGE_SIZE" validate:"min=1,max=20"`
}

type OpsConfig struct {
	// Addr is the listen address of /healthz and /metrics. Empty disables the server.
	Addr    string `yaml:"addr" env:"READLATER_OPS_ADDR"`
	Metrics bool   `yaml:"metrics" env:"READLATER_METRICS"`
}

const (
	DefaultSync        = "NORMAL"
	DefaultPollTimeout = 30
	DefaultWorkers     = 16
	DefaultSendRate    = 1.0
	DefaultSendBurst   = 3
	DefaultPageSize    = 5
	DefaultSessionTTL  = 24 * time.Hour
)

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = utils.DefaultDBPath()
	}
	if c.Database.Sync == "" {
		c.Database.Sync = DefaultSync
	}
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = DefaultPollTimeout
	}
	if c.Telegram.Workers == 0 {
		c.Telegram.Workers = DefaultWorkers
	}
	if c.Telegram.SendRate == 0 {
		c.Telegram.SendRate = DefaultSendRate
	}
	if c.Telegram.SendBurst == 0 {
		c.Telegram.SendBurst = DefaultSendBurst
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "memory"
	}
	if c.Sessions.Redis.TTL == 0 {
		c.Sessions.Redis.TTL = DefaultSessionTTL
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = DefaultPageSize
	}
	c.Logging.SetDefaults()
}

// RequireTelegram checks the settings only the Telegram transport needs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return ErrMissingBotToken
	}
	if c.Sessions.Backend == "redis" && c.Sessions.Redis.Address == "" {
		return session.ErrEmptyAddress
	}
	return nil
}
