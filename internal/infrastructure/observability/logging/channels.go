// Package logging provides structured logging channels for xolo operations.
// Each subsystem logs to its own channel so that noisy traffic rewriting can
// be tuned independently of startup, persistence, and remote API logging.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Channel represents a logical logging channel for different system components
type Channel string

const (
	// System channels
	ChannelSystem   Channel = "system"
	ChannelStartup  Channel = "startup"
	ChannelShutdown Channel = "shutdown"

	// Rewriting engine channels
	ChannelEngine      Channel = "engine"
	ChannelPurchase    Channel = "purchase"
	ChannelInventory   Channel = "inventory"
	ChannelAvatar      Channel = "avatar"
	ChannelTransaction Channel = "transaction"

	// Infrastructure channels
	ChannelCache   Channel = "cache"
	ChannelRemote  Channel = "remote"
	ChannelPersist Channel = "persist"

	// Local dashboard channel
	ChannelDashboard Channel = "dashboard"
)

var allChannels = []Channel{
	ChannelSystem, ChannelStartup, ChannelShutdown,
	ChannelEngine, ChannelPurchase, ChannelInventory, ChannelAvatar, ChannelTransaction,
	ChannelCache, ChannelRemote, ChannelPersist,
	ChannelDashboard,
}

// LoggerConfig contains configuration options for the channeled logger
type LoggerConfig struct {
	OutputToFile    bool       `json:"outputToFile"`
	OutputToConsole bool       `json:"outputToConsole"`
	LogDirectory    string     `json:"logDirectory"`
	JSONFormat      bool       `json:"jsonFormat"`
	DefaultLevel    slog.Level `json:"defaultLevel"`
}

// DefaultLoggerConfig returns a sensible default configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: true,
		LogDirectory:    "logs",
		JSONFormat:      true,
		DefaultLevel:    slog.LevelInfo,
	}
}

// ChanneledLogger provides structured logging with multiple channels.
// Channel levels can be adjusted at runtime through the dashboard.
type ChanneledLogger struct {
	channels map[Channel]*slog.Logger
	levels   map[Channel]*slog.LevelVar
	config   *LoggerConfig
	mu       sync.RWMutex
}

// NewChanneledLogger creates a new channeled logger with the given configuration
func NewChanneledLogger(config *LoggerConfig) (*ChanneledLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	cl := &ChanneledLogger{
		channels: make(map[Channel]*slog.Logger),
		levels:   make(map[Channel]*slog.LevelVar),
		config:   config,
	}

	if config.OutputToFile {
		if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	for _, channel := range allChannels {
		logger, err := cl.createChannelLogger(channel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger for channel %s: %w", channel, err)
		}
		cl.channels[channel] = logger
	}

	return cl, nil
}

func (cl *ChanneledLogger) createChannelLogger(channel Channel) (*slog.Logger, error) {
	level := &slog.LevelVar{}
	level.Set(cl.config.DefaultLevel)
	cl.levels[channel] = level

	var writers []io.Writer
	if cl.config.OutputToConsole {
		writers = append(writers, os.Stdout)
	}
	if cl.config.OutputToFile {
		path := filepath.Join(cl.config.LogDirectory, fmt.Sprintf("%s.log", string(channel)))
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		writers = append(writers, file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cl.config.JSONFormat {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With(slog.String("channel", string(channel))), nil
}

func (cl *ChanneledLogger) System() *slog.Logger      { return cl.channels[ChannelSystem] }
func (cl *ChanneledLogger) Startup() *slog.Logger     { return cl.channels[ChannelStartup] }
func (cl *ChanneledLogger) Shutdown() *slog.Logger    { return cl.channels[ChannelShutdown] }
func (cl *ChanneledLogger) Engine() *slog.Logger      { return cl.channels[ChannelEngine] }
func (cl *ChanneledLogger) Purchase() *slog.Logger    { return cl.channels[ChannelPurchase] }
func (cl *ChanneledLogger) Inventory() *slog.Logger   { return cl.channels[ChannelInventory] }
func (cl *ChanneledLogger) Avatar() *slog.Logger      { return cl.channels[ChannelAvatar] }
func (cl *ChanneledLogger) Transaction() *slog.Logger { return cl.channels[ChannelTransaction] }
func (cl *ChanneledLogger) Cache() *slog.Logger       { return cl.channels[ChannelCache] }
func (cl *ChanneledLogger) Remote() *slog.Logger      { return cl.channels[ChannelRemote] }
func (cl *ChanneledLogger) Persist() *slog.Logger     { return cl.channels[ChannelPersist] }
func (cl *ChanneledLogger) Dashboard() *slog.Logger   { return cl.channels[ChannelDashboard] }

// GetChannel returns a logger for a specific channel
func (cl *ChanneledLogger) GetChannel(channel Channel) *slog.Logger {
	if logger, exists := cl.channels[channel]; exists {
		return logger
	}
	return cl.channels[ChannelSystem]
}

// SetChannelLevel adjusts one channel's level at runtime
func (cl *ChanneledLogger) SetChannelLevel(channel Channel, level slog.Level) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	lv, exists := cl.levels[channel]
	if !exists {
		return fmt.Errorf("unknown log channel: %s", channel)
	}
	lv.Set(level)
	return nil
}

// ChannelLevels reports the current level of every channel
func (cl *ChanneledLogger) ChannelLevels() map[Channel]string {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	out := make(map[Channel]string, len(cl.levels))
	for channel, lv := range cl.levels {
		out[channel] = lv.Level().String()
	}
	return out
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level: %s", name)
}
