// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
	// Console enables the human readable writer on ConsoleOut (stderr when nil).
	Console    bool
	ConsoleOut io.Writer
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "whale-copytrader", "logs", "copytrader.log"),
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     14,
	}
}

var levelTags = map[string]string{
	"debug": "\033[36mDBG\033[0m",
	"info":  "\033[32mINF\033[0m",
	"warn":  "\033[33mWRN\033[0m",
	"error": "\033[31mERR\033[0m",
	"fatal": "\033[35mFTL\033[0m",
}

func formatLevel(i interface{}) string {
	ll, ok := i.(string)
	if !ok {
		return "???"
	}
	if tag, ok := levelTags[ll]; ok {
		return tag
	}
	return ll
}

// NewLoggerWithConfig creates a logger writing to the console, a rotating
// file, both or neither.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		out := cfg.ConsoleOut
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:         out,
			TimeFormat:  time.TimeOnly,
			FormatLevel: formatLevel,
		})
	}

	if cfg.File && cfg.FilePath != "" {
		// An unwritable log directory leaves console logging only
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Str("service", "copytrader").
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithComponent adds a component name to the logger context.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithBot adds the trading bot username to the logger context.
func WithBot(logger zerolog.Logger, bot string) zerolog.Logger {
	return logger.With().Str("bot", bot).Logger()
}

// WithContract adds a token contract address to the logger context.
func WithContract(logger zerolog.Logger, contractAddress string) zerolog.Logger {
	return logger.With().Str("contract_address", contractAddress).Logger()
}

// LogPurchase logs a completed purchase.
func LogPurchase(logger zerolog.Logger, conversationID, contractAddress, symbol, solAmount string, limitPlaced bool) {
	logger.Info().
		Str("event", "purchase").
		Str("conversation_id", conversationID).
		Str("contract_address", contractAddress).
		Str("symbol", symbol).
		Str("sol_amount", solAmount).
		Bool("limit_placed", limitPlaced).
		Msg("Purchase completed")
}

// LogStep logs one conversation step transition.
func LogStep(logger zerolog.Logger, step, state string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "step").
		Str("step", step).
		Str("state", state).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Conversation step failed")
	} else {
		event.Msg("Conversation step completed")
	}
}

// LogAPICall logs an API call.
func LogAPICall(logger zerolog.Logger, method, endpoint string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("method", method).
		Str("endpoint", endpoint).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("API call failed")
	} else {
		event.Msg("API call completed")
	}
}
