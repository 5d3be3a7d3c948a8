package logger

import (
	"go.uber.org/zap/zapcore"
)

// Config holds the logging options shared by every flagd command.
type Config struct {
	Format string        `toml:"format" yaml:"format" json:"format"`
	Level  zapcore.Level `toml:"level" yaml:"level" json:"level"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Format: "auto",
		Level:  zapcore.InfoLevel,
	}
}
