package privid

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is the engine log verbosity. The zero value is LevelOff.
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"off", "error", "warn", "info", "debug"}

func (l Level) Valid() bool { return l >= LevelOff && l <= LevelDebug }

func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel accepts a level name or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Level(n).Valid() {
		return Level(n), nil
	}
	return LevelOff, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
}

// ZapLevel maps l onto a zap level. LevelOff maps above FatalLevel, which
// disables the logger.
func (l Level) ZapLevel() zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelDebug:
		return zapcore.DebugLevel
	}
	return zapcore.FatalLevel + 1
}
