package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// dShopLogger implements the ILogger interface on top of a zap core.
// The level is managed per logger (as dragonboat expects), zap only formats and writes.
type dShopLogger struct {
	name   string
	level  logger.LogLevel
	logger *zap.Logger
}

func (l *dShopLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *dShopLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.logger.Debug(fmt.Sprintf(format, args...))
	}
}

func (l *dShopLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.logger.Info(fmt.Sprintf(format, args...))
	}
}

func (l *dShopLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.logger.Warn(fmt.Sprintf(format, args...))
	}
}

func (l *dShopLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.logger.Error(fmt.Sprintf(format, args...))
	}
}

func (l *dShopLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// --------------------------------------------------------------------------
// Zap Core
// --------------------------------------------------------------------------

// encoderConfig renders entries as "date time | LEVEL | name            | message"
var encoderConfig = zapcore.EncoderConfig{
	TimeKey:          "time",
	LevelKey:         "level",
	NameKey:          "logger",
	MessageKey:       "msg",
	LineEnding:       zapcore.DefaultLineEnding,
	ConsoleSeparator: " | ",
	EncodeTime:       zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
	EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%-5s", level.CapitalString()))
	},
	EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%-15s", name))
	},
	EncodeDuration: zapcore.StringDurationEncoder,
}

// newCore creates the console core all loggers write to
func newCore() zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zapcore.DebugLevel,
	)
}

// newLogger creates a named logger writing to the given core
func newLogger(core zapcore.Core, name string) *dShopLogger {
	return &dShopLogger{
		name:   name,
		level:  logger.INFO,
		logger: zap.New(core).Named(name),
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var core = newCore()

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return newLogger(core, pkgName)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames lists the dragonboat and dShop loggers whose level is configured
var loggerNames = []string{
	// dragonboat
	"raft", "raftdb", "rsm", "transport", "dragonboat", "grpc", "util", "logdb",
	// dShop
	"shop", "catalog", "session", "api", "rpc", "rpc/stats", "transport/rpc",
}

// InitLoggers installs the custom logger factory and sets the level of all known loggers
func InitLoggers(logLevel string) error {
	level, err := ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	// Set as the global logger factory for Dragonboat
	logger.SetLoggerFactory(CreateLogger)

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
