// Package log provides the shared zap-backed logger for gopstat.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger
var base *zap.Logger

// Init initializes the package-level logger. debug selects the
// development config (human-readable, DEBUG level).
func Init(debug bool) error {
	var logger *zap.Logger
	var err error

	if debug {
		logger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		logger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	base = logger
	sugar = logger.Sugar()
	return nil
}

// Logger returns the base zap logger, initializing a production
// fallback if Init was never called.
func Logger() *zap.Logger {
	if base == nil {
		base, _ = zap.NewProduction(zap.AddCallerSkip(1))
		sugar = base.Sugar()
	}
	return base
}

// Sync flushes any buffered log entries.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func s() *zap.SugaredLogger {
	if sugar == nil {
		Logger()
	}
	return sugar
}

func Debugf(format string, args ...interface{}) { s().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { s().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { s().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { s().Errorf(format, args...) }

func Debug(args ...interface{}) { s().Debug(args...) }
func Info(args ...interface{})  { s().Info(args...) }
func Warn(args ...interface{})  { s().Warn(args...) }
func Error(args ...interface{}) { s().Error(args...) }
