// Package logging holds the module-wide zap logger used by all SDK components.
package logging

import (
	"go.uber.org/zap"
)

// Logger is the shared logger instance. It defaults to a no-op logger so the
// SDK stays silent unless the host application opts in via Init or SetLogger.
var Logger = zap.NewNop()

// Init replaces the shared logger with a real zap logger. Pass debug=true for
// development output (console encoding, debug level).
func Init(debug bool) error {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// SetLogger installs a caller-provided logger, e.g. one already configured by
// the host application. A nil logger restores the no-op default.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		Logger = zap.NewNop()
		return
	}
	Logger = logger
}
