// Package logging constructs the zap.SugaredLogger instances used
// throughout the gateway. Every component takes its logger by
// constructor injection rather than reaching for a package-level
// global, matching §9 "Global mutable state": loggers, like rate
// limiters and caches, are instance-scoped.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger returned by New.
type Options struct {
	Development bool
	Level       zapcore.Level
}

// New builds a production-style JSON logger, or a development console
// logger with Options.Development set (used by cmd/biosearch's --verbose
// flag and by tests that want readable output).
func New(opts Options) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(opts.Level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// NewNop returns a logger that discards everything, for tests that don't
// care about log output.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
