// Package logger builds the zap logger used across the service.  The
// dev environment gets the human-readable console encoder; everything
// else logs JSON at info level.
package logger

import (
    "go.uber.org/zap"
)

// New returns a configured *zap.Logger for the given environment.  It
// falls back to the production config when the environment is unknown.
// The caller owns the logger and should defer Sync on shutdown.
func New(env string) (*zap.Logger, error) {
    if env == "dev" || env == "development" {
        cfg := zap.NewDevelopmentConfig()
        return cfg.Build()
    }
    cfg := zap.NewProductionConfig()
    cfg.DisableStacktrace = true
    return cfg.Build()
}
