// Package logger builds the application's structured zap logger.
package logger

import "go.uber.org/zap"

// New returns a zap logger configured for the given environment: a
// human-readable development logger for "dev", a JSON production
// logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
