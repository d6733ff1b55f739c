// Package logging builds component loggers on top of the global zerolog
// logger and carries push and rundown ids through contexts.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with cmp=name.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// API returns a logger for an HTTP client talking to baseURL.
func API(name, baseURL string) zerolog.Logger {
	return log.With().Str("cmp", "api").Str("api", name).Str("base_url", baseURL).Logger()
}
