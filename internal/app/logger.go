package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. LOG_FORMAT=json selects the
// machine-readable handler used in deployments; anything else falls back
// to the text handler for local work. Source locations are always
// attached so reconciliation errors can be traced to a call site.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
