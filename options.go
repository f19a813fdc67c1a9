package complianced

import (
	"log/slog"

	"github.com/raphi011/complianced/internal/runner"
)

// WithConfig replaces the default configuration. Flags still override
// individual values in server mode.
func WithConfig(cfg Config) option {
	return func(s *Server) {
		s.config = cfg
	}
}

func WithLogger(log *slog.Logger) option {
	return func(s *Server) {
		s.log = log
	}
}

func WithSuitesDir(dir string) option {
	return func(s *Server) {
		s.config.SuitesDir = dir
	}
}

func WithResultsDir(dir string) option {
	return func(s *Server) {
		s.config.ResultsDir = dir
	}
}

// WithEngine replaces the robot CLI engine, mainly for tests.
func WithEngine(e runner.Engine) option {
	return func(s *Server) {
		s.engine = e
	}
}

func WithHook(h Hook) option {
	return func(s *Server) {
		s.hooks.all = append(s.hooks.all, h)
	}
}
