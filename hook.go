package complianced

import (
	"fmt"
	"log/slog"

	"github.com/raphi011/complianced/internal/hook"
	"github.com/raphi011/complianced/internal/model"
)

type Hook interface {
	Name() string
	Init() error
}

// RunFinishedListener hooks are invoked after every completed suite
// execution, in registration order.
type RunFinishedListener interface {
	Hook
	RunFinished(outcome model.RunOutcome)
}

type hookManager struct {
	all         []Hook
	runFinished []RunFinishedListener

	log *slog.Logger
}

func newHookManager(log *slog.Logger) *hookManager {
	return &hookManager{
		all:         []Hook{},
		runFinished: []RunFinishedListener{},
		log:         log,
	}
}

func (h *hookManager) init() error {
	for _, p := range h.all {
		if err := p.Init(); err != nil {
			return fmt.Errorf("initiating hook %q: %w", p.Name(), err)
		}

		registeredHook := false

		if l, ok := p.(RunFinishedListener); ok {
			h.runFinished = append(h.runFinished, l)
			registeredHook = true
		}

		if !registeredHook {
			return fmt.Errorf("hook %q does not implement any listener", p.Name())
		}
	}

	return nil
}

func (h *hookManager) notifyRunFinished(outcome model.RunOutcome) {
	for _, p := range h.runFinished {
		p.RunFinished(outcome)
	}
}

// initConfiguredHooks registers the hooks enabled through the config.
func (s *Server) initConfiguredHooks() error {
	if len(s.config.ElasticAddresses) > 0 {
		es, err := hook.NewElasticSearchHook(s.config.ElasticAddresses, s.config.ElasticIndex, s.log)
		if err != nil {
			return err
		}

		s.hooks.all = append(s.hooks.all, es)
	}

	if s.config.SlackToken != "" {
		s.hooks.all = append(s.hooks.all, hook.NewSlackHook(s.config.SlackChannelID, s.config.SlackToken, s.log))
	}

	return nil
}
