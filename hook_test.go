package complianced

import (
	"io"
	"log/slog"
	"testing"

	"github.com/raphi011/complianced/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	initErr  error
	outcomes []model.RunOutcome
}

func (h *recordingHook) Name() string { return "recording" }

func (h *recordingHook) Init() error { return h.initErr }

func (h *recordingHook) RunFinished(outcome model.RunOutcome) {
	h.outcomes = append(h.outcomes, outcome)
}

// listenerlessHook implements Hook but no listener interface.
type listenerlessHook struct{}

func (listenerlessHook) Name() string { return "listenerless" }

func (listenerlessHook) Init() error { return nil }

func TestHookManagerNotifiesRunFinishedListeners(t *testing.T) {
	t.Parallel()

	h := &recordingHook{}

	m := newHookManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.all = append(m.all, h)

	require.NoError(t, m.init())

	m.notifyRunFinished(model.RunOutcome{RunID: "run-1", SuiteName: "baseline"})

	require.Len(t, h.outcomes, 1)
	assert.Equal(t, "run-1", h.outcomes[0].RunID)
}

func TestHookManagerRejectsHooksWithoutListeners(t *testing.T) {
	t.Parallel()

	m := newHookManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.all = append(m.all, listenerlessHook{})

	assert.Error(t, m.init())
}

func TestHookManagerPropagatesInitFailures(t *testing.T) {
	t.Parallel()

	m := newHookManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.all = append(m.all, &recordingHook{initErr: assert.AnError})

	assert.ErrorIs(t, m.init(), assert.AnError)
}
