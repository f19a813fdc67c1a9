package hook

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphi011/complianced/internal/model"
	"github.com/slack-go/slack"
)

// SlackHook posts a message to a channel whenever a suite run finishes
// with failing tests.
type SlackHook struct {
	api             *slack.Client
	notifyChannelID string

	log *slog.Logger
}

func NewSlackHook(channelID, token string, log *slog.Logger) *SlackHook {
	return &SlackHook{
		api:             slack.New(token),
		notifyChannelID: channelID,
		log:             log,
	}
}

func (h *SlackHook) Name() string {
	return "slack"
}

func (h *SlackHook) Init() error {
	_, err := h.api.AuthTest()
	if err != nil {
		return fmt.Errorf("invalid auth token: %w", err)
	}

	return nil
}

func (h *SlackHook) RunFinished(outcome model.RunOutcome) {
	if outcome.Result != model.ResultFailed || outcome.Report == nil {
		return
	}

	msg := strings.Builder{}

	msg.WriteString(fmt.Sprintf("Compliance suite *%s* failed: %d of %d checks failing.\n\n",
		outcome.SuiteName, outcome.Failed, outcome.Total))

	for _, name := range failedTests(outcome.Report.Suite, nil) {
		msg.WriteString(fmt.Sprintf("- %s\n", name))
	}

	section := slack.NewSectionBlock(
		slack.NewTextBlockObject("mrkdwn", msg.String(), false, false),
		nil, nil)

	_, _, err := h.api.PostMessage(h.notifyChannelID, slack.MsgOptionBlocks(section))
	if err != nil {
		h.log.Error("unable to send slack message", "error", err)
	}
}

func failedTests(s model.SuiteNode, names []string) []string {
	for _, t := range s.Tests {
		if t.Status == model.ResultFailed {
			names = append(names, t.Name)
		}
	}

	for _, nested := range s.Suites {
		names = failedTests(nested, names)
	}

	return names
}
