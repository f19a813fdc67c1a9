package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/raphi011/complianced/internal/model"
	"github.com/raphi011/complianced/internal/search"
)

// ElasticSearchHook indexes the ERROR/FAIL log messages of finished
// runs so they can be queried alongside other service logs.
type ElasticSearchHook struct {
	client *elasticsearch.Client
	index  string

	log *slog.Logger
}

func NewElasticSearchHook(addresses []string, index string, log *slog.Logger) (*ElasticSearchHook, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return &ElasticSearchHook{
		client: client,
		index:  index,
		log:    log,
	}, nil
}

func (h *ElasticSearchHook) Name() string {
	return "elastic-search"
}

func (h *ElasticSearchHook) Init() error {
	res, err := h.client.Info()
	if err != nil {
		return fmt.Errorf("elasticsearch unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch info request failed: %s", res.Status())
	}

	return nil
}

type logDocument struct {
	RunID     string   `json:"runId"`
	SuiteName string   `json:"suiteName"`
	SuitePath []string `json:"suitePath"`
	TestName  string   `json:"testName"`
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp,omitempty"`
}

func (h *ElasticSearchHook) RunFinished(outcome model.RunOutcome) {
	if outcome.Report == nil {
		return
	}

	for _, m := range search.Search(outcome.Report, "", model.LevelError) {
		doc := logDocument{
			RunID:     outcome.RunID,
			SuiteName: outcome.SuiteName,
			SuitePath: m.SuitePath,
			TestName:  m.TestName,
			Level:     string(m.Level),
			Message:   m.Text,
			Timestamp: m.Timestamp,
		}

		body, err := json.Marshal(doc)
		if err != nil {
			h.log.Error("unable to marshal log document", "error", err)
			continue
		}

		res, err := h.client.Index(h.index, bytes.NewReader(body))
		if err != nil {
			h.log.Error("unable to index log document", "error", err)
			continue
		}

		if res.IsError() {
			h.log.Error("indexing log document failed", "status", res.Status())
		}

		res.Body.Close()
	}
}
