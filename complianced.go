// Package complianced implements a compliance test orchestration
// server. It catalogs Robot Framework suite definitions, executes them
// through the robot engine with at most one run per suite in flight,
// keeps a history of run outcomes, and answers aggregate and log-search
// queries against the persisted execution reports.
package complianced

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/raphi011/complianced/internal/catalog"
	"github.com/raphi011/complianced/internal/metric"
	"github.com/raphi011/complianced/internal/model"
	"github.com/raphi011/complianced/internal/results"
	"github.com/raphi011/complianced/internal/runner"
	"github.com/raphi011/complianced/internal/search"
	"github.com/raphi011/complianced/internal/storage"
)

// Reexport to allow users of the library to reference these types.

type SuiteDescriptor = model.SuiteDescriptor
type Report = model.Report
type RunOutcome = model.RunOutcome
type RunSummary = model.RunSummary
type LogMatch = model.LogMatch
type LogLevel = model.LogLevel
type Result = model.Result

const (
	ResultPassed = model.ResultPassed
	ResultFailed = model.ResultFailed
)

type Server struct {
	config Config
	log    *slog.Logger

	catalog *catalog.Catalog
	runner  *runner.Coordinator
	results *results.Store
	storage *storage.Storage
	hooks   *hookManager

	// engine override for tests; nil selects the robot CLI.
	engine runner.Engine

	httpServer *http.Server
	started    chan struct{}
	shutdown   chan struct{}
	port       int
}

type option func(s *Server)

// New configures a new Server instance. Run must be called before it
// serves requests.
func New(opts ...option) *Server {
	s := &Server{
		config:   defaultConfig(),
		log:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
		started:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}

	s.hooks = newHookManager(s.log)

	for _, o := range opts {
		o(s)
	}

	return s
}

// Run parses flags, wires up all components and serves requests until
// Shutdown is called. In MCP mode it serves tools over stdio instead of
// HTTP.
func (s *Server) Run() error {
	s.parseFlags()

	if err := s.init(); err != nil {
		return err
	}

	if s.config.MCPMode {
		close(s.started)
		return s.runMCP()
	}

	return s.runHTTP()
}

func (s *Server) init() error {
	s.catalog = catalog.New(s.config.SuitesDir, s.log)
	s.results = results.New(s.config.ResultsDir, s.log)

	engine := s.engine
	if engine == nil {
		engine = runner.RobotEngine{Binary: s.config.RobotBinary}
	}

	s.runner = runner.New(runner.Config{
		Catalog:    s.catalog,
		Engine:     engine,
		ResultsDir: s.config.ResultsDir,
		Timeout:    s.config.ExecutionTimeout,
		BusyWait:   s.config.BusyWait,
		Log:        s.log,
	})

	store, err := storage.New(s.config.DatabaseFile, s.log)
	if err != nil {
		return err
	}
	s.storage = store

	if err := s.initConfiguredHooks(); err != nil {
		return err
	}

	return s.hooks.init()
}

// ListSuites returns the catalog's current view of the suite directory.
// It never fails; unparseable files are skipped.
func (s *Server) ListSuites() []model.SuiteDescriptor {
	return s.catalog.Discover()
}

// Execute runs the named suite and records its outcome in the run
// history. A run that completes with failing tests is a successful
// operation with Result FAIL.
func (s *Server) Execute(ctx context.Context, suiteName string) (model.RunOutcome, error) {
	start := time.Now()

	outcome, err := s.runner.Execute(ctx, suiteName)
	if err != nil {
		return model.RunOutcome{}, err
	}

	if _, err := s.storage.InsertRunSummary(ctx, outcome.Summary(start, time.Now())); err != nil {
		// The report on disk is the source of truth; a failed history
		// insert must not fail the run.
		s.log.Error("recording run summary failed", "suite-name", suiteName, "error", err)
	}

	s.hooks.notifyRunFinished(outcome)

	return outcome, nil
}

// LatestResult loads the most recent persisted report for a suite
// without executing anything. An empty name resolves the most recent
// report across all suites.
func (s *Server) LatestResult(suiteName string) (*model.Report, error) {
	return s.results.Latest(suiteName)
}

// RunHistory returns the recorded outcomes of a suite, newest first.
func (s *Server) RunHistory(ctx context.Context, suiteName string) ([]model.RunSummary, error) {
	if _, err := s.catalog.Lookup(suiteName); err != nil {
		return nil, err
	}

	return s.storage.LoadRunSummaries(ctx, suiteName)
}

// SearchLogs filters the log messages of stored reports by keyword and
// minimum severity. With a suite name only that suite's latest report
// is searched and a missing or malformed report is an error; without
// one, the latest report of every suite is searched newest first and
// unreadable reports are skipped. No matches is a successful empty
// result.
func (s *Server) SearchLogs(suiteName, keyword string, minLevel model.LogLevel) ([]model.LogMatch, error) {
	metric.LogSearchesTotal.WithLabelValues(string(minLevel)).Inc()

	if suiteName != "" {
		report, err := s.results.Latest(suiteName)
		if err != nil {
			return nil, err
		}

		return search.Search(report, keyword, minLevel), nil
	}

	matches := []model.LogMatch{}

	for _, report := range s.results.LatestAll() {
		matches = append(matches, search.Search(report, keyword, minLevel)...)
	}

	return matches, nil
}

// WaitForStartup blocks until the server accepts requests.
func (s *Server) WaitForStartup() {
	<-s.started
}

// ServerPort returns the port the HTTP server is bound to. Only valid
// after WaitForStartup returned.
func (s *Server) ServerPort() int {
	return s.port
}

// Shutdown waits for in-flight runs to finish and closes the run
// history store.
func (s *Server) Shutdown() {
	close(s.shutdown)

	s.runner.Wait()

	s.stopHTTP()

	if err := s.storage.Close(); err != nil {
		s.log.Warn("closing storage failed", "error", err)
	}
}
