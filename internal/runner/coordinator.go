// Package runner coordinates suite executions through an external
// engine, guaranteeing at most one run per suite name at a time.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphi011/complianced/internal/catalog"
	"github.com/raphi011/complianced/internal/metric"
	"github.com/raphi011/complianced/internal/model"
	"github.com/raphi011/complianced/internal/robot"
)

type Coordinator struct {
	catalog    *catalog.Catalog
	engine     Engine
	resultsDir string
	timeout    time.Duration
	busyWait   time.Duration
	log        *slog.Logger

	mu sync.Mutex
	// one single-slot semaphore per suite name, created lazily and
	// never removed. Distinct suites must not block each other.
	locks map[string]chan struct{}

	inflight sync.WaitGroup
}

type Config struct {
	Catalog    *catalog.Catalog
	Engine     Engine
	ResultsDir string
	// Timeout is the hard per-run execution limit.
	Timeout time.Duration
	// BusyWait bounds how long a run waits for an in-flight run of the
	// same suite before giving up with a BusyError.
	BusyWait time.Duration
	Log      *slog.Logger
}

func New(cfg Config) *Coordinator {
	if cfg.Engine == nil {
		cfg.Engine = RobotEngine{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.BusyWait == 0 {
		cfg.BusyWait = 10 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	return &Coordinator{
		catalog:    cfg.Catalog,
		engine:     cfg.Engine,
		resultsDir: cfg.ResultsDir,
		timeout:    cfg.Timeout,
		busyWait:   cfg.BusyWait,
		log:        cfg.Log,
		locks:      map[string]chan struct{}{},
	}
}

// Execute runs the named suite through the engine and returns its
// aggregated outcome. A completed run with failing tests is a success
// with Result FAIL; only engine-level problems return errors.
func (c *Coordinator) Execute(ctx context.Context, suiteName string) (model.RunOutcome, error) {
	suite, err := c.catalog.Lookup(suiteName)
	if err != nil {
		return model.RunOutcome{}, err
	}

	lock := c.suiteLock(suiteName)

	select {
	case lock <- struct{}{}:
	default:
		// A run of the same suite is in flight. Compliance suites are
		// idempotent, so queueing behind the current run is safe; give
		// up with Busy once the bounded wait elapses.
		wait := time.NewTimer(c.busyWait)
		defer wait.Stop()

		select {
		case lock <- struct{}{}:
		case <-wait.C:
			return model.RunOutcome{}, model.BusyError{SuiteName: suiteName}
		case <-ctx.Done():
			return model.RunOutcome{}, model.BusyError{SuiteName: suiteName}
		}
	}

	c.inflight.Add(1)
	defer func() {
		<-lock
		c.inflight.Done()
	}()

	return c.run(ctx, suite)
}

// run performs one engine invocation while the caller holds the suite's
// lock.
func (c *Coordinator) run(ctx context.Context, suite model.SuiteDescriptor) (model.RunOutcome, error) {
	log := c.log.With("suite-name", suite.Name)

	outputDir := c.OutputDir(suite.Name)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return model.RunOutcome{}, model.ExecutionFailedError{Reason: "creating output directory", Err: err}
	}

	running := metric.SuitesRunning.WithLabelValues(suite.Name)
	running.Inc()
	defer running.Dec()

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	log.Info("executing suite", "path", suite.Path)

	if err := c.engine.Run(runCtx, suite.Path, outputDir); err != nil {
		// Partial output must not be mistaken for a completed run.
		c.discardReport(outputDir)

		metric.SuiteRunsTotal.WithLabelValues(suite.Name, "error").Inc()

		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("suite execution timed out", "timeout", c.timeout)
			return model.RunOutcome{}, model.ExecutionFailedError{Reason: "timeout"}
		}

		log.Error("suite execution failed", "error", err)

		return model.RunOutcome{}, model.ExecutionFailedError{Reason: "engine failure", Err: err}
	}

	report, err := robot.ParseReport(reportPath(outputDir))
	if err != nil {
		metric.SuiteRunsTotal.WithLabelValues(suite.Name, "error").Inc()
		return model.RunOutcome{}, err
	}

	outcome := model.OutcomeFromReport(suite.Name, report)
	outcome.RunID = uuid.NewString()
	outcome.ElapsedMS = time.Since(start).Milliseconds()

	metric.SuiteRunsTotal.WithLabelValues(suite.Name, string(outcome.Result)).Inc()

	log.Info("suite execution finished",
		"result", outcome.Result,
		"passed", outcome.Passed,
		"failed", outcome.Failed,
		"duration-ms", outcome.ElapsedMS)

	return outcome, nil
}

// OutputDir returns the suite-scoped output location. The coordinator
// owns this directory exclusively while it holds the suite's lock.
func (c *Coordinator) OutputDir(suiteName string) string {
	return filepath.Join(c.resultsDir, suiteName)
}

func (c *Coordinator) discardReport(outputDir string) {
	if err := os.Remove(reportPath(outputDir)); err != nil && !os.IsNotExist(err) {
		c.log.Warn("could not remove partial report", "path", reportPath(outputDir), "error", err)
	}
}

func (c *Coordinator) suiteLock(suiteName string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[suiteName]
	if !ok {
		lock = make(chan struct{}, 1)
		c.locks[suiteName] = lock
	}

	return lock
}

// Wait blocks until all in-flight runs have finished. Used during
// shutdown.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}
