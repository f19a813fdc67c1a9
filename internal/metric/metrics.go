package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SuitesRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "complianced_suites_running",
		Help: "The number of suite executions currently in flight",
	}, []string{"suite_name"})

	SuiteRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complianced_suite_runs_total",
		Help: "The number of suite executions since the service was started",
	}, []string{"suite_name", "result"})

	LogSearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complianced_log_searches_total",
		Help: "The number of log searches since the service was started",
	}, []string{"min_level"})
)
