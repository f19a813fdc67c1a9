// The `model` package is very atypical for projects written in go, but unfortunately
// cannot be avoided as it helps to avoid cyclic dependencies. Types required by users
// of the library are reexported by the complianced package.
package model

import "time"

// SuiteDescriptor describes a single discovered suite definition file.
// Descriptors are derived on every catalog scan and never persisted.
type SuiteDescriptor struct {
	// Name is the file stem of the suite definition and unique
	// within the catalog.
	Name string `json:"name"`
	// Description is the suite's Documentation setting, joined across
	// continuation lines. May be empty.
	Description string `json:"description"`
	// Path is the location of the suite definition file.
	Path string `json:"path"`
}

// Report is the root of one execution report tree as written by the
// robot engine. It is read-only once parsed.
type Report struct {
	// GeneratedAt is the engine's generation timestamp, kept verbatim.
	GeneratedAt string `json:"generatedAt"`
	// Source is the report file this report was loaded from.
	Source string `json:"source,omitempty"`
	Suite  SuiteNode `json:"suite"`
}

// SuiteNode is a suite in the report tree. Suites may nest further
// suites and/or contain tests; setup/teardown keywords attach directly
// to the suite.
type SuiteNode struct {
	Name     string        `json:"name"`
	Suites   []SuiteNode   `json:"suites,omitempty"`
	Tests    []TestNode    `json:"tests,omitempty"`
	Keywords []KeywordNode `json:"keywords,omitempty"`
}

type TestNode struct {
	Name string `json:"name"`
	// Status is the final verdict of the test case.
	Status Result `json:"status"`
	// Message is the status message of the test, usually the failure
	// reason. Empty for passing tests.
	Message  string        `json:"message"`
	Keywords []KeywordNode `json:"keywords,omitempty"`
}

// KeywordNode is one executed step. Keywords nest arbitrarily and carry
// zero or more log messages. The report stores no back-references from a
// message to its owning test or suite.
type KeywordNode struct {
	Name     string        `json:"name"`
	Messages []LogMessage  `json:"messages,omitempty"`
	Children []KeywordNode `json:"children,omitempty"`
}

type LogMessage struct {
	Level LogLevel `json:"level"`
	Text  string   `json:"text"`
	// Timestamp is kept verbatim as written by the engine; the format
	// differs between engine versions.
	Timestamp string `json:"timestamp,omitempty"`
}

type Result string

const (
	ResultPassed Result = "PASS"
	ResultFailed Result = "FAIL"
)

// RunOutcome is the aggregate of one completed suite execution. The
// counts cover the entire suite tree, not just the top level.
type RunOutcome struct {
	RunID     string  `json:"runId"`
	SuiteName string  `json:"suiteName"`
	Result    Result  `json:"result"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Total     int     `json:"total"`
	ElapsedMS int64   `json:"elapsedMs"`
	Report    *Report `json:"report"`
}

// RunSummary is the flat, persisted form of a RunOutcome. Seq is a
// monotonic per-suite counter assigned by the run history store.
type RunSummary struct {
	RunID     string    `json:"runId" db:"runId"`
	SuiteName string    `json:"suiteName" db:"suiteName"`
	Seq       int       `json:"seq" db:"seq"`
	Result    Result    `json:"result" db:"result"`
	Total     int       `json:"total" db:"total"`
	Passed    int       `json:"passed" db:"passed"`
	Failed    int       `json:"failed" db:"failed"`
	ElapsedMS int64     `json:"elapsedMs" db:"elapsedMs"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// SuiteLevelTest is the test name reported for log messages that belong
// to a suite setup/teardown keyword rather than a test case.
const SuiteLevelTest = "suite-level"

// LogMatch correlates one matched log message back to the suite path and
// test case that produced it.
type LogMatch struct {
	// SuitePath is the sequence of suite names from the report root down
	// to the suite owning the message.
	SuitePath []string `json:"suitePath"`
	// TestName is the owning test case, or SuiteLevelTest for messages
	// emitted outside of a test.
	TestName  string   `json:"testName"`
	Level     LogLevel `json:"level"`
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// OutcomeFromReport derives the run aggregate by counting test verdicts
// across the whole suite tree. A failing suite node itself is not a test
// and is not counted.
func OutcomeFromReport(suiteName string, r *Report) RunOutcome {
	o := RunOutcome{
		SuiteName: suiteName,
		Result:    ResultPassed,
		Report:    r,
	}

	countTests(r.Suite, &o)

	if o.Failed > 0 {
		o.Result = ResultFailed
	}

	return o
}

func countTests(s SuiteNode, o *RunOutcome) {
	for _, t := range s.Tests {
		o.Total++

		if t.Status == ResultPassed {
			o.Passed++
		} else {
			o.Failed++
		}
	}

	for _, nested := range s.Suites {
		countTests(nested, o)
	}
}

// Summary flattens the outcome for the run history store.
func (o RunOutcome) Summary(start, end time.Time) RunSummary {
	return RunSummary{
		RunID:     o.RunID,
		SuiteName: o.SuiteName,
		Result:    o.Result,
		Total:     o.Total,
		Passed:    o.Passed,
		Failed:    o.Failed,
		ElapsedMS: o.ElapsedMS,
		Start:     start,
		End:       end,
	}
}
