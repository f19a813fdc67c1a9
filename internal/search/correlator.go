// Package search filters report log messages and correlates each match
// back to the suite path and test case that produced it. The report
// stores no parent pointers on its leaf nodes, so the correlation is
// reconstructed with an explicit path stack during a single depth-first
// pass, keeping the report itself immutable and reusable across
// queries.
package search

import (
	"strings"

	"github.com/raphi011/complianced/internal/model"
)

// Search returns every log message at or above minLevel whose text
// contains keyword (case-insensitive; the empty keyword matches
// everything). Matches are emitted in depth-first document order, which
// is chronological within a suite — callers rely on this for
// find-the-first-failure queries.
func Search(r *model.Report, keyword string, minLevel model.LogLevel) []model.LogMatch {
	c := correlator{
		keyword:  strings.ToLower(keyword),
		minLevel: minLevel,
		matches:  []model.LogMatch{},
	}

	c.walkSuite(r.Suite)

	return c.matches
}

type correlator struct {
	keyword  string
	minLevel model.LogLevel

	// path is the stack of suite names from the root down to the node
	// currently being visited.
	path    []string
	matches []model.LogMatch
}

func (c *correlator) walkSuite(s model.SuiteNode) {
	c.path = append(c.path, s.Name)

	for _, kw := range s.Keywords {
		c.walkKeyword(kw, model.SuiteLevelTest)
	}

	for _, t := range s.Tests {
		for _, kw := range t.Keywords {
			c.walkKeyword(kw, t.Name)
		}
	}

	for _, nested := range s.Suites {
		c.walkSuite(nested)
	}

	c.path = c.path[:len(c.path)-1]
}

func (c *correlator) walkKeyword(kw model.KeywordNode, testName string) {
	for _, m := range kw.Messages {
		if !m.Level.AtLeast(c.minLevel) {
			continue
		}

		if c.keyword != "" && !strings.Contains(strings.ToLower(m.Text), c.keyword) {
			continue
		}

		// Snapshot the path; the stack is reused across the walk.
		suitePath := make([]string, len(c.path))
		copy(suitePath, c.path)

		c.matches = append(c.matches, model.LogMatch{
			SuitePath: suitePath,
			TestName:  testName,
			Level:     m.Level,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}

	for _, child := range kw.Children {
		c.walkKeyword(child, testName)
	}
}
