// Package robot parses the execution reports written by the Robot
// Framework engine (output.xml). The parser is deliberately tolerant:
// optional fields may be missing, suites may be empty or contain only
// nested suites, and keywords may carry only nested keywords.
package robot

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/raphi011/complianced/internal/model"
)

type xmlReport struct {
	XMLName   xml.Name `xml:"robot"`
	Generated string   `xml:"generated,attr"`
	Suite     xmlSuite `xml:"suite"`
}

type xmlSuite struct {
	Name     string       `xml:"name,attr"`
	Suites   []xmlSuite   `xml:"suite"`
	Tests    []xmlTest    `xml:"test"`
	Keywords []xmlKeyword `xml:"kw"`
}

type xmlTest struct {
	Name     string       `xml:"name,attr"`
	Keywords []xmlKeyword `xml:"kw"`
	Status   xmlStatus    `xml:"status"`
}

type xmlStatus struct {
	Status string `xml:"status,attr"`
	Text   string `xml:",chardata"`
}

type xmlKeyword struct {
	Name     string       `xml:"name,attr"`
	Messages []xmlMsg     `xml:"msg"`
	Children []xmlKeyword `xml:"kw"`
}

type xmlMsg struct {
	Level string `xml:"level,attr"`
	// Older engine versions write `timestamp`, newer ones `time`.
	Timestamp string `xml:"timestamp,attr"`
	Time      string `xml:"time,attr"`
	Text      string `xml:",chardata"`
}

// ParseReport reads and parses a report file. Failures are returned as
// a model.ParseError so callers can surface them as such; a report the
// engine cannot interpret must never pass as an empty result.
func ParseReport(path string) (*model.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.ParseError{Path: path, Err: err}
	}
	defer f.Close()

	r, err := Parse(f)
	if err != nil {
		return nil, model.ParseError{Path: path, Err: err}
	}

	r.Source = path

	return r, nil
}

// Parse decodes a report document from r.
func Parse(r io.Reader) (*model.Report, error) {
	var doc xmlReport

	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	return &model.Report{
		GeneratedAt: doc.Generated,
		Suite:       mapSuite(doc.Suite),
	}, nil
}

func mapSuite(s xmlSuite) model.SuiteNode {
	node := model.SuiteNode{Name: s.Name}

	for _, nested := range s.Suites {
		node.Suites = append(node.Suites, mapSuite(nested))
	}

	for _, t := range s.Tests {
		node.Tests = append(node.Tests, mapTest(t))
	}

	for _, kw := range s.Keywords {
		node.Keywords = append(node.Keywords, mapKeyword(kw))
	}

	return node
}

func mapTest(t xmlTest) model.TestNode {
	node := model.TestNode{
		Name:   t.Name,
		Status: model.ResultFailed,
	}

	// Anything the engine does not report as passed counts as failed.
	if t.Status.Status == "PASS" {
		node.Status = model.ResultPassed
	} else {
		node.Message = strings.TrimSpace(t.Status.Text)
	}

	for _, kw := range t.Keywords {
		node.Keywords = append(node.Keywords, mapKeyword(kw))
	}

	return node
}

func mapKeyword(kw xmlKeyword) model.KeywordNode {
	node := model.KeywordNode{Name: kw.Name}

	for _, m := range kw.Messages {
		ts := m.Timestamp
		if ts == "" {
			ts = m.Time
		}

		node.Messages = append(node.Messages, model.LogMessage{
			Level:     model.LogLevel(m.Level),
			Text:      m.Text,
			Timestamp: ts,
		})
	}

	for _, child := range kw.Children {
		node.Children = append(node.Children, mapKeyword(child))
	}

	return node
}
