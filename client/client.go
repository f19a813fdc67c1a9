// Package client is a typed http client for the complianced server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/raphi011/complianced/internal/model"
)

type SuiteDescriptor = model.SuiteDescriptor
type Report = model.Report
type RunOutcome = model.RunOutcome
type RunSummary = model.RunSummary
type LogMatch = model.LogMatch

type Client struct {
	http *http.Client
	host string
}

// RequestError carries the server's error envelope alongside the
// response code.
type RequestError struct {
	ResponseCode int
	Kind         string `json:"error"`
	Detail       string `json:"detail"`
}

func (e RequestError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("request failed with status %d (%s): %s", e.ResponseCode, e.Kind, e.Detail)
	}

	return fmt.Sprintf("request failed with status %d", e.ResponseCode)
}

func New(host string, c *http.Client) Client {
	return Client{http: c, host: host}
}

func (c Client) ListSuites(ctx context.Context) ([]SuiteDescriptor, error) {
	req, err := http.NewRequest("GET", c.url("/suites"), nil)
	if err != nil {
		return nil, err
	}

	var suites []SuiteDescriptor

	if err = c.do(ctx, req, &suites); err != nil {
		return nil, err
	}

	return suites, nil
}

func (c Client) ExecuteSuite(ctx context.Context, suiteName string) (RunOutcome, error) {
	req, err := http.NewRequest("POST", c.url("/suites/%s/runs", suiteName), nil)
	if err != nil {
		return RunOutcome{}, err
	}

	var outcome RunOutcome

	if err = c.do(ctx, req, &outcome); err != nil {
		return RunOutcome{}, err
	}

	return outcome, nil
}

func (c Client) RunHistory(ctx context.Context, suiteName string) ([]RunSummary, error) {
	req, err := http.NewRequest("GET", c.url("/suites/%s/runs", suiteName), nil)
	if err != nil {
		return nil, err
	}

	var runs []RunSummary

	if err = c.do(ctx, req, &runs); err != nil {
		return nil, err
	}

	return runs, nil
}

// LatestResult fetches the most recent report of a suite, or of any
// suite when suiteName is empty.
func (c Client) LatestResult(ctx context.Context, suiteName string) (Report, error) {
	u := c.url("/results/latest")
	if suiteName != "" {
		u = c.url("/suites/%s/results/latest", suiteName)
	}

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return Report{}, err
	}

	var report Report

	if err = c.do(ctx, req, &report); err != nil {
		return Report{}, err
	}

	return report, nil
}

// SearchLogs queries log messages. minLevel may be empty to use the
// server default (FAIL); suiteName may be empty to search all suites.
func (c Client) SearchLogs(ctx context.Context, suiteName, keyword, minLevel string) ([]LogMatch, error) {
	query := url.Values{}
	query.Set("keyword", keyword)
	if minLevel != "" {
		query.Set("min-level", minLevel)
	}
	if suiteName != "" {
		query.Set("suite", suiteName)
	}

	req, err := http.NewRequest("GET", c.url("/logs/search?%s", query.Encode()), nil)
	if err != nil {
		return nil, err
	}

	var matches []LogMatch

	if err = c.do(ctx, req, &matches); err != nil {
		return nil, err
	}

	return matches, nil
}

func (c Client) url(path string, args ...any) string {
	return fmt.Sprintf(c.host+path, args...)
}

func (c Client) do(ctx context.Context, req *http.Request, body any) error {
	req = req.WithContext(ctx)
	req.Header.Add("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		reqErr := RequestError{ResponseCode: res.StatusCode}

		// Best effort: the body may not contain an envelope.
		_ = json.NewDecoder(res.Body).Decode(&reqErr)

		return reqErr
	}

	if body != nil {
		d := json.NewDecoder(res.Body)

		if err = d.Decode(body); err != nil {
			return err
		}
	}

	return nil
}
