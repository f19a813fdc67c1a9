package complianced

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raphi011/complianced/internal/model"
)

func (s *Server) runHTTP() error {
	router := httprouter.New()

	router.GET("/healthz", s.getHealth)
	router.GET("/suites", s.getSuites)
	router.POST("/suites/:suite-name/runs", s.startSuiteRun)
	router.GET("/suites/:suite-name/runs", s.getRunHistory)
	router.GET("/suites/:suite-name/results/latest", s.getLatestResult)
	router.GET("/results/latest", s.getLatestResultAnySuite)
	router.GET("/logs/search", s.searchLogs)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// The suite's html artifacts (log.html, report.html) are served
	// read-only straight from the results tree.
	router.ServeFiles("/artifacts/*filepath", http.Dir(s.config.ResultsDir))

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.config.Port))
	if err != nil {
		return err
	}

	s.port = listener.Addr().(*net.TCPAddr).Port
	s.httpServer = &http.Server{Handler: router}

	s.log.Info("http server listening", "port", s.port)

	close(s.started)

	if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) stopHTTP() {
	if s.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn("http shutdown failed", "error", err)
	}
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getSuites(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.respond(w, http.StatusOK, s.ListSuites())
}

func (s *Server) startSuiteRun(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	outcome, err := s.Execute(r.Context(), p.ByName("suite-name"))
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.respond(w, http.StatusCreated, outcome)
}

func (s *Server) getRunHistory(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	runs, err := s.RunHistory(r.Context(), p.ByName("suite-name"))
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.respond(w, http.StatusOK, runs)
}

func (s *Server) getLatestResult(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	report, err := s.LatestResult(p.ByName("suite-name"))
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.respond(w, http.StatusOK, report)
}

func (s *Server) getLatestResultAnySuite(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := s.LatestResult("")
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.respond(w, http.StatusOK, report)
}

func (s *Server) searchLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	minLevel := model.LevelFail

	if levelParam := query.Get("min-level"); levelParam != "" {
		var err error

		minLevel, err = model.ParseLogLevel(levelParam)
		if err != nil {
			s.httpError(w, err)
			return
		}
	}

	matches, err := s.SearchLogs(query.Get("suite"), query.Get("keyword"), minLevel)
	if err != nil {
		s.httpError(w, err)
		return
	}

	s.respond(w, http.StatusOK, matches)
}

// errorBody is the error envelope every failed operation returns: a
// machine-readable kind plus a human-readable detail.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (s *Server) httpError(w http.ResponseWriter, err error) {
	var (
		notFound  model.NotFoundError
		busy      model.BusyError
		malformed model.MalformedRequestError
	)

	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &busy):
		status = http.StatusConflict
	case errors.As(err, &malformed):
		status = http.StatusBadRequest
	}

	s.respond(w, status, errorBody{
		Error:  model.ErrorKind(err),
		Detail: err.Error(),
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err = w.Write(body); err != nil {
		s.log.Warn("error writing response body", "error", err)
	}
}
