// Package storage keeps the run-history index: one row per completed
// suite execution with a monotonic per-suite sequence number. Report
// files on disk remain the source of truth for report contents; the
// index only stores the aggregates.
package storage

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/raphi011/complianced/internal/model"
)

//go:embed migrations/*.sql
var fs embed.FS

type Storage struct {
	db  *sqlx.DB
	log *slog.Logger
}

// New opens (or creates) the history database. An empty filename opens
// a shared in-memory database, used by tests.
func New(dbFilename string, log *slog.Logger) (*Storage, error) {
	db, err := sqlx.Connect("sqlite", connectionString(dbFilename))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Storage{
		db:  db,
		log: log,
	}

	if err = s.migrateDB(db); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func connectionString(filename string) string {
	var cs string
	var options = []string{"_pragma=busy_timeout(5000)", "_pragma=journal_mode(WAL)", "_pragma=foreign_keys(1)", "_pragma=synchronous(normal)"}

	if filename != "" {
		cs = filename
	} else {
		cs = "file:" + randomAlphanumeric(16)
		options = append(options, "mode=memory", "cache=shared")
	}

	for i, o := range options {
		if i == 0 {
			cs += "?"
		} else {
			cs += "&"
		}
		cs += o
	}

	return cs
}

const alphaNumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphaNumericChars[rand.Intn(len(alphaNumericChars))]
	}
	return string(b)
}

func (s *Storage) migrateDB(db *sqlx.DB) error {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return fmt.Errorf("load db migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("load migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate with instance: %w", err)
	}

	err = m.Up()

	if err == migrate.ErrNoChange {
		s.log.Debug("no migrations to apply, db is at the latest state")
	} else if err != nil {
		return fmt.Errorf("applying db migrations: %w", err)
	}

	return nil
}

// InsertRunSummary persists one run aggregate and returns its monotonic
// per-suite sequence number.
func (s *Storage) InsertRunSummary(ctx context.Context, rs model.RunSummary) (int, error) {
	r, err := s.db.NamedQuery(`INSERT INTO SuiteRun
	(runId, suiteName, result, total, passed, failed, elapsedMs, startTime, endTime, seq) VALUES
	(:runId, :suiteName, :result, :total, :passed, :failed, :elapsedMs, :startTime, :endTime,
		COALESCE((select max(seq)+1 from SuiteRun where suiteName=:suiteName), 1))
	RETURNING seq`,
		map[string]any{
			"runId":     rs.RunID,
			"suiteName": rs.SuiteName,
			"result":    rs.Result,
			"total":     rs.Total,
			"passed":    rs.Passed,
			"failed":    rs.Failed,
			"elapsedMs": rs.ElapsedMS,
			"startTime": timeFormat(rs.Start),
			"endTime":   timeFormat(rs.End),
		})
	if err != nil {
		return -1, err
	}
	defer r.Close()

	if !r.Next() {
		return -1, fmt.Errorf("retrieving inserted SuiteRun seq")
	}

	var seq int

	if err = r.Scan(&seq); err != nil {
		return -1, fmt.Errorf("retrieving inserted SuiteRun seq: %w", err)
	}

	return seq, nil
}

// LoadRunSummaries returns the recorded runs of a suite, newest first.
func (s *Storage) LoadRunSummaries(ctx context.Context, suiteName string) ([]model.RunSummary, error) {
	runs := []model.RunSummary{}

	r, err := s.db.NamedQuery(`SELECT
		runId, suiteName, seq, result, total, passed, failed, elapsedMs, startTime, endTime
		FROM SuiteRun WHERE suiteName=:suiteName ORDER BY seq DESC`,
		map[string]any{"suiteName": suiteName},
	)
	if err != nil {
		return runs, err
	}
	defer r.Close()

	for r.Next() {
		rs, err := scanRunSummary(r)
		if err != nil {
			return nil, err
		}

		runs = append(runs, rs)
	}

	return runs, nil
}

func timeFormat(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseDate(t string) (time.Time, error) {
	return time.Parse(time.RFC3339, t)
}

func scanRunSummary(r *sqlx.Rows) (model.RunSummary, error) {
	rs := model.RunSummary{}

	var start, end string

	err := r.Scan(
		&rs.RunID,
		&rs.SuiteName,
		&rs.Seq,
		&rs.Result,
		&rs.Total,
		&rs.Passed,
		&rs.Failed,
		&rs.ElapsedMS,
		&start,
		&end,
	)
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("scanning suite run: %w", err)
	}

	if rs.Start, err = parseDate(start); err != nil {
		return model.RunSummary{}, fmt.Errorf("parsing start time: %w", err)
	}
	if rs.End, err = parseDate(end); err != nil {
		return model.RunSummary{}, fmt.Errorf("parsing end time: %w", err)
	}

	return rs, nil
}
