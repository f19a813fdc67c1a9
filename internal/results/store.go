// Package results locates and loads persisted execution reports. The
// store only ever reads; report files are written exclusively by the
// execution coordinator.
package results

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/raphi011/complianced/internal/model"
	"github.com/raphi011/complianced/internal/robot"
)

type Store struct {
	dir string
	log *slog.Logger
}

func New(dir string, log *slog.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Latest loads the most recent report for a suite, resolved by file
// modification time so results survive process restarts. An empty suite
// name resolves the most recent report across all suites. Returns a
// NotFoundError when the suite has never been executed.
func (s *Store) Latest(suiteName string) (*model.Report, error) {
	var path string

	if suiteName == "" {
		reports := s.reportFiles()
		if len(reports) == 0 {
			return nil, model.NotFoundError{}
		}

		path = reports[0].path
	} else {
		p, err := s.latestPath(suiteName)
		if err != nil {
			return nil, err
		}

		path = p
	}

	// A report that disappeared or is mid-write surfaces as a parse
	// error, never as an empty result.
	return robot.ParseReport(path)
}

// LatestAll loads the latest report of every suite that has results,
// newest first. Unparseable reports are skipped and logged so one
// corrupt file does not hide the others from a search.
func (s *Store) LatestAll() []*model.Report {
	reports := []*model.Report{}
	seen := map[string]bool{}

	for _, f := range s.reportFiles() {
		if seen[f.suiteName] {
			continue
		}
		seen[f.suiteName] = true

		r, err := robot.ParseReport(f.path)
		if err != nil {
			s.log.Warn("skipping malformed report", "path", f.path, "error", err)
			continue
		}

		reports = append(reports, r)
	}

	return reports
}

func (s *Store) latestPath(suiteName string) (string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, suiteName))
	if err != nil {
		return "", model.NotFoundError{}
	}

	var (
		newest      string
		newestMtime time.Time
	)

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		if newest == "" || info.ModTime().After(newestMtime) {
			newest = filepath.Join(s.dir, suiteName, e.Name())
			newestMtime = info.ModTime()
		}
	}

	if newest == "" {
		return "", model.NotFoundError{}
	}

	return newest, nil
}

type reportFile struct {
	suiteName string
	path      string
	mtime     time.Time
}

// reportFiles lists every report file under the results root, newest
// first.
func (s *Store) reportFiles() []reportFile {
	files := []reportFile{}

	suites, err := os.ReadDir(s.dir)
	if err != nil {
		return files
	}

	for _, suite := range suites {
		if !suite.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(s.dir, suite.Name()))
		if err != nil {
			continue
		}

		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
				continue
			}

			info, err := e.Info()
			if err != nil {
				continue
			}

			files = append(files, reportFile{
				suiteName: suite.Name(),
				path:      filepath.Join(s.dir, suite.Name(), e.Name()),
				mtime:     info.ModTime(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].mtime.After(files[j].mtime)
	})

	return files
}
