// Package catalog discovers suite definition files and extracts their
// declared documentation.
package catalog

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/complianced/internal/model"
)

const suiteFileExtension = ".robot"

// Catalog lists the suite definitions found in a single directory. The
// scan is not recursive, so suite names (file stems) are unique by
// construction.
type Catalog struct {
	dir string
	log *slog.Logger
}

func New(dir string, log *slog.Logger) *Catalog {
	return &Catalog{dir: dir, log: log}
}

// Discover scans the suite directory and returns descriptors in
// lexicographic filename order. It never fails: an unreadable directory
// or file yields a logged skip, and an empty directory an empty slice.
func (c *Catalog) Discover() []model.SuiteDescriptor {
	suites := []model.SuiteDescriptor{}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.log.Warn("could not read suite directory", "dir", c.dir, "error", err)
		return suites
	}

	// os.ReadDir returns entries sorted by filename.
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != suiteFileExtension {
			continue
		}

		path := filepath.Join(c.dir, e.Name())

		description, err := extractDocumentation(path)
		if err != nil {
			c.log.Warn("skipping unparseable suite file", "path", path, "error", err)
			continue
		}

		suites = append(suites, model.SuiteDescriptor{
			Name:        strings.TrimSuffix(e.Name(), suiteFileExtension),
			Description: description,
			Path:        path,
		})
	}

	return suites
}

// Lookup resolves a suite name against a fresh scan.
func (c *Catalog) Lookup(name string) (model.SuiteDescriptor, error) {
	for _, s := range c.Discover() {
		if s.Name == name {
			return s, nil
		}
	}

	return model.SuiteDescriptor{}, model.NotFoundError{}
}

// extractDocumentation returns the value of the Documentation setting in
// the suite file's `*** Settings ***` table. The value may continue
// across adjacent lines marked with `...`; continuation lines are joined
// with single spaces. A missing setting yields an empty string.
func extractDocumentation(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var (
		docParts   []string
		inSettings bool
		capturing  bool
	)

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.EqualFold(line, "*** Settings ***") {
			inSettings = true
			continue
		}
		if strings.HasPrefix(line, "*** ") && inSettings {
			// Left the settings table.
			break
		}
		if !inSettings {
			continue
		}

		if capturing {
			if strings.HasPrefix(line, "...") {
				docParts = append(docParts, strings.TrimSpace(line[3:]))
				continue
			}

			// First non-continuation line ends the value.
			capturing = false
		}

		if len(line) >= len("documentation") && strings.EqualFold(line[:len("documentation")], "documentation") {
			if fields := strings.Fields(line); len(fields) > 1 {
				docParts = append(docParts, strings.Join(fields[1:], " "))
			}
			capturing = true
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.Join(docParts, " ")), nil
}
