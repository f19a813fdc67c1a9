package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func writeSuiteFile(t *testing.T, dir, name, content string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	require.NoError(t, err)
}

func TestDiscoverReturnsSuitesInLexicographicOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeSuiteFile(t, dir, "zz_suite.robot", "*** Test Cases ***\nCheck\n    Log    ok\n")
	writeSuiteFile(t, dir, "aa_suite.robot", "*** Test Cases ***\nCheck\n    Log    ok\n")
	writeSuiteFile(t, dir, "mm_suite.robot", "*** Test Cases ***\nCheck\n    Log    ok\n")

	c := New(dir, testLogger())

	suites := c.Discover()

	require.Len(t, suites, 3)
	assert.Equal(t, "aa_suite", suites[0].Name)
	assert.Equal(t, "mm_suite", suites[1].Name)
	assert.Equal(t, "zz_suite", suites[2].Name)

	// Repeated scans are deterministic.
	assert.Equal(t, suites, c.Discover())
}

func TestDiscoverExtractsMultiLineDocumentation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeSuiteFile(t, dir, "bitlocker.robot", `*** Settings ***
Documentation    Checks BitLocker status
...              on all fixed drives
...              and reports noncompliance.
Library          OperatingSystem

*** Test Cases ***
Drive Is Encrypted
    Log    ok
`)

	suites := New(dir, testLogger()).Discover()

	require.Len(t, suites, 1)
	assert.Equal(t,
		"Checks BitLocker status on all fixed drives and reports noncompliance.",
		suites[0].Description)
}

func TestDiscoverSuiteWithoutDocumentationYieldsEmptyDescription(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeSuiteFile(t, dir, "plain.robot", "*** Test Cases ***\nCheck\n    Log    ok\n")

	suites := New(dir, testLogger()).Discover()

	require.Len(t, suites, 1)
	assert.Equal(t, "", suites[0].Description)
}

func TestDiscoverIgnoresDocumentationOutsideSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeSuiteFile(t, dir, "suite.robot", `*** Settings ***
Documentation    The real description

*** Keywords ***
Documentation    Not a suite documentation
`)

	suites := New(dir, testLogger()).Discover()

	require.Len(t, suites, 1)
	assert.Equal(t, "The real description", suites[0].Description)
}

func TestDiscoverEmptyDirectoryYieldsEmptySlice(t *testing.T) {
	t.Parallel()

	suites := New(t.TempDir(), testLogger()).Discover()

	assert.Empty(t, suites)
}

func TestDiscoverMissingDirectoryYieldsEmptySlice(t *testing.T) {
	t.Parallel()

	suites := New(filepath.Join(t.TempDir(), "does-not-exist"), testLogger()).Discover()

	assert.Empty(t, suites)
}

func TestDiscoverSkipsNonSuiteFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeSuiteFile(t, dir, "suite.robot", "*** Test Cases ***\nCheck\n    Log    ok\n")
	writeSuiteFile(t, dir, "README.md", "not a suite")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.robot"), 0o755))

	suites := New(dir, testLogger()).Discover()

	require.Len(t, suites, 1)
	assert.Equal(t, "suite", suites[0].Name)
}

func TestLookupUnknownSuite(t *testing.T) {
	t.Parallel()

	_, err := New(t.TempDir(), testLogger()).Lookup("missing")

	assert.Error(t, err)
}
