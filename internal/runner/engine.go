package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Engine executes one suite definition and writes its report to
// outputDir. Implementations must treat test failures as a successful
// execution; only engine-level failures (crash, missing binary) are
// errors.
type Engine interface {
	Run(ctx context.Context, suitePath, outputDir string) error
}

// ReportFile is the report filename every engine writes into its output
// directory.
const ReportFile = "output.xml"

// Exit codes up to this value encode the number of failed tests and
// still mean the engine ran the suite to completion. Anything above
// signals an engine-level failure (bad data, interrupted, internal
// error).
const maxTestFailureExitCode = 250

// RobotEngine runs suites through the Robot Framework CLI.
type RobotEngine struct {
	// Binary is the robot executable, "robot" by default.
	Binary string
}

func (e RobotEngine) Run(ctx context.Context, suitePath, outputDir string) error {
	binary := e.Binary
	if binary == "" {
		binary = "robot"
	}

	// The suite path comes from the catalog, never from free-form user
	// input, and is passed as a discrete argument.
	cmd := exec.CommandContext(ctx, binary,
		"--outputdir", outputDir,
		"--output", ReportFile,
		"--log", "log.html",
		"--report", "report.html",
		suitePath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() <= maxTestFailureExitCode {
		// The suite ran to completion with failing tests.
		return nil
	}

	detail := stderr.String()
	if detail == "" {
		detail = err.Error()
	}

	return fmt.Errorf("robot invocation failed: %s", detail)
}

// reportPath returns the report location for a suite's output directory.
func reportPath(outputDir string) string {
	return filepath.Join(outputDir, ReportFile)
}
