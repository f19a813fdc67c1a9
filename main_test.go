package complianced_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/complianced"
	"github.com/raphi011/complianced/client"
)

var te *test

func TestMain(m *testing.M) {
	te = acceptanceTest()

	code := m.Run()

	te.h.Shutdown()

	os.Exit(code)
}

type test struct {
	h      *complianced.Server
	client client.Client
}

func (ti *test) url(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", ti.h.ServerPort(), path)
}

// suiteFiles are written into the suite directory before the server
// starts; the map value is the Documentation block.
var suiteFiles = map[string]string{
	"services": "Checks that mandatory services are running.\n...    Failures name the offending service.",
	"baseline": "Baseline configuration checks.",
	"history":  "",
	"idle":     "Never executed by any test.",
}

const passingOutput = `<robot generated="20240216 10:34:08.123">
<suite name="%s">
<test name="t1"><status status="PASS"></status></test>
<test name="t2"><status status="PASS"></status></test>
</suite>
</robot>`

const failingOutput = `<robot generated="20240216 10:34:08.123">
<suite name="Services">
<test name="Spooler Is Running">
<kw name="Check Service">
<msg timestamp="20240216 10:34:08.250" level="FAIL">service Spooler is Stopped</msg>
</kw>
<status status="FAIL">service Spooler is Stopped</status>
</test>
<test name="EventLog Is Running">
<kw name="Check Service">
<msg timestamp="20240216 10:34:08.400" level="INFO">service EventLog is Running</msg>
</kw>
<status status="PASS"></status>
</test>
</suite>
</robot>`

// fakeEngine writes a canned report per suite instead of invoking the
// robot CLI.
type fakeEngine struct{}

func (fakeEngine) Run(ctx context.Context, suitePath, outputDir string) error {
	name := strings.TrimSuffix(filepath.Base(suitePath), ".robot")

	report := fmt.Sprintf(passingOutput, name)
	if name == "services" {
		report = failingOutput
	}

	// Write-then-rename so concurrent readers never see a partial report.
	tmp := filepath.Join(outputDir, "output.xml.tmp")
	if err := os.WriteFile(tmp, []byte(report), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, filepath.Join(outputDir, "output.xml"))
}

func acceptanceTest() *test {
	suitesDir, err := os.MkdirTemp("", "complianced-suites")
	if err != nil {
		panic(err)
	}

	resultsDir, err := os.MkdirTemp("", "complianced-results")
	if err != nil {
		panic(err)
	}

	for name, doc := range suiteFiles {
		content := "*** Settings ***\n"
		if doc != "" {
			content += "Documentation    " + doc + "\n"
		}
		content += "\n*** Test Cases ***\nPlaceholder\n    No Operation\n"

		if err := os.WriteFile(filepath.Join(suitesDir, name+".robot"), []byte(content), 0o644); err != nil {
			panic(err)
		}
	}

	// save go test args
	args := os.Args
	// random port and in-memory database
	os.Args = []string{"complianced-test"}

	cfg := complianced.Config{
		Port:       0,
		SuitesDir:  suitesDir,
		ResultsDir: resultsDir,
	}

	h := complianced.New(
		complianced.WithConfig(cfg),
		complianced.WithEngine(fakeEngine{}),
		complianced.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	go h.Run()

	h.WaitForStartup()

	port := h.ServerPort()

	// restore go test args
	os.Args = args

	return &test{
		h:      h,
		client: client.New(fmt.Sprintf("http://localhost:%d", port), http.DefaultClient),
	}
}
