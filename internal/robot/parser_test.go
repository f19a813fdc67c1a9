package robot

import (
	"strings"
	"testing"

	"github.com/raphi011/complianced/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<robot generated="20240216 10:34:08.123" generator="Robot 6.1.1">
<suite id="s1" name="Compliance" source="/suites/compliance.robot">
<suite id="s1-s1" name="Services">
<test id="s1-s1-t1" name="Spooler Is Running">
<kw name="Check Service">
<kw name="Query Service State">
<msg timestamp="20240216 10:34:08.200" level="INFO">querying service Spooler</msg>
<msg timestamp="20240216 10:34:08.250" level="FAIL">service Spooler is Stopped</msg>
</kw>
</kw>
<status status="FAIL" starttime="20240216 10:34:08.150" endtime="20240216 10:34:08.300">service Spooler is Stopped</status>
</test>
<test id="s1-s1-t2" name="EventLog Is Running">
<kw name="Check Service">
<msg timestamp="20240216 10:34:08.400" level="INFO">service EventLog is Running</msg>
</kw>
<status status="PASS" starttime="20240216 10:34:08.350" endtime="20240216 10:34:08.450"></status>
</test>
</suite>
<kw name="Suite Setup" type="SETUP">
<msg timestamp="20240216 10:34:08.100" level="DEBUG">connecting probes</msg>
</kw>
<status status="FAIL" starttime="20240216 10:34:08.000" endtime="20240216 10:34:08.500"></status>
</suite>
</robot>`

func TestParseMapsTheFullTree(t *testing.T) {
	t.Parallel()

	report, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, "20240216 10:34:08.123", report.GeneratedAt)
	assert.Equal(t, "Compliance", report.Suite.Name)

	require.Len(t, report.Suite.Suites, 1)
	require.Len(t, report.Suite.Keywords, 1)
	assert.Empty(t, report.Suite.Tests)

	services := report.Suite.Suites[0]
	require.Len(t, services.Tests, 2)

	failing := services.Tests[0]
	assert.Equal(t, "Spooler Is Running", failing.Name)
	assert.Equal(t, model.ResultFailed, failing.Status)
	assert.Equal(t, "service Spooler is Stopped", failing.Message)

	require.Len(t, failing.Keywords, 1)
	require.Len(t, failing.Keywords[0].Children, 1)

	messages := failing.Keywords[0].Children[0].Messages
	require.Len(t, messages, 2)
	assert.Equal(t, model.LevelInfo, messages[0].Level)
	assert.Equal(t, model.LevelFail, messages[1].Level)
	assert.Equal(t, "service Spooler is Stopped", messages[1].Text)
	assert.Equal(t, "20240216 10:34:08.250", messages[1].Timestamp)

	passing := services.Tests[1]
	assert.Equal(t, model.ResultPassed, passing.Status)
	assert.Equal(t, "", passing.Message)

	setup := report.Suite.Keywords[0]
	require.Len(t, setup.Messages, 1)
	assert.Equal(t, model.LevelDebug, setup.Messages[0].Level)
}

func TestParseToleratesMissingOptionalFields(t *testing.T) {
	t.Parallel()

	report, err := Parse(strings.NewReader(`<robot><suite name="Empty"></suite></robot>`))
	require.NoError(t, err)

	assert.Equal(t, "Empty", report.Suite.Name)
	assert.Empty(t, report.Suite.Suites)
	assert.Empty(t, report.Suite.Tests)
	assert.Empty(t, report.Suite.Keywords)
	assert.Equal(t, "", report.GeneratedAt)
}

func TestParseSuiteWithOnlyNestedSuites(t *testing.T) {
	t.Parallel()

	report, err := Parse(strings.NewReader(`<robot>
<suite name="Root">
<suite name="A"><suite name="B"></suite></suite>
</suite>
</robot>`))
	require.NoError(t, err)

	require.Len(t, report.Suite.Suites, 1)
	require.Len(t, report.Suite.Suites[0].Suites, 1)
	assert.Equal(t, "B", report.Suite.Suites[0].Suites[0].Name)
}

func TestParseKeywordWithOnlyNestedKeywords(t *testing.T) {
	t.Parallel()

	report, err := Parse(strings.NewReader(`<robot>
<suite name="Root">
<test name="T">
<kw name="outer"><kw name="inner"><msg level="WARN">w</msg></kw></kw>
<status status="PASS"></status>
</test>
</suite>
</robot>`))
	require.NoError(t, err)

	outer := report.Suite.Tests[0].Keywords[0]
	assert.Empty(t, outer.Messages)
	require.Len(t, outer.Children, 1)
	require.Len(t, outer.Children[0].Messages, 1)
}

func TestParseAcceptsNewStyleTimeAttribute(t *testing.T) {
	t.Parallel()

	report, err := Parse(strings.NewReader(`<robot>
<suite name="Root">
<test name="T">
<kw name="k"><msg time="2024-02-16T10:34:08.250" level="INFO">hello</msg></kw>
<status status="PASS"></status>
</test>
</suite>
</robot>`))
	require.NoError(t, err)

	msg := report.Suite.Tests[0].Keywords[0].Messages[0]
	assert.Equal(t, "2024-02-16T10:34:08.250", msg.Timestamp)
}

func TestParseMalformedDocumentFails(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(`<robot><suite name="x"`))

	assert.Error(t, err)
}

func TestParseReportMissingFileReturnsParseError(t *testing.T) {
	t.Parallel()

	_, err := ParseReport("/does/not/exist/output.xml")

	var parseErr model.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
