package model

import (
	"fmt"
	"strings"
)

// LogLevel is the severity of a log message. Levels are totally ordered
// TRACE < DEBUG < INFO < WARN < ERROR < FAIL; FAIL sits above ERROR so
// that a FAIL threshold only returns terminal failures while an ERROR
// threshold includes both.
type LogLevel string

const (
	LevelTrace LogLevel = "TRACE"
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFail  LogLevel = "FAIL"
)

var levelOrdinal = map[LogLevel]int{
	LevelTrace: 0,
	LevelDebug: 1,
	LevelInfo:  2,
	LevelWarn:  3,
	LevelError: 4,
	LevelFail:  5,
}

// Severity returns the level's ordinal. Unknown levels rank below TRACE
// so they never pass a threshold filter.
func (l LogLevel) Severity() int {
	o, ok := levelOrdinal[l]
	if !ok {
		return -1
	}

	return o
}

func (l LogLevel) AtLeast(minimum LogLevel) bool {
	return l.Severity() >= minimum.Severity()
}

// ParseLogLevel validates a caller-supplied level string. It accepts any
// casing and returns a MalformedRequestError for unknown levels.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToUpper(s))

	if _, ok := levelOrdinal[l]; !ok {
		return "", MalformedRequestError{
			Param:  "min-level",
			Detail: fmt.Sprintf("unknown log level %q", s),
		}
	}

	return l, nil
}
