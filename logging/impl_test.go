package logging

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

type User struct {
	Name string
}

type StructWithStruct struct {
	x int
	Y User
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])
	if len(actualParts) == 4 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[4]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[4]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{"", NewAtomicLevelAt(DEBUG), true, []Appender{NewWriterAppender(notStdout)}}

	logger.Info("impl Info log")
	assertLogMatches(t, notStdout, `2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:67	impl Info log`)

	logger.Debugf("impl logf %v %d", "foo", 5)
	assertLogMatches(t, notStdout, `2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:67	impl logf foo 5`)

	logger.Infow("impl logw", "key", "val", "StructWithStruct", StructWithStruct{1, User{"alice"}})
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:67	impl logw	{"key":"val","StructWithStruct":{"Y":{"Name":"alice"}}}`)

	// an unpaired key is reported in place of being dropped
	logger.Warnw("unpaired", "lonely")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	WARN	logging/impl_test.go:67	unpaired	{"lonely":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{"", NewAtomicLevelAt(INFO), true, []Appender{NewWriterAppender(notStdout)}}

	logger.Debug("hidden")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debug("shown")
	assertLogMatches(t, notStdout, `2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:67	shown`)

	logger.SetLevel(ERROR)
	logger.Warnf("hidden %d", 1)
	logger.Infow("hidden", "k", 2)
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
	logger.Errorf("shown %d", 3)
	assertLogMatches(t, notStdout, `2023-10-30T09:12:09.459Z	ERROR	logging/impl_test.go:67	shown 3`)

	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
		test.That(t, strings.ToLower(level.String()), test.ShouldEqual, level.AsZap().String())
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("trajopt").Sublogger("cartpos")
	sub.Infow("residual", "row", 3)

	entries := logs.All()
	test.That(t, len(entries), test.ShouldEqual, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "trajopt.cartpos")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.InfoLevel)
	test.That(t, entries[0].ContextMap()["row"], test.ShouldEqual, int64(3))

	sub.SetLevel(WARN)
	sub.Info("hidden")
	logger.Info("parent still logs")
	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("parent still logs").Len(), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestGlobal(t *testing.T) {
	orig := Global()
	defer ReplaceGlobal(orig)

	logger := NewBlankLogger("global")
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}
