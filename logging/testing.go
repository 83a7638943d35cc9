package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testCore writes entries through tb.Log so parallel tests keep their output attached to the
// right test.
type testCore struct {
	zapcore.LevelEnabler
	tb     testing.TB
	fields []zapcore.Field
}

func (tc *testCore) With(fields []zapcore.Field) zapcore.Core {
	return &testCore{
		LevelEnabler: tc.LevelEnabler,
		tb:           tc.tb,
		fields:       append(append([]zapcore.Field{}, tc.fields...), fields...),
	}
}

func (tc *testCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if tc.Enabled(entry.Level) {
		return ce.AddCore(entry, tc)
	}
	return ce
}

func (tc *testCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tc.tb.Helper()
	toPrint := []string{
		entry.Time.Format(DefaultTimeFormatStr),
		strings.ToUpper(entry.Level.String()),
		entry.LoggerName,
	}
	if entry.Caller.Defined {
		toPrint = append(toPrint, entry.Caller.TrimmedPath())
	}
	toPrint = append(toPrint, entry.Message)

	all := append(append([]zapcore.Field{}, tc.fields...), fields...)
	if len(all) > 0 {
		// the json encoder keeps field order, an empty entry leaves only the fields
		enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
		buf, err := enc.EncodeEntry(zapcore.Entry{}, all)
		if err != nil {
			tc.tb.Log(strings.Join(toPrint, "\t"))
			return err
		}
		toPrint = append(toPrint, buf.String())
		buf.Free()
	}
	tc.tb.Log(strings.Join(toPrint, "\t"))
	return nil
}

func (tc *testCore) Sync() error {
	return nil
}

// NewTestLogger returns a DEBUG logger writing through tb.Log.
func NewTestLogger(tb testing.TB) Logger {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	return newImpl("", level, &testCore{LevelEnabler: level, tb: tb})
}

// NewObservedTestLogger is like NewTestLogger but also records every entry for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	observerCore, observedLogs := observer.New(level)
	return newImpl("", level, &testCore{LevelEnabler: level, tb: tb}, observerCore), observedLogs
}
