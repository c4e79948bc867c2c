package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]zap.Field {
	fields := map[string]zap.Field{}
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	return fields
}

func TestLoggerFromContextFallsBackToGlobal(t *testing.T) {
	var nilCtx context.Context //nolint:revive // testing nil context handling
	if LoggerFromContext(nilCtx) != Logger() {
		t.Fatal("expected global logger for nil context")
	}
	if LoggerFromContext(context.Background()) != Logger() {
		t.Fatal("expected global logger for bare context")
	}
	ctx := context.WithValue(context.Background(), ctxLoggerKey{}, (*zap.Logger)(nil))
	if LoggerFromContext(ctx) != Logger() {
		t.Fatal("expected global logger when context holds a nil logger")
	}
}

func TestWithLoggerNilContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	var nilCtx context.Context //nolint:revive // testing nil context handling
	ctx := WithLogger(nilCtx, zap.New(core))
	SugarFromContext(ctx).Infow("scoped", "key", "value")

	if recorded.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", recorded.Len())
	}
}

func TestLogHelpers(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogInfo(ctx, "info", zap.String("foo", "bar"))
	LogWarn(ctx, "warn")
	LogError(ctx, "error", errors.New("boom"))
	LogError(ctx, "error without cause", nil)

	entries := recorded.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.ErrorLevel}
	for i, want := range wantLevels {
		if entries[i].Level != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, entries[i].Level)
		}
	}
	if f := fieldMap(entries[0])["foo"]; f.String != "bar" {
		t.Fatalf("expected foo=bar, got %+v", f)
	}
	if f, ok := fieldMap(entries[2])["error"]; !ok || f.Type != zapcore.ErrorType {
		t.Fatalf("expected error field, got %+v", entries[2].Context)
	}
	if _, ok := fieldMap(entries[3])["error"]; ok {
		t.Fatal("did not expect error field when err is nil")
	}
}

func TestLogFatalAppendsErrorField(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic triggered by fatal hook")
		}
		entries := recorded.All()
		if len(entries) != 1 || entries[0].Level != zapcore.FatalLevel {
			t.Fatalf("unexpected entries: %+v", entries)
		}
		if _, ok := fieldMap(entries[0])["error"]; !ok {
			t.Fatal("expected error field")
		}
	}()

	LogFatal(ctx, "fatal failure", errors.New("boom"))
}
