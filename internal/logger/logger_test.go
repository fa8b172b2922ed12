package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker", "cli", "test"} {
		t.Run(env, func(t *testing.T) {
			l, err := NewLogger(env)
			if err != nil {
				t.Fatalf("NewLogger(%q): %v", env, err)
			}
			if l == nil {
				t.Fatal("nil logger")
			}
		})
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown env")
	}
	if _, err := NewLogger("local", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "error")
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn enabled with error override")
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reqLogger := zap.New(core)

	ctx := ContextWithLogger(context.Background(), reqLogger)
	FromContext(ctx).Info("hello")
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}

	// No logger: nop and fallback.
	FromContext(context.Background()).Info("dropped")
	fallbackCore, fallbackLogs := observer.New(zapcore.InfoLevel)
	FromContextOr(context.Background(), zap.New(fallbackCore)).Info("fallback")
	if fallbackLogs.Len() != 1 || logs.Len() != 1 {
		t.Errorf("unexpected routing: request=%d fallback=%d", logs.Len(), fallbackLogs.Len())
	}
}
