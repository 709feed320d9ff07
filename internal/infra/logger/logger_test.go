package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_DevelopmentAndProduction(t *testing.T) {
	dev, err := New(Config{Development: true, Level: "debug"})
	if err != nil {
		t.Fatalf("development logger: %v", err)
	}
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}

	prod, err := New(Config{})
	if err != nil {
		t.Fatalf("production logger: %v", err)
	}
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug to be disabled by default in production")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "shouting"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
