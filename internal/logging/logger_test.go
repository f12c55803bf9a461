package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestInit_LevelFallback(t *testing.T) {
	l, err := Init("nonsense", "dev", "portal")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Closer()
	if l.Level.Level() != zap.InfoLevel {
		t.Fatalf("expected info fallback, got %v", l.Level.Level())
	}

	l2, err := Init("DEBUG", "prod", "")
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Closer()
	if l2.Level.Level() != zap.DebugLevel {
		t.Fatalf("expected debug, got %v", l2.Level.Level())
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected nop logger")
	}
}
