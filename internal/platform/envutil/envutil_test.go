package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("AI_TIMEOUT", "45")
	if got := Duration("AI_TIMEOUT", time.Second); got != 45*time.Second {
		t.Fatalf("seconds form: got=%v", got)
	}
	t.Setenv("AI_TIMEOUT", "1500ms")
	if got := Duration("AI_TIMEOUT", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("duration form: got=%v", got)
	}
	t.Setenv("AI_TIMEOUT", "soon")
	if got := Duration("AI_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("fallback: got=%v", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("FLAG", "on")
	if !Bool("FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("FLAG", "maybe")
	if Bool("FLAG", false) {
		t.Fatalf("expected default")
	}
	t.Setenv("N", "x")
	if Int("N", 6) != 6 {
		t.Fatalf("expected default int")
	}
}
