package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	h := parseHeaders(" api-key=abc , bad, x=1,=skip")
	if len(h) != 2 || h["api-key"] != "abc" || h["x"] != "1" {
		t.Fatalf("unexpected headers: %v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestClampRatio(t *testing.T) {
	if clampRatio(-1) != 0 || clampRatio(2) != 1 || clampRatio(0.25) != 0.25 {
		t.Fatalf("clampRatio out of range")
	}
}

func TestInitOTelDisabled(t *testing.T) {
	if shutdown := InitOTel(context.Background(), nil, OtelConfig{}); shutdown != nil {
		t.Fatalf("disabled otel should not return a shutdown func")
	}
}
