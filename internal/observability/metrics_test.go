package observability

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveGatewayCall("review", "fallback", time.Second)
	m.IncAnswer(true)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("expected 503 from disabled metrics, got %d", rec.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := New(time.Second)
	m.ObserveAPI("GET", "/api/learning/domains", "500", 20*time.Millisecond)
	m.ObserveGatewayCall("learning_path", "fallback", 3*time.Second)
	m.ObserveGatewayCall("learning_path", "fallback", time.Second)
	m.AddInsightsGenerated("ai", 6)
	m.IncAnswer(false)
	m.IncReviewCompleted("advance")

	if got := m.GatewayCalls("learning_path", "fallback"); got != 2 {
		t.Fatalf("gateway calls = %v", got)
	}
	if got := m.gatewayLatency.Count("learning_path", "fallback"); got != 2 {
		t.Fatalf("gateway latency count = %d", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`ip_api_requests_total{method="GET",route="/api/learning/domains",status="500"} 1.000000`,
		`ip_api_requests_error_total 1.000000`,
		`ip_ai_gateway_calls_total{call="learning_path",outcome="fallback"} 2.000000`,
		`ip_ai_gateway_call_duration_seconds_bucket{call="learning_path",outcome="fallback",le="+Inf"} 2`,
		`ip_insights_generated_total{source="ai"} 6.000000`,
		`ip_answers_total{correct="false"} 1.000000`,
		`ip_reviews_completed_total{outcome="advance"} 1.000000`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, out)
		}
	}
}

func TestLabelStringEscapes(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString = %s", got)
	}
	if withLe(got, "0.5") != `{a="x\"y",b="unknown",le="0.5"}` {
		t.Fatalf("withLe = %s", withLe(got, "0.5"))
	}
}
