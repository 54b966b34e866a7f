package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"not found", NotFound("domain_not_found", "domain %d", 7), KindNotFound},
		{"wrapped precondition", fmt.Errorf("outer: %w", PreconditionFailed("review_not_available", "")), KindPreconditionFailed},
		{"validation", Validation("invalid_topic_index", "index %d", 12), KindValidation},
		{"upstream", fmt.Errorf("call: %w", ErrUpstreamUnavailable), KindUpstreamUnavailable},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: got=%q want=%q", tc.name, got, tc.want)
		}
	}
}

func TestPreconditionFailedStatus(t *testing.T) {
	e := PreconditionFailed("review_not_available", "completed %d of %d", 2, 6)
	if e.Status != http.StatusForbidden {
		t.Fatalf("unexpected status %d", e.Status)
	}
	if e.Error() != "precondition failed: completed 2 of 6" {
		t.Fatalf("unexpected message %q", e.Error())
	}
	var ae *Error
	if !errors.As(fmt.Errorf("x: %w", e), &ae) || ae.Code != "review_not_available" {
		t.Fatalf("errors.As failed")
	}
}
