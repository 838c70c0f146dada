package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Consistency("CalculateScoreWithProfile", "profile belongs to %s", "someone else"))
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("errors.Is(ErrConsistency): want=true got=false")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(ErrNotFound): want=false got=true")
	}
	if KindOf(err) != KindConsistency {
		t.Fatalf("KindOf: want=%q got=%q", KindConsistency, KindOf(err))
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Input("Record", "unknown type %q", "poke"), http.StatusBadRequest},
		{NotFound("Record", "game %d", 7), http.StatusNotFound},
		{External("graph", errors.New("down")), http.StatusServiceUnavailable},
		{Consistency("score", "mismatch"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v): want=%d got=%d", tc.err, tc.want, got)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("GetRecommendations", "user %s", "abc")
	if got := err.Error(); got != "GetRecommendations: user abc" {
		t.Fatalf("Error(): got=%q", got)
	}
}
