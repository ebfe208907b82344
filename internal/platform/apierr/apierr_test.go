package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"wrapped err wins", New(http.StatusNotFound, "job_not_found", errors.New("Job not found")), "Job not found"},
		{"code fallback", New(http.StatusForbidden, "permission_denied", nil), "permission_denied"},
		{"status fallback", &Error{Status: http.StatusInternalServerError}, "api error (500)"},
		{"empty", &Error{}, "api error"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("%s: expected %q got %q", tc.name, tc.want, got)
		}
	}
}

func TestFrom(t *testing.T) {
	t.Parallel()

	base := New(http.StatusBadRequest, "validation_failed", errors.New("Invalid URL format"))
	wrapped := fmt.Errorf("create job: %w", base)

	ae, ok := From(wrapped)
	if !ok {
		t.Fatalf("From: expected to find *Error in chain")
	}
	if ae.Status != http.StatusBadRequest {
		t.Errorf("expected status %d got %d", http.StatusBadRequest, ae.Status)
	}
	if ae.Code != "validation_failed" {
		t.Errorf("expected code %q got %q", "validation_failed", ae.Code)
	}

	if _, ok := From(errors.New("plain")); ok {
		t.Errorf("From: expected no *Error in plain chain")
	}
}
