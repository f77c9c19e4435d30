package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ClassificationHelpers(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	wrapped := fmt.Errorf("submit booking: %w", &Error{Kind: KindUnauthorized, Status: 401, Err: cause})

	if got := KindOf(wrapped); got != KindUnauthorized {
		t.Fatalf("KindOf=%s", got)
	}
	if !IsUnauthorized(wrapped) {
		t.Fatalf("expected IsUnauthorized")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if got := UserMessage(wrapped, "Failed to book ride"); got != "Failed to book ride" {
		t.Fatalf("UserMessage=%q", got)
	}

	if got := KindOf(cause); got != KindTransport {
		t.Fatalf("KindOf(unclassified)=%s", got)
	}

	withMsg := &Error{Kind: KindValidation, Status: 400, Message: "Pickup location is required"}
	if got := UserMessage(withMsg, "x"); got != "Pickup location is required" {
		t.Fatalf("UserMessage=%q", got)
	}
	if got := withMsg.Error(); got != "VALIDATION (status 400): Pickup location is required" {
		t.Fatalf("Error()=%q", got)
	}
}
