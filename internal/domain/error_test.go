package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	if verr.OrNil() != nil {
		t.Fatal("empty ValidationError should collapse to nil")
	}
	verr.Add("name", "is required")
	verr.Add("price", "must not be negative")

	err := verr.OrNil()
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !verr.Has("price") || verr.Has("duration") {
		t.Fatalf("Has mismatch: %v", verr.Fields)
	}
	if msg := err.Error(); !strings.Contains(msg, "name: is required") || !strings.Contains(msg, "price: must not be negative") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("create: %w", &ConflictError{Name: "Pro"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatal("ConflictError must unwrap to ErrAlreadyExists")
	}
	var c *ConflictError
	if !errors.As(err, &c) || c.Name != "Pro" {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestUnavailableError(t *testing.T) {
	err := &UnavailableError{Op: "List plans", Err: context.DeadlineExceeded}
	if !errors.Is(err, ErrStorageUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("UnavailableError must match both the sentinel and its cause")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", err)) {
		t.Fatal("wrapped unavailable errors are retryable")
	}
	if IsRetryable(&ConflictError{Name: "Pro"}) || IsRetryable(nil) {
		t.Fatal("only storage failures are retryable")
	}
	if got := (&UnavailableError{Op: "Delete plan"}).Error(); got != "Delete plan: storage unavailable" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("plan", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("NotFound must wrap ErrNotFound")
	}
	if err.Error() != `plan "abc": entity not found` {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
