package farrowerr

import (
	"errors"
	"testing"
)

func TestErrorString(t *testing.T) {
	e := New(EmptyAggregate, "min over empty selection")
	if e.Error() != "EmptyAggregate: min over empty selection" {
		t.Fatalf("unexpected message: %s", e.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(BoundsError, cause, "range out of bounds")
	if errors.Unwrap(e) != cause {
		t.Fatalf("expected unwrap to return cause")
	}
}

func TestIsSentinel(t *testing.T) {
	sentinel := New(Cancelled, "")
	err := Wrap(Cancelled, errors.New("worker stopped"), "query cancelled")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected errors.Is to match on Kind")
	}
	other := New(Overflow, "")
	if errors.Is(err, other) {
		t.Fatalf("did not expect Cancelled to match Overflow")
	}
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(New(TypeMismatch, "bad op"))
	if !ok || k != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v ok=%v", k, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("expected ok=false for non-farrowerr error")
	}
}
