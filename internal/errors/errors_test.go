package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err      error
		expected Code
	}{
		{New(ErrCodeConflict, "already tracked"), ErrCodeConflict},
		{InvalidInput("total", "not a decimal"), ErrCodeInvalidInput},
		{NotFound("invoice", "INV-9"), ErrCodeNotFound},
		{Wrap(stderrors.New("dial tcp"), ErrCodeUnavailable, "risk lookup failed"), ErrCodeUnavailable},
		{stderrors.New("plain"), ErrCodeInternal},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.expected {
			t.Fatalf("CodeOf(%v) = %s, expected %s", tc.err, got, tc.expected)
		}
	}
}

func TestCodeOf_SeesThroughWrapping(t *testing.T) {
	inner := New(ErrCodeNotFound, "invoice missing")
	outer := fmt.Errorf("resume failed: %w", inner)

	if got := CodeOf(outer); got != ErrCodeNotFound {
		t.Fatalf("CodeOf wrapped = %s, expected NOT_FOUND", got)
	}
	if !HasCode(outer, ErrCodeNotFound) {
		t.Fatalf("HasCode should match through fmt.Errorf wrapping")
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("context deadline exceeded")
	err := Wrap(cause, ErrCodeUnavailable, "risk lookup timed out")

	if !stderrors.Is(err, cause) {
		t.Fatalf("wrapped error should unwrap to its cause")
	}
	if msg := err.Error(); msg != "risk lookup timed out: context deadline exceeded" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
