package unlock

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
)

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ThrottleError{Wait: 2500 * time.Millisecond}, "Too many attempts. Try again in 3s"},
		{&ThrottleError{Wait: 10 * time.Millisecond}, "Too many attempts. Try again in 1s"},
		{fmt.Errorf("%w: empty", ErrInvalidCode), "That capsule code is not valid"},
		{fmt.Errorf("sqlite: %w", store.ErrNotFound), "Capsule not found"},
		{&cipher.DecryptError{Reason: "bad padding"}, "Incorrect passphrase"},
		{fmt.Errorf("%w: %q", timegate.ErrInvalidOpenDate, "x"), "This capsule has an unreadable open date"},
		{fmt.Errorf("%w: %w", ErrFetch, context.DeadlineExceeded), "Timed out loading capsule"},
		{errors.New("disk on fire"), "Could not load capsule"},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestThrottleErrorUnwraps(t *testing.T) {
	err := error(&ThrottleError{Wait: 4 * time.Second})
	if !errors.Is(err, ErrThrottled) {
		t.Fatalf("ThrottleError should match ErrThrottled")
	}
	if err.Error() != "too many passphrase attempts: retry in 4s" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestClassifyFetchErr(t *testing.T) {
	if classifyFetchErr(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if err := classifyFetchErr(store.ErrNotFound); err != store.ErrNotFound {
		t.Fatalf("not found should pass through, got %v", err)
	}
	raw := errors.New("reset by peer")
	err := classifyFetchErr(raw)
	if !errors.Is(err, ErrFetch) || !errors.Is(err, raw) {
		t.Fatalf("expected ErrFetch wrapping cause, got %v", err)
	}
	if again := classifyFetchErr(err); again != err {
		t.Fatalf("ErrFetch should not be wrapped twice")
	}
}

func TestValidateCode(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"abc123", "abc123", false},
		{"  spaced\t", "spaced", false},
		{"", "", true},
		{" \n ", "", true},
		{"../etc", "", true},
		{"a/b", "", true},
	}
	for _, tc := range cases {
		got, err := ValidateCode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ValidateCode(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("ValidateCode(%q) err = %v, want ErrInvalidCode", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ValidateCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
