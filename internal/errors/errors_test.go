package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(CodeCompletionFailure, cause, "")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	if err.Message() != "completion service failure" {
		t.Fatalf("expected default message, got %q", err.Message())
	}
	want := "[COMPLETION_FAILURE] completion service failure: dial tcp: refused"
	if err.Error() != want {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeLookupFailure, "etherscan down"))
	if !stdErrors.Is(err, New(CodeLookupFailure, "")) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if stdErrors.Is(err, New(CodeTimeout, "")) {
		t.Fatalf("did not expect match for a different code")
	}
	if CodeOf(err) != CodeLookupFailure {
		t.Fatalf("unexpected code %s", CodeOf(err))
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{nil, false},
		{New(CodeLookupFailure, ""), false},
		{New(CodeAlertFailure, ""), false},
		{New(CodeCompletionFailure, ""), true},
		{New(CodeTimeout, ""), true},
		{stdErrors.New("plain"), true},
	}
	for _, tc := range cases {
		if got := IsFatal(tc.err); got != tc.fatal {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}

func TestMetadataIsCopied(t *testing.T) {
	err := New(CodeStorageFailure, "save", WithMetadata("driver", "mysql"))
	md := err.Metadata()
	md["driver"] = "changed"
	if err.Metadata()["driver"] != "mysql" {
		t.Fatalf("metadata should be returned as a copy")
	}
}

func TestRegisterCustomCode(t *testing.T) {
	const custom Code = "FEED_FAILURE"
	Register(custom, Attributes{Message: "feed failure", Severity: SeverityWarning})
	if AttributesOf(custom).Message != "feed failure" {
		t.Fatalf("custom code not registered")
	}
	if AttributesOf("NOPE").Severity != SeverityCritical {
		t.Fatalf("unregistered code should fall back to UNKNOWN")
	}
}
