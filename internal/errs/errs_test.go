package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := New(MalformedStream, "term index out of range")
	if !IsKind(err, MalformedStream) {
		t.Fatal("expected MalformedStream kind")
	}
	if IsKind(err, IO) {
		t.Fatal("unexpected IO kind")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(IO, io.ErrUnexpectedEOF, "reading stream header")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatal("cause lost through Wrap")
	}
	if !IsKind(err, IO) {
		t.Fatal("kind lost through Wrap")
	}
	if Wrap(IO, nil, "no-op") != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
}

func TestTraceNamesCallSite(t *testing.T) {
	err := New(InvalidArgument, "arity mismatch")
	trace := err.Trace()
	if !strings.Contains(trace, "TestTraceNamesCallSite") {
		t.Fatalf("trace does not name the call site:\n%s", trace)
	}
}

func TestMessageFormat(t *testing.T) {
	err := Newf(InvalidArgument, "arity mismatch: symbol %s expects %d arguments", "f", 2)
	want := "invalid argument: arity mismatch: symbol f expects 2 arguments"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
