package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"archivist/internal/services"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := services.Wrap(services.ErrUploadTransport, "uploading", "put file", "archive unreachable", cause)

	if !errors.Is(err, services.ErrUploadTransport) {
		t.Fatalf("expected marker in chain: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain: %v", err)
	}
	if !strings.Contains(err.Error(), "uploading: put file: archive unreachable") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestKindOfClassifiesTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want services.Kind
	}{
		{nil, services.KindNone},
		{services.Wrap(services.ErrAlternateMismatch, "locating", "", "", nil), services.KindAlternateMismatch},
		{fmt.Errorf("outer: %w", services.ErrUploadRejected), services.KindUploadRejected},
		{errors.New("plain"), services.KindUnknown},
	}
	for _, tc := range cases {
		if got := services.KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if !services.IsFatal(services.Wrap(services.ErrInvalidInput, "reading", "", "", nil)) {
		t.Fatal("expected invalid input to be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrPrimaryNotFound, "locating", "", "", nil)) {
		t.Fatal("expected locator failure to be record-local")
	}
}

func TestHintFallsBackForUnknownKinds(t *testing.T) {
	if got := services.Hint(services.KindDuplicateIdentifier); got != "give each row a unique identifier" {
		t.Fatalf("duplicate hint = %q", got)
	}
	if got := services.Hint(services.KindUnknown); got != "check logs for details" {
		t.Fatalf("unknown hint = %q", got)
	}
}
