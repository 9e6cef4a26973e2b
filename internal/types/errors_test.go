package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	base := NewAppError(KindConflict, "service.create", "duplicate name", nil)
	wrapped := fmt.Errorf("handling request: %w", base)

	if got := KindOf(wrapped); got != KindConflict {
		t.Fatalf("expected KindConflict through wrapping, got %s", got)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("expected KindUnknown, got %s", got)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewAppError(KindTransientStore, "store.write", "store unavailable", inner)

	if !errors.Is(err, inner) {
		t.Fatal("expected AppError to unwrap to its cause")
	}
}
