package app

import (
	"errors"
	"testing"
)

func TestOperationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with id", opError("open", "notes", ErrInvalidID), `open "notes": invalid document id`},
		{"without id", opError("list", "", errors.New("io error")), "list: io error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(opError("close", "x", ErrDocumentNotFound), ErrDocumentNotFound) {
		t.Error("errors.Is should find the wrapped error")
	}
	var oe *OperationError
	if !errors.As(opError("open", "x", ErrInvalidID), &oe) || oe.ID != "x" {
		t.Errorf("errors.As = %+v", oe)
	}
}

func TestInitError(t *testing.T) {
	err := &InitError{Component: "storage", Err: ErrShuttingDown}
	if err.Error() != "init storage: application shutting down" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrShuttingDown) {
		t.Error("InitError should unwrap")
	}
}
