package storage

import (
	"context"
	"errors"
	"testing"
)

func TestWrapKeepsBothChains(t *testing.T) {
	driverErr := errors.New("UNIQUE constraint failed: daily_logs.user_id, daily_logs.date")
	err := Wrap("create daily log", ErrConflict, driverErr)

	if !errors.Is(err, ErrConflict) {
		t.Error("wrapped error should match ErrConflict")
	}
	if !errors.Is(err, driverErr) {
		t.Error("wrapped error should keep the driver error")
	}
	if Wrap("noop", ErrConflict, nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: Wrap("get", ErrNotFound, errors.New("no rows")), want: ErrNotFound},
		{name: "conflict", err: Wrap("create", ErrConflict, errors.New("dup")), want: ErrConflict},
		{name: "unauthorized", err: Wrap("get", ErrUnauthorized, errors.New("denied")), want: ErrUnauthorized},
		{name: "unclassified", err: errors.New("boom"), want: ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	backend := func(error) error { return ErrConflict }

	if err := Classify("op", nil, backend); err != nil {
		t.Errorf("Classify(nil) = %v, want nil", err)
	}
	if err := Classify("op", context.DeadlineExceeded, backend); !errors.Is(err, ErrTransport) {
		t.Errorf("Classify(deadline) = %v, want ErrTransport", err)
	}
	if err := Classify("op", errors.New("dup"), backend); !errors.Is(err, ErrConflict) {
		t.Errorf("Classify(dup) = %v, want ErrConflict", err)
	}
	already := Wrap("inner", ErrNotFound, errors.New("no rows"))
	if err := Classify("outer", already, backend); !errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		t.Errorf("Classify(already classified) = %v, want ErrNotFound only", err)
	}
}
