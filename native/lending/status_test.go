package lending

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AccountStatus
		ok       bool
	}{
		{StatusUninitialized, StatusCollateralized, true},
		{StatusUninitialized, StatusBorrowed, false},
		{StatusUninitialized, StatusClosed, false},
		{StatusCollateralized, StatusCollateralized, true},
		{StatusCollateralized, StatusBorrowed, true},
		{StatusCollateralized, StatusClosed, true},
		{StatusCollateralized, StatusLiquidatable, false},
		{StatusBorrowed, StatusBorrowed, true},
		{StatusBorrowed, StatusLiquidatable, true},
		{StatusBorrowed, StatusClosed, true},
		{StatusBorrowed, StatusCollateralized, false},
		{StatusLiquidatable, StatusLiquidatable, true},
		{StatusLiquidatable, StatusBorrowed, true},
		{StatusLiquidatable, StatusClosed, true},
		{StatusClosed, StatusCollateralized, false},
		{StatusClosed, StatusClosed, false},
	}
	for _, tc := range cases {
		got, err := tc.from.Transition(tc.to)
		if tc.ok {
			if err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
			}
			if got != tc.to {
				t.Fatalf("%s -> %s: got %s", tc.from, tc.to, got)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidStateTransition, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Fatalf("%s -> %s: rejected transition changed status to %s", tc.from, tc.to, got)
		}
	}
}

func TestStatusStrings(t *testing.T) {
	if StatusLiquidatable.String() != "liquidatable" {
		t.Fatalf("unexpected name %q", StatusLiquidatable.String())
	}
	if AccountStatus(99).String() != "unknown(99)" {
		t.Fatalf("unexpected name %q", AccountStatus(99).String())
	}
}
