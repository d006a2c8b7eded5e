package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPoolError(t *testing.T) {
	err := opError("swap", ErrInsufficientLiquidity)

	if err.Error() != "swap: insufficient liquidity" {
		t.Errorf("Error message = %q, want %q", err.Error(), "swap: insufficient liquidity")
	}
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Error("Expected error to wrap ErrInsufficientLiquidity")
	}

	var pe *PoolError
	if !errors.As(err, &pe) || pe.Op != "swap" {
		t.Errorf("errors.As failed: %v", err)
	}
}

func TestIsDefect(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{opError("swap", fmt.Errorf("%w: 1 - 2", ErrUnderflow)), true},
		{opError("remove_liquidity", ErrDivisionByZero), true},
		{opError("swap", ErrInsufficientLiquidity), false},
		{opError("add_liquidity", ErrInvalidArgument), false},
		{ErrOverflow, false},
		{errors.New("plain error"), false},
	}

	for _, tt := range tests {
		if got := IsDefect(tt.err); got != tt.want {
			t.Errorf("IsDefect(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "pools[0].name", Err: baseErr}

	expected := "config error [pools[0].name]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, baseErr) {
		t.Error("Expected error to wrap baseErr")
	}
}
