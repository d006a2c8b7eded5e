package domain

import (
	"errors"

	"lpool/pkg/fixed"
)

// Arithmetic errors surface unchanged from the fixed-point layer.
var (
	// ErrInvalidArgument is returned for negative inputs. Not a defect.
	ErrInvalidArgument = fixed.ErrInvalidArgument

	// ErrOverflow is returned when an amount does not fit the pool's precision.
	ErrOverflow = fixed.ErrOverflow

	// ErrDivisionByZero should be unreachable behind the pool's guards.
	ErrDivisionByZero = fixed.ErrDivisionByZero

	// ErrUnderflow should be unreachable behind the pool's guards.
	ErrUnderflow = fixed.ErrUnderflow
)

var (
	// ErrFeeOrder is returned when the maximum fee is below the minimum fee.
	ErrFeeOrder = errors.New("maximal fee must not be lower than minimal fee")

	// ErrFeeTooHigh is returned when the maximum fee exceeds 100%.
	ErrFeeTooHigh = errors.New("maximal fee exceeds 100%")

	// ErrInsufficientShares is returned when redeeming more pool shares than exist.
	ErrInsufficientShares = errors.New("insufficient pool shares")

	// ErrInsufficientLiquidity is returned when a swap would pay out more than the reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInsufficientBalance is returned when a wallet debit exceeds its holdings.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnknownAccounting is returned for an unrecognised withdrawal policy name.
	ErrUnknownAccounting = errors.New("unknown reserve accounting")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// PoolError annotates a failed pool operation.
type PoolError struct {
	Op  string // "initialize", "add_liquidity", "remove_liquidity", "swap"
	Err error
}

func (e *PoolError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PoolError) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	return &PoolError{Op: op, Err: err}
}

// IsDefect reports whether err signals a broken pool invariant rather than bad input.
func IsDefect(err error) bool {
	return errors.Is(err, ErrDivisionByZero) || errors.Is(err, ErrUnderflow)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
