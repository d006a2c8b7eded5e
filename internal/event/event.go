package event

import "github.com/shopspring/decimal"

// Type identifies a pool operation.
type Type string

const (
	TypeAddLiquidity    Type = "add_liquidity"
	TypeRemoveLiquidity Type = "remove_liquidity"
	TypeSwap            Type = "swap"
)

// Event is a pool operation submitted to a sequencer.
type Event interface {
	GetSeq() uint64
	GetType() Type
	// Amount is the operation input: deposit, shares to redeem, or staked tokens in.
	Amount() decimal.Decimal
	// Stamp is called by the sequencer when the event is accepted.
	Stamp(seq uint64, ts int64)
}

// BaseEvent carries the sequencing fields shared by all events.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"` // Unix microseconds
}

func (e *BaseEvent) GetSeq() uint64 { return e.Seq }

func (e *BaseEvent) Stamp(seq uint64, ts int64) {
	e.Seq = seq
	e.Ts = ts
}

// AddLiquidityEvent deposits base tokens.
type AddLiquidityEvent struct {
	BaseEvent
	Deposit decimal.Decimal `json:"deposit"`
}

func (e *AddLiquidityEvent) GetType() Type           { return TypeAddLiquidity }
func (e *AddLiquidityEvent) Amount() decimal.Decimal { return e.Deposit }

// RemoveLiquidityEvent redeems pool shares.
type RemoveLiquidityEvent struct {
	BaseEvent
	Shares decimal.Decimal `json:"shares"`
}

func (e *RemoveLiquidityEvent) GetType() Type           { return TypeRemoveLiquidity }
func (e *RemoveLiquidityEvent) Amount() decimal.Decimal { return e.Shares }

// SwapEvent exchanges staked tokens for base tokens.
type SwapEvent struct {
	BaseEvent
	StakedIn decimal.Decimal `json:"staked_in"`
}

func (e *SwapEvent) GetType() Type           { return TypeSwap }
func (e *SwapEvent) Amount() decimal.Decimal { return e.StakedIn }

// New builds the event for op. ok is false for an unknown op.
func New(op Type, amount decimal.Decimal) (ev Event, ok bool) {
	switch op {
	case TypeAddLiquidity:
		return &AddLiquidityEvent{Deposit: amount}, true
	case TypeRemoveLiquidity:
		return &RemoveLiquidityEvent{Shares: amount}, true
	case TypeSwap:
		return &SwapEvent{StakedIn: amount}, true
	default:
		return nil, false
	}
}
