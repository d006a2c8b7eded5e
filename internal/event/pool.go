package event

import (
	"sync"

	"github.com/shopspring/decimal"
)

// EventPool provides sync.Pool for high-frequency event allocation.
// Use this to reduce GC pressure when a caller streams many swaps.
//
// Usage:
//
//	ev := AcquireSwapEvent()
//	ev.StakedIn = amount
//	// ... submit and wait for the result ...
//	ReleaseSwapEvent(ev)  // Return to pool after processing
var swapPool = sync.Pool{
	New: func() interface{} {
		return &SwapEvent{}
	},
}

// AcquireSwapEvent gets a SwapEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireSwapEvent() *SwapEvent {
	return swapPool.Get().(*SwapEvent)
}

// ReleaseSwapEvent returns a SwapEvent to the pool.
// The event is reset to zero values before being pooled.
func ReleaseSwapEvent(ev *SwapEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.StakedIn = decimal.Decimal{}

	swapPool.Put(ev)
}

// AddLiquidityEvent pool
var addLiquidityPool = sync.Pool{
	New: func() interface{} {
		return &AddLiquidityEvent{}
	},
}

// AcquireAddLiquidityEvent gets an AddLiquidityEvent from the pool.
func AcquireAddLiquidityEvent() *AddLiquidityEvent {
	return addLiquidityPool.Get().(*AddLiquidityEvent)
}

// ReleaseAddLiquidityEvent returns an AddLiquidityEvent to the pool.
func ReleaseAddLiquidityEvent(ev *AddLiquidityEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Deposit = decimal.Decimal{}

	addLiquidityPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
// It acquires and releases a batch of events.
func Warmup() {
	const batchSize = 1000

	swapEvs := make([]*SwapEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		swapEvs = append(swapEvs, AcquireSwapEvent())
	}
	for _, ev := range swapEvs {
		ReleaseSwapEvent(ev)
	}

	addEvs := make([]*AddLiquidityEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		addEvs = append(addEvs, AcquireAddLiquidityEvent())
	}
	for _, ev := range addEvs {
		ReleaseAddLiquidityEvent(ev)
	}
}
