package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"lpool/internal/domain"
	"lpool/internal/event"
	"lpool/internal/infra"
	"lpool/pkg/fixed"
)

var (
	// ErrUnknownEvent is returned for events the sequencer cannot dispatch.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrSequencerStopped is returned by Submit once Run has returned.
	ErrSequencerStopped = errors.New("sequencer stopped")
)

// Result is the outcome of one pool operation.
type Result struct {
	Seq  uint64
	Type event.Type
	// Amount is the shares minted (add), base tokens paid out (remove) or
	// net base tokens delivered (swap).
	Amount fixed.Amount
	// Staked is the staked tokens paid out by a withdrawal.
	Staked fixed.Amount
	// Fee is the part of a swap kept by the pool.
	Fee fixed.Amount
	Err error
}

type request struct {
	ev    event.Event
	reply chan Result
}

// Sequencer is the single-threaded owner of one liquidity pool. Every
// operation on the pool goes through its inbox, so concurrent callers are
// serialized without the pool itself needing a lock.
type Sequencer struct {
	name    string
	inbox   chan request
	done    chan struct{} // closed when Run returns
	pool    *domain.LiquidityPool
	nextSeq uint64
	journal domain.Journal
	metrics *infra.Metrics

	// Boundary: used to notify read models of state changes
	onStateUpdate func(domain.PoolSnapshot)

	mu       sync.RWMutex // Used only for external reads
	snapshot domain.PoolSnapshot
}

// NewSequencer creates a new sequencer instance. journal, metrics and
// onUpdate may be nil.
func NewSequencer(name string, pool *domain.LiquidityPool, inboxSize int, journal domain.Journal, metrics *infra.Metrics, onUpdate func(domain.PoolSnapshot)) *Sequencer {
	s := &Sequencer{
		name:          name,
		inbox:         make(chan request, inboxSize),
		done:          make(chan struct{}),
		pool:          pool,
		nextSeq:       1,
		journal:       journal,
		metrics:       metrics,
		onStateUpdate: onUpdate,
	}
	s.refresh(0)
	return s
}

// Name returns the pool name.
func (s *Sequencer) Name() string {
	return s.name
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started", slog.String("pool", s.name))
	defer close(s.done)

	if s.metrics != nil {
		s.metrics.IncrementPools()
		defer s.metrics.DecrementPools()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.String("pool", s.name), slog.Any("panic", r))
			s.DumpState(s.name + "_panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...", slog.String("pool", s.name))
			return
		case req := <-s.inbox:
			req.reply <- s.processEvent(req.ev)
		}
	}
}

// Submit queues ev and waits for its result. The returned error is the
// operation's error, ctx's if it ends first, or ErrSequencerStopped once Run
// has returned. An operation already queued when ctx ends may still be applied.
func (s *Sequencer) Submit(ctx context.Context, ev event.Event) (Result, error) {
	reply := make(chan Result, 1)

	select {
	case s.inbox <- request{ev: ev, reply: reply}:
	case <-s.done:
		return Result{}, ErrSequencerStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, res.Err
	case <-s.done:
		return Result{}, ErrSequencerStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *Sequencer) processEvent(ev event.Event) Result {
	start := time.Now()
	zero := s.pool.Scale().Zero()
	res := Result{Type: ev.GetType(), Amount: zero, Staked: zero, Fee: zero}

	// 1. Dispatch
	switch e := ev.(type) {
	case *event.AddLiquidityEvent:
		res.Amount, res.Err = s.pool.AddLiquidity(e.Deposit)
	case *event.RemoveLiquidityEvent:
		res.Amount, res.Staked, res.Err = s.pool.RemoveLiquidity(e.Shares)
	case *event.SwapEvent:
		q, err := s.pool.SwapDetailed(e.StakedIn)
		if err == nil {
			res.Amount, res.Fee = q.Net, q.Fee
		}
		res.Err = err
	default:
		slog.Warn("Unknown event type", slog.String("pool", s.name), slog.Any("type", ev.GetType()))
		res.Err = fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
		return res
	}
	latency := time.Since(start).Nanoseconds()

	// 2. Sequence
	res.Seq = s.nextSeq
	ev.Stamp(res.Seq, start.UnixMicro())
	s.nextSeq++

	// 3. Outcome
	if res.Err != nil {
		s.recordFailure(res)
	} else {
		if err := s.pool.VerifyInvariant(); err != nil {
			panic(err.Error())
		}
		s.recordSuccess(res, latency)
		s.refresh(res.Seq)
	}

	// 4. Audit trail
	s.appendJournal(ev, res)

	return res
}

func (s *Sequencer) recordSuccess(res Result, latencyNs int64) {
	slog.Debug("Pool operation applied",
		slog.String("pool", s.name),
		slog.Uint64("seq", res.Seq),
		slog.String("op", string(res.Type)),
		slog.String("amount", res.Amount.String()),
	)
	if s.metrics == nil {
		return
	}
	switch res.Type {
	case event.TypeAddLiquidity:
		s.metrics.RecordDeposit(latencyNs)
	case event.TypeRemoveLiquidity:
		s.metrics.RecordWithdrawal(latencyNs)
	case event.TypeSwap:
		s.metrics.RecordSwap(latencyNs)
	}
}

func (s *Sequencer) recordFailure(res Result) {
	if domain.IsDefect(res.Err) {
		slog.Error("POOL_DEFECT",
			slog.String("pool", s.name),
			slog.Uint64("seq", res.Seq),
			slog.String("op", string(res.Type)),
			slog.Any("error", res.Err),
		)
		if s.metrics != nil {
			s.metrics.RecordDefect()
		}
		return
	}

	slog.Warn("Pool operation rejected",
		slog.String("pool", s.name),
		slog.Uint64("seq", res.Seq),
		slog.String("op", string(res.Type)),
		slog.Any("error", res.Err),
	)
	if s.metrics != nil {
		s.metrics.RecordRejected()
	}
}

func (s *Sequencer) appendJournal(ev event.Event, res Result) {
	if s.journal == nil {
		return
	}

	reserves := s.pool.Reserves()
	entry := &domain.JournalEntry{
		Pool:      s.name,
		Seq:       res.Seq,
		Op:        string(res.Type),
		Input:     ev.Amount().String(),
		Token:     reserves.Token.String(),
		Staked:    reserves.Staked.String(),
		LPTokens:  reserves.LPTokens.String(),
		CreatedAt: time.Now(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	} else {
		entry.Output = res.Amount.String()
		switch res.Type {
		case event.TypeRemoveLiquidity:
			entry.OutputAux = res.Staked.String()
		case event.TypeSwap:
			entry.OutputAux = res.Fee.String()
		}
	}

	if err := s.journal.Append(context.Background(), entry); err != nil {
		slog.Error("Failed to journal pool operation",
			slog.String("pool", s.name),
			slog.Uint64("seq", res.Seq),
			slog.Any("error", err),
		)
		if s.metrics != nil {
			s.metrics.RecordError()
		}
	}
}

// refresh rebuilds the externally visible snapshot. Called from the loop only.
func (s *Sequencer) refresh(seq uint64) {
	snap, err := s.pool.Snapshot(s.name)
	if err != nil {
		slog.Error("Failed to snapshot pool", slog.String("pool", s.name), slog.Any("error", err))
		return
	}
	snap.Seq = seq

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.onStateUpdate != nil {
		s.onStateUpdate(snap)
	}
}

// GetSnapshot returns the pool state as of the last applied operation (external read).
func (s *Sequencer) GetSnapshot() domain.PoolSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}

// DumpState writes the last snapshot to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("pool", s.name), slog.String("file", filename))

	data := struct {
		NextSeq  uint64              `json:"next_seq"`
		Snapshot domain.PoolSnapshot `json:"snapshot"`
	}{
		NextSeq:  s.nextSeq,
		Snapshot: s.GetSnapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
