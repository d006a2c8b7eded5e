package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"lpool/internal/domain"
	"lpool/internal/engine"
	"lpool/internal/event"
	"lpool/internal/infra"
	"lpool/pkg/fixed"

	"github.com/shopspring/decimal"
)

const demoOwner = "demo"

// RunDemo plays the configured demo steps against every pool and writes a
// human-readable report to w. Rejected steps are reported and skipped; only
// cancellation of ctx stops the run early. Start must have been called.
func (b *Bootstrap) RunDemo(ctx context.Context, w io.Writer) error {
	for _, seq := range b.Sequencers {
		if err := b.runPool(ctx, w, seq); err != nil {
			return err
		}
	}

	for _, snap := range b.Pools.GetAll() {
		fmt.Fprintf(w, "final %s: seq=%d valuation=%s share_value=%s\n", snap.Name, snap.Seq, snap.Valuation, snap.ShareValue)
	}

	m := b.Metrics.Snapshot()
	fmt.Fprintf(w, "metrics: deposits=%d withdrawals=%d swaps=%d rejected=%d defects=%d errors=%d avg_latency=%dns\n",
		m.Deposits, m.Withdrawals, m.Swaps, m.Rejected, m.Defects, m.ErrorsTotal, m.AvgLatencyNs)
	return nil
}

func (b *Bootstrap) runPool(ctx context.Context, w io.Writer, seq *engine.Sequencer) error {
	initial := seq.GetSnapshot()
	scale := fixed.MustScale(initial.Precision)

	wallet, err := b.fundWallet(scale)
	if err != nil {
		return fmt.Errorf("pool %s: %w", seq.Name(), err)
	}

	fmt.Fprintf(w, "== pool %s (precision %d, %s accounting)\n", seq.Name(), initial.Precision, initial.Accounting)
	fmt.Fprintf(w, "init: price=%s min_fee=%s max_fee=%s target=%s\n",
		initial.Price, initial.MinFee, initial.MaxFee, initial.LiquidityTarget)

	for i, step := range b.Config.Demo {
		line, err := b.runStep(ctx, seq, wallet, scale, step)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			fmt.Fprintf(w, "step %d: %s %s rejected: %v\n", i+1, step.Op, step.Amount, err)
			continue
		}
		fmt.Fprintf(w, "step %d: %s\n", i+1, line)
	}

	return b.summarize(ctx, w, seq, wallet)
}

func (b *Bootstrap) fundWallet(scale fixed.Scale) (*domain.Wallet, error) {
	wallet := domain.NewWallet(demoOwner, scale)

	base, err := fundingAmount(scale, b.Config.DemoFunding.Base)
	if err != nil {
		return nil, fmt.Errorf("fund base: %w", err)
	}
	staked, err := fundingAmount(scale, b.Config.DemoFunding.Staked)
	if err != nil {
		return nil, fmt.Errorf("fund staked: %w", err)
	}
	if err := wallet.Credit(domain.AssetBase, base, 0); err != nil {
		return nil, err
	}
	if err := wallet.Credit(domain.AssetStaked, staked, 0); err != nil {
		return nil, err
	}
	return wallet, nil
}

func fundingAmount(scale fixed.Scale, d *decimal.Decimal) (fixed.Amount, error) {
	if d == nil {
		return scale.Zero(), nil
	}
	return scale.FromDecimal(*d)
}

// spentAsset is the wallet asset an operation consumes.
func spentAsset(op event.Type) domain.Asset {
	switch op {
	case event.TypeAddLiquidity:
		return domain.AssetBase
	case event.TypeRemoveLiquidity:
		return domain.AssetShares
	default:
		return domain.AssetStaked
	}
}

// newEvent builds the event for op, drawing hot-path events from their pools.
// release must only be called once the sequencer has answered.
func newEvent(op event.Type, amount decimal.Decimal) (event.Event, func(), error) {
	switch op {
	case event.TypeSwap:
		ev := event.AcquireSwapEvent()
		ev.StakedIn = amount
		return ev, func() { event.ReleaseSwapEvent(ev) }, nil
	case event.TypeAddLiquidity:
		ev := event.AcquireAddLiquidityEvent()
		ev.Deposit = amount
		return ev, func() { event.ReleaseAddLiquidityEvent(ev) }, nil
	}
	ev, ok := event.New(op, amount)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", engine.ErrUnknownEvent, op)
	}
	return ev, func() {}, nil
}

func (b *Bootstrap) runStep(ctx context.Context, seq *engine.Sequencer, wallet *domain.Wallet, scale fixed.Scale, step infra.DemoStep) (string, error) {
	input, err := scale.FromDecimal(step.Amount)
	if err != nil {
		return "", err
	}

	// The participant must hold what it spends before the pool sees the request
	spent := spentAsset(step.Op)
	if have := wallet.Balance(spent); input.GreaterThan(have) {
		return "", fmt.Errorf("%w: %s %s need %s, available %s", domain.ErrInsufficientBalance, wallet.Owner, spent, input, have)
	}

	ev, release, err := newEvent(step.Op, step.Amount)
	if err != nil {
		return "", err
	}
	res, err := seq.Submit(ctx, ev)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	release()
	if err != nil {
		slog.Debug("Demo step rejected", slog.String("pool", seq.Name()), slog.Any("error", err))
		return "", err
	}

	if err := wallet.Debit(spent, input, res.Seq); err != nil {
		return "", err
	}

	switch res.Type {
	case event.TypeAddLiquidity:
		if err := wallet.Credit(domain.AssetShares, res.Amount, res.Seq); err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d add_liquidity %s -> minted %s LP", res.Seq, input, res.Amount), nil
	case event.TypeRemoveLiquidity:
		if err := wallet.Credit(domain.AssetBase, res.Amount, res.Seq); err != nil {
			return "", err
		}
		if err := wallet.Credit(domain.AssetStaked, res.Staked, res.Seq); err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d remove_liquidity %s -> received %s base + %s staked", res.Seq, input, res.Amount, res.Staked), nil
	default:
		if err := wallet.Credit(domain.AssetBase, res.Amount, res.Seq); err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d swap %s -> received %s base (fee %s)", res.Seq, input, res.Amount, res.Fee), nil
	}
}

func (b *Bootstrap) summarize(ctx context.Context, w io.Writer, seq *engine.Sequencer, wallet *domain.Wallet) error {
	snap, ok := b.Pools.GetSnapshot(seq.Name())
	if !ok {
		return fmt.Errorf("pool %s: no snapshot", seq.Name())
	}
	fmt.Fprintf(w, "reserves: token=%s staked=%s lp=%s\n", snap.Token, snap.Staked, snap.LPTokens)
	fmt.Fprintf(w, "valuation=%s fee_rate=%s share_value=%s\n", snap.Valuation, snap.FeeRate, snap.ShareValue)
	fmt.Fprintf(w, "wallet %s: base=%s staked=%s lp=%s\n", wallet.Owner,
		wallet.Balance(domain.AssetBase), wallet.Balance(domain.AssetStaked), wallet.Balance(domain.AssetShares))

	if b.Storage == nil {
		return nil
	}
	counts, err := b.Storage.CountByOp(ctx, seq.Name())
	if err != nil {
		slog.Error("Failed to read journal counts", slog.String("pool", seq.Name()), slog.Any("error", err))
		return nil
	}
	for _, c := range counts {
		fmt.Fprintf(w, "journal %s: applied=%d rejected=%d\n", c.Op, c.Applied, c.Rejected)
	}

	entries, err := b.Storage.Entries(ctx, seq.Name())
	if err != nil {
		slog.Error("Failed to read journal entries", slog.String("pool", seq.Name()), slog.Any("error", err))
		return nil
	}
	if n := len(entries); n > 0 {
		last := entries[n-1]
		fmt.Fprintf(w, "journal entries: %d, last #%d %s %s\n", n, last.Seq, last.Op, last.Input)
	}
	return nil
}
