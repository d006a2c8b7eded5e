package domain

import (
	"fmt"
	"strings"

	"lpool/pkg/fixed"

	"github.com/shopspring/decimal"
)

// ReserveAccounting selects how withdrawals treat the pool reserves.
type ReserveAccounting int

const (
	// AccountingProportional pays withdrawals out of the reserves, so the
	// value of every remaining share is unchanged.
	AccountingProportional ReserveAccounting = iota
	// AccountingRetain only burns shares and leaves reserves in place. Once
	// every share is redeemed the reserves stay positive, so a later deposit
	// mints zero shares and is absorbed by the pool.
	AccountingRetain
)

// String returns the config name of the policy.
func (a ReserveAccounting) String() string {
	switch a {
	case AccountingProportional:
		return "proportional"
	case AccountingRetain:
		return "retain"
	default:
		return "unknown"
	}
}

// ParseAccounting maps a config name to a policy. Empty means proportional.
func ParseAccounting(name string) (ReserveAccounting, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "proportional":
		return AccountingProportional, nil
	case "retain":
		return AccountingRetain, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAccounting, name)
	}
}

// PoolParams are the fixed parameters of a pool. Fees are percentages.
type PoolParams struct {
	Price           decimal.Decimal
	MinFeePct       decimal.Decimal
	MaxFeePct       decimal.Decimal
	LiquidityTarget decimal.Decimal
	Precision       int
	Accounting      ReserveAccounting
}

// Reserves is the mutable state of a pool.
type Reserves struct {
	Token    fixed.Amount `json:"token_amount"`
	Staked   fixed.Amount `json:"staked_token_amount"`
	LPTokens fixed.Amount `json:"lp_token_amount"`
}

// LiquidityPool is a single-asset pool. It is not safe for concurrent use;
// engine.Sequencer serializes access when several callers share one pool.
type LiquidityPool struct {
	scale           fixed.Scale
	accounting      ReserveAccounting
	price           fixed.Amount
	liquidityTarget fixed.Amount
	minFee          fixed.Amount
	maxFee          fixed.Amount

	reserves Reserves
}

var hundred = decimal.NewFromInt(100)

// NewLiquidityPool validates params and returns an empty pool.
func NewLiquidityPool(params PoolParams) (*LiquidityPool, error) {
	const op = "initialize"

	if params.Price.IsNegative() || params.MinFeePct.IsNegative() ||
		params.MaxFeePct.IsNegative() || params.LiquidityTarget.IsNegative() {
		return nil, opError(op, fmt.Errorf("%w: pool parameters must not be negative", ErrInvalidArgument))
	}
	if params.MaxFeePct.LessThan(params.MinFeePct) {
		return nil, opError(op, fmt.Errorf("%w: min %s%%, max %s%%", ErrFeeOrder, params.MinFeePct, params.MaxFeePct))
	}
	if params.MaxFeePct.GreaterThan(hundred) {
		return nil, opError(op, fmt.Errorf("%w: %s%%", ErrFeeTooHigh, params.MaxFeePct))
	}
	if params.Accounting != AccountingProportional && params.Accounting != AccountingRetain {
		return nil, opError(op, fmt.Errorf("%w: %d", ErrUnknownAccounting, params.Accounting))
	}

	scale, err := fixed.NewScale(params.Precision)
	if err != nil {
		return nil, opError(op, fmt.Errorf("%w: %w", ErrInvalidArgument, err))
	}

	p := &LiquidityPool{
		scale:      scale,
		accounting: params.Accounting,
		reserves: Reserves{
			Token:    scale.Zero(),
			Staked:   scale.Zero(),
			LPTokens: scale.Zero(),
		},
	}

	fields := []struct {
		dst *fixed.Amount
		src decimal.Decimal
	}{
		{&p.price, params.Price},
		{&p.liquidityTarget, params.LiquidityTarget},
		{&p.minFee, params.MinFeePct.Shift(-2)},
		{&p.maxFee, params.MaxFeePct.Shift(-2)},
	}
	for _, f := range fields {
		if *f.dst, err = scale.FromDecimal(f.src); err != nil {
			return nil, opError(op, err)
		}
	}

	return p, nil
}

// Scale returns the precision every amount of this pool carries.
func (p *LiquidityPool) Scale() fixed.Scale {
	return p.scale
}

// Accounting returns the withdrawal policy.
func (p *LiquidityPool) Accounting() ReserveAccounting {
	return p.accounting
}

// Reserves returns a copy of the current reserve state.
func (p *LiquidityPool) Reserves() Reserves {
	return p.reserves
}

// valuation is the pool's worth in base-token units: token + price * staked.
func (p *LiquidityPool) valuation(r Reserves) (fixed.Amount, error) {
	stakedValue, err := p.price.Mul(r.Staked)
	if err != nil {
		return fixed.Amount{}, err
	}
	return r.Token.Add(stakedValue)
}

// AddLiquidity deposits base tokens and returns the pool shares minted for them.
func (p *LiquidityPool) AddLiquidity(amount decimal.Decimal) (fixed.Amount, error) {
	const op = "add_liquidity"

	deposit, err := p.scale.FromDecimal(amount)
	if err != nil {
		return fixed.Amount{}, opError(op, err)
	}

	next := p.reserves
	denominator, err := p.valuation(next)
	if err != nil {
		return fixed.Amount{}, opError(op, err)
	}

	var minted fixed.Amount
	if denominator.IsZero() {
		// Empty pool: shares are minted 1:1.
		minted = deposit
		next.LPTokens = deposit
	} else {
		numerator, err := deposit.Mul(next.LPTokens)
		if err != nil {
			return fixed.Amount{}, opError(op, err)
		}
		if minted, err = numerator.Div(denominator); err != nil {
			return fixed.Amount{}, opError(op, err)
		}
		if next.LPTokens, err = next.LPTokens.Add(minted); err != nil {
			return fixed.Amount{}, opError(op, err)
		}
	}
	if next.Token, err = next.Token.Add(deposit); err != nil {
		return fixed.Amount{}, opError(op, err)
	}

	p.reserves = next
	return minted, nil
}

// RemoveLiquidity burns shares and returns the proportional base-token and
// staked-token amounts they were worth at call time.
func (p *LiquidityPool) RemoveLiquidity(shares decimal.Decimal) (fixed.Amount, fixed.Amount, error) {
	const op = "remove_liquidity"

	redeem, err := p.scale.FromDecimal(shares)
	if err != nil {
		return fixed.Amount{}, fixed.Amount{}, opError(op, err)
	}
	if redeem.IsZero() {
		return p.scale.Zero(), p.scale.Zero(), nil
	}
	if redeem.GreaterThan(p.reserves.LPTokens) {
		return fixed.Amount{}, fixed.Amount{}, opError(op,
			fmt.Errorf("%w: requested %s, supply %s", ErrInsufficientShares, redeem, p.reserves.LPTokens))
	}

	next := p.reserves
	fraction, err := redeem.Div(next.LPTokens)
	if err != nil {
		return fixed.Amount{}, fixed.Amount{}, opError(op, err)
	}
	tokenOut, err := fraction.Mul(next.Token)
	if err != nil {
		return fixed.Amount{}, fixed.Amount{}, opError(op, err)
	}
	stakedOut, err := fraction.Mul(next.Staked)
	if err != nil {
		return fixed.Amount{}, fixed.Amount{}, opError(op, err)
	}

	if next.LPTokens, err = next.LPTokens.Sub(redeem); err != nil {
		return fixed.Amount{}, fixed.Amount{}, opError(op, err)
	}
	if p.accounting == AccountingProportional {
		if next.Token, err = next.Token.Sub(tokenOut); err != nil {
			return fixed.Amount{}, fixed.Amount{}, opError(op, err)
		}
		if next.Staked, err = next.Staked.Sub(stakedOut); err != nil {
			return fixed.Amount{}, fixed.Amount{}, opError(op, err)
		}
	}

	p.reserves = next
	return tokenOut, stakedOut, nil
}

// SwapQuote is the outcome of exchanging staked tokens for base tokens.
type SwapQuote struct {
	Gross   fixed.Amount `json:"gross"`
	FeeRate fixed.Amount `json:"fee_rate"`
	Fee     fixed.Amount `json:"fee"`
	Net     fixed.Amount `json:"net"`
}

func (p *LiquidityPool) quote(stakedIn fixed.Amount) (SwapQuote, Reserves, error) {
	next := p.reserves

	gross, err := stakedIn.Mul(p.price)
	if err != nil {
		return SwapQuote{}, next, err
	}
	if gross.GreaterThan(next.Token) {
		return SwapQuote{}, next, fmt.Errorf("%w: need %s, reserve %s", ErrInsufficientLiquidity, gross, next.Token)
	}

	if next.Staked, err = next.Staked.Add(stakedIn); err != nil {
		return SwapQuote{}, next, err
	}
	if next.Token, err = next.Token.Sub(gross); err != nil {
		return SwapQuote{}, next, err
	}

	rate, err := FeeRate(next.Token, p.liquidityTarget, p.minFee, p.maxFee)
	if err != nil {
		return SwapQuote{}, next, err
	}
	fee, err := rate.Mul(gross)
	if err != nil {
		return SwapQuote{}, next, err
	}
	net, err := gross.Sub(fee)
	if err != nil {
		return SwapQuote{}, next, err
	}
	// The fee stays in the pool and accrues to every share holder.
	if next.Token, err = next.Token.Add(fee); err != nil {
		return SwapQuote{}, next, err
	}

	return SwapQuote{Gross: gross, FeeRate: rate, Fee: fee, Net: net}, next, nil
}

// Swap exchanges staked tokens for base tokens and returns the net amount paid out.
func (p *LiquidityPool) Swap(amount decimal.Decimal) (fixed.Amount, error) {
	q, err := p.SwapDetailed(amount)
	if err != nil {
		return fixed.Amount{}, err
	}
	return q.Net, nil
}

// SwapDetailed is Swap with the fee breakdown.
func (p *LiquidityPool) SwapDetailed(amount decimal.Decimal) (SwapQuote, error) {
	const op = "swap"

	stakedIn, err := p.scale.FromDecimal(amount)
	if err != nil {
		return SwapQuote{}, opError(op, err)
	}
	q, next, err := p.quote(stakedIn)
	if err != nil {
		return SwapQuote{}, opError(op, err)
	}
	p.reserves = next
	return q, nil
}

// QuoteSwap previews Swap without changing the pool.
func (p *LiquidityPool) QuoteSwap(amount decimal.Decimal) (SwapQuote, error) {
	const op = "quote_swap"

	stakedIn, err := p.scale.FromDecimal(amount)
	if err != nil {
		return SwapQuote{}, opError(op, err)
	}
	q, _, err := p.quote(stakedIn)
	if err != nil {
		return SwapQuote{}, opError(op, err)
	}
	return q, nil
}

// CurrentFeeRate is the fee rate a swap would start from at current reserves.
func (p *LiquidityPool) CurrentFeeRate() (fixed.Amount, error) {
	return FeeRate(p.reserves.Token, p.liquidityTarget, p.minFee, p.maxFee)
}

// VerifyInvariant checks the fee bounds: 0 <= min_fee <= max_fee <= 1.
func (p *LiquidityPool) VerifyInvariant() error {
	one, err := p.scale.FromInt(1)
	if err != nil {
		return err
	}
	if p.minFee.GreaterThan(p.maxFee) {
		return fmt.Errorf("POOL_INVARIANT_FEE_ORDER: min=%s, max=%s", p.minFee, p.maxFee)
	}
	if p.maxFee.GreaterThan(one) {
		return fmt.Errorf("POOL_INVARIANT_FEE_ABOVE_ONE: max=%s", p.maxFee)
	}
	return nil
}

// PoolSnapshot is a point-in-time view of a pool.
type PoolSnapshot struct {
	Name            string       `json:"name"`
	Seq             uint64       `json:"seq"`
	Precision       int          `json:"precision"`
	Accounting      string       `json:"accounting"`
	Price           fixed.Amount `json:"price"`
	LiquidityTarget fixed.Amount `json:"liquidity_target"`
	MinFee          fixed.Amount `json:"min_fee"`
	MaxFee          fixed.Amount `json:"max_fee"`
	Reserves
	Valuation  fixed.Amount `json:"valuation"`
	FeeRate    fixed.Amount `json:"fee_rate"`
	ShareValue fixed.Amount `json:"share_value"` // base-token value of one share
}

// Snapshot returns the pool state with derived figures.
func (p *LiquidityPool) Snapshot(name string) (PoolSnapshot, error) {
	snap := PoolSnapshot{
		Name:            name,
		Precision:       p.scale.Digits(),
		Accounting:      p.accounting.String(),
		Price:           p.price,
		LiquidityTarget: p.liquidityTarget,
		MinFee:          p.minFee,
		MaxFee:          p.maxFee,
		Reserves:        p.reserves,
		ShareValue:      p.scale.Zero(),
	}

	var err error
	if snap.Valuation, err = p.valuation(p.reserves); err != nil {
		return PoolSnapshot{}, err
	}
	if snap.FeeRate, err = p.CurrentFeeRate(); err != nil {
		return PoolSnapshot{}, err
	}
	if !p.reserves.LPTokens.IsZero() {
		if snap.ShareValue, err = snap.Valuation.Div(p.reserves.LPTokens); err != nil {
			return PoolSnapshot{}, err
		}
	}
	return snap, nil
}
