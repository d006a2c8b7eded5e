package domain

import (
	"fmt"

	"lpool/pkg/fixed"
)

// Asset identifies one of the three tokens a pool participant can hold.
type Asset string

const (
	AssetBase   Asset = "BASE"
	AssetStaked Asset = "STAKED"
	AssetShares Asset = "LP"
)

// Wallet holds a participant's balances at one pool's precision.
type Wallet struct {
	Owner    string                 `json:"owner"`
	Balances map[Asset]fixed.Amount `json:"balances"`
	LastSeq  uint64                 `json:"last_seq"` // Last operation sequence that modified this
	scale    fixed.Scale
}

// NewWallet creates an empty wallet.
func NewWallet(owner string, scale fixed.Scale) *Wallet {
	return &Wallet{
		Owner: owner,
		Balances: map[Asset]fixed.Amount{
			AssetBase:   scale.Zero(),
			AssetStaked: scale.Zero(),
			AssetShares: scale.Zero(),
		},
		scale: scale,
	}
}

// Balance returns the holding of asset.
func (w *Wallet) Balance(asset Asset) fixed.Amount {
	if b, ok := w.Balances[asset]; ok {
		return b
	}
	return w.scale.Zero()
}

// Credit adds funds to the wallet.
func (w *Wallet) Credit(asset Asset, amount fixed.Amount, seq uint64) error {
	next, err := w.Balance(asset).Add(amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", asset, err)
	}
	w.Balances[asset] = next
	w.LastSeq = seq
	return nil
}

// Debit removes funds from the wallet.
func (w *Wallet) Debit(asset Asset, amount fixed.Amount, seq uint64) error {
	have := w.Balance(asset)
	if amount.GreaterThan(have) {
		return fmt.Errorf("%w: %s %s need %s, available %s", ErrInsufficientBalance, w.Owner, asset, amount, have)
	}
	next, err := have.Sub(amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", asset, err)
	}
	w.Balances[asset] = next
	w.LastSeq = seq
	return nil
}

// Snapshot returns a copy of all balances.
func (w *Wallet) Snapshot() map[Asset]fixed.Amount {
	result := make(map[Asset]fixed.Amount, len(w.Balances))
	for k, v := range w.Balances {
		result[k] = v
	}
	return result
}
