package domain

import (
	"time"
)

// JournalEntry records one executed pool operation
type JournalEntry struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"index" json:"session_id"` // One bootstrap run
	Pool      string    `gorm:"index:idx_pool_seq" json:"pool"`
	Seq       uint64    `gorm:"index:idx_pool_seq" json:"seq"`
	Op        string    `json:"op"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`           // Shares minted, base paid out
	OutputAux string    `json:"output_aux"`       // Staked tokens paid out on withdrawal, fee on swap
	Error     string    `json:"error,omitempty"`  // Empty when the operation succeeded
	Token     string    `json:"token_amount"`     // Reserves after the operation
	Staked    string    `json:"staked_amount"`
	LPTokens  string    `json:"lp_token_amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Succeeded reports whether the journaled operation was applied.
func (e *JournalEntry) Succeeded() bool {
	return e.Error == ""
}
