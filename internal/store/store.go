// Package store provides trade sources for the report engine. PostgreSQL is
// the production source; an in-memory source backs tests and local runs, and
// a Redis cache keeps computed report summaries warm.
package store

import (
	"context"
	"iter"
	"time"

	"github.com/powerdesk/trade-report/internal/model"
	"github.com/powerdesk/trade-report/internal/report"
)

// Source delivers trade rows for a delivery window, filtered server-side by
// delivery_start ∈ [from, to). The three underlying trade tables (intraday,
// auction, imbalance) share one column set; the report never cares which
// table a row came from.
type Source interface {
	// Trades returns the concatenated rows of all three trade tables.
	Trades(ctx context.Context, from, to time.Time) ([]model.Trade, error)

	// SignedTrades returns the legacy row shape whose side is inferred
	// from the sign of the quantity.
	SignedTrades(ctx context.Context, from, to time.Time) ([]model.SignedTrade, error)

	// StreamTrades yields rows one at a time across all three tables.
	// The sequence is finite and consumed at most once.
	StreamTrades(ctx context.Context, from, to time.Time) iter.Seq2[model.Trade, error]

	// Producers returns one fan-in producer per trade table, for
	// report.NewFromProducers.
	Producers(from, to time.Time) []report.Producer
}
