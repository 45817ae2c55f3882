package store

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/powerdesk/trade-report/internal/model"
	"github.com/powerdesk/trade-report/internal/report"
)

// MemorySource implements Source with in-memory slices, one per trade table.
// Used for testing and development. Trades are routed to their table by
// market classification, mirroring how rows land in Postgres.
type MemorySource struct {
	mu     sync.RWMutex
	tables map[string][]model.Trade
}

// NewMemorySource creates an empty in-memory trade source.
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string][]model.Trade)}
}

// Add routes trades into their table by contract-type classification.
func (s *MemorySource) Add(trades ...model.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range trades {
		table := tableFor(model.MarketOf(t.Type))
		s.tables[table] = append(s.tables[table], t)
	}
}

func tableFor(m model.Market) string {
	switch m {
	case model.MarketIntraday:
		return "intraday_trades"
	case model.MarketAuction:
		return "auction_trades"
	default:
		return "imbalance_trades"
	}
}

func (s *MemorySource) Trades(_ context.Context, from, to time.Time) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trades []model.Trade
	for _, table := range tradeTables {
		for _, t := range s.tables[table] {
			if inWindow(t.DeliveryStart, from, to) {
				trades = append(trades, t)
			}
		}
	}
	return trades, nil
}

// SignedTrades converts the stored rows into the legacy shape: sells become
// negative quantities, buys positive, and the explicit side tag is dropped.
func (s *MemorySource) SignedTrades(ctx context.Context, from, to time.Time) ([]model.SignedTrade, error) {
	trades, err := s.Trades(ctx, from, to)
	if err != nil {
		return nil, err
	}
	signed := make([]model.SignedTrade, 0, len(trades))
	for _, t := range trades {
		qty := t.QuantityMWh.Abs()
		if t.Side == model.SideSell {
			qty = qty.Neg()
		}
		signed = append(signed, model.SignedTrade{
			ID:            t.ID,
			Area:          t.Area,
			CounterParty:  t.CounterParty,
			DeliveryStart: t.DeliveryStart,
			DeliveryEnd:   t.DeliveryEnd,
			Price:         t.Price,
			QuantityMWh:   qty,
			Type:          t.Type,
		})
	}
	return signed, nil
}

func (s *MemorySource) StreamTrades(ctx context.Context, from, to time.Time) iter.Seq2[model.Trade, error] {
	return func(yield func(model.Trade, error) bool) {
		trades, err := s.Trades(ctx, from, to)
		if err != nil {
			yield(model.Trade{}, err)
			return
		}
		for _, t := range trades {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (s *MemorySource) Producers(from, to time.Time) []report.Producer {
	producers := make([]report.Producer, 0, len(tradeTables))
	for _, table := range tradeTables {
		producers = append(producers, func(ctx context.Context, out chan<- model.Trade) error {
			s.mu.RLock()
			rows := append([]model.Trade(nil), s.tables[table]...)
			s.mu.RUnlock()

			for _, t := range rows {
				if !inWindow(t.DeliveryStart, from, to) {
					continue
				}
				select {
				case out <- t:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	return producers
}

func inWindow(start, from, to time.Time) bool {
	return !start.Before(from) && start.Before(to)
}
