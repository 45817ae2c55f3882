package store

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/powerdesk/trade-report/internal/metrics"
	"github.com/powerdesk/trade-report/internal/model"
	"github.com/powerdesk/trade-report/internal/report"
)

// tradeTables are the three row sources. Identical column sets; the report
// treats them as one homogeneous feed.
var tradeTables = []string{"intraday_trades", "auction_trades", "imbalance_trades"}

// NUMERIC columns are selected as TEXT and parsed into decimals so values
// never pass through float64.
const selectTrades = `SELECT id, area, counter_part, delivery_start, delivery_end,
	price::TEXT, quantity_mwh::TEXT, trade_side, trade_type
FROM %s
WHERE delivery_start >= $1 AND delivery_start < $2`

const selectSignedTrades = `SELECT id, area, counter_part, delivery_start, delivery_end,
	price::TEXT, quantity_mwh::TEXT, trade_type
FROM %s
WHERE delivery_start >= $1 AND delivery_start < $2`

// PostgresSource reads trade rows from the three trade tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgreSQL-backed trade source.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Trades(ctx context.Context, from, to time.Time) ([]model.Trade, error) {
	var trades []model.Trade
	for _, table := range tradeTables {
		rows, err := s.pool.Query(ctx, fmt.Sprintf(selectTrades, table), from, to)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		for rows.Next() {
			t, err := scanTrade(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", table, err)
			}
			trades = append(trades, t)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
	}
	return trades, nil
}

func (s *PostgresSource) SignedTrades(ctx context.Context, from, to time.Time) ([]model.SignedTrade, error) {
	var trades []model.SignedTrade
	for _, table := range tradeTables {
		rows, err := s.pool.Query(ctx, fmt.Sprintf(selectSignedTrades, table), from, to)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		for rows.Next() {
			t, err := scanSignedTrade(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", table, err)
			}
			trades = append(trades, t)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
	}
	return trades, nil
}

// StreamTrades walks the three tables lazily through the pgx row cursor.
// Suspension happens only at "next row"; the first error ends the sequence.
func (s *PostgresSource) StreamTrades(ctx context.Context, from, to time.Time) iter.Seq2[model.Trade, error] {
	return func(yield func(model.Trade, error) bool) {
		for _, table := range tradeTables {
			rows, err := s.pool.Query(ctx, fmt.Sprintf(selectTrades, table), from, to)
			if err != nil {
				yield(model.Trade{}, fmt.Errorf("query %s: %w", table, err))
				return
			}
			for rows.Next() {
				t, err := scanTrade(rows)
				if err != nil {
					rows.Close()
					yield(model.Trade{}, fmt.Errorf("scan %s: %w", table, err))
					return
				}
				metrics.TradesStreamed.WithLabelValues(table).Inc()
				if !yield(t, nil) {
					rows.Close()
					return
				}
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				yield(model.Trade{}, fmt.Errorf("read %s: %w", table, err))
				return
			}
		}
	}
}

// Producers returns one producer per trade table. Each producer owns its own
// query cursor and cloned sender side of the fan-in channel; sends select on
// ctx.Done so a cancelled build cannot strand a producer on a full channel.
func (s *PostgresSource) Producers(from, to time.Time) []report.Producer {
	producers := make([]report.Producer, 0, len(tradeTables))
	for _, table := range tradeTables {
		producers = append(producers, s.tableProducer(table, from, to))
	}
	return producers
}

func (s *PostgresSource) tableProducer(table string, from, to time.Time) report.Producer {
	return func(ctx context.Context, out chan<- model.Trade) error {
		rows, err := s.pool.Query(ctx, fmt.Sprintf(selectTrades, table), from, to)
		if err != nil {
			return fmt.Errorf("query %s: %w", table, err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTrade(rows)
			if err != nil {
				return fmt.Errorf("scan %s: %w", table, err)
			}
			metrics.TradesStreamed.WithLabelValues(table).Inc()
			select {
			case out <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return rows.Err()
	}
}

func scanTrade(rows pgx.Rows) (model.Trade, error) {
	var (
		t           model.Trade
		area, cp    string
		price       *string
		qty         string
		side, ttype string
	)
	if err := rows.Scan(&t.ID, &area, &cp, &t.DeliveryStart, &t.DeliveryEnd,
		&price, &qty, &side, &ttype); err != nil {
		return model.Trade{}, err
	}

	var err error
	if t.Area, err = model.ParseArea(area); err != nil {
		return model.Trade{}, err
	}
	if t.CounterParty, err = model.ParseCounterParty(cp); err != nil {
		return model.Trade{}, err
	}
	if t.Side, err = model.ParseTradeSide(side); err != nil {
		return model.Trade{}, err
	}
	if t.Type, err = model.ParseTradeType(ttype); err != nil {
		return model.Trade{}, err
	}
	if t.QuantityMWh, err = decimal.NewFromString(qty); err != nil {
		return model.Trade{}, fmt.Errorf("quantity_mwh: %w", err)
	}
	if price != nil {
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return model.Trade{}, fmt.Errorf("price: %w", err)
		}
		t.Price = decimal.NullDecimal{Decimal: p, Valid: true}
	}
	return t, nil
}

func scanSignedTrade(rows pgx.Rows) (model.SignedTrade, error) {
	var (
		t         model.SignedTrade
		area, cp  string
		price     *string
		qty       string
		tradeType string
	)
	if err := rows.Scan(&t.ID, &area, &cp, &t.DeliveryStart, &t.DeliveryEnd,
		&price, &qty, &tradeType); err != nil {
		return model.SignedTrade{}, err
	}

	var err error
	if t.Area, err = model.ParseArea(area); err != nil {
		return model.SignedTrade{}, err
	}
	if t.CounterParty, err = model.ParseCounterParty(cp); err != nil {
		return model.SignedTrade{}, err
	}
	if t.Type, err = model.ParseTradeType(tradeType); err != nil {
		return model.SignedTrade{}, err
	}
	if t.QuantityMWh, err = decimal.NewFromString(qty); err != nil {
		return model.SignedTrade{}, fmt.Errorf("quantity_mwh: %w", err)
	}
	if price != nil {
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return model.SignedTrade{}, fmt.Errorf("price: %w", err)
		}
		t.Price = decimal.NullDecimal{Decimal: p, Valid: true}
	}
	return t, nil
}
