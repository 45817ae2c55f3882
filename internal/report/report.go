// Package report builds aggregated settlement reports over energy-market
// trades. Trades are folded one at a time into per-area accumulators keyed
// by (side, market); the finished report answers revenue, cost, volume, and
// gross-profit queries with flexible market/area filtering.
//
// Folding is order-independent — every trade touches only its own
// (area, side, market) bucket — so all construction paths (bulk, lazy pull,
// concurrent fan-in) produce identical final state for the same trade
// multiset.
package report

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/powerdesk/trade-report/internal/model"
)

// MarketSelection filters a query to one market or sums across all three.
type MarketSelection struct {
	market model.Market
	all    bool
}

// AllMarkets selects every market.
func AllMarkets() MarketSelection { return MarketSelection{all: true} }

// OneMarket selects a single market.
func OneMarket(m model.Market) MarketSelection { return MarketSelection{market: m} }

// String returns the wire form of the selection ("all" or the market name).
func (s MarketSelection) String() string {
	if s.all {
		return "all"
	}
	return string(s.market)
}

// AreaSelection filters a query to one delivery area or sums across all
// areas present in the report.
type AreaSelection struct {
	area model.Area
	all  bool
}

// AllAreas selects every area present.
func AllAreas() AreaSelection { return AreaSelection{all: true} }

// OneArea selects a single area.
func OneArea(a model.Area) AreaSelection { return AreaSelection{area: a} }

// String returns the wire form of the selection ("all" or the area name).
func (s AreaSelection) String() string {
	if s.all {
		return "all"
	}
	return string(s.area)
}

// Report is a finished aggregation over one delivery window. The window
// bounds are informational: callers are responsible for feeding only trades
// that already match the window. Once constructed, a Report is immutable and
// all queries are pure reads.
type Report struct {
	deliveryFrom time.Time
	deliveryTo   time.Time
	areas        map[model.Area]*entry
}

func newReport(from, to time.Time) (*Report, error) {
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	return &Report{
		deliveryFrom: from,
		deliveryTo:   to,
		areas:        make(map[model.Area]*entry),
	}, nil
}

// New folds a fully materialized trade list into a report. The first fold
// failure aborts construction.
func New(from, to time.Time, trades []model.Trade) (*Report, error) {
	r, err := newReport(from, to)
	if err != nil {
		return nil, err
	}
	for _, t := range trades {
		if err := r.fold(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewFromSigned folds legacy-shape trades whose side is inferred from the
// quantity sign. Never combine this shape with explicitly-sided trades in
// one report: one supplies an authoritative tag, the other guesses it.
func NewFromSigned(from, to time.Time, trades []model.SignedTrade) (*Report, error) {
	r, err := newReport(from, to)
	if err != nil {
		return nil, err
	}
	for _, t := range trades {
		if err := r.foldSigned(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewFromSeq consumes a lazy trade sequence to exhaustion, folding in yield
// order. The first error — from the sequence or from a fold — aborts the
// build. The sequence is consumed exactly once.
func NewFromSeq(from, to time.Time, trades iter.Seq2[model.Trade, error]) (*Report, error) {
	r, err := newReport(from, to)
	if err != nil {
		return nil, err
	}
	for t, err := range trades {
		if err != nil {
			return nil, err
		}
		if err := r.fold(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Producer delivers trades from one source into the shared fan-in channel.
// Implementations must select on ctx.Done when sending so a cancelled build
// cannot leave them blocked on a full channel.
type Producer func(ctx context.Context, out chan<- model.Trade) error

// DefaultChannelBuffer is the fan-in channel capacity used when the caller
// passes a non-positive buffer size.
const DefaultChannelBuffer = 100

// NewFromProducers runs every producer concurrently and folds their output
// as it arrives on one bounded channel. Arrival order is nondeterministic;
// the final report is not, because folding is commutative. A failure in any
// producer, or in any fold, cancels the rest and fails the whole build.
// The fold loop ends exactly when all producers have returned and the
// channel is closed.
func NewFromProducers(ctx context.Context, from, to time.Time, buffer int, producers ...Producer) (*Report, error) {
	r, err := newReport(from, to)
	if err != nil {
		return nil, err
	}
	if buffer <= 0 {
		buffer = DefaultChannelBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make(chan model.Trade, buffer)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range producers {
		g.Go(func() error { return p(gctx, out) })
	}
	go func() {
		g.Wait()
		close(out)
	}()

	var foldErr error
	for t := range out {
		if foldErr != nil {
			continue // keep draining so producers are never stuck on send
		}
		if err := r.fold(t); err != nil {
			foldErr = err
			cancel()
		}
	}
	if foldErr != nil {
		return nil, foldErr
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// fold routes a trade to its area's accumulator, creating it on first use.
func (r *Report) fold(t model.Trade) error {
	e, ok := r.areas[t.Area]
	if !ok {
		e = newEntry(t.Area)
		r.areas[t.Area] = e
	}
	return e.addTrade(t)
}

func (r *Report) foldSigned(t model.SignedTrade) error {
	e, ok := r.areas[t.Area]
	if !ok {
		e = newEntry(t.Area)
		r.areas[t.Area] = e
	}
	return e.addSignedTrade(t)
}

// DeliveryFrom returns the start of the window the report claims to cover.
func (r *Report) DeliveryFrom() time.Time { return r.deliveryFrom }

// DeliveryTo returns the end of the window the report claims to cover.
func (r *Report) DeliveryTo() time.Time { return r.deliveryTo }

// sumAreas applies a per-entry metric across the selected area(s). An area
// with no trades routed to it contributes zero, never an error.
func (r *Report) sumAreas(sel AreaSelection, metric func(*entry) decimal.Decimal) decimal.Decimal {
	if !sel.all {
		e, ok := r.areas[sel.area]
		if !ok {
			return decimal.Zero
		}
		return metric(e)
	}
	total := decimal.Zero
	for _, e := range r.areas {
		total = total.Add(metric(e))
	}
	return total
}

// Revenue is the total sell-side cash flow for the selection, rounded
// half to even to 2 decimal places. Rounding happens once here, never
// inside the fold.
func (r *Report) Revenue(market MarketSelection, area AreaSelection) decimal.Decimal {
	return r.sumAreas(area, func(e *entry) decimal.Decimal { return e.revenue(market) }).RoundBank(2)
}

// Costs is the total buy-side cash flow for the selection, rounded to
// 2 decimal places.
func (r *Report) Costs(market MarketSelection, area AreaSelection) decimal.Decimal {
	return r.sumAreas(area, func(e *entry) decimal.Decimal { return e.costs(market) }).RoundBank(2)
}

// MWSold is the total sell-side volume for the selection, rounded to
// 1 decimal place.
func (r *Report) MWSold(market MarketSelection, area AreaSelection) decimal.Decimal {
	return r.sumAreas(area, func(e *entry) decimal.Decimal { return e.mwSold(market) }).RoundBank(1)
}

// MWBought is the total buy-side volume for the selection, rounded to
// 1 decimal place.
func (r *Report) MWBought(market MarketSelection, area AreaSelection) decimal.Decimal {
	return r.sumAreas(area, func(e *entry) decimal.Decimal { return e.mwBought(market) }).RoundBank(1)
}

// GrossProfit is revenue minus costs for the same selection, rounded to
// 2 decimal places.
func (r *Report) GrossProfit(market MarketSelection, area AreaSelection) decimal.Decimal {
	return r.sumAreas(area, func(e *entry) decimal.Decimal { return e.grossProfit(market) }).RoundBank(2)
}

// KeyMetrics is the all-markets, all-areas summary of a finished report.
type KeyMetrics struct {
	DeliveryFrom time.Time       `json:"delivery_from"`
	DeliveryTo   time.Time       `json:"delivery_to"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	Revenue      decimal.Decimal `json:"revenue"`
	Costs        decimal.Decimal `json:"costs"`
	MWSold       decimal.Decimal `json:"mw_sold"`
	MWBought     decimal.Decimal `json:"mw_bought"`
}

// KeyMetrics computes the headline numbers with all/all selectors.
func (r *Report) KeyMetrics() KeyMetrics {
	all, everywhere := AllMarkets(), AllAreas()
	return KeyMetrics{
		DeliveryFrom: r.deliveryFrom,
		DeliveryTo:   r.deliveryTo,
		GrossProfit:  r.GrossProfit(all, everywhere),
		Revenue:      r.Revenue(all, everywhere),
		Costs:        r.Costs(all, everywhere),
		MWSold:       r.MWSold(all, everywhere),
		MWBought:     r.MWBought(all, everywhere),
	}
}
