package report

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/powerdesk/trade-report/internal/model"
)

var (
	// ErrInvalidWindow is returned when a report window ends before it starts.
	ErrInvalidWindow = errors.New("delivery_from has to be before delivery_to")

	// ErrAreaMismatch signals a routing defect: a trade was folded into the
	// accumulator of a different area.
	ErrAreaMismatch = errors.New("trade area has to match accumulator area")

	// ErrContractLength is returned when a delivery interval cannot be
	// represented as a 64-bit second count.
	ErrContractLength = errors.New("contract duration does not fit in 64-bit seconds")
)

// bucket keys the running totals: one pair of totals per (side, market).
type bucket struct {
	side   model.TradeSide
	market model.Market
}

// entry holds the running totals for one delivery area. volume stores
// magnitude-only MWh — the direction lives entirely in the side key, so a
// source's quantity sign convention can never double-count. cashFlow stores
// volume × price. Absent buckets read as zero.
type entry struct {
	area     model.Area
	volume   map[bucket]decimal.Decimal
	cashFlow map[bucket]decimal.Decimal
}

func newEntry(area model.Area) *entry {
	return &entry{
		area:     area,
		volume:   make(map[bucket]decimal.Decimal),
		cashFlow: make(map[bucket]decimal.Decimal),
	}
}

// addTrade folds one explicitly-sided trade into the totals. Trades without
// a settled price are a successful no-op.
func (e *entry) addTrade(t model.Trade) error {
	if t.Area != e.area {
		return fmt.Errorf("%w: got %s, want %s", ErrAreaMismatch, t.Area, e.area)
	}
	if !t.Price.Valid {
		return nil
	}
	return e.accumulate(t.Side, model.MarketOf(t.Type), t.QuantityMWh, t.Price.Decimal, t.DeliveryStart, t.DeliveryEnd)
}

// addSignedTrade folds one legacy-shape trade, deriving the side from the
// sign of its quantity. Must not be mixed with addTrade on the same entry.
func (e *entry) addSignedTrade(t model.SignedTrade) error {
	if t.Area != e.area {
		return fmt.Errorf("%w: got %s, want %s", ErrAreaMismatch, t.Area, e.area)
	}
	if !t.Price.Valid {
		return nil
	}
	return e.accumulate(t.Side(), model.MarketOf(t.Type), t.QuantityMWh, t.Price.Decimal, t.DeliveryStart, t.DeliveryEnd)
}

func (e *entry) accumulate(side model.TradeSide, market model.Market, qty, price decimal.Decimal, start, end time.Time) error {
	length, err := contractLength(start, end)
	if err != nil {
		return err
	}

	adjusted := qty.Abs().Mul(length)
	b := bucket{side: side, market: market}
	e.volume[b] = e.volume[b].Add(adjusted)
	e.cashFlow[b] = e.cashFlow[b].Add(adjusted.Mul(price))
	return nil
}

// sumSide totals one side of the given map across the selected market(s).
// Absent buckets contribute zero.
func (e *entry) sumSide(side model.TradeSide, sel MarketSelection, totals map[bucket]decimal.Decimal) decimal.Decimal {
	if !sel.all {
		return totals[bucket{side: side, market: sel.market}]
	}
	total := decimal.Zero
	for _, m := range model.Markets() {
		total = total.Add(totals[bucket{side: side, market: m}])
	}
	return total
}

func (e *entry) revenue(sel MarketSelection) decimal.Decimal {
	return e.sumSide(model.SideSell, sel, e.cashFlow)
}

func (e *entry) costs(sel MarketSelection) decimal.Decimal {
	return e.sumSide(model.SideBuy, sel, e.cashFlow)
}

func (e *entry) mwSold(sel MarketSelection) decimal.Decimal {
	return e.sumSide(model.SideSell, sel, e.volume)
}

func (e *entry) mwBought(sel MarketSelection) decimal.Decimal {
	return e.sumSide(model.SideBuy, sel, e.volume)
}

func (e *entry) grossProfit(sel MarketSelection) decimal.Decimal {
	return e.revenue(sel).Sub(e.costs(sel))
}

var secondsPerHour = decimal.NewFromInt(3600)

// contractLength returns the delivery interval in hours: whole wall-clock
// seconds divided by 3600, in decimal arithmetic.
//
// Known limitation: calendar days shortened or stretched by a DST transition
// are not special-cased. A contract spanning such a transition gets a length
// computed from wall-clock seconds, which can disagree with the intended
// number of delivery hours on 23h/25h days.
func contractLength(start, end time.Time) (decimal.Decimal, error) {
	delta := end.Sub(start)
	// time.Duration saturates rather than wrapping; a saturated value means
	// the interval cannot be represented as a 64-bit count.
	if delta == math.MaxInt64 || delta == math.MinInt64 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s to %s", ErrContractLength, start, end)
	}
	seconds := decimal.NewFromInt(int64(delta / time.Second))
	return seconds.Div(secondsPerHour), nil
}
