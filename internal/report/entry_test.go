package report

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/powerdesk/trade-report/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func price(f float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

var baseStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testTrade(area model.Area, side model.TradeSide, qty, p float64, hours int) model.Trade {
	return model.Trade{
		ID:            1,
		Area:          area,
		CounterParty:  model.CounterPartyNordpool,
		DeliveryStart: baseStart,
		DeliveryEnd:   baseStart.Add(time.Duration(hours) * time.Hour),
		Price:         price(p),
		QuantityMWh:   d(qty),
		Side:          side,
		Type:          model.TypeIntraday,
	}
}

func TestContractLength(t *testing.T) {
	tests := []struct {
		name string
		dur  time.Duration
		want string
	}{
		{"one hour", time.Hour, "1"},
		{"two hours", 2 * time.Hour, "2"},
		{"half hour", 30 * time.Minute, "0.5"},
		{"quarter hour", 15 * time.Minute, "0.25"},
		{"zero", 0, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := contractLength(baseStart, baseStart.Add(tc.dur))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("contractLength(%s) = %s, want %s", tc.dur, got, tc.want)
			}
		})
	}
}

func TestContractLength_SubSecondTruncated(t *testing.T) {
	// Whole seconds only: fractional seconds are dropped before dividing.
	got, err := contractLength(baseStart, baseStart.Add(time.Hour+500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", got)
	}
}

func TestContractLength_SaturatedDurationFails(t *testing.T) {
	// A multi-millennium interval saturates time.Duration; that must be a
	// reported failure, not a silently clamped length.
	start := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := contractLength(start, end)
	if !errors.Is(err, ErrContractLength) {
		t.Fatalf("expected ErrContractLength, got %v", err)
	}
}

func TestContractLength_DSTSpringForwardIsWallClock(t *testing.T) {
	// The short day at the spring DST transition has 23 wall-clock hours.
	// Current behavior is wall-clock seconds; this pins it down.
	cph, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	start := time.Date(2024, 3, 31, 0, 0, 0, 0, cph)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, cph)

	got, err := contractLength(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(23)) {
		t.Errorf("spring-forward day should measure 23 wall-clock hours, got %s", got)
	}
}

func TestEntry_AreaMismatchRejected(t *testing.T) {
	e := newEntry(model.AreaDK1)
	err := e.addTrade(testTrade(model.AreaGB, model.SideBuy, 10, 50, 1))
	if !errors.Is(err, ErrAreaMismatch) {
		t.Fatalf("expected ErrAreaMismatch, got %v", err)
	}
	if len(e.volume) != 0 || len(e.cashFlow) != 0 {
		t.Error("rejected trade must not touch the totals")
	}
}

func TestEntry_UnpricedTradeIsNoOp(t *testing.T) {
	e := newEntry(model.AreaDK1)
	tr := testTrade(model.AreaDK1, model.SideBuy, 10, 0, 1)
	tr.Price = decimal.NullDecimal{}

	if err := e.addTrade(tr); err != nil {
		t.Fatalf("unpriced trade should no-op successfully, got %v", err)
	}
	if len(e.volume) != 0 || len(e.cashFlow) != 0 {
		t.Error("unpriced trade must contribute nothing")
	}
}

func TestEntry_AccumulatesAbsoluteVolume(t *testing.T) {
	e := newEntry(model.AreaDK1)
	// Negative quantity with an explicit buy tag: the magnitude counts as
	// bought volume; the sign never reaches the stored totals.
	if err := e.addTrade(testTrade(model.AreaDK1, model.SideBuy, -10, 50, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := bucket{side: model.SideBuy, market: model.MarketIntraday}
	if !e.volume[b].Equal(d(10)) {
		t.Errorf("volume = %s, want 10", e.volume[b])
	}
	if !e.cashFlow[b].Equal(d(500)) {
		t.Errorf("cash flow = %s, want 500", e.cashFlow[b])
	}
}

func TestEntry_ContractLengthAdjustsVolume(t *testing.T) {
	e := newEntry(model.AreaDK1)
	if err := e.addTrade(testTrade(model.AreaDK1, model.SideSell, 5, 40, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := bucket{side: model.SideSell, market: model.MarketIntraday}
	if !e.volume[b].Equal(d(10)) {
		t.Errorf("2h contract should double the quantity: got %s, want 10", e.volume[b])
	}
	if !e.cashFlow[b].Equal(d(400)) {
		t.Errorf("cash flow = %s, want 400", e.cashFlow[b])
	}
}

func TestEntry_SignedTradeDerivesSide(t *testing.T) {
	e := newEntry(model.AreaDK1)
	sold := model.SignedTrade{
		Area:          model.AreaDK1,
		CounterParty:  model.CounterPartyEpex,
		DeliveryStart: baseStart,
		DeliveryEnd:   baseStart.Add(time.Hour),
		Price:         price(80),
		QuantityMWh:   d(-4),
		Type:          model.TypeAuctionEURDahH,
	}
	if err := e.addSignedTrade(sold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := bucket{side: model.SideSell, market: model.MarketAuction}
	if !e.volume[b].Equal(d(4)) {
		t.Errorf("volume = %s, want 4", e.volume[b])
	}
	if !e.cashFlow[b].Equal(d(320)) {
		t.Errorf("cash flow = %s, want 320", e.cashFlow[b])
	}
}

func TestEntry_AggregatesAcrossMarketsPerSide(t *testing.T) {
	e := newEntry(model.AreaDK1)
	buyIntraday := testTrade(model.AreaDK1, model.SideBuy, 10, 50, 1)
	buyImbalance := testTrade(model.AreaDK1, model.SideBuy, 3, 20, 1)
	buyImbalance.Type = model.TypeImbalance

	for _, tr := range []model.Trade{buyIntraday, buyImbalance} {
		if err := e.addTrade(tr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := e.costs(AllMarkets()); !got.Equal(d(560)) {
		t.Errorf("costs(all) = %s, want 560", got)
	}
	if got := e.costs(OneMarket(model.MarketIntraday)); !got.Equal(d(500)) {
		t.Errorf("costs(intraday) = %s, want 500", got)
	}
	// A market with no bucket reads zero, never panics.
	if got := e.costs(OneMarket(model.MarketAuction)); !got.IsZero() {
		t.Errorf("costs(auction) = %s, want 0", got)
	}
	if got := e.revenue(AllMarkets()); !got.IsZero() {
		t.Errorf("revenue(all) = %s, want 0 with no sells", got)
	}
}
