package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarketOf_CoversEveryTradeType(t *testing.T) {
	expected := map[TradeType]Market{
		TypeIntraday:       MarketIntraday,
		TypeImbalance:      MarketImbalance,
		TypeAuctionGBDahH:  MarketAuction,
		TypeAuctionGBDahHh: MarketAuction,
		TypeAuctionGBId1Hh: MarketAuction,
		TypeAuctionGBId2Hh: MarketAuction,
		TypeAuctionEURDahH: MarketAuction,
		TypeAuctionEURId1H: MarketAuction,
		TypeAuctionEURId2H: MarketAuction,
		TypeAuctionEURId3H: MarketAuction,
	}

	types := TradeTypes()
	if len(types) != len(expected) {
		t.Fatalf("expected %d trade types, got %d", len(expected), len(types))
	}
	for _, tt := range types {
		want, ok := expected[tt]
		if !ok {
			t.Fatalf("trade type %q missing from expectation table", tt)
		}
		if got := MarketOf(tt); got != want {
			t.Errorf("MarketOf(%s) = %s, want %s", tt, got, want)
		}
	}
}

func TestMarketOf_UnknownTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown trade type")
		}
	}()
	MarketOf(TradeType("coal_futures"))
}

func TestParseArea(t *testing.T) {
	for _, a := range Areas() {
		got, err := ParseArea(string(a))
		if err != nil {
			t.Errorf("ParseArea(%s): unexpected error: %v", a, err)
		}
		if got != a {
			t.Errorf("ParseArea(%s) = %s", a, got)
		}
	}

	for _, s := range []string{"", "dk1", "XX", "DK", "NO1"} {
		if _, err := ParseArea(s); err == nil {
			t.Errorf("expected error for area %q", s)
		}
	}
}

func TestParseCounterParty(t *testing.T) {
	valid := []string{"nordpool", "epex", "esett", "elexon", "rte", "semo", "tennet", "amprion"}
	for _, s := range valid {
		if _, err := ParseCounterParty(s); err != nil {
			t.Errorf("ParseCounterParty(%s): unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "Nordpool", "EPEX", "unknown"} {
		if _, err := ParseCounterParty(s); err == nil {
			t.Errorf("expected error for counter party %q", s)
		}
	}
}

func TestParseTradeSide(t *testing.T) {
	if s, err := ParseTradeSide("buy"); err != nil || s != SideBuy {
		t.Errorf("ParseTradeSide(buy) = %s, %v", s, err)
	}
	if s, err := ParseTradeSide("sell"); err != nil || s != SideSell {
		t.Errorf("ParseTradeSide(sell) = %s, %v", s, err)
	}
	for _, s := range []string{"", "BUY", "Sell", "hold"} {
		if _, err := ParseTradeSide(s); err == nil {
			t.Errorf("expected error for side %q", s)
		}
	}
}

func TestParseTradeType(t *testing.T) {
	for _, tt := range TradeTypes() {
		got, err := ParseTradeType(string(tt))
		if err != nil {
			t.Errorf("ParseTradeType(%s): unexpected error: %v", tt, err)
		}
		if got != tt {
			t.Errorf("ParseTradeType(%s) = %s", tt, got)
		}
	}
	if _, err := ParseTradeType("auction"); err == nil {
		t.Error("expected error: a market name is not a trade type")
	}
}

func TestParseMarket(t *testing.T) {
	for _, m := range Markets() {
		got, err := ParseMarket(string(m))
		if err != nil {
			t.Errorf("ParseMarket(%s): unexpected error: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMarket(%s) = %s", m, got)
		}
	}
	if _, err := ParseMarket("dayahead"); err == nil {
		t.Error("expected error for unknown market")
	}
}

func TestSignedTrade_Side(t *testing.T) {
	buy := SignedTrade{QuantityMWh: decimal.NewFromInt(10)}
	if buy.Side() != SideBuy {
		t.Errorf("positive quantity should be buy, got %s", buy.Side())
	}
	sell := SignedTrade{QuantityMWh: decimal.NewFromInt(-4)}
	if sell.Side() != SideSell {
		t.Errorf("negative quantity should be sell, got %s", sell.Side())
	}
	zero := SignedTrade{QuantityMWh: decimal.Zero}
	if zero.Side() != SideBuy {
		t.Errorf("zero quantity defaults to buy, got %s", zero.Side())
	}
}
