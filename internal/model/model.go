// Package model defines the core domain types for the settlement report
// engine: delivery areas, counterparties, trade sides, contract types, and
// the trade rows read from the three trade tables.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Area is a delivery/settlement price zone. The set is closed; rows carrying
// an unknown area are rejected at scan time, not mapped to a default.
type Area string

const (
	AreaAMP Area = "AMP"
	AreaDK1 Area = "DK1"
	AreaDK2 Area = "DK2"
	AreaFR  Area = "FR"
	AreaGB  Area = "GB"
	AreaNL  Area = "NL"
	AreaNO2 Area = "NO2"
	AreaSE1 Area = "SE1"
	AreaSE3 Area = "SE3"
)

// Areas returns every known delivery area.
func Areas() []Area {
	return []Area{
		AreaAMP, AreaDK1, AreaDK2, AreaFR, AreaGB,
		AreaNL, AreaNO2, AreaSE1, AreaSE3,
	}
}

// ParseArea maps the uppercase wire form to an Area.
func ParseArea(s string) (Area, error) {
	switch Area(s) {
	case AreaAMP, AreaDK1, AreaDK2, AreaFR, AreaGB, AreaNL, AreaNO2, AreaSE1, AreaSE3:
		return Area(s), nil
	}
	return "", fmt.Errorf("invalid area: %q", s)
}

// CounterParty identifies the market operator a trade was dealt through.
// Carried on every row for traceability; not used in aggregation.
type CounterParty string

const (
	CounterPartyNordpool CounterParty = "nordpool"
	CounterPartyEpex     CounterParty = "epex"
	CounterPartyEsett    CounterParty = "esett"
	CounterPartyElexon   CounterParty = "elexon"
	CounterPartyRte      CounterParty = "rte"
	CounterPartySemo     CounterParty = "semo"
	CounterPartyTennet   CounterParty = "tennet"
	CounterPartyAmprion  CounterParty = "amprion"
)

// ParseCounterParty maps the lowercase wire form to a CounterParty.
func ParseCounterParty(s string) (CounterParty, error) {
	switch CounterParty(s) {
	case CounterPartyNordpool, CounterPartyEpex, CounterPartyEsett, CounterPartyElexon,
		CounterPartyRte, CounterPartySemo, CounterPartyTennet, CounterPartyAmprion:
		return CounterParty(s), nil
	}
	return "", fmt.Errorf("invalid counter party: %q", s)
}

// TradeSide is the direction of a trade from the desk's point of view.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// ParseTradeSide maps the lowercase wire form to a TradeSide.
func ParseTradeSide(s string) (TradeSide, error) {
	switch TradeSide(s) {
	case SideBuy, SideSell:
		return TradeSide(s), nil
	}
	return "", fmt.Errorf("invalid trade side: %q", s)
}

// TradeType is the fine-grained contract type. Auction contracts are split
// by region and session; each type classifies into exactly one Market.
type TradeType string

const (
	TypeIntraday       TradeType = "intraday"
	TypeImbalance      TradeType = "imbalance"
	TypeAuctionGBDahH  TradeType = "auction_gb_dah_h"
	TypeAuctionGBDahHh TradeType = "auction_gb_dah_hh"
	TypeAuctionGBId1Hh TradeType = "auction_gb_id1_hh"
	TypeAuctionGBId2Hh TradeType = "auction_gb_id2_hh"
	TypeAuctionEURDahH TradeType = "auction_eur_dah_h"
	TypeAuctionEURId1H TradeType = "auction_eur_id1_h"
	TypeAuctionEURId2H TradeType = "auction_eur_id2_h"
	TypeAuctionEURId3H TradeType = "auction_eur_id3_h"
)

// TradeTypes returns every known contract type.
func TradeTypes() []TradeType {
	return []TradeType{
		TypeIntraday, TypeImbalance,
		TypeAuctionGBDahH, TypeAuctionGBDahHh, TypeAuctionGBId1Hh, TypeAuctionGBId2Hh,
		TypeAuctionEURDahH, TypeAuctionEURId1H, TypeAuctionEURId2H, TypeAuctionEURId3H,
	}
}

// ParseTradeType maps the snake_case wire form to a TradeType.
func ParseTradeType(s string) (TradeType, error) {
	switch TradeType(s) {
	case TypeIntraday, TypeImbalance,
		TypeAuctionGBDahH, TypeAuctionGBDahHh, TypeAuctionGBId1Hh, TypeAuctionGBId2Hh,
		TypeAuctionEURDahH, TypeAuctionEURId1H, TypeAuctionEURId2H, TypeAuctionEURId3H:
		return TradeType(s), nil
	}
	return "", fmt.Errorf("invalid trade type: %q", s)
}

// Market is the trading mechanism a contract was dealt through.
type Market string

const (
	MarketAuction   Market = "auction"
	MarketIntraday  Market = "intraday"
	MarketImbalance Market = "imbalance"
)

// Markets returns all three markets, for selector iteration.
func Markets() []Market {
	return []Market{MarketAuction, MarketIntraday, MarketImbalance}
}

// ParseMarket maps the lowercase wire form to a Market.
func ParseMarket(s string) (Market, error) {
	switch Market(s) {
	case MarketAuction, MarketIntraday, MarketImbalance:
		return Market(s), nil
	}
	return "", fmt.Errorf("invalid market: %q", s)
}

// MarketOf classifies a contract type into its market. The classification is
// total over the declared TradeType constants; a value outside that set is a
// defect in whatever produced it, so this panics rather than guessing.
func MarketOf(t TradeType) Market {
	switch t {
	case TypeIntraday:
		return MarketIntraday
	case TypeImbalance:
		return MarketImbalance
	case TypeAuctionGBDahH, TypeAuctionGBDahHh, TypeAuctionGBId1Hh, TypeAuctionGBId2Hh,
		TypeAuctionEURDahH, TypeAuctionEURId1H, TypeAuctionEURId2H, TypeAuctionEURId3H:
		return MarketAuction
	}
	panic(fmt.Sprintf("unclassified trade type: %q", t))
}

// Trade is an immutable trade row with an authoritative buy/sell tag. The
// quantity sign is ignored during aggregation; direction comes from Side.
// Rows without a settled price (Price.Valid == false) are valid but excluded
// from all totals.
type Trade struct {
	ID            int64               `json:"id" db:"id"`
	Area          Area                `json:"area" db:"area"`
	CounterParty  CounterParty        `json:"counter_part" db:"counter_part"`
	DeliveryStart time.Time           `json:"delivery_start" db:"delivery_start"`
	DeliveryEnd   time.Time           `json:"delivery_end" db:"delivery_end"`
	Price         decimal.NullDecimal `json:"price" db:"price"`
	QuantityMWh   decimal.Decimal     `json:"quantity_mwh" db:"quantity_mwh"`
	Side          TradeSide           `json:"side" db:"trade_side"`
	Type          TradeType           `json:"type" db:"trade_type"`
}

// SignedTrade is the legacy row shape without an explicit side: direction is
// inferred from the sign of QuantityMWh (negative means sell). It is a
// distinct input shape with its own fold entry point; the two shapes must
// never feed the same accumulator.
type SignedTrade struct {
	ID            int64               `json:"id" db:"id"`
	Area          Area                `json:"area" db:"area"`
	CounterParty  CounterParty        `json:"counter_part" db:"counter_part"`
	DeliveryStart time.Time           `json:"delivery_start" db:"delivery_start"`
	DeliveryEnd   time.Time           `json:"delivery_end" db:"delivery_end"`
	Price         decimal.NullDecimal `json:"price" db:"price"`
	QuantityMWh   decimal.Decimal     `json:"quantity_mwh" db:"quantity_mwh"`
	Type          TradeType           `json:"type" db:"trade_type"`
}

// Side derives the trade direction from the sign of the quantity.
func (t SignedTrade) Side() TradeSide {
	if t.QuantityMWh.IsNegative() {
		return SideSell
	}
	return SideBuy
}
