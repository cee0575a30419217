package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeType is the direction of a trade
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// Valid reports whether t is a known trade type
func (t TradeType) Valid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

// Transaction is one executed trade. Ledger entries are append-only:
// nothing in the trade path updates or deletes them once written.
type Transaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	PortfolioID  uuid.UUID       `json:"portfolio_id" db:"portfolio_id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Type         TradeType       `json:"type" db:"type"`
	Symbol       string          `json:"symbol" db:"symbol"`
	DisplayName  string          `json:"display_name" db:"display_name"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`
	TotalValue   decimal.Decimal `json:"total_value" db:"total_value"`
	XPAwarded    int64           `json:"xp_awarded" db:"xp_awarded"`
	Note         string          `json:"note" db:"note"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TradeOrder is the client-supplied side of a trade request. The total value
// is always recomputed server-side from quantity and price.
type TradeOrder struct {
	Type         TradeType       `json:"type"`
	Symbol       string          `json:"symbol"`
	DisplayName  string          `json:"display_name"`
	ImageURL     string          `json:"image_url"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Note         string          `json:"note"`
}

// TradeResult is the combined outcome of an executed trade
type TradeResult struct {
	Transaction      *Transaction   `json:"transaction"`
	UpdatedPortfolio *Portfolio     `json:"updated_portfolio"`
	NewlyUnlocked    []*Achievement `json:"newly_unlocked_achievements"`
	XPAwarded        int64          `json:"xp_awarded"`
}

// LedgerAggregates summarizes one portfolio's ledger history
type LedgerAggregates struct {
	TotalBought decimal.Decimal `json:"total_bought" db:"total_bought"`
	TotalSold   decimal.Decimal `json:"total_sold" db:"total_sold"`
	TotalTrades int             `json:"total_trades" db:"total_trades"`
	BuyTrades   int             `json:"buy_trades" db:"buy_trades"`
	SellTrades  int             `json:"sell_trades" db:"sell_trades"`
}

// UserTradeStats aggregates a user's whole trading history
type UserTradeStats struct {
	TotalTrades   int             `json:"total_trades" db:"total_trades"`
	BuyTrades     int             `json:"buy_trades" db:"buy_trades"`
	SellTrades    int             `json:"sell_trades" db:"sell_trades"`
	MaxTradeValue decimal.Decimal `json:"max_trade_value" db:"max_trade_value"`
}
