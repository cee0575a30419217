package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio owns a virtual cash balance and a set of holdings. Cash,
// holdings and the invested total are mutated exclusively by the trading
// engine; metadata edits only touch name and description.
type Portfolio struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	CashBalance   decimal.Decimal `json:"cash_balance" db:"cash_balance"`
	TotalInvested decimal.Decimal `json:"total_invested" db:"total_invested"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	Version       int64           `json:"-" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Holdings []Holding `json:"holdings" db:"-"`
}

// Holding is a portfolio's position in one symbol. An entry exists only
// while its quantity is strictly positive.
type Holding struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	PortfolioID uuid.UUID       `json:"portfolio_id" db:"portfolio_id"`
	Symbol      string          `json:"symbol" db:"symbol"`
	DisplayName string          `json:"display_name" db:"display_name"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price" db:"avg_buy_price"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// FindHolding returns the index of the holding for symbol, or -1
func (p *Portfolio) FindHolding(symbol string) int {
	for i := range p.Holdings {
		if p.Holdings[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// TotalCostBasis is the sum of quantity x average buy price across holdings.
// Live valuation needs current prices and is left to the read side.
func (p *Portfolio) TotalCostBasis() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Holdings {
		total = total.Add(p.Holdings[i].Quantity.Mul(p.Holdings[i].AvgBuyPrice))
	}
	return total
}

// PortfolioPerformance aggregates a portfolio's ledger history
type PortfolioPerformance struct {
	PortfolioID    uuid.UUID       `json:"portfolio_id"`
	PortfolioName  string          `json:"portfolio_name"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	Holdings       []Holding       `json:"holdings"`
	TotalInvested  decimal.Decimal `json:"total_invested"`
	TotalCostBasis decimal.Decimal `json:"total_cost_basis"`
	TotalBought    decimal.Decimal `json:"total_bought"`
	TotalSold      decimal.Decimal `json:"total_sold"`
	TotalTrades    int             `json:"total_trades"`
	BuyTrades      int             `json:"buy_trades"`
	SellTrades     int             `json:"sell_trades"`
	RecentTrades   []*Transaction  `json:"recent_transactions"`
}
