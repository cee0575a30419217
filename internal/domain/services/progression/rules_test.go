package progression

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
)

func TestSatisfies_TradeCountRules(t *testing.T) {
	snap := &ProgressSnapshot{TotalTrades: 10, BuyTrades: 6, SellTrades: 4}
	one := decimal.NewFromInt(1)

	assert.True(t, Satisfies(entities.ReqFirstTrade, snap, one))
	assert.True(t, Satisfies(entities.ReqTenTrades, snap, decimal.NewFromInt(10)))
	assert.False(t, Satisfies(entities.ReqFiftyTrades, snap, decimal.NewFromInt(50)))
	assert.True(t, Satisfies(entities.ReqFirstBuy, snap, one))
	assert.True(t, Satisfies(entities.ReqFirstSell, snap, one))
}

func TestSatisfies_TradeValueRules(t *testing.T) {
	snap := &ProgressSnapshot{MaxTradeValue: decimal.NewFromInt(5000)}

	// Thresholds are inclusive.
	assert.True(t, Satisfies(entities.ReqBigSpender, snap, decimal.NewFromInt(5000)))
	assert.False(t, Satisfies(entities.ReqWhaleTrade, snap, decimal.NewFromInt(50000)))
}

func TestSatisfies_PortfolioRules(t *testing.T) {
	snap := &ProgressSnapshot{PortfolioCount: 3, DistinctSymbols: 4}

	assert.True(t, Satisfies(entities.ReqFirstPortfolio, snap, decimal.NewFromInt(1)))
	assert.True(t, Satisfies(entities.ReqThreePortfolios, snap, decimal.NewFromInt(3)))
	assert.False(t, Satisfies(entities.ReqDiversified, snap, decimal.NewFromInt(5)))

	snap.DistinctSymbols = 5
	assert.True(t, Satisfies(entities.ReqDiversified, snap, decimal.NewFromInt(5)))
}

func TestSatisfies_XPRules(t *testing.T) {
	snap := &ProgressSnapshot{TotalXP: 10000}

	assert.True(t, Satisfies(entities.ReqReachDRank, snap, decimal.NewFromInt(100)))
	assert.True(t, Satisfies(entities.ReqReachSRank, snap, decimal.NewFromInt(10000)))
	assert.False(t, Satisfies(entities.ReqReachMonarch, snap, decimal.NewFromInt(50000)))
}

func TestSatisfies_UnknownKeyNeverUnlocks(t *testing.T) {
	snap := &ProgressSnapshot{TotalTrades: 1000, TotalXP: 100000}

	assert.False(t, Satisfies("time_traveler", snap, decimal.NewFromInt(1)))
}
