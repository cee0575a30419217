package progression

import (
	"github.com/shopspring/decimal"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
)

// ProgressSnapshot is everything the rule set needs to decide unlocks for
// one user. It is assembled once per sweep so every rule sees the same
// numbers.
type ProgressSnapshot struct {
	TotalTrades     int
	BuyTrades       int
	SellTrades      int
	MaxTradeValue   decimal.Decimal
	PortfolioCount  int
	DistinctSymbols int
	TotalXP         int64
}

// Evaluator decides whether a snapshot satisfies one achievement's
// requirement. The threshold comes from the catalog row so evaluators stay
// data-driven.
type Evaluator func(snap *ProgressSnapshot, threshold decimal.Decimal) bool

func atLeastTrades(n int) Evaluator {
	return func(snap *ProgressSnapshot, _ decimal.Decimal) bool {
		return snap.TotalTrades >= n
	}
}

// evaluators is the closed rule set. An achievement row whose
// requirement_key is not in this map never unlocks; unknown keys are not an
// error.
var evaluators = map[string]Evaluator{
	entities.ReqFirstTrade:  atLeastTrades(1),
	entities.ReqTenTrades:   atLeastTrades(10),
	entities.ReqFiftyTrades: atLeastTrades(50),
	entities.ReqFirstBuy: func(snap *ProgressSnapshot, _ decimal.Decimal) bool {
		return snap.BuyTrades >= 1
	},
	entities.ReqFirstSell: func(snap *ProgressSnapshot, _ decimal.Decimal) bool {
		return snap.SellTrades >= 1
	},
	entities.ReqBigSpender: func(snap *ProgressSnapshot, threshold decimal.Decimal) bool {
		return snap.MaxTradeValue.GreaterThanOrEqual(threshold)
	},
	entities.ReqWhaleTrade: func(snap *ProgressSnapshot, threshold decimal.Decimal) bool {
		return snap.MaxTradeValue.GreaterThanOrEqual(threshold)
	},
	entities.ReqFirstPortfolio: func(snap *ProgressSnapshot, _ decimal.Decimal) bool {
		return snap.PortfolioCount >= 1
	},
	entities.ReqThreePortfolios: func(snap *ProgressSnapshot, _ decimal.Decimal) bool {
		return snap.PortfolioCount >= 3
	},
	entities.ReqDiversified: func(snap *ProgressSnapshot, threshold decimal.Decimal) bool {
		return snap.DistinctSymbols >= int(threshold.IntPart())
	},
	entities.ReqReachDRank:   xpThreshold,
	entities.ReqReachSRank:   xpThreshold,
	entities.ReqReachMonarch: xpThreshold,
}

func xpThreshold(snap *ProgressSnapshot, threshold decimal.Decimal) bool {
	return snap.TotalXP >= threshold.IntPart()
}

// Satisfies evaluates one requirement key against a snapshot. Unknown keys
// never unlock.
func Satisfies(key string, snap *ProgressSnapshot, threshold decimal.Decimal) bool {
	eval, ok := evaluators[key]
	if !ok {
		return false
	}
	return eval(snap, threshold)
}
