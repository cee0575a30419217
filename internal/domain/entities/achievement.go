package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AchievementTier orders achievements by prestige
type AchievementTier string

const (
	TierBronze    AchievementTier = "bronze"
	TierSilver    AchievementTier = "silver"
	TierGold      AchievementTier = "gold"
	TierLegendary AchievementTier = "legendary"
)

// Requirement keys of the closed achievement rule set
const (
	ReqFirstTrade      = "first_trade"
	ReqTenTrades       = "ten_trades"
	ReqFiftyTrades     = "fifty_trades"
	ReqFirstBuy        = "first_buy"
	ReqFirstSell       = "first_sell"
	ReqBigSpender      = "big_spender"
	ReqWhaleTrade      = "whale_trade"
	ReqFirstPortfolio  = "first_portfolio"
	ReqThreePortfolios = "three_portfolios"
	ReqDiversified     = "diversified"
	ReqReachDRank      = "reach_d_rank"
	ReqReachSRank      = "reach_s_rank"
	ReqReachMonarch    = "reach_monarch"
)

// Achievement is a catalog entry. The catalog is seeded and effectively
// read-only at runtime.
type Achievement struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Description      string          `json:"description" db:"description"`
	Reference        string          `json:"reference" db:"reference"`
	ImageURL         string          `json:"image_url" db:"image_url"`
	RequirementKey   string          `json:"requirement_key" db:"requirement_key"`
	RequirementValue decimal.Decimal `json:"requirement_value" db:"requirement_value"`
	Tier             AchievementTier `json:"tier" db:"tier"`
	XPReward         int64           `json:"xp_reward" db:"xp_reward"`
}

// UserAchievement records an unlock. The (user, achievement) pair is unique
// forever; a second unlock attempt must never produce a duplicate.
type UserAchievement struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AchievementID uuid.UUID `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// AchievementProgress annotates a catalog entry with a user's unlock state
type AchievementProgress struct {
	Achievement *Achievement `json:"achievement"`
	Unlocked    bool         `json:"unlocked"`
	UnlockedAt  *time.Time   `json:"unlocked_at,omitempty"`
}
