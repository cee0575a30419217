package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rank is a hunter rank label derived from cumulative experience points
type Rank string

const (
	RankE        Rank = "E-Rank"
	RankD        Rank = "D-Rank"
	RankC        Rank = "C-Rank"
	RankB        Rank = "B-Rank"
	RankA        Rank = "A-Rank"
	RankS        Rank = "S-Rank"
	RankNational Rank = "National-Level"
	RankMonarch  Rank = "Monarch"
)

// rankThresholds is ordered high-to-low; first match wins
var rankThresholds = []struct {
	MinXP int64
	Rank  Rank
}{
	{50000, RankMonarch},
	{20000, RankNational},
	{10000, RankS},
	{5000, RankA},
	{2000, RankB},
	{500, RankC},
	{100, RankD},
	{0, RankE},
}

// RankForXP maps total XP onto the rank ladder. Pure and idempotent: the
// same XP always yields the same rank.
func RankForXP(totalXP int64) Rank {
	for _, t := range rankThresholds {
		if totalXP >= t.MinXP {
			return t.Rank
		}
	}
	return RankE
}

// User is an account in the trading simulation
type User struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Username       string          `json:"username" db:"username"`
	Email          string          `json:"email" db:"email"`
	PasswordHash   string          `json:"-" db:"password_hash"`
	Avatar         string          `json:"avatar" db:"avatar"`
	VirtualBalance decimal.Decimal `json:"virtual_balance" db:"virtual_balance"`
	TotalXP        int64           `json:"total_xp" db:"total_xp"`
	Rank           Rank            `json:"rank" db:"rank"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// UserStats is the profile summary surface
type UserStats struct {
	Username             string `json:"username"`
	Rank                 Rank   `json:"rank"`
	TotalXP              int64  `json:"total_xp"`
	VirtualBalance       string `json:"virtual_balance"`
	AchievementsUnlocked int    `json:"achievements_unlocked"`
}
