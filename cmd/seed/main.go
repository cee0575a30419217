package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/database"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// catalog is the full achievement set. Seeding upserts by requirement key,
// so re-running refreshes names and rewards without breaking existing
// unlock records.
var catalog = []entities.Achievement{
	// Bronze tier
	{
		Name:             "Arise",
		Description:      "Complete your first trade. The System has acknowledged your existence.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqFirstTrade,
		RequirementValue: decimal.NewFromInt(1),
		Tier:             entities.TierBronze,
		XPReward:         50,
	},
	{
		Name:             "First Buy Order",
		Description:      "Execute your first BUY transaction.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqFirstBuy,
		RequirementValue: decimal.NewFromInt(1),
		Tier:             entities.TierBronze,
		XPReward:         25,
	},
	{
		Name:             "First Sell Order",
		Description:      "Execute your first SELL transaction. Know when to take profits.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqFirstSell,
		RequirementValue: decimal.NewFromInt(1),
		Tier:             entities.TierBronze,
		XPReward:         25,
	},
	{
		Name:             "Shadow Soldier",
		Description:      "Create your first portfolio.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqFirstPortfolio,
		RequirementValue: decimal.NewFromInt(1),
		Tier:             entities.TierBronze,
		XPReward:         50,
	},
	{
		Name:             "D-Rank Hunter",
		Description:      "Earn 100 XP. You have proven you are more than an E-Rank.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqReachDRank,
		RequirementValue: decimal.NewFromInt(100),
		Tier:             entities.TierBronze,
		XPReward:         75,
	},

	// Silver tier
	{
		Name:             "Shadow Army",
		Description:      "Complete 10 trades. Your shadow army grows.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqTenTrades,
		RequirementValue: decimal.NewFromInt(10),
		Tier:             entities.TierSilver,
		XPReward:         200,
	},
	{
		Name:             "Multi-Dungeon Hunter",
		Description:      "Create 3 separate portfolios.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqThreePortfolios,
		RequirementValue: decimal.NewFromInt(3),
		Tier:             entities.TierSilver,
		XPReward:         150,
	},
	{
		Name:             "Diversified Dungeon Clearer",
		Description:      "Hold 5 different cryptocurrencies across your portfolios.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqDiversified,
		RequirementValue: decimal.NewFromInt(5),
		Tier:             entities.TierSilver,
		XPReward:         200,
	},
	{
		Name:             "Big Spender",
		Description:      "Execute a single trade worth over $5,000.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqBigSpender,
		RequirementValue: decimal.NewFromInt(5000),
		Tier:             entities.TierSilver,
		XPReward:         250,
	},

	// Gold tier
	{
		Name:             "S-Rank Hunter",
		Description:      "Earn 10,000 XP. You stand at the top of all hunters.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqReachSRank,
		RequirementValue: decimal.NewFromInt(10000),
		Tier:             entities.TierGold,
		XPReward:         1000,
	},
	{
		Name:             "The Strongest Hunter",
		Description:      "Complete 50 trades. You have cleared dungeons no one else dared enter.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqFiftyTrades,
		RequirementValue: decimal.NewFromInt(50),
		Tier:             entities.TierGold,
		XPReward:         500,
	},
	{
		Name:             "Whale of the Abyss",
		Description:      "Execute a single trade worth over $50,000.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqWhaleTrade,
		RequirementValue: decimal.NewFromInt(50000),
		Tier:             entities.TierGold,
		XPReward:         750,
	},

	// Legendary tier
	{
		Name:             "Shadow Monarch",
		Description:      "Earn 50,000 XP. You are no longer human. You are the Monarch of Shadows.",
		Reference:        "Solo Leveling",
		RequirementKey:   entities.ReqReachMonarch,
		RequirementValue: decimal.NewFromInt(50000),
		Tier:             entities.TierLegendary,
		XPReward:         5000,
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	query := `
		INSERT INTO achievements (id, name, description, reference, image_url, requirement_key, requirement_value, tier, xp_reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (requirement_key) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			reference = EXCLUDED.reference,
			image_url = EXCLUDED.image_url,
			requirement_value = EXCLUDED.requirement_value,
			tier = EXCLUDED.tier,
			xp_reward = EXCLUDED.xp_reward`

	counts := map[entities.AchievementTier]int{}
	for _, a := range catalog {
		_, err := db.Exec(query,
			uuid.New(), a.Name, a.Description, a.Reference, a.ImageURL,
			a.RequirementKey, a.RequirementValue, a.Tier, a.XPReward,
		)
		if err != nil {
			log.Fatal("Failed to seed achievement", "name", a.Name, "error", err)
		}
		counts[a.Tier]++
	}

	log.Info("Achievement catalog seeded",
		"total", len(catalog),
		"bronze", counts[entities.TierBronze],
		"silver", counts[entities.TierSilver],
		"gold", counts[entities.TierGold],
		"legendary", counts[entities.TierLegendary],
	)
}
