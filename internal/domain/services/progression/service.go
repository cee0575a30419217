package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/logger"
	"github.com/sensei-service/sensei_service/pkg/metrics"
)

// Service owns experience, rank and achievement progression. Trading calls
// into it after every executed trade; it can also be invoked directly to
// re-run the achievement sweep.
type Service struct {
	userRepo        UserRepository
	achievementRepo AchievementRepository
	transactionRepo TransactionStatsRepository
	portfolioRepo   PortfolioStatsRepository
	buyXP           int64
	sellXP          int64
	logger          *logger.Logger
}

// UserRepository interface for XP and rank persistence
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	AddXP(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	SetRank(ctx context.Context, id uuid.UUID, rank entities.Rank) error
}

// AchievementRepository interface for the catalog and unlock records
type AchievementRepository interface {
	ListCatalog(ctx context.Context) ([]*entities.Achievement, error)
	ListUnlocks(ctx context.Context, userID uuid.UUID) ([]*entities.UserAchievement, error)
	CreateUnlock(ctx context.Context, ua *entities.UserAchievement) error
	CountUnlocks(ctx context.Context, userID uuid.UUID) (int, error)
}

// TransactionStatsRepository interface for ledger aggregates
type TransactionStatsRepository interface {
	StatsByUser(ctx context.Context, userID uuid.UUID) (*entities.UserTradeStats, error)
}

// PortfolioStatsRepository interface for portfolio counts
type PortfolioStatsRepository interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	DistinctSymbols(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// NewService creates a new progression service
func NewService(
	userRepo UserRepository,
	achievementRepo AchievementRepository,
	transactionRepo TransactionStatsRepository,
	portfolioRepo PortfolioStatsRepository,
	buyXP, sellXP int64,
	logger *logger.Logger,
) *Service {
	return &Service{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		transactionRepo: transactionRepo,
		portfolioRepo:   portfolioRepo,
		buyXP:           buyXP,
		sellXP:          sellXP,
		logger:          logger,
	}
}

// TradeXP returns the XP a trade of the given type earns
func (s *Service) TradeXP(tradeType entities.TradeType) int64 {
	if tradeType == entities.TradeTypeSell {
		return s.sellXP
	}
	return s.buyXP
}

// AwardTradeXP credits a user for an executed trade and keeps the stored
// rank consistent with the new total.
func (s *Service) AwardTradeXP(ctx context.Context, userID uuid.UUID, tradeType entities.TradeType) (int64, error) {
	amount := s.TradeXP(tradeType)
	total, err := s.userRepo.AddXP(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to award trade xp: %w", err)
	}
	if err := s.userRepo.SetRank(ctx, userID, entities.RankForXP(total)); err != nil {
		return 0, fmt.Errorf("failed to update rank: %w", err)
	}
	metrics.RecordXP("trade", amount)
	return amount, nil
}

// Sweep evaluates the whole achievement catalog against the user's current
// progress and unlocks everything newly satisfied. It is idempotent: an
// achievement already unlocked is never unlocked or rewarded again, even
// when two sweeps race.
func (s *Service) Sweep(ctx context.Context, userID uuid.UUID) ([]*entities.Achievement, error) {
	snap, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.achievementRepo.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}

	unlocked, err := s.unlockedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newly []*entities.Achievement
	for _, a := range catalog {
		if unlocked[a.ID] {
			continue
		}
		if !Satisfies(a.RequirementKey, snap, a.RequirementValue) {
			continue
		}

		err := s.achievementRepo.CreateUnlock(ctx, &entities.UserAchievement{
			ID:            uuid.New(),
			UserID:        userID,
			AchievementID: a.ID,
			UnlockedAt:    time.Now().UTC(),
		})
		if errors.Is(err, repositories.ErrDuplicate) {
			// A concurrent sweep got there first; the unique constraint
			// keeps the unlock and its reward single-shot.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to record unlock: %w", err)
		}

		if a.XPReward > 0 {
			total, err := s.userRepo.AddXP(ctx, userID, a.XPReward)
			if err != nil {
				return nil, fmt.Errorf("failed to award achievement xp: %w", err)
			}
			if err := s.userRepo.SetRank(ctx, userID, entities.RankForXP(total)); err != nil {
				return nil, fmt.Errorf("failed to update rank: %w", err)
			}
			metrics.RecordXP("achievement", a.XPReward)
			// Rank achievements can cascade off the XP just granted.
			snap.TotalXP = total
		}

		metrics.RecordUnlock(string(a.Tier))
		s.logger.CtxInfo(ctx, "achievement unlocked",
			"user_id", userID,
			"achievement", a.Name,
			"tier", a.Tier,
			"xp_reward", a.XPReward,
		)
		newly = append(newly, a)
	}

	return newly, nil
}

// Catalog returns every achievement definition
func (s *Service) Catalog(ctx context.Context) ([]*entities.Achievement, error) {
	catalog, err := s.achievementRepo.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}
	return catalog, nil
}

// Progress pairs every catalog entry with the user's unlock state
func (s *Service) Progress(ctx context.Context, userID uuid.UUID) ([]*entities.AchievementProgress, error) {
	catalog, err := s.achievementRepo.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}

	unlocks, err := s.achievementRepo.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocks: %w", err)
	}
	unlockedAt := make(map[uuid.UUID]time.Time, len(unlocks))
	for _, ua := range unlocks {
		unlockedAt[ua.AchievementID] = ua.UnlockedAt
	}

	progress := make([]*entities.AchievementProgress, 0, len(catalog))
	for _, a := range catalog {
		p := &entities.AchievementProgress{Achievement: a}
		if at, ok := unlockedAt[a.ID]; ok {
			p.Unlocked = true
			p.UnlockedAt = &at
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// Stats builds the profile summary surface
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*entities.UserStats, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.achievementRepo.CountUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unlocks: %w", err)
	}
	return &entities.UserStats{
		Username:             user.Username,
		Rank:                 user.Rank,
		TotalXP:              user.TotalXP,
		VirtualBalance:       user.VirtualBalance.String(),
		AchievementsUnlocked: count,
	}, nil
}

func (s *Service) buildSnapshot(ctx context.Context, userID uuid.UUID) (*ProgressSnapshot, error) {
	stats, err := s.transactionRepo.StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade stats: %w", err)
	}
	portfolioCount, err := s.portfolioRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count portfolios: %w", err)
	}
	symbols, err := s.portfolioRepo.DistinctSymbols(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load held symbols: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProgressSnapshot{
		TotalTrades:     stats.TotalTrades,
		BuyTrades:       stats.BuyTrades,
		SellTrades:      stats.SellTrades,
		MaxTradeValue:   stats.MaxTradeValue,
		PortfolioCount:  portfolioCount,
		DistinctSymbols: len(symbols),
		TotalXP:         user.TotalXP,
	}, nil
}

func (s *Service) unlockedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	unlocks, err := s.achievementRepo.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocks: %w", err)
	}
	set := make(map[uuid.UUID]bool, len(unlocks))
	for _, ua := range unlocks {
		set[ua.AchievementID] = true
	}
	return set, nil
}
