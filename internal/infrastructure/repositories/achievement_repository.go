package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
)

// AchievementRepository reads the achievement catalog and records unlocks
type AchievementRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *sqlx.DB, logger *zap.Logger) *AchievementRepository {
	return &AchievementRepository{
		db:     db,
		logger: logger,
	}
}

// ListCatalog returns every achievement, bronze first
func (r *AchievementRepository) ListCatalog(ctx context.Context) ([]*entities.Achievement, error) {
	achievements := []*entities.Achievement{}
	query := `
		SELECT id, name, description, reference, image_url,
		       requirement_key, requirement_value, tier, xp_reward
		FROM achievements
		ORDER BY array_position(ARRAY['bronze', 'silver', 'gold', 'legendary'], tier), name`

	if err := r.db.SelectContext(ctx, &achievements, query); err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}
	return achievements, nil
}

// ListUnlocks returns a user's unlock records
func (r *AchievementRepository) ListUnlocks(ctx context.Context, userID uuid.UUID) ([]*entities.UserAchievement, error) {
	unlocks := []*entities.UserAchievement{}
	query := `
		SELECT id, user_id, achievement_id, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at`

	if err := r.db.SelectContext(ctx, &unlocks, query, userID); err != nil {
		return nil, fmt.Errorf("failed to load user achievements: %w", err)
	}
	return unlocks, nil
}

// CreateUnlock records an unlock. The unique (user_id, achievement_id)
// constraint is the authoritative guard against double grants; a duplicate
// insert surfaces as ErrDuplicate and must not be treated as success.
func (r *AchievementRepository) CreateUnlock(ctx context.Context, ua *entities.UserAchievement) error {
	query := `
		INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, ua.ID, ua.UserID, ua.AchievementID, ua.UnlockedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create unlock",
			zap.Error(err),
			zap.String("user_id", ua.UserID.String()),
			zap.String("achievement_id", ua.AchievementID.String()),
		)
		return fmt.Errorf("failed to create unlock: %w", err)
	}
	return nil
}

// CountUnlocks counts a user's unlocked achievements
func (r *AchievementRepository) CountUnlocks(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id = $1`, userID,
	); err != nil {
		return 0, fmt.Errorf("failed to count unlocks: %w", err)
	}
	return count, nil
}
