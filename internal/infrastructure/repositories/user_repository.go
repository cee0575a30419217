package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
)

// UserRepository persists user accounts and progression state
type UserRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (
			id, username, email, password_hash, avatar, virtual_balance,
			total_xp, rank, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Avatar,
		user.VirtualBalance, user.TotalXP, user.Rank, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("User created", zap.String("user_id", user.ID.String()))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	query := `
		SELECT id, username, email, password_hash, avatar, virtual_balance,
		       total_xp, rank, created_at, updated_at
		FROM users
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get user", zap.Error(err), zap.String("user_id", id.String()))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	query := `
		SELECT id, username, email, password_hash, avatar, virtual_balance,
		       total_xp, rank, created_at, updated_at
		FROM users
		WHERE email = $1`

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates mutable profile fields only
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, username, email, avatar string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET username = $1, email = $2, avatar = $3, updated_at = NOW()
		WHERE id = $4`,
		username, email, avatar, id,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddXP atomically increments a user's XP and returns the new total. The
// increment happens in the database so concurrent awards never lose updates.
func (r *UserRepository) AddXP(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var total int64
	query := `
		UPDATE users SET total_xp = total_xp + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING total_xp`

	if err := r.db.GetContext(ctx, &total, query, delta, id); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		r.logger.Error("Failed to add XP", zap.Error(err), zap.String("user_id", id.String()))
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}
	return total, nil
}

// SetRank records a recomputed rank
func (r *UserRepository) SetRank(ctx context.Context, id uuid.UUID, rank entities.Rank) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET rank = $1, updated_at = NOW() WHERE id = $2`,
		rank, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set rank: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
