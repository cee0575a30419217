package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/database"
)

// PortfolioRepository persists portfolios and their holdings in PostgreSQL
type PortfolioRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sqlx.DB, logger *zap.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new portfolio with no holdings
func (r *PortfolioRepository) Create(ctx context.Context, p *entities.Portfolio) error {
	query := `
		INSERT INTO portfolios (
			id, user_id, name, description, cash_balance, total_invested,
			is_active, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Name, p.Description, p.CashBalance, p.TotalInvested,
		p.IsActive, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create portfolio", zap.Error(err), zap.String("user_id", p.UserID.String()))
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	r.logger.Debug("Portfolio created", zap.String("portfolio_id", p.ID.String()))
	return nil
}

// GetByID loads a portfolio and its holdings
func (r *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error) {
	var p entities.Portfolio
	query := `
		SELECT id, user_id, name, description, cash_balance, total_invested,
		       is_active, version, created_at, updated_at
		FROM portfolios
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get portfolio", zap.Error(err), zap.String("portfolio_id", id.String()))
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	holdings, err := r.holdingsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Holdings = holdings

	return &p, nil
}

// ListByUser returns the caller's active portfolios, holdings included
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error) {
	var rows []entities.Portfolio
	query := `
		SELECT id, user_id, name, description, cash_balance, total_invested,
		       is_active, version, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1 AND is_active
		ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		r.logger.Error("Failed to list portfolios", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	portfolios := make([]*entities.Portfolio, 0, len(rows))
	for i := range rows {
		holdings, err := r.holdingsFor(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		rows[i].Holdings = holdings
		portfolios = append(portfolios, &rows[i])
	}

	return portfolios, nil
}

// Save writes back a trade-mutated portfolio as one atomic unit. The version
// check makes the read-modify-write safe against concurrent writers: if
// another trade committed first, no row matches and ErrVersionConflict is
// returned so the caller can re-read and retry.
func (r *PortfolioRepository) Save(ctx context.Context, p *entities.Portfolio) error {
	err := database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE portfolios
			SET cash_balance = $1, total_invested = $2, version = version + 1, updated_at = $3
			WHERE id = $4 AND version = $5`,
			p.CashBalance, p.TotalInvested, time.Now().UTC(), p.ID, p.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update portfolio: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrVersionConflict
		}

		// Remove holdings no longer present (fully sold positions)
		kept := make([]string, 0, len(p.Holdings))
		for i := range p.Holdings {
			kept = append(kept, p.Holdings[i].Symbol)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM holdings
			WHERE portfolio_id = $1 AND NOT (symbol = ANY($2))`,
			p.ID, pq.Array(kept),
		); err != nil {
			return fmt.Errorf("failed to prune holdings: %w", err)
		}

		for i := range p.Holdings {
			h := &p.Holdings[i]
			if h.ID == uuid.Nil {
				h.ID = uuid.New()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO holdings (
					id, portfolio_id, symbol, display_name, image_url,
					quantity, avg_buy_price, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
				ON CONFLICT (portfolio_id, symbol) DO UPDATE SET
					display_name = EXCLUDED.display_name,
					image_url = EXCLUDED.image_url,
					quantity = EXCLUDED.quantity,
					avg_buy_price = EXCLUDED.avg_buy_price,
					updated_at = NOW()`,
				h.ID, p.ID, h.Symbol, h.DisplayName, h.ImageURL, h.Quantity, h.AvgBuyPrice,
			); err != nil {
				return fmt.Errorf("failed to upsert holding %s: %w", h.Symbol, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	p.Version++
	return nil
}

// UpdateMetadata changes name and description only
func (r *PortfolioRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, name, description string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE portfolios SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3`,
		name, description, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio metadata: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete retires a portfolio; the row and its ledger remain queryable
func (r *PortfolioRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE portfolios SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft delete portfolio: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByUser counts all of a user's portfolios, retired ones included
func (r *PortfolioRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM portfolios WHERE user_id = $1`, userID,
	); err != nil {
		return 0, fmt.Errorf("failed to count portfolios: %w", err)
	}
	return count, nil
}

// DistinctSymbols returns the union of symbols held across a user's portfolios
func (r *PortfolioRepository) DistinctSymbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var symbols []string
	query := `
		SELECT DISTINCT h.symbol
		FROM holdings h
		JOIN portfolios p ON p.id = h.portfolio_id
		WHERE p.user_id = $1`

	if err := r.db.SelectContext(ctx, &symbols, query, userID); err != nil {
		return nil, fmt.Errorf("failed to collect distinct symbols: %w", err)
	}
	return symbols, nil
}

func (r *PortfolioRepository) holdingsFor(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error) {
	holdings := []entities.Holding{}
	query := `
		SELECT id, portfolio_id, symbol, display_name, image_url,
		       quantity, avg_buy_price, created_at, updated_at
		FROM holdings
		WHERE portfolio_id = $1
		ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &holdings, query, portfolioID); err != nil {
		r.logger.Error("Failed to load holdings", zap.Error(err), zap.String("portfolio_id", portfolioID.String()))
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return holdings, nil
}
