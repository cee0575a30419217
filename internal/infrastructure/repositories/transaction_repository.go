package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
)

// TransactionRepository persists the append-only trade ledger. There is
// deliberately no update or delete method here.
type TransactionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sqlx.DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes a new ledger entry
func (r *TransactionRepository) Append(ctx context.Context, t *entities.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, portfolio_id, user_id, type, symbol, display_name, image_url,
			quantity, price_per_unit, total_value, xp_awarded, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.PortfolioID, t.UserID, t.Type, t.Symbol, t.DisplayName, t.ImageURL,
		t.Quantity, t.PricePerUnit, t.TotalValue, t.XPAwarded, t.Note, t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append transaction", zap.Error(err), zap.String("portfolio_id", t.PortfolioID.String()))
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// ListByPortfolio returns a portfolio's ledger, newest first
func (r *TransactionRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*entities.Transaction, error) {
	transactions := []*entities.Transaction{}
	query := `
		SELECT id, portfolio_id, user_id, type, symbol, display_name, image_url,
		       quantity, price_per_unit, total_value, xp_awarded, note, created_at
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &transactions, query, portfolioID); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// ListByUser returns a user's ledger across all portfolios, newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Transaction, error) {
	transactions := []*entities.Transaction{}
	query := `
		SELECT id, portfolio_id, user_id, type, symbol, display_name, image_url,
		       quantity, price_per_unit, total_value, xp_awarded, note, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &transactions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Recent returns the n most recent entries for a portfolio, newest first
func (r *TransactionRepository) Recent(ctx context.Context, portfolioID uuid.UUID, n int) ([]*entities.Transaction, error) {
	transactions := []*entities.Transaction{}
	query := `
		SELECT id, portfolio_id, user_id, type, symbol, display_name, image_url,
		       quantity, price_per_unit, total_value, xp_awarded, note, created_at
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &transactions, query, portfolioID, n); err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}
	return transactions, nil
}

// AggregatesByPortfolio computes read-side performance totals in SQL
func (r *TransactionRepository) AggregatesByPortfolio(ctx context.Context, portfolioID uuid.UUID) (*entities.LedgerAggregates, error) {
	var agg entities.LedgerAggregates
	query := `
		SELECT
			COALESCE(SUM(total_value) FILTER (WHERE type = 'buy'), 0)  AS total_bought,
			COALESCE(SUM(total_value) FILTER (WHERE type = 'sell'), 0) AS total_sold,
			COUNT(*)                                                   AS total_trades,
			COUNT(*) FILTER (WHERE type = 'buy')                       AS buy_trades,
			COUNT(*) FILTER (WHERE type = 'sell')                      AS sell_trades
		FROM transactions
		WHERE portfolio_id = $1`

	if err := r.db.GetContext(ctx, &agg, query, portfolioID); err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	return &agg, nil
}

// StatsByUser computes trade aggregates across all of a user's portfolios
// for the achievement sweep.
func (r *TransactionRepository) StatsByUser(ctx context.Context, userID uuid.UUID) (*entities.UserTradeStats, error) {
	var stats entities.UserTradeStats
	query := `
		SELECT
			COUNT(*)                              AS total_trades,
			COUNT(*) FILTER (WHERE type = 'buy')  AS buy_trades,
			COUNT(*) FILTER (WHERE type = 'sell') AS sell_trades,
			COALESCE(MAX(total_value), 0)         AS max_trade_value
		FROM transactions
		WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to compute user trade stats: %w", err)
	}
	return &stats, nil
}
