package portfolio

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sensei-service/sensei_service/internal/domain/authz"
	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// recentTradeCount is how many ledger entries the performance view carries
const recentTradeCount = 5

// Service manages portfolio lifecycle: creation, metadata edits, soft
// deletion and the read-side performance view. Cash and holdings are only
// ever mutated by the trading service.
type Service struct {
	portfolioRepo   PortfolioRepository
	transactionRepo TransactionRepository
	game            config.GameConfig
	logger          *logger.Logger
}

// PortfolioRepository interface for portfolio persistence
type PortfolioRepository interface {
	Create(ctx context.Context, p *entities.Portfolio) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, name, description string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository interface for ledger reads
type TransactionRepository interface {
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*entities.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Transaction, error)
	Recent(ctx context.Context, portfolioID uuid.UUID, n int) ([]*entities.Transaction, error)
	AggregatesByPortfolio(ctx context.Context, portfolioID uuid.UUID) (*entities.LedgerAggregates, error)
}

// NewService creates a new portfolio service
func NewService(
	portfolioRepo PortfolioRepository,
	transactionRepo TransactionRepository,
	game config.GameConfig,
	logger *logger.Logger,
) *Service {
	return &Service{
		portfolioRepo:   portfolioRepo,
		transactionRepo: transactionRepo,
		game:            game,
		logger:          logger,
	}
}

// Create opens a new portfolio. A zero starting cash means "use the
// default"; out-of-range amounts are clamped into bounds rather than
// rejected.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name, description string, startingCash decimal.Decimal) (*entities.Portfolio, error) {
	if name == "" {
		return nil, errors.ValidationError("portfolio name is required")
	}

	now := time.Now().UTC()
	p := &entities.Portfolio{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Description:   description,
		CashBalance:   s.clampStartingCash(startingCash),
		TotalInvested: decimal.Zero,
		IsActive:      true,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
		Holdings:      []entities.Holding{},
	}

	if err := s.portfolioRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	s.logger.CtxInfo(ctx, "portfolio created",
		"user_id", userID,
		"portfolio_id", p.ID,
		"starting_cash", p.CashBalance.String(),
	)
	return p, nil
}

// List returns the user's active portfolios
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error) {
	portfolios, err := s.portfolioRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

// Get returns one portfolio with holdings, enforcing ownership
func (s *Service) Get(ctx context.Context, userID, portfolioID uuid.UUID) (*entities.Portfolio, error) {
	return s.loadOwned(ctx, userID, portfolioID)
}

// Update edits portfolio metadata. A nil field keeps its current value; a
// description sent as an empty string is cleared. The name can never be
// emptied.
func (s *Service) Update(ctx context.Context, userID, portfolioID uuid.UUID, name, description *string) (*entities.Portfolio, error) {
	p, err := s.loadOwned(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	newName := p.Name
	if name != nil {
		if *name == "" {
			return nil, errors.ValidationError("portfolio name cannot be empty")
		}
		newName = *name
	}
	newDescription := p.Description
	if description != nil {
		newDescription = *description
	}
	if err := s.portfolioRepo.UpdateMetadata(ctx, portfolioID, newName, newDescription); err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}
	p.Name = newName
	p.Description = newDescription
	return p, nil
}

// Delete soft-deletes a portfolio. Its ledger history survives.
func (s *Service) Delete(ctx context.Context, userID, portfolioID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, userID, portfolioID); err != nil {
		return err
	}
	if err := s.portfolioRepo.SoftDelete(ctx, portfolioID); err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	s.logger.CtxInfo(ctx, "portfolio deleted", "user_id", userID, "portfolio_id", portfolioID)
	return nil
}

// Performance assembles the read-side view: current state, ledger totals
// and the most recent trades, newest first.
func (s *Service) Performance(ctx context.Context, userID, portfolioID uuid.UUID) (*entities.PortfolioPerformance, error) {
	p, err := s.loadOwned(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	agg, err := s.transactionRepo.AggregatesByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}
	recent, err := s.transactionRepo.Recent(ctx, portfolioID, recentTradeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent trades: %w", err)
	}

	return &entities.PortfolioPerformance{
		PortfolioID:    p.ID,
		PortfolioName:  p.Name,
		CashBalance:    p.CashBalance,
		Holdings:       p.Holdings,
		TotalInvested:  p.TotalInvested,
		TotalCostBasis: p.TotalCostBasis(),
		TotalBought:    agg.TotalBought,
		TotalSold:      agg.TotalSold,
		TotalTrades:    agg.TotalTrades,
		BuyTrades:      agg.BuyTrades,
		SellTrades:     agg.SellTrades,
		RecentTrades:   recent,
	}, nil
}

// History returns the caller's ledger across all portfolios, newest first
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]*entities.Transaction, error) {
	transactions, err := s.transactionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Transactions returns the portfolio's full ledger history, newest first
func (s *Service) Transactions(ctx context.Context, userID, portfolioID uuid.UUID) ([]*entities.Transaction, error) {
	if _, err := s.loadOwned(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	transactions, err := s.transactionRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (s *Service) loadOwned(ctx context.Context, userID, portfolioID uuid.UUID) (*entities.Portfolio, error) {
	p, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return nil, errors.NotFound("portfolio")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if err := authz.RequireOwner(userID, p.UserID, "portfolio"); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) clampStartingCash(requested decimal.Decimal) decimal.Decimal {
	if requested.IsZero() {
		return decimal.NewFromFloat(s.game.DefaultStartingCash)
	}
	min := decimal.NewFromFloat(s.game.MinStartingCash)
	max := decimal.NewFromFloat(s.game.MaxStartingCash)
	if requested.LessThan(min) {
		return min
	}
	if requested.GreaterThan(max) {
		return max
	}
	return requested
}
