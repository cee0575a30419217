package trading

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sensei-service/sensei_service/internal/domain/authz"
	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
	"github.com/sensei-service/sensei_service/pkg/metrics"
)

// maxConflictRetries bounds how often a trade is re-validated and replayed
// after losing an optimistic write race on the portfolio row.
const maxConflictRetries = 3

// Service executes trades: it validates the order, applies the portfolio
// effects, appends the ledger entry and drives progression.
type Service struct {
	portfolioRepo   PortfolioRepository
	transactionRepo TransactionLedger
	progression     ProgressionEngine
	logger          *logger.Logger
}

// PortfolioRepository interface for portfolio reads and atomic writes
type PortfolioRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error)
	Save(ctx context.Context, p *entities.Portfolio) error
}

// TransactionLedger interface for the append-only trade ledger
type TransactionLedger interface {
	Append(ctx context.Context, t *entities.Transaction) error
}

// ProgressionEngine interface for XP, rank and achievement side effects
type ProgressionEngine interface {
	TradeXP(tradeType entities.TradeType) int64
	AwardTradeXP(ctx context.Context, userID uuid.UUID, tradeType entities.TradeType) (int64, error)
	Sweep(ctx context.Context, userID uuid.UUID) ([]*entities.Achievement, error)
}

// NewService creates a new trading service
func NewService(
	portfolioRepo PortfolioRepository,
	transactionRepo TransactionLedger,
	progression ProgressionEngine,
	logger *logger.Logger,
) *Service {
	return &Service{
		portfolioRepo:   portfolioRepo,
		transactionRepo: transactionRepo,
		progression:     progression,
		logger:          logger,
	}
}

// ExecuteTrade runs one buy or sell against a portfolio. Validation failures
// and business rejections leave the portfolio, ledger and progression state
// untouched.
func (s *Service) ExecuteTrade(ctx context.Context, userID, portfolioID uuid.UUID, order *entities.TradeOrder) (*entities.TradeResult, error) {
	// Unvalidated client input never becomes a metric label value.
	typeLabel := "invalid"
	if order.Type.Valid() {
		typeLabel = string(order.Type)
	}

	if err := validateOrder(order); err != nil {
		metrics.RecordTrade(typeLabel, "rejected", 0)
		return nil, err
	}

	// Total value is always recomputed server-side.
	totalValue := order.Quantity.Mul(order.PricePerUnit)

	var portfolio *entities.Portfolio
	for attempt := 0; ; attempt++ {
		var err error
		portfolio, err = s.loadOwnedPortfolio(ctx, userID, portfolioID)
		if err != nil {
			metrics.RecordTrade(typeLabel, "rejected", 0)
			return nil, err
		}

		// Business checks run against the freshly read state on every
		// attempt, so a conflicting writer cannot sneak a trade past them.
		if err := applyTrade(portfolio, order, totalValue); err != nil {
			metrics.RecordTrade(typeLabel, "rejected", 0)
			return nil, err
		}

		err = s.portfolioRepo.Save(ctx, portfolio)
		if err == nil {
			break
		}
		if stderrors.Is(err, repositories.ErrVersionConflict) && attempt < maxConflictRetries {
			s.logger.CtxWarn(ctx, "portfolio write conflict, retrying trade",
				"portfolio_id", portfolioID,
				"attempt", attempt+1,
			)
			continue
		}
		metrics.RecordTrade(typeLabel, "failed", 0)
		return nil, fmt.Errorf("failed to persist portfolio: %w", err)
	}

	// Past this point the portfolio effects are committed. Failures below
	// must surface as a partial application, never as a silent rollback.
	transaction := &entities.Transaction{
		ID:           uuid.New(),
		PortfolioID:  portfolio.ID,
		UserID:       userID,
		Type:         order.Type,
		Symbol:       order.Symbol,
		DisplayName:  order.DisplayName,
		ImageURL:     order.ImageURL,
		Quantity:     order.Quantity,
		PricePerUnit: order.PricePerUnit,
		TotalValue:   totalValue,
		XPAwarded:    s.progression.TradeXP(order.Type),
		Note:         order.Note,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.transactionRepo.Append(ctx, transaction); err != nil {
		s.logger.CtxError(ctx, "ledger append failed after portfolio write",
			"portfolio_id", portfolio.ID,
			"symbol", order.Symbol,
			"error", err,
		)
		metrics.RecordTrade(typeLabel, "partial", 0)
		return nil, errors.TradePartiallyApplied("ledger_append", err)
	}

	xpAwarded, err := s.progression.AwardTradeXP(ctx, userID, order.Type)
	if err != nil {
		s.logger.CtxError(ctx, "xp award failed after trade",
			"user_id", userID,
			"transaction_id", transaction.ID,
			"error", err,
		)
		metrics.RecordTrade(typeLabel, "partial", 0)
		return nil, errors.TradePartiallyApplied("xp_award", err)
	}

	// The sweep is best-effort: a progression hiccup must not fail an
	// already-settled trade.
	newlyUnlocked, err := s.progression.Sweep(ctx, userID)
	if err != nil {
		s.logger.CtxWarn(ctx, "achievement sweep failed, continuing without unlocks",
			"user_id", userID,
			"error", err,
		)
		newlyUnlocked = nil
	}

	totalFloat, _ := totalValue.Float64()
	metrics.RecordTrade(typeLabel, "success", totalFloat)
	s.logger.CtxInfo(ctx, "trade executed",
		"user_id", userID,
		"portfolio_id", portfolio.ID,
		"type", order.Type,
		"symbol", order.Symbol,
		"total_value", totalValue.String(),
		"xp_awarded", xpAwarded,
	)

	return &entities.TradeResult{
		Transaction:      transaction,
		UpdatedPortfolio: portfolio,
		NewlyUnlocked:    newlyUnlocked,
		XPAwarded:        xpAwarded,
	}, nil
}

func (s *Service) loadOwnedPortfolio(ctx context.Context, userID, portfolioID uuid.UUID) (*entities.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return nil, errors.NotFound("portfolio")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if err := authz.RequireOwner(userID, portfolio.UserID, "portfolio"); err != nil {
		return nil, err
	}
	return portfolio, nil
}

// validateOrder runs the structural checks that precede any persistence
// reads: trade type, then quantity, then price, then required fields.
func validateOrder(order *entities.TradeOrder) error {
	if !order.Type.Valid() {
		return errors.ValidationError("trade type must be 'buy' or 'sell'")
	}
	if !order.Quantity.IsPositive() {
		return errors.ValidationError("quantity must be greater than zero")
	}
	if !order.PricePerUnit.IsPositive() {
		return errors.ValidationError("price per unit must be greater than zero")
	}
	if order.Symbol == "" || order.DisplayName == "" {
		return errors.ValidationError("symbol and display name are required")
	}
	return nil
}

// applyTrade mutates the in-memory portfolio with the order's effects, or
// returns a business rejection leaving it untouched for the caller's
// purposes (rejected portfolios are never saved).
func applyTrade(p *entities.Portfolio, order *entities.TradeOrder, totalValue decimal.Decimal) error {
	if order.Type == entities.TradeTypeBuy {
		return applyBuy(p, order, totalValue)
	}
	return applySell(p, order, totalValue)
}

func applyBuy(p *entities.Portfolio, order *entities.TradeOrder, totalValue decimal.Decimal) error {
	if p.CashBalance.LessThan(totalValue) {
		return errors.InsufficientFunds(p.CashBalance.String(), totalValue.String())
	}

	p.CashBalance = p.CashBalance.Sub(totalValue)
	p.TotalInvested = p.TotalInvested.Add(totalValue)

	if i := p.FindHolding(order.Symbol); i >= 0 {
		h := &p.Holdings[i]
		// Weighted average: blend the existing position with the new lot at
		// full precision.
		oldCost := h.Quantity.Mul(h.AvgBuyPrice)
		newQuantity := h.Quantity.Add(order.Quantity)
		h.AvgBuyPrice = oldCost.Add(totalValue).Div(newQuantity)
		h.Quantity = newQuantity
		h.UpdatedAt = time.Now().UTC()
		return nil
	}

	now := time.Now().UTC()
	p.Holdings = append(p.Holdings, entities.Holding{
		ID:          uuid.New(),
		PortfolioID: p.ID,
		Symbol:      order.Symbol,
		DisplayName: order.DisplayName,
		ImageURL:    order.ImageURL,
		Quantity:    order.Quantity,
		AvgBuyPrice: order.PricePerUnit,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return nil
}

func applySell(p *entities.Portfolio, order *entities.TradeOrder, totalValue decimal.Decimal) error {
	i := p.FindHolding(order.Symbol)
	if i < 0 {
		return errors.AssetNotHeld(order.Symbol)
	}
	h := &p.Holdings[i]
	if h.Quantity.LessThan(order.Quantity) {
		return errors.InsufficientHoldings(order.Symbol, h.Quantity.String(), order.Quantity.String())
	}

	p.CashBalance = p.CashBalance.Add(totalValue)
	// TotalInvested tracks lifetime buys and never decreases on sells.

	h.Quantity = h.Quantity.Sub(order.Quantity)
	if h.Quantity.IsZero() {
		p.Holdings = append(p.Holdings[:i], p.Holdings[i+1:]...)
		return nil
	}
	// Average buy price is unchanged by sells.
	h.UpdatedAt = time.Now().UTC()
	return nil
}
