package trading

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
	"github.com/sensei-service/sensei_service/pkg/metrics"
)

// Mock implementations for testing
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) Save(ctx context.Context, p *entities.Portfolio) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockTransactionLedger struct {
	mock.Mock
}

func (m *MockTransactionLedger) Append(ctx context.Context, t *entities.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type MockProgressionEngine struct {
	mock.Mock
}

func (m *MockProgressionEngine) TradeXP(tradeType entities.TradeType) int64 {
	args := m.Called(tradeType)
	return args.Get(0).(int64)
}

func (m *MockProgressionEngine) AwardTradeXP(ctx context.Context, userID uuid.UUID, tradeType entities.TradeType) (int64, error) {
	args := m.Called(ctx, userID, tradeType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProgressionEngine) Sweep(ctx context.Context, userID uuid.UUID) ([]*entities.Achievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Achievement), args.Error(1)
}

func createTestService() (*Service, *MockPortfolioRepository, *MockTransactionLedger, *MockProgressionEngine) {
	portfolioRepo := new(MockPortfolioRepository)
	ledger := new(MockTransactionLedger)
	progression := new(MockProgressionEngine)
	service := NewService(portfolioRepo, ledger, progression, logger.Nop())
	return service, portfolioRepo, ledger, progression
}

func testPortfolio(userID uuid.UUID, cash string) *entities.Portfolio {
	return &entities.Portfolio{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          "Main",
		CashBalance:   decimal.RequireFromString(cash),
		TotalInvested: decimal.Zero,
		IsActive:      true,
		Version:       1,
		Holdings:      []entities.Holding{},
	}
}

func buyOrder(symbol, quantity, price string) *entities.TradeOrder {
	return &entities.TradeOrder{
		Type:         entities.TradeTypeBuy,
		Symbol:       symbol,
		DisplayName:  symbol,
		Quantity:     decimal.RequireFromString(quantity),
		PricePerUnit: decimal.RequireFromString(price),
	}
}

func sellOrder(symbol, quantity, price string) *entities.TradeOrder {
	o := buyOrder(symbol, quantity, price)
	o.Type = entities.TradeTypeSell
	return o
}

func stubHappyProgression(progression *MockProgressionEngine, userID uuid.UUID, xp int64) {
	progression.On("TradeXP", mock.Anything).Return(xp)
	progression.On("AwardTradeXP", mock.Anything, userID, mock.Anything).Return(xp, nil)
	progression.On("Sweep", mock.Anything, userID).Return([]*entities.Achievement{}, nil)
}

func TestExecuteTrade_BuyCreatesHolding(t *testing.T) {
	service, portfolioRepo, ledger, progression := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("Save", mock.Anything, p).Return(nil)
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	stubHappyProgression(progression, userID, 10)

	result, err := service.ExecuteTrade(context.Background(), userID, p.ID, buyOrder("BTC", "2", "100"))

	require.NoError(t, err)
	assert.True(t, result.UpdatedPortfolio.CashBalance.Equal(decimal.RequireFromString("9800")))
	assert.True(t, result.UpdatedPortfolio.TotalInvested.Equal(decimal.RequireFromString("200")))
	require.Len(t, result.UpdatedPortfolio.Holdings, 1)
	assert.Equal(t, "BTC", result.UpdatedPortfolio.Holdings[0].Symbol)
	assert.True(t, result.UpdatedPortfolio.Holdings[0].Quantity.Equal(decimal.RequireFromString("2")))
	assert.True(t, result.UpdatedPortfolio.Holdings[0].AvgBuyPrice.Equal(decimal.RequireFromString("100")))
	assert.True(t, result.Transaction.TotalValue.Equal(decimal.RequireFromString("200")))
	assert.Equal(t, int64(10), result.XPAwarded)
	portfolioRepo.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestExecuteTrade_BuyBlendsWeightedAverage(t *testing.T) {
	service, portfolioRepo, ledger, progression := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")
	p.Holdings = []entities.Holding{{
		ID:          uuid.New(),
		PortfolioID: p.ID,
		Symbol:      "ETH",
		DisplayName: "ETH",
		Quantity:    decimal.RequireFromString("2"),
		AvgBuyPrice: decimal.RequireFromString("100"),
	}}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("Save", mock.Anything, p).Return(nil)
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	stubHappyProgression(progression, userID, 10)

	result, err := service.ExecuteTrade(context.Background(), userID, p.ID, buyOrder("ETH", "2", "200"))

	require.NoError(t, err)
	require.Len(t, result.UpdatedPortfolio.Holdings, 1)
	h := result.UpdatedPortfolio.Holdings[0]
	assert.True(t, h.Quantity.Equal(decimal.RequireFromString("4")))
	// (2*100 + 2*200) / 4 = 150
	assert.True(t, h.AvgBuyPrice.Equal(decimal.RequireFromString("150")))
}

func TestExecuteTrade_WorkedExample(t *testing.T) {
	// 10000 cash, buy 2 @ 100 -> 9800, sell 1 @ 150 -> 9950,
	// sell 1 @ 120 -> 10070 and the holding disappears.
	service, portfolioRepo, ledger, progression := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("Save", mock.Anything, p).Return(nil)
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	stubHappyProgression(progression, userID, 10)

	ctx := context.Background()

	_, err := service.ExecuteTrade(ctx, userID, p.ID, buyOrder("BTC", "2", "100"))
	require.NoError(t, err)
	assert.True(t, p.CashBalance.Equal(decimal.RequireFromString("9800")))

	_, err = service.ExecuteTrade(ctx, userID, p.ID, sellOrder("BTC", "1", "150"))
	require.NoError(t, err)
	assert.True(t, p.CashBalance.Equal(decimal.RequireFromString("9950")))
	require.Len(t, p.Holdings, 1)
	// Average buy price is untouched by sells.
	assert.True(t, p.Holdings[0].AvgBuyPrice.Equal(decimal.RequireFromString("100")))

	result, err := service.ExecuteTrade(ctx, userID, p.ID, sellOrder("BTC", "1", "120"))
	require.NoError(t, err)
	assert.True(t, p.CashBalance.Equal(decimal.RequireFromString("10070")))
	assert.Empty(t, result.UpdatedPortfolio.Holdings)
	// Lifetime invested total never decreases on sells.
	assert.True(t, p.TotalInvested.Equal(decimal.RequireFromString("200")))
}

func TestExecuteTrade_InsufficientFunds(t *testing.T) {
	service, portfolioRepo, _, progression := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "100")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := service.ExecuteTrade(context.Background(), userID, p.ID, buyOrder("BTC", "2", "100"))

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInsufficientFunds, senseiErr.Code)
	assert.Equal(t, "100", senseiErr.Details["available"])
	assert.Equal(t, "200", senseiErr.Details["required"])
	// Portfolio state is untouched by a rejected trade.
	assert.True(t, p.CashBalance.Equal(decimal.RequireFromString("100")))
	portfolioRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	progression.AssertNotCalled(t, "AwardTradeXP", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteTrade_SellAssetNotHeld(t *testing.T) {
	service, portfolioRepo, _, _ := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := service.ExecuteTrade(context.Background(), userID, p.ID, sellOrder("DOGE", "1", "1"))

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAssetNotHeld, senseiErr.Code)
}

func TestExecuteTrade_SellInsufficientHoldings(t *testing.T) {
	service, portfolioRepo, _, _ := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")
	p.Holdings = []entities.Holding{{
		Symbol:      "BTC",
		DisplayName: "BTC",
		Quantity:    decimal.RequireFromString("0.5"),
		AvgBuyPrice: decimal.RequireFromString("100"),
	}}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := service.ExecuteTrade(context.Background(), userID, p.ID, sellOrder("BTC", "1", "100"))

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInsufficientHoldings, senseiErr.Code)
	assert.Equal(t, "0.5", senseiErr.Details["available"])
	// The holding is not reduced by the rejected sell.
	assert.True(t, p.Holdings[0].Quantity.Equal(decimal.RequireFromString("0.5")))
}

func TestExecuteTrade_ValidationBeforeLookup(t *testing.T) {
	service, portfolioRepo, _, _ := createTestService()

	order := buyOrder("BTC", "1", "100")
	order.Type = "short"

	_, err := service.ExecuteTrade(context.Background(), uuid.New(), uuid.New(), order)

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code)
	portfolioRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestExecuteTrade_UnknownTypeGetsFixedMetricLabel(t *testing.T) {
	service, _, _, _ := createTestService()
	before := testutil.ToFloat64(metrics.TradesTotal.WithLabelValues("invalid", "rejected"))

	order := buyOrder("BTC", "1", "100")
	order.Type = "short"

	_, err := service.ExecuteTrade(context.Background(), uuid.New(), uuid.New(), order)

	require.Error(t, err)
	after := testutil.ToFloat64(metrics.TradesTotal.WithLabelValues("invalid", "rejected"))
	assert.Equal(t, before+1, after)
}

func TestExecuteTrade_RejectsNonPositiveAmounts(t *testing.T) {
	service, _, _, _ := createTestService()
	ctx := context.Background()

	for _, order := range []*entities.TradeOrder{
		buyOrder("BTC", "0", "100"),
		buyOrder("BTC", "-1", "100"),
		buyOrder("BTC", "1", "0"),
		buyOrder("BTC", "1", "-5"),
	} {
		_, err := service.ExecuteTrade(ctx, uuid.New(), uuid.New(), order)
		require.Error(t, err)
		senseiErr, ok := errors.AsSenseiError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code)
	}
}

func TestExecuteTrade_ForbiddenForNonOwner(t *testing.T) {
	service, portfolioRepo, _, _ := createTestService()
	owner := uuid.New()
	p := testPortfolio(owner, "10000")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := service.ExecuteTrade(context.Background(), uuid.New(), p.ID, buyOrder("BTC", "1", "100"))

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeForbidden, senseiErr.Code)
}

func TestExecuteTrade_PortfolioNotFound(t *testing.T) {
	service, portfolioRepo, _, _ := createTestService()
	portfolioID := uuid.New()

	portfolioRepo.On("GetByID", mock.Anything, portfolioID).Return(nil, repositories.ErrNotFound)

	_, err := service.ExecuteTrade(context.Background(), uuid.New(), portfolioID, buyOrder("BTC", "1", "100"))

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotFound, senseiErr.Code)
}

func TestExecuteTrade_RetriesOnVersionConflict(t *testing.T) {
	service, portfolioRepo, ledger, progression := createTestService()
	userID := uuid.New()
	portfolioID := uuid.New()

	first := testPortfolio(userID, "10000")
	first.ID = portfolioID
	second := testPortfolio(userID, "10000")
	second.ID = portfolioID

	portfolioRepo.On("GetByID", mock.Anything, portfolioID).Return(first, nil).Once()
	portfolioRepo.On("GetByID", mock.Anything, portfolioID).Return(second, nil).Once()
	portfolioRepo.On("Save", mock.Anything, first).Return(repositories.ErrVersionConflict).Once()
	portfolioRepo.On("Save", mock.Anything, second).Return(nil).Once()
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	stubHappyProgression(progression, userID, 10)

	result, err := service.ExecuteTrade(context.Background(), userID, portfolioID, buyOrder("BTC", "1", "100"))

	require.NoError(t, err)
	assert.True(t, result.UpdatedPortfolio.CashBalance.Equal(decimal.RequireFromString("9900")))
	portfolioRepo.AssertExpectations(t)
}

func TestExecuteTrade_LedgerFailureIsPartial(t *testing.T) {
	service, portfolioRepo, ledger, progression := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("Save", mock.Anything, p).Return(nil)
	progression.On("TradeXP", mock.Anything).Return(int64(10))
	ledger.On("Append", mock.Anything, mock.Anything).Return(fmt.Errorf("connection reset"))

	_, err := service.ExecuteTrade(context.Background(), userID, p.ID, buyOrder("BTC", "1", "100"))

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTradePartial, senseiErr.Code)
	assert.Equal(t, "ledger_append", senseiErr.Details["failed_step"])
}

func TestExecuteTrade_SweepFailureDegrades(t *testing.T) {
	service, portfolioRepo, ledger, progression := createTestService()
	userID := uuid.New()
	p := testPortfolio(userID, "10000")

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("Save", mock.Anything, p).Return(nil)
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	progression.On("TradeXP", mock.Anything).Return(int64(10))
	progression.On("AwardTradeXP", mock.Anything, userID, mock.Anything).Return(int64(10), nil)
	progression.On("Sweep", mock.Anything, userID).Return(nil, fmt.Errorf("catalog unavailable"))

	result, err := service.ExecuteTrade(context.Background(), userID, p.ID, buyOrder("BTC", "1", "100"))

	require.NoError(t, err)
	assert.Empty(t, result.NewlyUnlocked)
	assert.Equal(t, int64(10), result.XPAwarded)
}
