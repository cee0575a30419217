package portfolio

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// Mock implementations for testing
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) Create(ctx context.Context, p *entities.Portfolio) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, name, description string) error {
	args := m.Called(ctx, id, name, description)
	return args.Error(0)
}

func (m *MockPortfolioRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*entities.Transaction, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Recent(ctx context.Context, portfolioID uuid.UUID, n int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, portfolioID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) AggregatesByPortfolio(ctx context.Context, portfolioID uuid.UUID) (*entities.LedgerAggregates, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerAggregates), args.Error(1)
}

func strPtr(s string) *string { return &s }

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		DefaultStartingCash: 10000,
		MinStartingCash:     1000,
		MaxStartingCash:     100000,
	}
}

func createTestService() (*Service, *MockPortfolioRepository, *MockTransactionRepository) {
	portfolioRepo := new(MockPortfolioRepository)
	transactionRepo := new(MockTransactionRepository)
	service := NewService(portfolioRepo, transactionRepo, testGameConfig(), logger.Nop())
	return service, portfolioRepo, transactionRepo
}

func TestCreate_DefaultStartingCash(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	userID := uuid.New()

	portfolioRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	p, err := service.Create(context.Background(), userID, "Main", "", decimal.Zero)

	require.NoError(t, err)
	assert.True(t, p.CashBalance.Equal(decimal.NewFromInt(10000)))
	assert.True(t, p.IsActive)
	assert.True(t, p.TotalInvested.IsZero())
	assert.Empty(t, p.Holdings)
}

func TestCreate_ClampsStartingCash(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	portfolioRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		requested string
		want      string
	}{
		{"500", "1000"},      // below minimum
		{"1000", "1000"},     // at minimum
		{"42000", "42000"},   // in range
		{"100000", "100000"}, // at maximum
		{"250000", "100000"}, // above maximum
	}

	for _, tt := range tests {
		p, err := service.Create(ctx, userID, "Main", "", decimal.RequireFromString(tt.requested))
		require.NoError(t, err)
		assert.True(t, p.CashBalance.Equal(decimal.RequireFromString(tt.want)),
			"requested %s, got %s", tt.requested, p.CashBalance)
	}
}

func TestCreate_RequiresName(t *testing.T) {
	service, portfolioRepo, _ := createTestService()

	_, err := service.Create(context.Background(), uuid.New(), "", "", decimal.Zero)

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code)
	portfolioRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet_ForbiddenForNonOwner(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	owner := uuid.New()
	p := &entities.Portfolio{ID: uuid.New(), UserID: owner, IsActive: true}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := service.Get(context.Background(), uuid.New(), p.ID)

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeForbidden, senseiErr.Code)
}

func TestGet_NotFound(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	portfolioID := uuid.New()

	portfolioRepo.On("GetByID", mock.Anything, portfolioID).Return(nil, repositories.ErrNotFound)

	_, err := service.Get(context.Background(), uuid.New(), portfolioID)

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotFound, senseiErr.Code)
}

func TestUpdate_KeepsUnsetFields(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	userID := uuid.New()
	p := &entities.Portfolio{ID: uuid.New(), UserID: userID, Name: "Main", Description: "long term"}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("UpdateMetadata", mock.Anything, p.ID, "Renamed", "long term").Return(nil)

	updated, err := service.Update(context.Background(), userID, p.ID, strPtr("Renamed"), nil)

	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "long term", updated.Description)
	portfolioRepo.AssertExpectations(t)
}

func TestUpdate_ClearsDescription(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	userID := uuid.New()
	p := &entities.Portfolio{ID: uuid.New(), UserID: userID, Name: "Main", Description: "long term"}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	portfolioRepo.On("UpdateMetadata", mock.Anything, p.ID, "Main", "").Return(nil)

	updated, err := service.Update(context.Background(), userID, p.ID, nil, strPtr(""))

	require.NoError(t, err)
	assert.Empty(t, updated.Description)
	portfolioRepo.AssertExpectations(t)
}

func TestUpdate_RejectsEmptyName(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	userID := uuid.New()
	p := &entities.Portfolio{ID: uuid.New(), UserID: userID, Name: "Main"}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := service.Update(context.Background(), userID, p.ID, strPtr(""), nil)

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code)
	portfolioRepo.AssertNotCalled(t, "UpdateMetadata",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_ChecksOwnershipFirst(t *testing.T) {
	service, portfolioRepo, _ := createTestService()
	owner := uuid.New()
	p := &entities.Portfolio{ID: uuid.New(), UserID: owner}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	err := service.Delete(context.Background(), uuid.New(), p.ID)

	require.Error(t, err)
	portfolioRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestPerformance_AssemblesView(t *testing.T) {
	service, portfolioRepo, transactionRepo := createTestService()
	userID := uuid.New()
	p := &entities.Portfolio{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          "Main",
		CashBalance:   decimal.NewFromInt(9800),
		TotalInvested: decimal.NewFromInt(200),
		Holdings: []entities.Holding{
			{Symbol: "BTC", Quantity: decimal.NewFromInt(2), AvgBuyPrice: decimal.NewFromInt(100)},
		},
	}
	recent := []*entities.Transaction{
		{ID: uuid.New(), Symbol: "BTC", Type: entities.TradeTypeBuy},
	}

	portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	transactionRepo.On("AggregatesByPortfolio", mock.Anything, p.ID).Return(&entities.LedgerAggregates{
		TotalBought: decimal.NewFromInt(200),
		TotalSold:   decimal.Zero,
		TotalTrades: 1,
		BuyTrades:   1,
	}, nil)
	transactionRepo.On("Recent", mock.Anything, p.ID, 5).Return(recent, nil)

	perf, err := service.Performance(context.Background(), userID, p.ID)

	require.NoError(t, err)
	assert.Equal(t, p.Name, perf.PortfolioName)
	assert.True(t, perf.TotalBought.Equal(decimal.NewFromInt(200)))
	assert.True(t, perf.TotalCostBasis.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 1, perf.TotalTrades)
	assert.Len(t, perf.RecentTrades, 1)
}

func TestHistory_SpansPortfolios(t *testing.T) {
	service, _, transactionRepo := createTestService()
	userID := uuid.New()
	transactions := []*entities.Transaction{
		{ID: uuid.New(), PortfolioID: uuid.New(), Symbol: "ETH", Type: entities.TradeTypeSell},
		{ID: uuid.New(), PortfolioID: uuid.New(), Symbol: "BTC", Type: entities.TradeTypeBuy},
	}

	transactionRepo.On("ListByUser", mock.Anything, userID).Return(transactions, nil)

	got, err := service.History(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ETH", got[0].Symbol)
}
