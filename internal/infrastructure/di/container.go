package di

import (
	"github.com/jmoiron/sqlx"

	"github.com/sensei-service/sensei_service/internal/domain/services/portfolio"
	"github.com/sensei-service/sensei_service/internal/domain/services/progression"
	"github.com/sensei-service/sensei_service/internal/domain/services/trading"
	"github.com/sensei-service/sensei_service/internal/domain/services/users"
	"github.com/sensei-service/sensei_service/internal/infrastructure/cache"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/marketdata"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// Container wires repositories and services together for the API layer
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *sqlx.DB
	Cache  *cache.Cache

	UserRepo        *repositories.UserRepository
	PortfolioRepo   *repositories.PortfolioRepository
	TransactionRepo *repositories.TransactionRepository
	AchievementRepo *repositories.AchievementRepository

	UserService        *users.Service
	PortfolioService   *portfolio.Service
	ProgressionService *progression.Service
	TradingService     *trading.Service
	MarketData         *marketdata.Client
}

// NewContainer builds the full dependency graph
func NewContainer(cfg *config.Config, log *logger.Logger, db *sqlx.DB, c *cache.Cache) *Container {
	zapLog := log.Zap()

	userRepo := repositories.NewUserRepository(db, zapLog)
	portfolioRepo := repositories.NewPortfolioRepository(db, zapLog)
	transactionRepo := repositories.NewTransactionRepository(db, zapLog)
	achievementRepo := repositories.NewAchievementRepository(db, zapLog)

	progressionService := progression.NewService(
		userRepo,
		achievementRepo,
		transactionRepo,
		portfolioRepo,
		cfg.Game.BuyXP,
		cfg.Game.SellXP,
		log,
	)
	tradingService := trading.NewService(portfolioRepo, transactionRepo, progressionService, log)
	portfolioService := portfolio.NewService(portfolioRepo, transactionRepo, cfg.Game, log)
	userService := users.NewService(userRepo, cfg.JWT, cfg.Game, log)
	marketData := marketdata.NewClient(cfg.CoinGecko, c, log)

	return &Container{
		Config:             cfg,
		Logger:             log,
		DB:                 db,
		Cache:              c,
		UserRepo:           userRepo,
		PortfolioRepo:      portfolioRepo,
		TransactionRepo:    transactionRepo,
		AchievementRepo:    achievementRepo,
		UserService:        userService,
		PortfolioService:   portfolioService,
		ProgressionService: progressionService,
		TradingService:     tradingService,
		MarketData:         marketData,
	}
}
