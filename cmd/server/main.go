package main

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/auth"
	"github.com/John840001/decentroz/internal/config"
	"github.com/John840001/decentroz/internal/credit"
	"github.com/John840001/decentroz/internal/directory"
	"github.com/John840001/decentroz/internal/market"
	mware "github.com/John840001/decentroz/internal/middleware"
	"github.com/John840001/decentroz/internal/registry"
	"github.com/John840001/decentroz/internal/storage"
	"github.com/John840001/decentroz/internal/storage/memory"
	"github.com/John840001/decentroz/internal/storage/postgres"
	"github.com/John840001/decentroz/internal/wallet"
)

func main() {
	config.Init()
	cfg := config.Get()

	ctx := context.Background()

	var store storage.Store
	switch cfg.Storage {
	case "memory":
		store = memory.New()
		zap.L().Warn("using in-memory storage, state will not survive restarts")
	default:
		pg, err := postgres.New(ctx, cfg.DB)
		if err != nil {
			zap.L().Fatal("failed to connect to database", zap.Error(err))
		}
		store = pg
	}
	defer store.Close()

	creditSvc := credit.NewService(store, cfg.CreditTokenAddress)
	if err := creditSvc.Bootstrap(ctx, cfg.CreditAdminAddress); err != nil {
		zap.L().Fatal("failed to bootstrap credit token", zap.Error(err))
	}

	registrySvc := registry.NewService(store, cfg.AssetContractAddress, cfg.MarketAddress)
	directorySvc := directory.NewService(store)
	walletSvc := wallet.NewService(store)
	marketSvc := market.NewService(store, cfg.AssetContractAddress,
		cfg.CreditTokenAddress, cfg.MarketAddress, cfg.MarketFeeBps)

	authH := auth.NewHandler(store, cfg.JWTSecret)
	creditH := credit.NewHandler(creditSvc)
	registryH := registry.NewHandler(registrySvc, directorySvc)
	directoryH := directory.NewHandler(directorySvc)
	walletH := wallet.NewHandler(walletSvc)
	marketH := market.NewHandler(marketSvc)

	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "decentroz"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)

	// Public routes
	e.GET("/credit/info", creditH.Info)
	e.GET("/credit/balance/:address", creditH.BalanceOf)
	e.GET("/credit/allowance", creditH.Allowance)
	e.POST("/api/token-data", creditH.TokenData)

	e.GET("/assets/info", registryH.Info)
	e.GET("/assets/:id/creator", registryH.Creator)

	e.GET("/users/:address", directoryH.Details)

	e.GET("/market/items", marketH.Available)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWT(cfg.JWTSecret))

	api.GET("/auth/me", authH.Me)

	api.GET("/wallet/balance", walletH.Balance)
	api.GET("/wallet/transactions", walletH.Transactions)
	api.POST("/wallet/topup", walletH.Topup)
	api.POST("/wallet/withdraw", walletH.Withdraw)

	api.POST("/credit/mint", creditH.Mint)
	api.POST("/credit/admin", creditH.SetAdmin)
	api.POST("/credit/transfer", creditH.Transfer)
	api.POST("/credit/approve", creditH.Approve)
	api.POST("/credit/transfer-from", creditH.TransferFrom)

	api.POST("/assets", registryH.Mint)
	api.POST("/assets/transfer", registryH.Transfer)
	api.POST("/assets/approval", registryH.SetApprovalForAll)
	api.GET("/assets/owned", registryH.Owned)
	api.GET("/assets/created", registryH.Created)

	api.POST("/users", directoryH.Register)
	api.PATCH("/users/details", directoryH.UpdateDetails)
	api.PATCH("/users/role", directoryH.UpdateRole)
	api.POST("/users/nfts/increment", directoryH.IncrementNFTs)

	api.POST("/market/items", marketH.CreateItem)
	api.POST("/market/items/cancel", marketH.CancelItem)
	api.POST("/market/items/buy", marketH.Buy)
	api.POST("/market/items/buy-erc20", marketH.BuyWithToken)
	api.GET("/market/items/mine", marketH.Mine)

	if err := e.Start(":" + cfg.Port); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
