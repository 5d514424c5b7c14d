package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/chain"
	"github.com/blues/crowdcampaign/internal/config"
	"github.com/blues/crowdcampaign/internal/database"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/blues/crowdcampaign/internal/logic"
	"github.com/blues/crowdcampaign/internal/metrics"
	"github.com/blues/crowdcampaign/internal/router"
	"github.com/blues/crowdcampaign/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 奖池发放后端：链上转账或本地账本
	var (
		payout      logic.Payout
		funding     logic.Funding
		ledger      *logic.BalanceLogic
		chainHealth func(ctx context.Context) map[string]interface{}
		jobs        []task.Job
	)
	if cfg.Chain.Enabled {
		chainManager, err := chain.NewManager(cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain manager: %v", err)
		}
		defer chainManager.Close()

		transferer := chainManager.Transferer()
		payout = transferer
		funding = logic.NewChainFunding(transferer)
		chainHealth = chainManager.GetHealthStatus
		jobs = append(jobs, task.NewChainHealthJob(chainManager, time.Duration(cfg.Task.Interval)*time.Second))
		logger.Info("Disbursing on chain %d from custody %s", cfg.Chain.ChainId, chainManager.Custody().Hex())
	} else {
		ledger = logic.NewBalanceLogic(db)
		payout = ledger
		funding = ledger
		logger.Info("Disbursing through local ledger")
	}

	if !common.IsHexAddress(cfg.Campaign.FactoryAddress) {
		logger.Fatal("Invalid campaign factory address: %s", cfg.Campaign.FactoryAddress)
	}
	pause := access.NewPauseSwitch(cfg.Campaign.StartPaused)
	appMetrics := metrics.New()
	eventLogic := logic.NewEventLogic(db)

	campaignLogic := logic.NewCampaignLogic(db, logic.CampaignOptions{
		Factory:  common.HexToAddress(cfg.Campaign.FactoryAddress),
		Pause:    pause,
		Payout:   payout,
		Funding:  funding,
		Notifier: campaign.Notifiers{eventLogic, appMetrics},
		Metrics:  appMetrics,
	})

	restored, err := campaignLogic.Restore()
	if err != nil {
		logger.Fatal("Failed to restore campaigns: %v", err)
	}
	logger.Info("Restored %d campaigns from database", restored)

	// 启动定时任务
	syncJob := task.NewCampaignSyncJob(campaignLogic, appMetrics,
		time.Duration(cfg.Task.Interval)*time.Second, cfg.Task.Workers)
	jobs = append(jobs, syncJob)
	taskManager, err := task.NewManager(jobs...)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	taskManager.Start()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		Campaigns:    campaignLogic,
		Events:       eventLogic,
		Balances:     ledger,
		Pause:        pause,
		AdminAddress: cfg.Campaign.AdminAddress,
		Metrics:      appMetrics,
		ChainHealth:  chainHealth,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
	taskManager.Drain(syncJob)
	logger.Info("Server exited")
}
