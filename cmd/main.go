package main

import (
	"context"
	"encoding/base64"
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"suilotto/internal/config"
	"suilotto/internal/handlers"
	"suilotto/internal/models"
	"suilotto/internal/services"
	"suilotto/internal/sui"
	"suilotto/internal/wallet"
)

func main() {
	defer logger.Init("suilotto", true, false, io.Discard).Close()

	// 1. Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect the ledger client
	client := sui.NewClient(cfg.RPCURL)

	// 3. Set up the signing wallet, if a key is configured. Without one the
	// process serves the read views and refuses writes.
	var signer wallet.Wallet
	if cfg.Key != "" {
		seed, err := base64.StdEncoding.DecodeString(cfg.Key)
		if err != nil {
			log.Fatalf("Failed to decode SUILOTTO_KEY: %v", err)
		}
		kw, err := wallet.NewKeyWallet(seed, client, cfg.GasBudget)
		if err != nil {
			log.Fatalf("Failed to build wallet: %v", err)
		}
		signer = kw
		logger.Infof("signing as %s", kw.Address())
	} else {
		logger.Infof("no signing key configured, running read-only")
	}

	// 4. Wire the reader, the orchestrator and the current-lottery pointer
	reader := services.NewStateReader(client, cfg.PackageID)
	actions := services.NewActionOrchestrator(signer, client, services.Contract{
		PackageID:  cfg.PackageID,
		AdminCapID: cfg.AdminCapID,
		ClockID:    cfg.ClockID,
		RandomID:   cfg.RandomID,
	})
	current := services.NewCurrentLottery(services.FileStore{Path: cfg.StateFile})

	// 5. Start the background poll on the tracked lottery; submitted
	// actions kick it so the staleness window shrinks after writes
	ctx := context.Background()
	heartbeat := services.NewPoller(cfg.PollInterval, func(ctx context.Context) {
		id := current.ID()
		if id == "" {
			return
		}
		lot, err := reader.Lottery(ctx, id)
		if err != nil {
			logger.Warningf("poll %s: %v", id, err)
			return
		}
		if lot == nil {
			logger.Warningf("poll %s: not found", id)
			return
		}
		logger.Infof("lottery %s: %s, pool %s SUI, %d tickets",
			models.TruncateAddress(id), lot.Status, models.MistToSui(lot.Balance), lot.Tickets())
	})
	go heartbeat.Start(ctx)

	// 6. Set up the Gin router and the JSON API
	r := gin.Default()
	httpHandler := handlers.NewHTTPHandler(reader, actions, current, heartbeat)
	httpHandler.RegisterRoutes(r)

	// 7. Run the server
	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
