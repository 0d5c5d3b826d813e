package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ArkLabsHQ/paylink/internal/config"
	"github.com/ArkLabsHQ/paylink/internal/core/application"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/db"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/notifier"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/notifier/nostr"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/pending"
	scheduler "github.com/ArkLabsHQ/paylink/internal/infrastructure/scheduler/gocron"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/solana"
	grpcservice "github.com/ArkLabsHQ/paylink/internal/interface/grpc"
	"github.com/facebookgo/clock"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("starting paylink...")

	svcConfig := grpcservice.Config{
		GRPCPort: cfg.GRPCPort,
		HTTPPort: cfg.HTTPPort,
	}

	dbSvc, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: cfg.DbConfig(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	ledger, err := solana.NewLedgerClient(cfg.SolanaRPCURL, cfg.Commitment)
	if err != nil {
		log.WithError(err).Fatal("failed to init ledger client")
	}
	encoder, err := solana.NewEncoder(cfg.StableMint)
	if err != nil {
		log.WithError(err).Fatal("failed to init request encoder")
	}

	var notifierSvc ports.Notifier
	if cfg.NotificationsEnabled() {
		transport, err := nostr.NewTransport(cfg.NostrRelayURL, cfg.NostrSecretKey)
		if err != nil {
			log.WithError(err).Fatal("failed to init nostr transport")
		}
		notifierSvc = notifier.NewService(transport)
		log.Infof("customer notifications enabled through %s", cfg.NostrRelayURL)
	}

	buildInfo := application.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	appSvc, err := application.NewService(
		buildInfo,
		application.Config{
			StableMint:        cfg.StableMint,
			DefaultWallet:     cfg.DefaultWallet,
			DefaultFeePercent: cfg.DefaultFee(),
			MatchTolerance:    cfg.Tolerance(),
			LedgerTimeout:     cfg.LedgerTimeoutDuration(),
			PendingTTL:        cfg.PendingTTLDuration(),
			SweepInterval:     cfg.SweepIntervalDuration(),
			Location:          cfg.Location(),
			Network:           cfg.SolanaNetwork,
		},
		dbSvc, ledger, encoder, solana.NewReferenceGenerator(), pending.NewStore(),
		scheduler.NewScheduler(), notifierSvc, clock.New(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init application service")
	}

	svc, err := grpcservice.NewService(svcConfig, appSvc)
	if err != nil {
		log.WithError(err).Fatal("failed to init interface service")
	}

	log.RegisterExitHandler(svc.Stop)
	log.RegisterExitHandler(dbSvc.Close)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
