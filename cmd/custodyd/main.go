package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roydeenn-boop/invite-usdt-api/adapters/postgres"
	tronadapter "github.com/roydeenn-boop/invite-usdt-api/adapters/tron"
	"github.com/roydeenn-boop/invite-usdt-api/amount"
	"github.com/roydeenn-boop/invite-usdt-api/api"
	tronclient "github.com/roydeenn-boop/invite-usdt-api/clients/tron"
	"github.com/roydeenn-boop/invite-usdt-api/config"
	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	store := postgres.NewLedgerStore(pool)

	nodeClient := tronclient.New(tronclient.Config{
		BaseURL: cfg.FullNodeURL,
		APIKey:  cfg.APIKey,
	}, logger)
	chain := tronadapter.NewChainClient(nodeClient, logger)

	tokenContract, err := tronadapter.CanonicalAddress(cfg.TokenContract)
	if err != nil {
		logger.Error("invalid token contract address", "error", err)
		os.Exit(1)
	}
	hotWallet, err := resolveHotWallet(cfg)
	if err != nil {
		logger.Error("invalid hot wallet configuration", "error", err)
		os.Exit(1)
	}

	// The signing key stays out of every component except the settler, which
	// constructs a fresh signer per pass and wipes it afterwards.
	var signerFn reconcile.SignerFunc
	if cfg.HotWalletKey != "" {
		key := cfg.HotWalletKey
		signerFn = func() (reconcile.Signer, error) {
			return tronadapter.NewPrivateKeySigner(key)
		}
	} else {
		logger.Warn("HOT_WALLET_PRIVATE_KEY not set, withdrawal settlement disabled")
	}

	codec := amount.New(amount.USDTPrecision)

	verifier := reconcile.NewDepositVerifier(store, chain, codec, reconcile.VerifierConfig{
		TokenContract:    tokenContract,
		HotWallet:        hotWallet,
		MinConfirmations: cfg.MinConfirmations,
		Workers:          cfg.PassWorkers,
	}, logger)

	settler := reconcile.NewWithdrawalSettler(store, chain, codec, signerFn, reconcile.SettlerConfig{
		TokenContract: tokenContract,
		Workers:       cfg.PassWorkers,
	}, logger)

	scheduler := reconcile.NewScheduler(logger)
	scheduler.Register(reconcile.JobVerifyDeposits, cfg.VerifyInterval, verifier.Run)
	scheduler.Register(reconcile.JobProcessWithdrawals, cfg.SettleInterval, settler.Run)
	scheduler.Start(ctx)

	server := api.NewServer(scheduler, logger)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()
	scheduler.Wait()
	if err := server.Shutdown(); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	pool.Close()
	logger.Info("exited")
}

// resolveHotWallet returns the canonical receiving address. It prefers the
// explicitly configured address so the verifier path works without any key
// material present; deriving from the key is a convenience fallback only.
func resolveHotWallet(cfg *config.Config) (string, error) {
	if cfg.HotWalletAddress != "" {
		return tronadapter.CanonicalAddress(cfg.HotWalletAddress)
	}
	return tronadapter.AddressFromPrivateKey(cfg.HotWalletKey)
}
