// Command digichaind boots a single DigiChain node: the block producer
// tick loop and the JSON-RPC HTTP surface, sharing one in-memory World
// (spec §5: "exactly one producer task; multiple concurrent tasks handle
// RPC requests").
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digichain/chain"
	"digichain/config"
	"digichain/core/types"
	"digichain/observability/logging"
	"digichain/rpc"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file (generated with defaults if missing)")
	env := flag.String("env", "dev", "deployment environment tag for logs")
	flag.Parse()

	logger := logging.Setup("digichaind", *env)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	validators := []types.Validator{{Address: cfg.Address, Staked: types.Uint128Zero}}
	c := chain.New(cfg.ChainID, cfg.Address, validators, cfg.TickInterval, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go c.Run(ctx)

	server := rpc.New(c, logger)
	httpServer := &http.Server{
		Addr:    cfg.RPCAddress,
		Handler: server.Handler(),
	}

	go func() {
		logger.Info("rpc server listening", "address", cfg.RPCAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("rpc server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("rpc server shutdown error", "error", err)
	}
}
