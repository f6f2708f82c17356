package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/chains/cosmwasm"
	"github.com/defistate/wasm-arb-go/cmd/arbbot/config"
	"github.com/defistate/wasm-arb-go/engine"
	"github.com/defistate/wasm-arb-go/notifier"
	"github.com/defistate/wasm-arb-go/relay/skip"
	"github.com/defistate/wasm-arb-go/signer"
	"github.com/defistate/wasm-arb-go/streams/jsonrpc/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// create the log handler
	rootLogHandler := slog.NewJSONHandler(os.Stdout, nil)
	close := func() {
		os.Exit(1)
	}

	rootLogger := slog.New(rootLogHandler)
	prometheusRegistry := prometheus.DefaultRegisterer
	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	// Create a context that cancels when the OS sends an interrupt (Ctrl+C) or termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, rootLogger, prometheusRegistry); err != nil {
		rootLogger.Error("Bot stopped", "error", err)
		stop()
		close()
	}
}

func run(ctx context.Context, cfg *config.BotConfig, rootLogger *slog.Logger, reg prometheus.Registerer) error {
	node, err := client.NewClient(ctx, client.Config{
		URL:          cfg.RPCURL,
		Logger:       rootLogger.With("component", "jsonrpc-client"),
		MempoolLimit: cfg.MempoolLimit,
	})
	if err != nil {
		return err
	}
	defer node.Close()

	walletKey, err := signer.KeyFromHex(cfg.Wallet.PrivateKey)
	if err != nil {
		return err
	}
	account, err := node.Account(ctx, cfg.Wallet.Address)
	if err != nil {
		return err
	}
	rootLogger.Info("Loaded account", "address", account.Address, "account_number", account.AccountNumber, "sequence", account.Sequence)

	offer, err := cfg.OfferAsset.Info()
	if err != nil {
		return err
	}

	chainLogger := rootLogger.With("component", "cosmwasm")
	pools, err := cosmwasm.InitPools(ctx, node, cfg.PoolConfigs(), chainLogger)
	if err != nil {
		return err
	}

	builder := &cosmwasm.Builder{MaxSpread: cfg.MaxSpread}
	paths := arbitrage.FindPaths(pools, offer, cfg.MaxPathHops)
	paths = cosmwasm.SetPathFees(paths, builder, offer, cfg.PathFees(), chainLogger)
	if len(paths) == 0 {
		return errors.New("no tradable path between the configured pools")
	}
	pools = arbitrage.RemoveUnusedPools(pools, paths)
	rootLogger.Info("Paths ready", "paths", len(paths), "pools", len(pools))

	sinks := notifier.Multi{notifier.NewLogSink(rootLogger.With("component", "notifier"))}
	if cfg.Slack != nil {
		slack, err := notifier.NewSlackSink(notifier.SlackConfig{
			APIToken: cfg.Slack.APIToken,
			Channel:  cfg.Slack.Channel,
			Logger:   rootLogger.With("component", "slack"),
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, slack)
	}

	params := arbitrage.Params{OfferInfo: offer, FlashloanFeePercent: cfg.FlashloanFeePercent}
	var bidding engine.Bidding
	if b := cfg.Bidding; b != nil {
		params.BidRate = b.BidRate
		bidding.BidWallet = b.BidWallet
		if b.RelayURL != "" {
			relayKey := walletKey
			if b.RelayPrivateKey != "" {
				if relayKey, err = signer.KeyFromHex(b.RelayPrivateKey); err != nil {
					return err
				}
			}
			relay, err := skip.NewClient(ctx, skip.Config{
				URL:    b.RelayURL,
				Signer: relayKey,
				Logger: rootLogger.With("component", "skip"),
			})
			if err != nil {
				return err
			}
			defer relay.Close()
			bidding.Relay = relay
		}
	}

	loopCfg := engine.Config{
		Pools:  pools,
		Paths:  paths,
		Params: params,
		Account: engine.Account{
			Address:       cfg.Wallet.Address,
			ChainID:       cfg.ChainID,
			AccountNumber: account.AccountNumber,
			Sequence:      account.Sequence,
		},
		Bidding:         bidding,
		FlashloanRouter: cfg.FlashloanRouter,
		Source:          node,
		Builder:         builder,
		Signer:          signer.NewDirect(walletKey),
		Broadcaster:     node,
		Notifier:        sinks,
		Logger:          rootLogger.With("component", "engine"),
		Metrics:         engine.NewMetrics(reg),
		CooldownSteps:   cfg.Engine.CooldownSteps,
		PollBackoff:     cfg.Engine.PollBackoff,
		SubmitDelay:     cfg.Engine.SubmitDelay,
		SoloProfitFloor: cfg.Engine.SoloProfitFloor,
		MinimumBid:      cfg.Engine.MinimumBid,
		PollInterval:    cfg.Engine.PollInterval,
		CallTimeout:     cfg.Engine.CallTimeout,
	}
	if cfg.RefreshPools {
		loopCfg.Refresher = cosmwasm.NewPoolStates(node, chainLogger)
	}

	loop, err := engine.New(loopCfg)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr, rootLogger.With("component", "metrics"))
	}

	sinks.Notify(ctx, "**bot started** wallet: "+cfg.Wallet.Address, notifier.All)
	return loop.Run(ctx)
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	srv := &http.Server{Addr: addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func loadConfig() (*config.BotConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
