package engine

import (
	"context"
	"errors"
	"time"

	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/mempool"
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/amm/indexer"
	"github.com/prometheus/client_golang/prometheus"
)

// Loop is the single-threaded arbitrage state machine. It exclusively owns the pools, paths, dedup ledger and
// account sequence.
type Loop struct {
	cfg       Config
	pools     []*amm.Pool
	paths     []*arbitrage.Path
	ledger    *mempool.Ledger
	projector *mempool.Projector
	metrics   *Metrics
	logger    Logger

	sequence   uint64
	totalBytes int
	iterations uint64

	sleep func(ctx context.Context, d time.Duration) error
}

// New validates cfg and builds a Loop over its pools and paths.
func New(cfg Config) (*Loop, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	ledger := mempool.NewLedger()
	l := &Loop{
		cfg:       cfg,
		pools:     cfg.Pools,
		paths:     cfg.Paths,
		ledger:    ledger,
		projector: mempool.NewProjector(indexer.New().Index(cfg.Pools), ledger, cfg.Logger),
		metrics:   metrics,
		logger:    cfg.Logger,
		sequence:  cfg.Account.Sequence,
		sleep:     sleepContext,
	}
	l.metrics.sequence.Set(float64(l.sequence))
	return l, nil
}

// Sequence returns the sequence number the next transaction will be signed with.
func (l *Loop) Sequence() uint64 {
	return l.sequence
}

// Run steps until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("arbitrage loop started", "paths", len(l.paths), "pools", len(l.pools))
	for {
		if err := l.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				l.logger.Info("arbitrage loop stopped")
				return nil
			}
			return err
		}
	}
}

// Step runs one outer iteration: it evaluates the current state, then polls and projects the mempool until the
// node's mempool shrinks, which marks a new block. It only returns an error when ctx is done.
func (l *Loop) Step(ctx context.Context) error {
	l.iterations++
	l.metrics.steps.Inc()
	l.tickCooldowns()
	l.metrics.touchedPools.Observe(float64(l.projector.Touched().Count()))
	l.projector.ResetTouched()
	l.refresh(ctx)

	if trade, ok := l.findTrade(); ok {
		l.metrics.tradesFound.WithLabelValues("state").Inc()
		l.logger.Info("state arbitrage found", "profit", trade.Profit, "offer", trade.OfferAsset.String())
		trade.Path.Cooldown = l.cfg.CooldownSteps
		if err := l.submitTrade(ctx, trade, nil); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m, err := l.pollMempool(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.metrics.polls.WithLabelValues("error").Inc()
			l.logger.Warn("mempool query failed, backing off", "error", err, "delay", l.cfg.PollBackoff)
			if err := l.sleep(ctx, l.cfg.PollBackoff); err != nil {
				return err
			}
			continue
		}

		switch {
		case m.TotalBytes < l.totalBytes:
			l.metrics.polls.WithLabelValues("shrank").Inc()
			l.totalBytes = m.TotalBytes
			return nil
		case m.TotalBytes == l.totalBytes:
			l.metrics.polls.WithLabelValues("unchanged").Inc()
			if err := l.sleep(ctx, l.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}
		l.metrics.polls.WithLabelValues("grown").Inc()
		l.totalBytes = m.TotalBytes

		for _, entry := range l.projector.Pending(m) {
			updates := l.projector.Apply(entry)
			if updates == 0 {
				continue
			}
			l.metrics.projected.Add(float64(updates))

			trade, ok := l.findTrade()
			if !ok {
				continue
			}
			l.metrics.tradesFound.WithLabelValues("mempool").Inc()
			l.logger.Info("mempool arbitrage found", "tx", entry.ID, "profit", trade.Profit, "offer", trade.OfferAsset.String())
			trade.Path.Cooldown = l.cfg.CooldownSteps
			if err := l.submitTrade(ctx, trade, entry.Raw); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) findTrade() (*arbitrage.OptimalTrade, bool) {
	timer := prometheus.NewTimer(l.metrics.optimizeSeconds)
	defer timer.ObserveDuration()
	return arbitrage.FindBestTrade(l.paths, l.cfg.Params)
}

func (l *Loop) tickCooldowns() {
	for _, p := range l.paths {
		p.Tick()
	}
}

// refresh replaces projected reserves with confirmed state when a Refresher is configured. The ledger is flushed
// only after a successful refresh, since projected transactions are then part of the confirmed state or dropped.
func (l *Loop) refresh(ctx context.Context) {
	if l.cfg.Refresher == nil {
		return
	}
	timer := prometheus.NewTimer(l.metrics.refreshSeconds)
	defer timer.ObserveDuration()
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	changed, err := l.cfg.Refresher.Refresh(callCtx, l.pools)
	if err != nil {
		l.logger.Warn("pool refresh failed, keeping projected state", "error", err)
		return
	}
	l.metrics.driftedPools.Add(float64(changed))
	l.ledger.Flush()
	// re-project whatever is still pending on top of the confirmed state
	l.totalBytes = 0
	l.logger.Debug("pools refreshed", "changed", changed, "iteration", l.iterations)
}

func (l *Loop) pollMempool(ctx context.Context) (mempool.Mempool, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()
	return l.cfg.Source.UnconfirmedTxs(callCtx)
}

// submitTrade submits and absorbs every failure except cancellation.
func (l *Loop) submitTrade(ctx context.Context, trade *arbitrage.OptimalTrade, raceTx []byte) error {
	err := l.Submit(ctx, trade, raceTx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	l.logger.Warn("trade abandoned", "error", err)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
