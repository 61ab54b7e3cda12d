// Package keeper settles auctions whose reveal window has closed.
//
// Settle is permissionless on the ledger, so the keeper is a convenience: it
// polls for ended, unsettled auctions on a ticker and settles them in a
// bounded pool. A racing caller that settles first is not an error.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloudx-io/sealedauction/config"
	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/ledger"
	"github.com/cloudx-io/sealedauction/syncutil"
)

// Settler is the part of the ledger the keeper drives.
type Settler interface {
	SettleableAuctions(now time.Time) []string
	Settle(ctx context.Context, auctionID string) (*core.Settlement, error)
}

type Config struct {
	Interval time.Duration
	Workers  int

	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *zap.Logger
}

type Keeper struct {
	settler  Settler
	interval time.Duration
	workers  int
	now      func() time.Time
	logger   *zap.Logger

	stoppedCh chan struct{}
}

func New(settler Settler, cfg Config) (*Keeper, error) {
	if settler == nil {
		return nil, errors.New("keeper: settler is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("keeper: interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("keeper: workers must be positive, got %d", cfg.Workers)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Keeper{
		settler:   settler,
		interval:  cfg.Interval,
		workers:   cfg.Workers,
		now:       cfg.Clock,
		logger:    cfg.Logger.Named("keeper"),
		stoppedCh: make(chan struct{}),
	}, nil
}

// FromConfig builds a keeper from the process configuration.
func FromConfig(settler Settler, cfg config.KeeperConfig, logger *zap.Logger) (*Keeper, error) {
	return New(settler, Config{Interval: cfg.Interval, Workers: cfg.Workers, Logger: logger})
}

// Start runs the keeper in the background until ctx is cancelled.
func (k *Keeper) Start(ctx context.Context) {
	go func() {
		defer close(k.stoppedCh)
		k.Run(ctx)
	}()
}

// Wait blocks until a keeper started with Start has stopped.
func (k *Keeper) Wait() {
	<-k.stoppedCh
}

// Run sweeps once immediately and then on every tick. Failed settlements are
// logged and retried on the next sweep.
func (k *Keeper) Run(ctx context.Context) {
	k.logger.Info("keeper started", zap.Duration("interval", k.interval), zap.Int("workers", k.workers))

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		if _, err := k.Sweep(ctx); err != nil && ctx.Err() == nil {
			k.logger.Warn("sweep incomplete", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			k.logger.Info("keeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep settles every auction that is settleable now and returns how many
// this call settled. The error joins every settlement that failed.
func (k *Keeper) Sweep(ctx context.Context) (int, error) {
	ids := k.settler.SettleableAuctions(k.now())
	if len(ids) == 0 {
		return 0, nil
	}

	var (
		mu       syncutil.Mutex
		settled  int
		failures []error
	)

	var g errgroup.Group
	g.SetLimit(k.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s, err := k.settler.Settle(ctx, id)
			switch {
			case err == nil:
				k.logger.Info("auction settled",
					zap.String("auction_id", id),
					zap.Bool("sold", s.Sold),
					zap.String("clearing_price", s.ClearingPrice.String()),
				)
				mu.Lock()
				settled++
				mu.Unlock()
			case errors.Is(err, ledger.ErrAlreadySettled):
				k.logger.Debug("auction settled elsewhere", zap.String("auction_id", id))
			default:
				k.logger.Warn("settle failed", zap.String("auction_id", id), zap.Error(err))
				mu.Lock()
				failures = append(failures, fmt.Errorf("settle %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		failures = append(failures, err)
	}
	return settled, errors.Join(failures...)
}
