package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/usecases"
	"pay-chain.backend/pkg/logger"
)

// InventoryUpdateJob ticks the Inventory Manager's price/gas refresh on a
// fixed interval so the admin API's cached snapshots (and the rebalance
// planner's allocation inputs) never go stale for longer than one
// interval even with no operator-triggered update.
type InventoryUpdateJob struct {
	inventory       *usecases.InventoryManager
	addresses       []string
	enabledChains   []int64
	templateDeposit func(chainID int64, outputToken string) *entities.Deposit
	interval        time.Duration
	stop            chan struct{}
}

// NewInventoryUpdateJob builds a job that refreshes prices/gas costs for
// addresses and enabledChains every interval.
func NewInventoryUpdateJob(
	inventory *usecases.InventoryManager,
	addresses []string,
	enabledChains []int64,
	templateDeposit func(chainID int64, outputToken string) *entities.Deposit,
	interval time.Duration,
) *InventoryUpdateJob {
	return &InventoryUpdateJob{
		inventory:       inventory,
		addresses:       addresses,
		enabledChains:   enabledChains,
		templateDeposit: templateDeposit,
		interval:        interval,
		stop:            make(chan struct{}),
	}
}

// Start runs the update loop until ctx is cancelled or Stop is called.
func (j *InventoryUpdateJob) Start(ctx context.Context) {
	logger.Info(ctx, "starting inventory update job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "inventory update job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "inventory update job stopped")
			return
		case <-ticker.C:
			j.runUpdate(ctx)
		}
	}
}

// Stop halts the update loop.
func (j *InventoryUpdateJob) Stop() {
	close(j.stop)
}

func (j *InventoryUpdateJob) runUpdate(ctx context.Context) {
	if err := j.inventory.Update(ctx, j.addresses, j.enabledChains, j.templateDeposit); err != nil {
		logger.Error(ctx, "inventory update tick failed", zap.Error(err))
	}
}
