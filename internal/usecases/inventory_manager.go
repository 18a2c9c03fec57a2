package usecases

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/logger"
)

var (
	fillOutcomeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_fill_profitability_total",
		Help: "Profitability outcomes of ComputeFillProfit, labeled profitable/unprofitable.",
	}, []string{"outcome"})

	priceCacheStaleGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_price_cache_stale",
		Help: "1 if the most recent price cache Update returned an error, 0 otherwise.",
	})

	rebalancePlansGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relayer_rebalance_plans_pending",
		Help: "Number of rebalance plans produced by the most recent planning pass, by kind.",
	}, []string{"kind"})
)

// InventoryManager is the concurrent orchestrator the spec's engine
// components need but deliberately don't own themselves (spec.md §9:
// avoiding cyclic references between the accountant and its
// collaborators). It owns one tick's worth of price/gas refresh, the
// per-L1-token distribution snapshot, and rebalance-plan generation, and
// is the only usecase type the HTTP shell talks to directly.
type InventoryManager struct {
	Prices     *PriceCache
	Gas        *GasCostEstimator
	Accountant *BalanceAccountant
	Registry   *TokenRegistry
	Selector   *RepaymentChainSelector
	Planner    *RebalancePlanner
	Matcher    *FinalizationMatcher

	chainRepo repositories.ChainRepository
	tokenRepo repositories.TokenRepository

	mu          sync.RWMutex
	lastUpdate  time.Time
	lastUpdated error
}

// NewInventoryManager wires the full engine over its already-constructed
// components.
func NewInventoryManager(
	prices *PriceCache,
	gas *GasCostEstimator,
	accountant *BalanceAccountant,
	registry *TokenRegistry,
	selector *RepaymentChainSelector,
	planner *RebalancePlanner,
	matcher *FinalizationMatcher,
	chainRepo repositories.ChainRepository,
	tokenRepo repositories.TokenRepository,
) *InventoryManager {
	return &InventoryManager{
		Prices:     prices,
		Gas:        gas,
		Accountant: accountant,
		Registry:   registry,
		Selector:   selector,
		Planner:    planner,
		Matcher:    matcher,
		chainRepo:  chainRepo,
		tokenRepo:  tokenRepo,
	}
}

// Update runs the concurrent price-cache and gas-cost-estimator refresh
// for one tick (spec.md §5: the two joins concurrently, neither blocks
// the other). templateDeposit builds the synthetic fill the gas
// estimator simulates per chain; see GasCostEstimator.Update.
func (m *InventoryManager) Update(ctx context.Context, addresses []string, enabledChains []int64, templateDeposit func(chainID int64, outputToken string) *entities.Deposit) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.Prices.Update(gctx, addresses)
	})
	g.Go(func() error {
		return m.Gas.Update(gctx, enabledChains, templateDeposit)
	})

	err := g.Wait()

	m.mu.Lock()
	m.lastUpdate = time.Now()
	m.lastUpdated = err
	m.mu.Unlock()

	if err != nil {
		priceCacheStaleGauge.Set(1)
		logger.Error(ctx, "inventory manager update failed", zap.Error(err))
		return err
	}
	priceCacheStaleGauge.Set(0)
	return nil
}

// LastUpdate reports when Update last ran and whether it succeeded.
func (m *InventoryManager) LastUpdate() (at time.Time, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdate, m.lastUpdated
}

// EvaluateFill runs the profit engine for one deposit and records the
// profitable/unprofitable outcome for observability.
func (m *InventoryManager) EvaluateFill(ctx context.Context, engine *ProfitEngine, deposit *entities.Deposit, inputs RouteInputs, symbol string) (*entities.FillProfit, error) {
	profit, err := engine.ComputeFillProfit(ctx, deposit, inputs, symbol)
	if err != nil {
		return nil, err
	}
	if engine.IsFillProfitable(ctx, deposit, profit) {
		fillOutcomeCounter.WithLabelValues("profitable").Inc()
	} else {
		fillOutcomeCounter.WithLabelValues("unprofitable").Inc()
	}
	return profit, nil
}

// DistributionSnapshot returns the current per-chain distribution for
// l1Token. The admin HTTP API has no route that serves it.
func (m *InventoryManager) DistributionSnapshot(ctx context.Context, l1Token string, bindingsByChain map[int64][]ChainTokenBinding) ([]TokenDistribution, error) {
	return m.Accountant.GetTokenDistributionPerL1Token(ctx, l1Token, bindingsByChain)
}

// PlanRebalances runs the L1->L2 planner and records the plan count for
// observability; it does not execute the plans.
func (m *InventoryManager) PlanRebalances(l1Token string, allocations []ChainAllocation, cumulativeBalanceFp *big.Int) []*entities.Rebalance {
	plans := m.Planner.PlanL1ToL2Rebalances(l1Token, allocations, cumulativeBalanceFp)
	rebalancePlansGauge.WithLabelValues("l1_to_l2").Set(float64(len(plans)))
	return plans
}
