package usecases

import (
	"context"
	"math/big"

	"go.uber.org/zap"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/fixedpoint"
	"pay-chain.backend/pkg/logger"
)

// RebalancePlanner implements the three planners from spec.md §4.7:
// L1->L2 rebalances, L2 native-token unwraps, and L2->L1 excess
// withdrawals. All three share the same shape: compute a desired action
// per chain/token, filter against a budget, emit plans, then execute
// sequentially through the adapter manager (shared nonce/shared L1
// balance forbid parallel submission).
type RebalancePlanner struct {
	cfgRepo     repositories.TokenBalanceConfigRepository
	tokenClient repositories.TokenBalanceClient
	adapter     repositories.AdapterManager
}

// NewRebalancePlanner builds a RebalancePlanner over the config store and
// external token-balance/adapter clients.
func NewRebalancePlanner(cfgRepo repositories.TokenBalanceConfigRepository, tokenClient repositories.TokenBalanceClient, adapter repositories.AdapterManager) *RebalancePlanner {
	return &RebalancePlanner{cfgRepo: cfgRepo, tokenClient: tokenClient, adapter: adapter}
}

// ChainAllocation is one chain's current state relative to its
// TokenBalanceConfig target, used as input to PlanL1ToL2Rebalances and
// PlanExcessWithdrawals.
type ChainAllocation struct {
	ChainID        int64
	L2TokenAddress string
	L2Decimals     int
	CurrentPctFp   *big.Int
	Config         *entities.TokenBalanceConfig
}

// PlanL1ToL2Rebalances returns one Rebalance per chain whose current
// allocation is below its configured threshold, sized to bring it to its
// target: amount = (targetPct - currentPct) * cumulativeBalance. Plans
// are returned in the order given by allocations; ExecuteRebalances skips
// any plan that no longer fits the hub's remaining L1 budget.
func (p *RebalancePlanner) PlanL1ToL2Rebalances(l1Token string, allocations []ChainAllocation, cumulativeBalanceFp *big.Int) []*entities.Rebalance {
	var plans []*entities.Rebalance
	for _, a := range allocations {
		cfg := a.Config
		if cfg == nil {
			continue
		}
		if a.CurrentPctFp.Cmp(cfg.ThresholdPctFp) >= 0 {
			continue
		}
		deltaFp := new(big.Int).Sub(cfg.TargetPctFp, a.CurrentPctFp)
		if deltaFp.Sign() <= 0 {
			continue
		}
		amountL1 := fixedpoint.Mul(deltaFp, cumulativeBalanceFp)
		if amountL1.Sign() <= 0 {
			continue
		}
		plans = append(plans, &entities.Rebalance{
			Kind:                entities.RebalanceL1ToL2,
			ChainID:             a.ChainID,
			L1Token:             l1Token,
			L2Token:             a.L2TokenAddress,
			CurrentAllocPctFp:   a.CurrentPctFp,
			TargetPctFp:         cfg.TargetPctFp,
			ThresholdPctFp:      cfg.ThresholdPctFp,
			CumulativeBalanceFp: cumulativeBalanceFp,
			Amount:              amountL1,
		})
	}
	return plans
}

// NativeBalanceSource reports a chain's current native-gas and
// wrapped-native balances, both in native-token smallest units.
type NativeBalanceSource func(ctx context.Context, chainID int64) (nativeBalance, wrappedBalance *big.Int, err error)

// PlanNativeUnwraps returns an unwrap plan for every chain configured
// with an unwrap threshold/target whose native balance has fallen below
// threshold and whose wrapped balance can cover the gap up to target.
func (p *RebalancePlanner) PlanNativeUnwraps(ctx context.Context, l1Token string, chains []ChainAllocation, balances NativeBalanceSource) ([]*entities.Rebalance, error) {
	var plans []*entities.Rebalance
	for _, c := range chains {
		cfg := c.Config
		if cfg == nil || cfg.UnwrapWethThresholdFp == nil || cfg.UnwrapWethTargetFp == nil {
			continue
		}
		native, wrapped, err := balances(ctx, c.ChainID)
		if err != nil {
			return nil, err
		}
		if native.Cmp(cfg.UnwrapWethThresholdFp) >= 0 {
			continue
		}
		needed := new(big.Int).Sub(cfg.UnwrapWethTargetFp, native)
		if needed.Sign() <= 0 || wrapped.Cmp(needed) < 0 {
			continue
		}
		plans = append(plans, &entities.Rebalance{
			Kind:    entities.RebalanceUnwrapNative,
			ChainID: c.ChainID,
			L1Token: l1Token,
			L2Token: c.L2TokenAddress,
			Amount:  needed,
		})
	}
	return plans, nil
}

// PlanExcessWithdrawals returns a withdrawal plan for every chain whose
// current allocation has exceeded its overage-buffered, safety-shaved
// threshold, rate-limited against the adapter's reported pending
// withdrawal volume for the chain's configured period. Per the resolved
// Open Question (SPEC_FULL.md §4.1), the same pendingWithdrawalAmount
// value is used for both the allow/deny decision and its log line.
func (p *RebalancePlanner) PlanExcessWithdrawals(ctx context.Context, l1Token string, allocations []ChainAllocation, cumulativeBalanceFp *big.Int, periodStart int64) ([]*entities.Rebalance, error) {
	var plans []*entities.Rebalance
	for _, a := range allocations {
		cfg := a.Config
		if cfg == nil || !cfg.WithdrawExcessEnabled() {
			continue
		}

		safety := new(big.Int)
		safety.SetString("950000000000000000", 10) // 0.95e18
		buffered := fixedpoint.Mul(cfg.TargetPctFp, cfg.EffectiveOverageBuffer())
		excessWithdrawThresholdFp := fixedpoint.Mul(buffered, safety)

		if a.CurrentPctFp.Cmp(excessWithdrawThresholdFp) < 0 {
			continue
		}
		withdrawPctFp := new(big.Int).Sub(a.CurrentPctFp, cfg.TargetPctFp)
		if withdrawPctFp.Sign() <= 0 {
			continue
		}
		withdrawAmountL1 := fixedpoint.Mul(withdrawPctFp, cumulativeBalanceFp)
		withdrawAmountL2 := fixedpoint.ConvertDecimals(18, a.L2Decimals, withdrawAmountL1)
		if withdrawAmountL2.Sign() <= 0 {
			continue
		}

		maxVolumeFp := fixedpoint.Mul(new(big.Int).Sub(excessWithdrawThresholdFp, cfg.TargetPctFp), cumulativeBalanceFp)
		pendingWithdrawalAmount, err := p.adapter.GetL2PendingWithdrawalAmount(ctx, a.L2TokenAddress, a.ChainID, periodStart)
		if err != nil {
			return nil, err
		}

		if pendingWithdrawalAmount.Cmp(maxVolumeFp) >= 0 {
			logger.Warn(ctx, "excess withdrawal rate limited",
				zap.Int64("chain", a.ChainID),
				zap.String("pendingWithdrawalAmount", pendingWithdrawalAmount.String()),
				zap.String("maxL2WithdrawalVolume", maxVolumeFp.String()))
			continue
		}

		plans = append(plans, &entities.Rebalance{
			Kind:                entities.RebalanceL2ToL1Excess,
			ChainID:             a.ChainID,
			L1Token:             l1Token,
			L2Token:             a.L2TokenAddress,
			CurrentAllocPctFp:   a.CurrentPctFp,
			TargetPctFp:         cfg.TargetPctFp,
			CumulativeBalanceFp: cumulativeBalanceFp,
			Amount:              withdrawAmountL2,
		})
	}
	return plans
}

// ExecuteRebalances submits L1->L2 plans sequentially (shared nonce,
// shared L1 balance per L1 token), re-reading the hub's on-chain balance
// of that same L1 token before each transfer and skipping (not aborting)
// any plan that no longer fits the remaining budget. L2 native-unwrap and
// L2->L1 withdrawal plans carry no shared L1 budget constraint and are
// submitted independently.
func (p *RebalancePlanner) ExecuteRebalances(ctx context.Context, hubChainID int64, plans []*entities.Rebalance) error {
	remaining := make(map[string]*big.Int)

	for _, plan := range plans {
		switch plan.Kind {
		case entities.RebalanceL1ToL2:
			budget, ok := remaining[plan.L1Token]
			if !ok {
				b, err := p.tokenClient.GetBalance(ctx, hubChainID, plan.L1Token)
				if err != nil {
					return err
				}
				budget = b
				remaining[plan.L1Token] = budget
			}
			current, err := p.tokenClient.GetBalance(ctx, hubChainID, plan.L1Token)
			if err != nil {
				return err
			}
			if current.Cmp(budget) != 0 {
				// L1 balance drifted since planning; skip this tick,
				// retry next tick with fresh numbers.
				logger.Warn(ctx, "hub balance drifted, skipping rebalance", zap.Int64("chain", plan.ChainID))
				continue
			}
			if budget.Cmp(plan.Amount) < 0 {
				logger.Warn(ctx, "hub budget exhausted, skipping remaining rebalances", zap.Int64("chain", plan.ChainID))
				continue
			}
			if _, err := p.adapter.SendTokenCrossChain(ctx, plan.L1Token, plan.ChainID, plan.Amount); err != nil {
				logger.Error(ctx, "rebalance execution failed", zap.Int64("chain", plan.ChainID), zap.Error(err))
				continue
			}
			remaining[plan.L1Token] = new(big.Int).Sub(budget, plan.Amount)
			p.tokenClient.DecrementLocalBalance(ctx, hubChainID, plan.L1Token, plan.Amount)

		case entities.RebalanceL2ToL1Excess:
			if _, err := p.adapter.WithdrawTokenFromL2(ctx, plan.L2Token, plan.ChainID, plan.Amount); err != nil {
				logger.Error(ctx, "excess withdrawal failed", zap.Int64("chain", plan.ChainID), zap.Error(err))
			}

		case entities.RebalanceUnwrapNative:
			if err := p.adapter.WrapNativeTokenIfAboveThreshold(ctx, plan.ChainID, plan.Amount, plan.Amount); err != nil {
				logger.Error(ctx, "native unwrap failed", zap.Int64("chain", plan.ChainID), zap.Error(err))
			}

		default:
			return domainerrors.Config("unknown rebalance kind")
		}
	}
	return nil
}
