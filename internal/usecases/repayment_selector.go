package usecases

import (
	"context"
	"math/big"
	"sort"

	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/fixedpoint"
)

// ChainInfo carries the static routing properties of one configured
// chain that the repayment selector's policy depends on.
type ChainInfo struct {
	ChainID              int64
	IsHub                bool
	IsLiteChain          bool
	SlowWithdrawal       bool
	FastRebalanceCapable bool
	Enabled              bool
}

// RepaymentContext bundles the already-fetched balance/config state one
// GetAllowedRepaymentChains call needs. Assembling it is the Inventory
// Manager's job (it owns the accountant and the external clients); the
// selector itself stays a pure function of this data plus the deposit,
// which keeps its policy logic directly testable.
type RepaymentContext struct {
	L1Token string

	Chains map[int64]ChainInfo

	// TokenConfig is keyed by chain ID; a chain absent here has no
	// configured target for this L1 token.
	TokenConfig map[int64]*entities.TokenBalanceConfig

	CumulativeBalanceFp *big.Int
	// EffectiveBalanceFp and ShortfallFp are already normalized to 18
	// decimals and summed across any L2 aliases, keyed by chain ID.
	EffectiveBalanceFp map[int64]*big.Int
	ShortfallFp        map[int64]*big.Int

	// UpcomingRefundsFp is the projected refund amount about to land on
	// each chain from the next bundle, keyed by chain ID.
	UpcomingRefundsFp map[int64]*big.Int

	// ExcessRunningBalancePctFp is precomputed per slow-withdrawal chain
	// per spec.md §4.6.1.
	ExcessRunningBalancePctFp map[int64]*big.Int
}

// RepaymentChainSelector implements the ordered repayment-chain policy
// from spec.md §4.6: given one deposit, return the allowed repayment
// chains in preference order, or an empty slice meaning "do not fill".
type RepaymentChainSelector struct {
	registry                   *TokenRegistry
	inventoryManagementEnabled bool
	// possibleChains is the ground truth a selector result must remain a
	// subset of (spec.md's sanity check: disagreement is a fatal bug).
	possibleChains func(ctx context.Context, deposit *entities.Deposit) ([]int64, error)
}

// NewRepaymentChainSelector builds a selector. possibleChains must return
// every chain ID the protocol considers a legal repayment venue for a
// deposit; results that escape this set indicate a configuration defect
// and abort the selection.
func NewRepaymentChainSelector(registry *TokenRegistry, inventoryManagementEnabled bool, possibleChains func(ctx context.Context, deposit *entities.Deposit) ([]int64, error)) *RepaymentChainSelector {
	return &RepaymentChainSelector{registry: registry, inventoryManagementEnabled: inventoryManagementEnabled, possibleChains: possibleChains}
}

// GetAllowedRepaymentChains returns the ordered list of chains the
// relayer may request repayment on for deposit, highest preference
// first. An empty slice means "do not fill".
func (s *RepaymentChainSelector) GetAllowedRepaymentChains(ctx context.Context, deposit *entities.Deposit, rc *RepaymentContext) ([]int64, error) {
	outputValid, err := s.registry.AreEquivalent(ctx, deposit.InputToken.String(), deposit.OutputToken.String())
	if err != nil {
		// Output-token classification failure: treat as "no valid
		// route", not a fatal error, per step 1 of the policy.
		return nil, nil
	}
	if !outputValid {
		return nil, nil
	}

	if !s.inventoryManagementEnabled {
		if info, ok := rc.Chains[deposit.Destination]; ok && info.Enabled {
			return []int64{deposit.Destination}, nil
		}
		return []int64{deposit.Origin}, nil
	}

	// Step 3: validate output-token equivalence against the pool
	// rebalance route / equivalence mapping. A violation here is a
	// config bug, not a routing decision, and must surface loudly.
	equivalent, err := s.registry.AreEquivalent(ctx, deposit.InputToken.String(), deposit.OutputToken.String())
	if err != nil {
		return nil, err
	}
	if !equivalent {
		return nil, domainerrors.Config("deposit output token is not equivalent to its input token")
	}

	originInfo := rc.Chains[deposit.Origin]
	forcedOrigin := deposit.FromLiteChain
	if forcedOrigin && originInfo.FastRebalanceCapable {
		return []int64{deposit.Origin}, nil
	}

	candidates := s.buildCandidates(deposit, rc, forcedOrigin)

	var eligible []int64
	totalUpcomingRefunds := new(big.Int)
	for _, amt := range rc.UpcomingRefundsFp {
		totalUpcomingRefunds.Add(totalUpcomingRefunds, amt)
	}
	denominator := new(big.Int).Add(rc.CumulativeBalanceFp, totalUpcomingRefunds)

	for _, chainID := range candidates {
		cfg := rc.TokenConfig[chainID]
		if cfg == nil {
			continue
		}
		effective := rc.EffectiveBalanceFp[chainID]
		if effective == nil {
			effective = new(big.Int)
		}
		shortfall := rc.ShortfallFp[chainID]
		if shortfall == nil {
			shortfall = new(big.Int)
		}
		refund := rc.UpcomingRefundsFp[chainID]
		if refund == nil {
			refund = new(big.Int)
		}

		numerator := new(big.Int).Sub(effective, shortfall)
		if !(chainID == deposit.Destination && deposit.SameTokenBothSides()) {
			numerator.Add(numerator, deposit.InputAmount)
		}
		numerator.Add(numerator, refund)

		var expectedAlloc *big.Int
		if denominator.Sign() == 0 {
			expectedAlloc = new(big.Int)
		} else {
			expectedAlloc = fixedpoint.Div(numerator, denominator)
		}

		effectiveTarget := cfg.TargetPctFp
		if deposit.ToLiteChain && chainID == deposit.Destination {
			// no overage allowance for the forced-preference case
		} else {
			effectiveTarget = fixedpoint.Mul(cfg.TargetPctFp, cfg.EffectiveOverageBuffer())
		}

		if expectedAlloc.Cmp(effectiveTarget) <= 0 {
			eligible = append(eligible, chainID)
		}
	}

	if forcedOrigin {
		if len(eligible) != 1 || eligible[0] != deposit.Origin {
			return nil, nil
		}
		return eligible, nil
	}

	if hub, ok := findHub(rc.Chains); ok {
		eligible = append(eligible, hub)
	}

	if s.possibleChains != nil {
		possible, err := s.possibleChains(ctx, deposit)
		if err != nil {
			return nil, err
		}
		possibleSet := make(map[int64]bool, len(possible))
		for _, c := range possible {
			possibleSet[c] = true
		}
		for _, c := range eligible {
			if !possibleSet[c] {
				return nil, domainerrors.Config("repayment selector produced a chain outside getPossibleRepaymentChainIds")
			}
		}
	}

	return eligible, nil
}

func (s *RepaymentChainSelector) buildCandidates(deposit *entities.Deposit, rc *RepaymentContext, forcedOrigin bool) []int64 {
	var candidates []int64
	seen := map[int64]bool{}
	add := func(chainID int64) {
		if chainID == 0 || seen[chainID] {
			return
		}
		info, ok := rc.Chains[chainID]
		if !ok || !info.Enabled {
			return
		}
		seen[chainID] = true
		candidates = append(candidates, chainID)
	}

	if !forcedOrigin {
		type slowCandidate struct {
			chainID int64
			pct     *big.Int
		}
		var slow []slowCandidate
		for chainID, info := range rc.Chains {
			if !info.SlowWithdrawal {
				continue
			}
			pct := rc.ExcessRunningBalancePctFp[chainID]
			if pct == nil || pct.Sign() <= 0 {
				continue
			}
			slow = append(slow, slowCandidate{chainID, pct})
		}
		sort.Slice(slow, func(i, j int) bool { return slow[i].pct.Cmp(slow[j].pct) > 0 })
		for _, c := range slow {
			add(c.chainID)
		}
	}

	if deposit.ToLiteChain {
		add(deposit.Origin)
	}
	add(deposit.Destination)
	if info, ok := rc.Chains[deposit.Origin]; ok && !info.IsHub {
		add(deposit.Origin)
	}
	return candidates
}

func findHub(chains map[int64]ChainInfo) (int64, bool) {
	for id, info := range chains {
		if info.IsHub && info.Enabled {
			return id, true
		}
	}
	return 0, false
}

// ExcessRunningBalancePct implements spec.md §4.6.1 for one
// slow-withdrawal chain: the latest validated running balance minus
// deposits on that chain since the bundle's end block, plus upcoming
// refunds; a negative result is replaced by its absolute value (the hub
// is over-allocated to the spoke) and a non-negative one by zero. That
// excess is then reduced by the refund this deposit would itself cause,
// and expressed as a fraction of distance past target.
func ExcessRunningBalancePct(ctx context.Context, hubPool repositories.HubPoolClient, bundleData repositories.BundleDataClient, l1Token string, chainID int64, targetFp *big.Int, refundAmountFp *big.Int) (*big.Int, error) {
	endBlock, found, err := hubPool.GetLatestExecutedRootBundleContainingL1Token(ctx, l1Token, chainID)
	if err != nil {
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	runningBalance, err := hubPool.GetRunningBalanceBeforeBlockForChain(ctx, l1Token, chainID, endBlock)
	if err != nil {
		return nil, err
	}
	depositsSince, err := bundleData.GetUpcomingDepositAmount(ctx, chainID, l1Token, endBlock)
	if err != nil {
		return nil, err
	}
	upcomingRefunds, err := bundleData.GetNextBundleRefunds(ctx, l1Token, chainID)
	if err != nil {
		return nil, err
	}

	excess := new(big.Int).Sub(runningBalance, depositsSince)
	excess.Add(excess, upcomingRefunds)
	if excess.Sign() >= 0 {
		excess = new(big.Int)
	} else {
		excess = fixedpoint.Abs(excess)
	}

	postExcess := new(big.Int).Sub(excess, refundAmountFp)

	if targetFp.Sign() == 0 {
		if postExcess.Cmp(targetFp) > 0 {
			return new(big.Int).Set(fixedpoint.Uint256Max), nil
		}
		return new(big.Int), nil
	}
	if targetFp.Cmp(postExcess) >= 0 {
		return new(big.Int), nil
	}
	diff := new(big.Int).Sub(postExcess, targetFp)
	return fixedpoint.Div(diff, fixedpoint.Abs(targetFp)), nil
}
