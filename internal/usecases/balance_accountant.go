package usecases

import (
	"context"
	"math/big"

	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/fixedpoint"
)

// ChainTokenBinding describes one enabled (L1 token, chain, optional L2
// token alias) combination the accountant should include when summing
// cumulative balance. A chain with no entry for an L1 token is treated as
// disabled for that token (spec.md §3 invariant: enabled pair requires a
// direct mapping or alias config, else disabled).
type ChainTokenBinding struct {
	ChainID        int64
	L2TokenAddress string
	Decimals       int
	RelayerAddress string
}

// BalanceAccountant implements the Virtual Balance Accountant: effective
// and cumulative balances, normalized to 18 decimals (not to the L1
// token's own decimals), including pending inbound transfers and
// shortfalls.
type BalanceAccountant struct {
	tokenClient    repositories.TokenBalanceClient
	transferClient repositories.CrossChainTransferClient
	relayerAddress string
}

// NewBalanceAccountant builds a BalanceAccountant over the external
// token-balance and cross-chain-transfer clients.
func NewBalanceAccountant(tokenClient repositories.TokenBalanceClient, transferClient repositories.CrossChainTransferClient, relayerAddress string) *BalanceAccountant {
	return &BalanceAccountant{tokenClient: tokenClient, transferClient: transferClient, relayerAddress: relayerAddress}
}

// EffectiveBalance returns the 18-decimal effective balance for l1Token
// on chainID restricted to one L2 alias: on-chain balance + pending
// inbound cross-chain transfers, converted from the alias's native
// decimals to 18 decimals. The L1 token's own decimals are not used.
func (a *BalanceAccountant) EffectiveBalance(ctx context.Context, l1Token string, binding ChainTokenBinding) (*big.Int, error) {
	onChain, err := a.tokenClient.GetBalance(ctx, binding.ChainID, binding.L2TokenAddress)
	if err != nil {
		return nil, err
	}
	pending, err := a.transferClient.GetOutstandingCrossChainTransferAmount(ctx, a.relayerAddress, l1Token, binding.L2TokenAddress, binding.ChainID)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(onChain, pending)
	return fixedpoint.ConvertDecimals(binding.Decimals, 18, total), nil
}

// EffectiveBalanceAcrossAliases sums EffectiveBalance over every L2-token
// alias configured for l1Token on one chain (the "sum over L1->[L2]
// mapping" case from spec.md §4.5).
func (a *BalanceAccountant) EffectiveBalanceAcrossAliases(ctx context.Context, l1Token string, bindings []ChainTokenBinding) (*big.Int, error) {
	total := new(big.Int)
	for _, b := range bindings {
		v, err := a.EffectiveBalance(ctx, l1Token, b)
		if err != nil {
			return nil, err
		}
		total.Add(total, v)
	}
	return total, nil
}

// Shortfall returns the 18-decimal-normalized outstanding fill-commitment
// shortfall for l1Token on one (chain, L2 token) binding.
func (a *BalanceAccountant) Shortfall(ctx context.Context, binding ChainTokenBinding) (*big.Int, error) {
	raw, err := a.tokenClient.GetShortfallTotalRequirement(ctx, binding.ChainID, binding.L2TokenAddress)
	if err != nil {
		return nil, err
	}
	return fixedpoint.ConvertDecimals(binding.Decimals, 18, raw), nil
}

// CumulativeBalance sums EffectiveBalanceAcrossAliases over every enabled
// chain for l1Token. bindingsByChain groups the per-chain alias lists;
// the hub chain contributes its direct balance the same way any other
// chain does.
func (a *BalanceAccountant) CumulativeBalance(ctx context.Context, l1Token string, bindingsByChain map[int64][]ChainTokenBinding) (*big.Int, error) {
	total := new(big.Int)
	for _, bindings := range bindingsByChain {
		v, err := a.EffectiveBalanceAcrossAliases(ctx, l1Token, bindings)
		if err != nil {
			return nil, err
		}
		total.Add(total, v)
	}
	return total, nil
}

// CurrentAllocationPct returns (effectiveBalance - shortfall) /
// cumulativeBalance at 18-decimal fixed point, or zero when cumulative is
// zero (spec.md §8 boundary behavior).
func (a *BalanceAccountant) CurrentAllocationPct(ctx context.Context, l1Token string, chainID int64, bindings []ChainTokenBinding, cumulativeBalance *big.Int) (*big.Int, error) {
	if cumulativeBalance.Sign() == 0 {
		return new(big.Int), nil
	}
	effective, err := a.EffectiveBalanceAcrossAliases(ctx, l1Token, bindings)
	if err != nil {
		return nil, err
	}
	shortfall := new(big.Int)
	for _, b := range bindings {
		s, err := a.Shortfall(ctx, b)
		if err != nil {
			return nil, err
		}
		shortfall.Add(shortfall, s)
	}
	adjusted := new(big.Int).Sub(effective, shortfall)
	return fixedpoint.Div(adjusted, cumulativeBalance), nil
}

// TokenDistribution is one leaf of GetTokenDistributionPerL1Token: the
// allocation fraction for one (l1Token, chainID, l2Token) triple.
type TokenDistribution struct {
	L1Token      string
	ChainID      int64
	L2Token      string
	AllocationFp *big.Int
}

// GetTokenDistributionPerL1Token computes the current allocation fraction
// of every configured (l1Token, chain, l2Token) combination, returning a
// flat slice the caller can group as needed (equivalent to spec.md's
// l1Token -> chainId -> l2Token -> fraction map, flattened for simpler Go
// call sites).
func (a *BalanceAccountant) GetTokenDistributionPerL1Token(ctx context.Context, l1Token string, bindingsByChain map[int64][]ChainTokenBinding) ([]TokenDistribution, error) {
	cumulative, err := a.CumulativeBalance(ctx, l1Token, bindingsByChain)
	if err != nil {
		return nil, err
	}
	var out []TokenDistribution
	for chainID, bindings := range bindingsByChain {
		for _, b := range bindings {
			eff, err := a.EffectiveBalance(ctx, l1Token, b)
			if err != nil {
				return nil, err
			}
			var fp *big.Int
			if cumulative.Sign() == 0 {
				fp = new(big.Int)
			} else {
				fp = fixedpoint.Div(eff, cumulative)
			}
			out = append(out, TokenDistribution{L1Token: l1Token, ChainID: chainID, L2Token: b.L2TokenAddress, AllocationFp: fp})
		}
	}
	return out, nil
}
