package usecases

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pay-chain.backend/pkg/fixedpoint"
)

func TestBalanceAccountant_EffectiveBalance_ConvertsDecimalsAndAddsPending(t *testing.T) {
	tokenClient := newFakeTokenBalanceClient()
	tokenClient.balances["0xusdc:10"] = big.NewInt(500_000_000) // 500 USDC at 6 decimals
	transferClient := newFakeCrossChainTransferClient()
	transferClient.outstanding["0xusdc:10"] = big.NewInt(10_000_000) // 10 USDC pending, same 6-decimal native scale

	accountant := NewBalanceAccountant(tokenClient, transferClient, "0xrelayer")

	got, err := accountant.EffectiveBalance(context.Background(), "0xl1usdc", ChainTokenBinding{ChainID: 10, L2TokenAddress: "0xusdc", Decimals: 6})
	require.NoError(t, err)

	want := scaled(510) // (500 + 10) raw units converted up to 18-decimal L1 scale
	assert.Equal(t, 0, want.Cmp(got))
}

func TestBalanceAccountant_CumulativeBalance_SumsAcrossChainsAndAliases(t *testing.T) {
	tokenClient := newFakeTokenBalanceClient()
	tokenClient.balances["0xusdc:10"] = scaled(100)
	tokenClient.balances["0xusdce:10"] = scaled(50)
	tokenClient.balances["0xusdc:1"] = scaled(200)
	transferClient := newFakeCrossChainTransferClient()
	accountant := NewBalanceAccountant(tokenClient, transferClient, "0xrelayer")

	bindings := map[int64][]ChainTokenBinding{
		10: {{ChainID: 10, L2TokenAddress: "0xusdc", Decimals: 18}, {ChainID: 10, L2TokenAddress: "0xusdce", Decimals: 18}},
		1:  {{ChainID: 1, L2TokenAddress: "0xusdc", Decimals: 18}},
	}

	total, err := accountant.CumulativeBalance(context.Background(), "0xl1usdc", bindings)
	require.NoError(t, err)

	want := new(big.Int).Add(new(big.Int).Add(scaled(100), scaled(50)), scaled(200))
	assert.Equal(t, 0, want.Cmp(total), "cumulative balance must equal the sum of every chain's effective balance")
}

func TestBalanceAccountant_CurrentAllocationPct_ZeroCumulativeIsZero(t *testing.T) {
	accountant := NewBalanceAccountant(newFakeTokenBalanceClient(), newFakeCrossChainTransferClient(), "0xrelayer")

	pct, err := accountant.CurrentAllocationPct(context.Background(), "0xl1usdc", 10, nil, new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, 0, pct.Sign(), "a zero cumulative balance must yield a zero allocation, never a division error")
}

func TestBalanceAccountant_CurrentAllocationPct_InBounds(t *testing.T) {
	tokenClient := newFakeTokenBalanceClient()
	tokenClient.balances["0xusdc:10"] = scaled(25)
	transferClient := newFakeCrossChainTransferClient()
	accountant := NewBalanceAccountant(tokenClient, transferClient, "0xrelayer")

	bindings := []ChainTokenBinding{{ChainID: 10, L2TokenAddress: "0xusdc", Decimals: 18}}
	cumulative := scaled(100)

	pct, err := accountant.CurrentAllocationPct(context.Background(), "0xl1usdc", 10, bindings, cumulative)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pct.Sign(), 0)
	assert.True(t, pct.Cmp(scaled(1)) <= 0, "allocation pct must never exceed 1e18 (100%%)")

	want := fixedpoint.Div(scaled(25), cumulative)
	assert.Equal(t, 0, want.Cmp(pct))
}

func TestBalanceAccountant_CurrentAllocationPct_SubtractsShortfall(t *testing.T) {
	tokenClient := newFakeTokenBalanceClient()
	tokenClient.balances["0xusdc:10"] = scaled(50)
	tokenClient.shortfalls["0xusdc:10"] = scaled(20)
	transferClient := newFakeCrossChainTransferClient()
	accountant := NewBalanceAccountant(tokenClient, transferClient, "0xrelayer")

	bindings := []ChainTokenBinding{{ChainID: 10, L2TokenAddress: "0xusdc", Decimals: 18}}
	cumulative := scaled(100)
	pct, err := accountant.CurrentAllocationPct(context.Background(), "0xl1usdc", 10, bindings, cumulative)
	require.NoError(t, err)

	want := fixedpoint.Div(scaled(30), cumulative) // (50-20)/100 = 0.30e18
	assert.Equal(t, 0, want.Cmp(pct))
}

func TestBalanceAccountant_GetTokenDistributionPerL1Token(t *testing.T) {
	tokenClient := newFakeTokenBalanceClient()
	tokenClient.balances["0xusdc:10"] = scaled(25)
	tokenClient.balances["0xusdc:1"] = scaled(75)
	transferClient := newFakeCrossChainTransferClient()
	accountant := NewBalanceAccountant(tokenClient, transferClient, "0xrelayer")

	bindings := map[int64][]ChainTokenBinding{
		10: {{ChainID: 10, L2TokenAddress: "0xusdc", Decimals: 18}},
		1:  {{ChainID: 1, L2TokenAddress: "0xusdc", Decimals: 18}},
	}

	dist, err := accountant.GetTokenDistributionPerL1Token(context.Background(), "0xl1usdc", bindings)
	require.NoError(t, err)
	require.Len(t, dist, 2)

	var sum big.Int
	for _, d := range dist {
		sum.Add(&sum, d.AllocationFp)
	}
	assert.Equal(t, 0, scaled(1).Cmp(&sum), "allocation fractions across every chain must sum to 1e18")
}
