package usecases

import (
	"context"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/pkg/fixedpoint"
)

// equivalentTokenRegistry builds a TokenRegistry whose input and output
// tokens of a deposit resolve to the same canonical address, so the
// selector's equivalence gate always passes.
func equivalentTokenRegistry(t *testing.T, inputAddr, outputAddr string) *TokenRegistry {
	t.Helper()
	chainRepo := newFakeChainRepository()
	tokenRepo := newFakeTokenRepository(
		&entities.Token{ID: uuid.New(), ContractAddress: inputAddr, IsL1Canonical: true},
		&entities.Token{ID: uuid.New(), ContractAddress: outputAddr, IsL1Canonical: false, L1TokenAddress: inputAddr},
	)
	return NewTokenRegistry(chainRepo, tokenRepo)
}

func baseDeposit() *entities.Deposit {
	return &entities.Deposit{
		DepositID:    uuid.New(),
		Origin:       1,
		Destination:  10,
		InputToken:   entities.NewEvmAddress("0x1111111111111111111111111111111111111111"),
		OutputToken:  entities.NewEvmAddress("0x2222222222222222222222222222222222222222"),
		InputAmount:  scaled(5),
		OutputAmount: scaled(5),
	}
}

func TestRepaymentSelector_InventoryManagementDisabled_DestinationEnabled(t *testing.T) {
	deposit := baseDeposit()
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	selector := NewRepaymentChainSelector(registry, false, nil)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			10: {ChainID: 10, Enabled: true},
			1:  {ChainID: 1, Enabled: true},
		},
	}

	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, chains)
}

func TestRepaymentSelector_InventoryManagementDisabled_DestinationDisabledFallsToOrigin(t *testing.T) {
	deposit := baseDeposit()
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	selector := NewRepaymentChainSelector(registry, false, nil)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			10: {ChainID: 10, Enabled: false},
			1:  {ChainID: 1, Enabled: true},
		},
	}

	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, chains)
}

func TestRepaymentSelector_NonEquivalentOutputToken_NoValidRoute(t *testing.T) {
	deposit := baseDeposit()
	chainRepo := newFakeChainRepository()
	tokenRepo := newFakeTokenRepository(
		&entities.Token{ID: uuid.New(), ContractAddress: deposit.InputToken.String(), IsL1Canonical: true},
		&entities.Token{ID: uuid.New(), ContractAddress: deposit.OutputToken.String(), IsL1Canonical: true},
	)
	registry := NewTokenRegistry(chainRepo, tokenRepo)
	selector := NewRepaymentChainSelector(registry, true, nil)

	rc := &RepaymentContext{Chains: map[int64]ChainInfo{}}
	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Nil(t, chains, "a deposit whose output token is not equivalent to its input token has no valid route")
}

func TestRepaymentSelector_ForcedOriginWhenFastRebalanceCapable(t *testing.T) {
	deposit := baseDeposit()
	deposit.FromLiteChain = true
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	selector := NewRepaymentChainSelector(registry, true, nil)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			1:  {ChainID: 1, FastRebalanceCapable: true, Enabled: true},
			10: {ChainID: 10, Enabled: true},
		},
	}

	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, chains, "a lite-chain-originated deposit on a fast-rebalance-capable origin must force origin repayment")
}

func TestRepaymentSelector_ForcedOriginWithoutFastRebalance_UsesNormalPathAndCanStillLandOnOrigin(t *testing.T) {
	deposit := baseDeposit()
	deposit.FromLiteChain = true
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	selector := NewRepaymentChainSelector(registry, true, nil)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			1:  {ChainID: 1, FastRebalanceCapable: false, Enabled: true},
			10: {ChainID: 10, Enabled: true},
		},
		TokenConfig: map[int64]*entities.TokenBalanceConfig{
			1: {TargetPctFp: fixedpoint.Scale},
			// no config for the destination chain, so it is never eligible
		},
		CumulativeBalanceFp: scaled(100),
		EffectiveBalanceFp:  map[int64]*big.Int{1: scaled(10)},
	}

	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, chains)
}

func TestRepaymentSelector_ForcedOriginWithoutFastRebalance_NoOriginOnlyMatchReturnsEmpty(t *testing.T) {
	deposit := baseDeposit()
	deposit.FromLiteChain = true
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	selector := NewRepaymentChainSelector(registry, true, nil)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			1:  {ChainID: 1, FastRebalanceCapable: false, Enabled: true},
			10: {ChainID: 10, Enabled: true},
		},
		// No token config anywhere: every candidate is skipped, eligible
		// ends up empty, which fails the forced-origin "exactly [origin]"
		// requirement.
		CumulativeBalanceFp: scaled(100),
	}

	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Empty(t, chains, "a forced-origin deposit that fails its own allocation check must yield do-not-fill, not a silent fallback")
}

func TestRepaymentSelector_HubChainAlwaysAppearsInNonForcedResult(t *testing.T) {
	deposit := baseDeposit()
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	selector := NewRepaymentChainSelector(registry, true, nil)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			1:  {ChainID: 1, Enabled: true},
			10: {ChainID: 10, Enabled: true},
			99: {ChainID: 99, IsHub: true, Enabled: true},
		},
		// No token config for any chain: the destination/origin
		// candidates are skipped, but the hub is still unconditionally
		// appended.
		CumulativeBalanceFp: scaled(100),
	}

	chains, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	require.NoError(t, err)
	assert.Contains(t, chains, int64(99), "the hub chain must always be offered as a repayment fallback")
}

func TestRepaymentSelector_PossibleChainsMismatchIsFatal(t *testing.T) {
	deposit := baseDeposit()
	registry := equivalentTokenRegistry(t, deposit.InputToken.String(), deposit.OutputToken.String())
	possibleChains := func(ctx context.Context, d *entities.Deposit) ([]int64, error) {
		return []int64{1, 10}, nil // deliberately excludes the hub chain 99
	}
	selector := NewRepaymentChainSelector(registry, true, possibleChains)

	rc := &RepaymentContext{
		Chains: map[int64]ChainInfo{
			1:  {ChainID: 1, Enabled: true},
			10: {ChainID: 10, Enabled: true},
			99: {ChainID: 99, IsHub: true, Enabled: true},
		},
		CumulativeBalanceFp: scaled(100),
	}

	_, err := selector.GetAllowedRepaymentChains(context.Background(), deposit, rc)
	assert.Error(t, err, "a selector result outside getPossibleRepaymentChainIds must be treated as a fatal configuration bug")
}

// fakeHubPoolClient serves the subset of HubPoolClient state
// ExcessRunningBalancePct reads: the latest validated running balance and
// the block at which it was recorded.
type fakeHubPoolClient struct {
	runningBalance *big.Int
	endBlock       uint64
	bundleFound    bool
	runningErr     error
}

func (f *fakeHubPoolClient) GetTokenInfoForAddress(ctx context.Context, chainID int64, tokenAddress string) (string, int, error) {
	return "", 18, nil
}

func (f *fakeHubPoolClient) L2TokenHasPoolRebalanceRoute(ctx context.Context, l2Token string, chainID int64) (bool, error) {
	return true, nil
}

func (f *fakeHubPoolClient) L2TokenEnabledForL1Token(ctx context.Context, l1Token string, chainID int64) (bool, error) {
	return true, nil
}

func (f *fakeHubPoolClient) GetRunningBalanceBeforeBlockForChain(ctx context.Context, l1Token string, chainID int64, block uint64) (*big.Int, error) {
	return f.runningBalance, f.runningErr
}

func (f *fakeHubPoolClient) GetLatestExecutedRootBundleContainingL1Token(ctx context.Context, l1Token string, chainID int64) (uint64, bool, error) {
	return f.endBlock, f.bundleFound, nil
}

func (f *fakeHubPoolClient) AreTokensEquivalent(ctx context.Context, originToken string, originChainID int64, destToken string, destChainID int64) (bool, error) {
	return true, nil
}

// fakeBundleDataClient serves the subset of BundleDataClient state
// ExcessRunningBalancePct reads: deposits since the last bundle and
// upcoming refunds from the next one.
type fakeBundleDataClient struct {
	depositsSince   *big.Int
	depositsErr     error
	upcomingRefunds *big.Int
	refundsErr      error
}

func (f *fakeBundleDataClient) GetPendingRefundsFromValidBundles(ctx context.Context, l1Token string) (*big.Int, error) {
	return new(big.Int), nil
}

func (f *fakeBundleDataClient) GetNextBundleRefunds(ctx context.Context, l1Token string, chainID int64) (*big.Int, error) {
	return f.upcomingRefunds, f.refundsErr
}

func (f *fakeBundleDataClient) GetTotalRefund(ctx context.Context, l1Token string, chainID int64) (*big.Int, error) {
	return new(big.Int), nil
}

func (f *fakeBundleDataClient) GetUpcomingDepositAmount(ctx context.Context, chainID int64, l1Token string, sinceBlock uint64) (*big.Int, error) {
	return f.depositsSince, f.depositsErr
}

// TestExcessRunningBalancePct_OverAllocatedSpokeYieldsPositiveExcess covers
// spec.md §4.6.1's "negative result -> absolute value" case: the spoke's
// running balance, net of deposits since and upcoming refunds, has gone
// negative (the hub owes the spoke more than the spoke has drawn down),
// which is the over-allocated case this function exists to surface.
func TestExcessRunningBalancePct_OverAllocatedSpokeYieldsPositiveExcess(t *testing.T) {
	hub := &fakeHubPoolClient{runningBalance: scaled(10), endBlock: 100, bundleFound: true}
	bundle := &fakeBundleDataClient{depositsSince: scaled(30), upcomingRefunds: new(big.Int)}
	// raw = 10 - 30 + 0 = -20, so excess = |raw| = 20.
	// postExcess = 20 - refundAmount(0) = 20; target = 10 -> pct = (20-10)/10 = 1.0x.
	pct, err := ExcessRunningBalancePct(context.Background(), hub, bundle, "0xl1usdc", 10, scaled(10), new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, 0, scaled(1).Cmp(pct), "a negative raw balance must report a positive excess fraction, not zero")
}

// TestExcessRunningBalancePct_UnderAllocatedSpokeYieldsZeroExcess covers
// the complementary case: the spoke is under-allocated (raw >= 0), which
// must report zero excess rather than the raw balance itself.
func TestExcessRunningBalancePct_UnderAllocatedSpokeYieldsZeroExcess(t *testing.T) {
	hub := &fakeHubPoolClient{runningBalance: scaled(100), endBlock: 100, bundleFound: true}
	bundle := &fakeBundleDataClient{depositsSince: scaled(10), upcomingRefunds: new(big.Int)}
	// raw = 100 - 10 + 0 = 90 >= 0, so excess = 0 regardless of target.
	pct, err := ExcessRunningBalancePct(context.Background(), hub, bundle, "0xl1usdc", 10, scaled(10), new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Cmp(pct), "a non-negative raw balance must report zero excess")
}

func TestExcessRunningBalancePct_NoExecutedBundleReturnsZero(t *testing.T) {
	hub := &fakeHubPoolClient{bundleFound: false}
	bundle := &fakeBundleDataClient{}
	pct, err := ExcessRunningBalancePct(context.Background(), hub, bundle, "0xl1usdc", 10, scaled(10), new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Cmp(pct))
}

func TestExcessRunningBalancePct_ZeroTargetWithPositivePostExcessSaturatesMax(t *testing.T) {
	hub := &fakeHubPoolClient{runningBalance: scaled(5), endBlock: 100, bundleFound: true}
	bundle := &fakeBundleDataClient{depositsSince: scaled(20), upcomingRefunds: new(big.Int)}
	// raw = 5 - 20 = -15 -> excess = 15; postExcess = 15 - 0 = 15 > target(0).
	pct, err := ExcessRunningBalancePct(context.Background(), hub, bundle, "0xl1usdc", 10, new(big.Int), new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, 0, fixedpoint.Uint256Max.Cmp(pct), "target==0 with postExcess>target must saturate to the max sentinel")
}
