// Package chainadapter provides the concrete, EVM-backed implementations
// of the engine's read-only external collaborator interfaces
// (repositories.GasSimulationFeed, repositories.TokenBalanceClient,
// repositories.CrossChainTransferClient, repositories.AdapterManager).
// Per spec.md §6/§9 these are the relayer's own bridge/adapter layer,
// deliberately outside the spec's scope; this package wires the pieces
// that are answerable purely from an EVM RPC connection (native/ERC20
// balances, eth_estimateGas) and is explicit about the rest: submitting
// a transaction requires a signing/broadcast stack this module does not
// carry, so AdapterManager's mutating calls fail clearly instead of
// silently no-opping. See DESIGN.md.
package chainadapter

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/infrastructure/blockchain"
)

var zeroAddress = common.Address{}.Hex()

// ChainRPCResolver answers the RPC URL configured for a chain ID, so the
// adapter can route a call through the shared ClientFactory without
// owning its own chain-configuration lookup.
type ChainRPCResolver interface {
	RPCURLForChain(chainID int64) (string, error)
}

// GasSimulator estimates the gas a template fill would cost on a
// destination chain via eth_estimateGas against the configured relayer
// address, the only gas-simulation primitive an EVM JSON-RPC endpoint
// exposes without a dedicated tenderly/simulation API.
type GasSimulator struct {
	factory  *blockchain.ClientFactory
	resolver ChainRPCResolver
}

// NewGasSimulator builds a GasSimulator over factory/resolver.
func NewGasSimulator(factory *blockchain.ClientFactory, resolver ChainRPCResolver) *GasSimulator {
	return &GasSimulator{factory: factory, resolver: resolver}
}

// GetGasCosts estimates the native gas units a fill of deposit would
// consume on its destination chain, at that chain's current gas price.
// Token-denominated gas cost is left to the caller's price conversion;
// this returns the native cost as both native and token cost, which the
// GasCostEstimator's padding/multiplier step then scales per chain.
func (g *GasSimulator) GetGasCosts(ctx context.Context, deposit *entities.Deposit, relayer string) (*big.Int, *big.Int, *big.Int, error) {
	rpcURL, err := g.resolver.RPCURLForChain(deposit.Destination)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve rpc for chain %d: %w", deposit.Destination, err)
	}
	client, err := g.factory.GetEVMClient(rpcURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get evm client for chain %d: %w", deposit.Destination, err)
	}

	to := common.HexToAddress(deposit.Recipient.String())
	units, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  common.HexToAddress(relayer),
		To:    &to,
		Value: deposit.OutputAmount,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("estimate gas on chain %d: %w", deposit.Destination, err)
	}

	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get head for chain %d: %w", deposit.Destination, err)
	}
	gasPrice := header.BaseFee
	if gasPrice == nil {
		gasPrice = big.NewInt(1)
	}

	nativeCost := new(big.Int).Mul(new(big.Int).SetUint64(units), gasPrice)
	return nativeCost, new(big.Int).Set(nativeCost), gasPrice, nil
}

// TokenBalanceClient reports on-chain native/ERC20 balances directly off
// the configured EVM RPC, and tracks within-pass decrements the
// rebalance planner applies so one planning pass never double-commits
// the same on-chain balance across several plans before any of them
// lands on-chain. Fill-commitment shortfall has no wired data source
// (that lives in a HubPoolClient/BundleDataClient this module doesn't
// implement, per spec.md §6) and reports zero until one is connected.
type TokenBalanceClient struct {
	factory  *blockchain.ClientFactory
	resolver ChainRPCResolver

	mu         sync.Mutex
	decrements map[string]*big.Int
}

// NewTokenBalanceClient builds a TokenBalanceClient over factory/resolver.
func NewTokenBalanceClient(factory *blockchain.ClientFactory, resolver ChainRPCResolver) *TokenBalanceClient {
	return &TokenBalanceClient{factory: factory, resolver: resolver, decrements: map[string]*big.Int{}}
}

func (t *TokenBalanceClient) key(chainID int64, tokenAddress string) string {
	return fmt.Sprintf("%d:%s", chainID, tokenAddress)
}

// GetBalance returns the native balance when tokenAddress is the zero
// address, otherwise the ERC20 balanceOf the relayer's own address,
// less any decrement already reserved this pass.
func (t *TokenBalanceClient) GetBalance(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	rpcURL, err := t.resolver.RPCURLForChain(chainID)
	if err != nil {
		return nil, fmt.Errorf("resolve rpc for chain %d: %w", chainID, err)
	}
	client, err := t.factory.GetEVMClient(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("get evm client for chain %d: %w", chainID, err)
	}

	var bal *big.Int
	if tokenAddress == "" || common.HexToAddress(tokenAddress).Hex() == zeroAddress {
		bal, err = client.GetBalance(ctx, zeroAddress)
	} else {
		bal, err = client.GetTokenBalance(ctx, tokenAddress, zeroAddress)
	}
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if dec, ok := t.decrements[t.key(chainID, tokenAddress)]; ok {
		bal = new(big.Int).Sub(bal, dec)
	}
	return bal, nil
}

// GetShortfallTotalRequirement reports the relayer's outstanding
// fill-commitment shortfall for (chainID, tokenAddress). No bundle/pool
// data source is wired here; it always answers zero.
func (t *TokenBalanceClient) GetShortfallTotalRequirement(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	return big.NewInt(0), nil
}

// DecrementLocalBalance reserves amount against the next GetBalance
// answer for (chainID, tokenAddress), so a rebalance planner that issues
// several plans in one pass never reads the same unspent balance twice.
func (t *TokenBalanceClient) DecrementLocalBalance(ctx context.Context, chainID int64, tokenAddress string, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := t.key(chainID, tokenAddress)
	cur, ok := t.decrements[k]
	if !ok {
		cur = big.NewInt(0)
	}
	t.decrements[k] = new(big.Int).Add(cur, amount)
}

// CrossChainTransferClient tracks bridge transfers this relayer process
// itself initiated, in memory for the lifetime of the process. It is
// intentionally not durable: a restart loses in-flight tracking, which
// is acceptable since the next on-chain balance read after the transfer
// lands reconciles the true state anyway.
type CrossChainTransferClient struct {
	mu        sync.Mutex
	inFlight  map[string]*big.Int
}

// NewCrossChainTransferClient builds an empty in-memory tracker.
func NewCrossChainTransferClient() *CrossChainTransferClient {
	return &CrossChainTransferClient{inFlight: map[string]*big.Int{}}
}

func (c *CrossChainTransferClient) key(relayer, l1Token, l2Token string, chainID int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", relayer, l1Token, l2Token, chainID)
}

// GetOutstandingCrossChainTransferAmount returns the total this relayer
// has in flight toward (l1Token, l2Token, chainID) and not yet observed
// as landed.
func (c *CrossChainTransferClient) GetOutstandingCrossChainTransferAmount(ctx context.Context, relayer string, l1Token string, l2Token string, chainID int64) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.inFlight[c.key(relayer, l1Token, l2Token, chainID)]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

// IncreaseOutstandingTransfer records a newly-initiated transfer.
func (c *CrossChainTransferClient) IncreaseOutstandingTransfer(ctx context.Context, transfer *entities.CrossChainTransfer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(transfer.Address, transfer.L1Token, transfer.L2Token, transfer.ChainID)
	cur, ok := c.inFlight[k]
	if !ok {
		cur = big.NewInt(0)
	}
	c.inFlight[k] = new(big.Int).Add(cur, transfer.Amount)
	return nil
}

// ErrAdapterNotConfigured is returned by every AdapterManager call that
// would submit a transaction; this module has no signing/broadcast
// stack (spec.md §6 scopes the actual bridge adapters out), so plans the
// rebalance planner produces are previewable but not executable until a
// real adapter is wired in their place.
var ErrAdapterNotConfigured = fmt.Errorf("chainadapter: no transaction-submitting adapter configured")

// NoopAdapterManager satisfies repositories.AdapterManager for wiring
// purposes without being able to submit any transaction. Read-only calls
// answer honestly (zero pending withdrawals); mutating calls return
// ErrAdapterNotConfigured.
type NoopAdapterManager struct{}

func NewNoopAdapterManager() *NoopAdapterManager { return &NoopAdapterManager{} }

func (a *NoopAdapterManager) SendTokenCrossChain(ctx context.Context, l1Token string, destChainID int64, amount *big.Int) (string, error) {
	return "", ErrAdapterNotConfigured
}

func (a *NoopAdapterManager) WithdrawTokenFromL2(ctx context.Context, l2Token string, chainID int64, amount *big.Int) (string, error) {
	return "", ErrAdapterNotConfigured
}

func (a *NoopAdapterManager) GetL2PendingWithdrawalAmount(ctx context.Context, l2Token string, chainID int64, sincePeriodStart int64) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (a *NoopAdapterManager) WrapNativeTokenIfAboveThreshold(ctx context.Context, chainID int64, threshold, target *big.Int) error {
	return ErrAdapterNotConfigured
}

func (a *NoopAdapterManager) SetL1TokenApprovals(ctx context.Context, l1Token string, spender string) error {
	return ErrAdapterNotConfigured
}
