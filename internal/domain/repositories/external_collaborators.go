// Package repositories also declares the read-only interface capabilities
// the core engine depends on but never implements: token-balance,
// HubPool, ConfigStore, bundle-data, cross-chain-transfer, adapter
// manager, price feed and gas-simulation clients. Per spec.md §6 and §9,
// these are external collaborators — bridge adapters, on-chain event
// clients, price aggregators — deliberately out of the core's scope.
// Declaring them as interfaces here (rather than importing concrete
// adapters) breaks the cyclic-reference risk the design notes call out:
// the Inventory Manager holds read-only capabilities, never mutable
// back-pointers, to any collaborator.
package repositories

import (
	"context"
	"math/big"
	"time"

	"pay-chain.backend/internal/domain/entities"
)

// TokenBalanceClient reports on-chain token balances and the relayer's
// outstanding fill-commitment shortfall for a given (chain, token).
type TokenBalanceClient interface {
	GetBalance(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error)
	GetShortfallTotalRequirement(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error)
	// DecrementLocalBalance reserves budget within a single rebalance
	// pass without waiting for an on-chain re-read; the planner uses
	// this to avoid over-committing the hub's L1 balance across several
	// planned transfers in one pass.
	DecrementLocalBalance(ctx context.Context, chainID int64, tokenAddress string, amount *big.Int)
}

// HubPoolClient exposes the hub pool's on-chain configuration and
// historical running-balance state.
type HubPoolClient interface {
	GetTokenInfoForAddress(ctx context.Context, chainID int64, tokenAddress string) (symbol string, decimals int, err error)
	L2TokenHasPoolRebalanceRoute(ctx context.Context, l2Token string, chainID int64) (bool, error)
	L2TokenEnabledForL1Token(ctx context.Context, l1Token string, chainID int64) (bool, error)
	GetRunningBalanceBeforeBlockForChain(ctx context.Context, l1Token string, chainID int64, block uint64) (*big.Int, error)
	GetLatestExecutedRootBundleContainingL1Token(ctx context.Context, l1Token string, chainID int64) (endBlock uint64, found bool, err error)
	AreTokensEquivalent(ctx context.Context, originToken string, originChainID int64, destToken string, destChainID int64) (bool, error)
}

// ConfigStoreClient exposes the protocol-level rebalance config, kept
// separate from TokenBalanceConfigRepository (the operator's own local
// targets) since the two can disagree and the selector must know which
// one is authoritative for a given chain.
type ConfigStoreClient interface {
	GetSpokeTargetBalancesForBlock(ctx context.Context, block uint64, chainID int64) (map[string]*big.Int, error)
}

// BundleDataClient exposes pending/upcoming refund amounts used by the
// repayment selector's excess-running-balance calculation and the
// balance accountant's shortfall-adjusted allocation.
type BundleDataClient interface {
	GetPendingRefundsFromValidBundles(ctx context.Context, l1Token string) (*big.Int, error)
	GetNextBundleRefunds(ctx context.Context, l1Token string, chainID int64) (*big.Int, error)
	GetTotalRefund(ctx context.Context, l1Token string, chainID int64) (*big.Int, error)
	GetUpcomingDepositAmount(ctx context.Context, chainID int64, l1Token string, sinceBlock uint64) (*big.Int, error)
}

// CrossChainTransferClient tracks in-flight bridge transfers the relayer
// itself initiated, independent of HubPool/SpokePool events.
type CrossChainTransferClient interface {
	GetOutstandingCrossChainTransferAmount(ctx context.Context, relayer string, l1Token string, l2Token string, chainID int64) (*big.Int, error)
	IncreaseOutstandingTransfer(ctx context.Context, transfer *entities.CrossChainTransfer) error
}

// AdapterManager is the single seam through which the engine ever
// submits transactions; every call here crosses into an external bridge
// adapter and must never be parallelized against another call on the
// same chain (shared nonce).
type AdapterManager interface {
	SendTokenCrossChain(ctx context.Context, l1Token string, destChainID int64, amount *big.Int) (txHash string, err error)
	WithdrawTokenFromL2(ctx context.Context, l2Token string, chainID int64, amount *big.Int) (txHash string, err error)
	GetL2PendingWithdrawalAmount(ctx context.Context, l2Token string, chainID int64, sincePeriodStart int64) (*big.Int, error)
	WrapNativeTokenIfAboveThreshold(ctx context.Context, chainID int64, threshold, target *big.Int) error
	SetL1TokenApprovals(ctx context.Context, l1Token string, spender string) error
}

// PriceFeed is a single quote source consulted in the Price Cache's
// ordered fallback chain (in-protocol feed first, then public sources).
type PriceFeed interface {
	Name() string
	GetPricesByAddress(ctx context.Context, addresses []string) (map[string]*big.Float, error)
}

// GasSimulationFeed simulates a fill to obtain the gas units/cost a real
// relayer transaction would consume.
type GasSimulationFeed interface {
	GetGasCosts(ctx context.Context, deposit *entities.Deposit, relayer string) (nativeGasCost, tokenGasCost, gasPrice *big.Int, err error)
}

// BridgeInitiationEvent is one hub-chain "send to L2" event the Bridge
// Finalization Matcher tries to pair with a destination-chain
// finalization, per spec.md §4.8.
type BridgeInitiationEvent struct {
	MessageHash [32]byte
	L2Token     string
	Value       *big.Int
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
}

// BridgeFinalizationEvent is one destination-chain event claiming to
// complete a previously-initiated hub-chain bridge send.
type BridgeFinalizationEvent struct {
	MessageHash [32]byte
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
}

// HubChainEventClient reads bridge-initiation events off the hub chain,
// filtered by recipient, and translates timestamps to block numbers for
// the matcher's block-range search.
type HubChainEventClient interface {
	GetInitiationEvents(ctx context.Context, fromBlock, toBlock uint64, recipient string) ([]BridgeInitiationEvent, error)
	// BlockAtOrAfterTimestamp binary-searches the hub chain for the
	// earliest block whose timestamp is >= ts, used to translate a
	// destination-chain block range into a hub-chain one.
	BlockAtOrAfterTimestamp(ctx context.Context, ts time.Time) (uint64, error)
}

// DestinationChainEventClient reads bridge-finalization events off a
// spoke chain, filtered by the candidate message-hash set, and exposes
// block timestamps for the matcher's range translation.
type DestinationChainEventClient interface {
	GetFinalizationEvents(ctx context.Context, fromBlock, toBlock uint64, messageHashes [][32]byte) ([]BridgeFinalizationEvent, error)
	BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}
