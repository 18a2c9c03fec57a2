package blockchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// dialEVMClient and getClientChainID are indirected through package
// variables so tests can substitute a fake dial/chain-id path without a
// live RPC endpoint; production code never overrides them.
var dialEVMClient = ethclient.Dial

var getClientChainID = func(c *ethclient.Client, ctx context.Context) (*big.Int, error) {
	return c.ChainID(ctx)
}

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	client  *ethclient.Client
	chainID *big.Int
	rpcURL  string

	// callView, when set, replaces CallContract as the CallView
	// implementation. Used by NewEVMClientWithCallView to build
	// deterministic test doubles that never dial a real endpoint.
	callView func(ctx context.Context, to string, data []byte) ([]byte, error)
}

// NewEVMClient creates a new EVM client
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// NewEVMClientWithCallView builds an EVMClient whose CallView calls are
// served by fn instead of a live RPC connection, for wiring
// HubChainEventClient/DestinationChainEventClient test doubles and for
// chains reachable only through a custom RPC transport. chainID defaults
// to mainnet (1) when nil.
func NewEVMClientWithCallView(chainID *big.Int, fn func(ctx context.Context, to string, data []byte) ([]byte, error)) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{chainID: chainID, callView: fn}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetBalance gets the native token balance of an address
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	addr := common.HexToAddress(address)
	return c.client.BalanceAt(ctx, addr, nil)
}

// GetTokenBalance gets the ERC20 token balance of an address
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddress, ownerAddress string) (*big.Int, error) {
	token := common.HexToAddress(tokenAddress)
	owner := common.HexToAddress(ownerAddress)

	// balanceOf(address) selector: 0x70a08231
	data := append(common.Hex2Bytes("70a08231"), common.LeftPadBytes(owner.Bytes(), 32)...)

	msg := ethereum.CallMsg{
		To:   &token,
		Data: data,
	}

	result, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(result), nil
}

// CallView performs a generic read-only eth_call against to with the
// given calldata, used for ABI-level reads the gas-simulation and
// finalization-matching flows need (balanceOf/allowance preflight,
// arbitrary view calls) without a dedicated method per selector.
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.callView != nil {
		return c.callView(ctx, to, data)
	}
	addr := common.HexToAddress(to)
	return c.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
}

// GetTransaction gets transaction details
func (c *EVMClient) GetTransaction(ctx context.Context, txHash string) (*types.Transaction, bool, error) {
	hash := common.HexToHash(txHash)
	return c.client.TransactionByHash(ctx, hash)
}

// GetTransactionReceipt gets transaction receipt
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)
	return c.client.TransactionReceipt(ctx, hash)
}

// GetBlockNumber gets the latest block number
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// HeaderByNumber returns the block header at number, or the latest header
// when number is nil. Used by the Bridge Finalization Matcher's block-
// range translation to read a block's timestamp.
func (c *EVMClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.client.HeaderByNumber(ctx, number)
}

// FilterLogs runs a raw log filter query, the primitive the bridge
// initiation/finalization event readers build their per-topic queries on
// top of.
func (c *EVMClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return c.client.FilterLogs(ctx, query)
}

// EstimateGas estimates gas for a transaction
func (c *EVMClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.client.EstimateGas(ctx, msg)
}

// Close closes the client connection. No-op when the client was built via
// NewEVMClientWithCallView and never dialed a real endpoint.
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
