package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"pay-chain.backend/internal/domain/repositories"
)

// BridgeEventClient implements repositories.HubChainEventClient and
// repositories.DestinationChainEventClient over a single EVMClient,
// reading the bridge adapter's initiation/finalization logs by topic and
// binary-searching block timestamps for the Bridge Finalization
// Matcher's block-range translation (spec.md §4.8).
//
// The first indexed topic after the event signature is always the opaque
// message hash both event kinds share; the second carries the recipient
// for initiation events. Both topics are adapter-specific and supplied by
// the caller rather than hard-coded, since every bridge adapter the
// relayer supports defines its own event signatures.
type BridgeEventClient struct {
	client                *EVMClient
	initiationSignature   common.Hash
	finalizationSignature common.Hash
	contractAddress       common.Address
}

// NewBridgeEventClient builds a BridgeEventClient reading initiation and
// finalization logs emitted by contractAddress.
func NewBridgeEventClient(client *EVMClient, contractAddress string, initiationSignature, finalizationSignature common.Hash) *BridgeEventClient {
	return &BridgeEventClient{
		client:                client,
		initiationSignature:   initiationSignature,
		finalizationSignature: finalizationSignature,
		contractAddress:       common.HexToAddress(contractAddress),
	}
}

// GetInitiationEvents implements repositories.HubChainEventClient.
func (c *BridgeEventClient) GetInitiationEvents(ctx context.Context, fromBlock, toBlock uint64, recipient string) ([]repositories.BridgeInitiationEvent, error) {
	recipientTopic := common.BytesToHash(common.LeftPadBytes(common.HexToAddress(recipient).Bytes(), 32))
	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contractAddress},
		Topics:    [][]common.Hash{{c.initiationSignature}, nil, {recipientTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter initiation logs: %w", err)
	}

	out := make([]repositories.BridgeInitiationEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := decodeInitiationLog(lg)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// BlockAtOrAfterTimestamp implements repositories.HubChainEventClient by
// binary-searching block headers for the earliest block whose timestamp
// is >= ts.
func (c *BridgeEventClient) BlockAtOrAfterTimestamp(ctx context.Context, ts time.Time) (uint64, error) {
	latest, err := c.client.GetBlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	return binarySearchBlockByTimestamp(ctx, c.client, 0, latest, ts.Unix())
}

// GetFinalizationEvents implements repositories.DestinationChainEventClient.
func (c *BridgeEventClient) GetFinalizationEvents(ctx context.Context, fromBlock, toBlock uint64, messageHashes [][32]byte) ([]repositories.BridgeFinalizationEvent, error) {
	if len(messageHashes) == 0 {
		return nil, nil
	}
	wanted := make([]common.Hash, len(messageHashes))
	for i, h := range messageHashes {
		wanted[i] = common.BytesToHash(h[:])
	}
	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contractAddress},
		Topics:    [][]common.Hash{{c.finalizationSignature}, wanted},
	})
	if err != nil {
		return nil, fmt.Errorf("filter finalization logs: %w", err)
	}

	out := make([]repositories.BridgeFinalizationEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) < 2 {
			continue
		}
		out = append(out, repositories.BridgeFinalizationEvent{
			MessageHash: lg.Topics[1],
			BlockNumber: lg.BlockNumber,
			TxHash:      lg.TxHash.Hex(),
			LogIndex:    lg.Index,
		})
	}
	return out, nil
}

// BlockTimestamp implements repositories.DestinationChainEventClient.
func (c *BridgeEventClient) BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

func decodeInitiationLog(lg types.Log) (repositories.BridgeInitiationEvent, error) {
	// Topics[0] is always the event signature (the filter predicate);
	// Topics[1] is the opaque message hash both event kinds share.
	if len(lg.Topics) < 2 {
		return repositories.BridgeInitiationEvent{}, fmt.Errorf("initiation log missing message hash topic")
	}
	var l2Token string
	var value *big.Int
	switch {
	case len(lg.Data) >= 64:
		l2Token = common.BytesToAddress(lg.Data[:32]).Hex()
		value = new(big.Int).SetBytes(lg.Data[32:64])
	case len(lg.Data) >= 32:
		value = new(big.Int).SetBytes(lg.Data[:32])
	default:
		value = new(big.Int)
	}
	return repositories.BridgeInitiationEvent{
		MessageHash: lg.Topics[1],
		L2Token:     l2Token,
		Value:       value,
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    lg.Index,
	}, nil
}

// binarySearchBlockByTimestamp returns the earliest block number in
// [lo, hi] whose header timestamp is >= targetUnix, assuming block
// timestamps are monotonically non-decreasing (true for all supported
// chains).
func binarySearchBlockByTimestamp(ctx context.Context, client *EVMClient, lo, hi uint64, targetUnix int64) (uint64, error) {
	result := hi
	for lo <= hi {
		mid := lo + (hi-lo)/2
		header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(mid))
		if err != nil {
			return 0, err
		}
		if int64(header.Time) >= targetUnix {
			result = mid
			if mid == 0 {
				break
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return result, nil
}
