package usecases

import (
	"context"

	"go.uber.org/zap"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/logger"
)

// FinalizationMatcher implements the Bridge Finalization Matcher from
// spec.md §4.8: it pairs a hub-chain bridge-initiation event with its
// destination-chain finalization by opaque message hash, translating a
// destination-chain block range into the hub-chain range to search by
// reading destination block timestamps and binary-searching the hub
// chain for blocks at those timestamps.
type FinalizationMatcher struct {
	hub  repositories.HubChainEventClient
	dest repositories.DestinationChainEventClient
}

// NewFinalizationMatcher builds a FinalizationMatcher over the hub-chain
// and destination-chain event clients.
func NewFinalizationMatcher(hub repositories.HubChainEventClient, dest repositories.DestinationChainEventClient) *FinalizationMatcher {
	return &FinalizationMatcher{hub: hub, dest: dest}
}

// MatchFinalizedBridgeEvents runs the full algorithm for one destination
// chain's [fromBlock, toBlock] search window, filtered by recipient.
func (m *FinalizationMatcher) MatchFinalizedBridgeEvents(ctx context.Context, fromBlock, toBlock uint64, recipient string) ([]entities.MatchedFinalization, error) {
	hubFrom, hubTo, err := m.translateBlockRange(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}

	initiations, err := m.hub.GetInitiationEvents(ctx, hubFrom, hubTo, recipient)
	if err != nil {
		return nil, err
	}
	if len(initiations) == 0 {
		return nil, nil
	}

	// Zero-value initiations are non-token administrative messages, not
	// real bridge sends; they carry no finalization worth matching.
	byHash := make(map[[32]byte]repositories.BridgeInitiationEvent, len(initiations))
	hashes := make([][32]byte, 0, len(initiations))
	for _, init := range initiations {
		if init.Value == nil || init.Value.Sign() == 0 {
			continue
		}
		byHash[init.MessageHash] = init
		hashes = append(hashes, init.MessageHash)
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	finalizations, err := m.dest.GetFinalizationEvents(ctx, fromBlock, toBlock, hashes)
	if err != nil {
		return nil, err
	}

	matches := make([]entities.MatchedFinalization, 0, len(finalizations))
	for _, fin := range finalizations {
		init, ok := byHash[fin.MessageHash]
		if !ok {
			// Finalization with no matching initiation in the searched
			// window: the initiation happened before our lookback
			// horizon. Dropped per spec.md §4.8/§7 — a natural
			// consequence of bounded lookback, not an error.
			logger.Warn(ctx, "finalization without matching initiation in window",
				zap.String("messageHash", hexHash(fin.MessageHash)))
			continue
		}
		matches = append(matches, entities.MatchedFinalization{
			MessageHash:   init.MessageHash,
			L2Token:       init.L2Token,
			Amount:        init.Value,
			InitBlock:     init.BlockNumber,
			InitTxHash:    init.TxHash,
			InitLogIndex:  init.LogIndex,
			FinalBlock:    fin.BlockNumber,
			FinalTxHash:   fin.TxHash,
			FinalLogIndex: fin.LogIndex,
		})
	}
	return matches, nil
}

// translateBlockRange reads the destination chain's timestamps at
// fromBlock/toBlock and binary-searches the hub chain for the blocks
// whose timestamps bracket that window.
func (m *FinalizationMatcher) translateBlockRange(ctx context.Context, fromBlock, toBlock uint64) (hubFrom, hubTo uint64, err error) {
	fromTs, err := m.dest.BlockTimestamp(ctx, fromBlock)
	if err != nil {
		return 0, 0, err
	}
	toTs, err := m.dest.BlockTimestamp(ctx, toBlock)
	if err != nil {
		return 0, 0, err
	}
	hubFrom, err = m.hub.BlockAtOrAfterTimestamp(ctx, fromTs)
	if err != nil {
		return 0, 0, err
	}
	hubTo, err = m.hub.BlockAtOrAfterTimestamp(ctx, toTs)
	if err != nil {
		return 0, 0, err
	}
	return hubFrom, hubTo, nil
}

func hexHash(h [32]byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2+len(h)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range h {
		out[2+i*2] = hexDigits[b>>4]
		out[2+i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}
