package entities

import "math/big"

// CrossChainTransferStatus tracks the lifecycle of a bridge transfer the
// relayer initiated (L1->L2 rebalance, L2->L1 excess withdrawal) as seen
// by the external cross-chain transfer client.
type CrossChainTransferStatus string

const (
	TransferStatusPending   CrossChainTransferStatus = "pending"
	TransferStatusFinalized CrossChainTransferStatus = "finalized"
)

// CrossChainTransfer is owned by an external collaborator (the
// cross-chain transfer client); the Virtual Balance Accountant reads it
// through to compute pending-inbound totals but never writes it.
type CrossChainTransfer struct {
	Address string
	L1Token string
	L2Token string
	ChainID int64
	Amount  *big.Int
	Status  CrossChainTransferStatus
}

// MatchedFinalization is emitted by the Bridge Finalization Matcher: one
// initiation event paired with its corresponding finalization event by
// message hash.
type MatchedFinalization struct {
	MessageHash   [32]byte
	L2Token       string
	Amount        *big.Int
	InitBlock     uint64
	InitTxHash    string
	InitLogIndex  uint
	FinalBlock    uint64
	FinalTxHash   string
	FinalLogIndex uint
}
