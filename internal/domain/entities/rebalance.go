package entities

import "math/big"

// RebalanceKind distinguishes the three planner outputs described by the
// rebalance planner: moving funds from the hub to a spoke, pulling excess
// back from a spoke, and unwrapping a spoke's native-wrapped gas token.
type RebalanceKind int

const (
	RebalanceL1ToL2 RebalanceKind = iota
	RebalanceL2ToL1Excess
	RebalanceUnwrapNative
)

// Rebalance is one planned inventory-management action for one
// (L1 token, chain, L2 token) triple. Plans exist only for the duration
// of one planning pass; after execution they become adapter calls and are
// discarded.
type Rebalance struct {
	Kind RebalanceKind

	ChainID int64
	L1Token string
	L2Token string

	CurrentAllocPctFp    *big.Int
	TargetPctFp          *big.Int
	ThresholdPctFp       *big.Int
	Balance              *big.Int
	CumulativeBalanceFp  *big.Int
	Amount               *big.Int
}
