package entities

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Deposit is an immutable cross-chain intent discovered by an external
// SpokePool event client. The engine only reads deposits; it never
// mutates or persists them across restarts.
type Deposit struct {
	DepositID   uuid.UUID
	Origin      int64
	Destination int64

	InputToken  Address
	InputAmount *big.Int

	OutputToken  Address
	OutputAmount *big.Int

	// UpdatedOutputAmount reflects a depositor-submitted speedup; when
	// present the Profit Engine uses min(OutputAmount,
	// UpdatedOutputAmount) as the effective output.
	UpdatedOutputAmount *big.Int

	Message             []byte
	FillDeadline        time.Time
	ExclusivityDeadline time.Time
	ExclusiveRelayer    Address

	// FromLiteChain forces origin-chain repayment regardless of
	// allocation targets.
	FromLiteChain bool
	// ToLiteChain alters repayment preference toward the origin chain
	// without forcing it the way FromLiteChain does.
	ToLiteChain bool

	Depositor Address
	Recipient Address

	QuoteTimestamp time.Time
}

// EffectiveOutputAmount returns the smaller of OutputAmount and
// UpdatedOutputAmount, per the profit engine's normalization rule.
func (d *Deposit) EffectiveOutputAmount() *big.Int {
	if d.UpdatedOutputAmount == nil {
		return d.OutputAmount
	}
	if d.UpdatedOutputAmount.Cmp(d.OutputAmount) < 0 {
		return d.UpdatedOutputAmount
	}
	return d.OutputAmount
}

// SameTokenBothSides reports whether InputToken and OutputToken are the
// identical native address (used by the repayment selector's
// expected-post-relay-allocation formula).
func (d *Deposit) SameTokenBothSides() bool {
	return d.InputToken.Eq(d.OutputToken)
}

// HasMessage reports whether this deposit carries an arbitrary message,
// which forces per-call gas simulation instead of the cached per-chain
// estimate.
func (d *Deposit) HasMessage() bool {
	return len(d.Message) > 0
}
