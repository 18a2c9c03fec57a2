package usecases

import (
	"math/big"
	"time"

	"pay-chain.backend/pkg/fixedpoint"
)

// EVM technical constants reused by ABI-adjacent packing helpers.
const EVMWordSize = 32
const EVMWordSizeHex = 64

// balanceOf(address) function selector.
const BalanceOfSelector = "0x70a08231"

// Gas-cost scaling bounds (spec.md §4.3): gasPadding multiplies both
// native and token gas cost and must stay within 1.0x-3.0x; gasMultiplier
// further scales token cost only and must stay within 0x-4x. A configured
// value outside these bounds is a fatal configuration error (spec.md §7).
var (
	MinGasPaddingFp    = new(big.Int).Set(fixedpoint.Scale)
	MaxGasPaddingFp    = new(big.Int).Mul(big.NewInt(3), fixedpoint.Scale)
	MinGasMultiplierFp = new(big.Int)
	MaxGasMultiplierFp = new(big.Int).Mul(big.NewInt(4), fixedpoint.Scale)
)

// DefaultUpdateInterval is how often the background ticker refreshes the
// price cache and gas cost estimator when no override is configured.
const DefaultUpdateInterval = 60 * time.Second

// ExcessWithdrawThresholdSafetyFp shaves 5% off the overage-buffer-scaled
// threshold before comparing current allocation against it (spec.md
// §4.7): excessWithdrawThresholdPct = targetPct * overageBuffer * 0.95.
const ExcessWithdrawThresholdSafetyFp = 0.95
