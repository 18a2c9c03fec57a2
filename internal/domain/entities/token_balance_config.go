package entities

import (
	"math/big"

	"github.com/volatiletech/null/v8"
)

// DefaultTargetOverageBufferFp is applied to TargetPct when no explicit
// TargetOverageBufferFp is configured (1.5x, already expressed at
// 18-decimal fixed-point scale).
var DefaultTargetOverageBufferFp = func() *big.Int {
	v, _ := new(big.Int).SetString("1500000000000000000", 10) // 1.5e18
	return v
}()

// TokenBalanceConfig describes the desired inventory posture for one L1
// token on one chain (optionally narrowed to one L2-token alias on that
// chain, when a chain hosts more than one equivalent token for the same
// L1 token).
type TokenBalanceConfig struct {
	L1Token string
	ChainID int64
	L2Token null.String

	// TargetPct and ThresholdPct are 18-decimal fixed-point fractions of
	// cumulative balance (0 < pct <= 1e18, not required to sum to 1
	// across chains; the hub chain absorbs the residual implicitly).
	TargetPctFp    *big.Int
	ThresholdPctFp *big.Int

	// TargetOverageBufferFp multiplies TargetPct when deciding whether a
	// chain is already "full enough" to refuse further repayment
	// allocation (repayment selector). Defaults to 1.5x.
	TargetOverageBufferFp *big.Int

	// UnwrapWethThresholdFp / UnwrapWethTargetFp gate the L2 native-unwrap
	// planner: below threshold native balance, unwrap WETH up to target.
	UnwrapWethThresholdFp *big.Int
	UnwrapWethTargetFp    *big.Int

	// WithdrawExcessPeriodSeconds, when > 0, enables the L2->L1 excess
	// withdrawal planner and sets its rate-limit window.
	WithdrawExcessPeriodSeconds int64
}

// EffectiveOverageBuffer returns TargetOverageBufferFp or the package
// default when unset.
func (c *TokenBalanceConfig) EffectiveOverageBuffer() *big.Int {
	if c.TargetOverageBufferFp != nil {
		return c.TargetOverageBufferFp
	}
	return DefaultTargetOverageBufferFp
}

// WithdrawExcessEnabled reports whether the L2->L1 excess withdrawal
// planner applies to this (token, chain) pair.
func (c *TokenBalanceConfig) WithdrawExcessEnabled() bool {
	return c.WithdrawExcessPeriodSeconds > 0
}
