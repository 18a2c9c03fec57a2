package entities

import "math/big"

// FillProfit is the ephemeral result of one profitability computation for
// one deposit. It is never persisted; callers consume it immediately and
// discard it.
type FillProfit struct {
	InputUsdFp  *big.Int
	OutputUsdFp *big.Int

	GrossRelayerFeeUsdFp  *big.Int
	GrossRelayerFeeFracFp *big.Int

	NetRelayerFeeUsdFp  *big.Int
	NetRelayerFeeFracFp *big.Int

	GasCostNative *big.Int
	GasCostToken  *big.Int
	GasCostUsdFp  *big.Int
	GasPrice      *big.Int

	// GasPaddingFp and GasMultiplierFp record the scaling factors applied
	// to reach GasCostToken/GasCostNative, for observability.
	GasPaddingFp    *big.Int
	GasMultiplierFp *big.Int

	Profitable bool
}
