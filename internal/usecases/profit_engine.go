package usecases

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/pkg/fixedpoint"
	"pay-chain.backend/pkg/logger"
)

// RouteInputs bundles the per-deposit inputs the Profit Engine needs
// beyond the deposit itself: the LP fee fraction for the route, token
// decimals on both sides, and the gas token's decimals/price on the
// destination chain.
type RouteInputs struct {
	LPFeeFracFp      *big.Int
	InputDecimals    int
	OutputDecimals   int
	GasTokenDecimals int
	GasTokenPriceFp  *big.Int
}

// ProfitEngine computes FillProfit for a deposit and decides whether it
// clears the per-route minimum relayer fee.
type ProfitEngine struct {
	prices *PriceCache
	gas    *GasCostEstimator

	mu            sync.RWMutex
	minFeeCache   map[string]*big.Int
	defaultMinFee *big.Int

	unprofitableMu sync.Mutex
	unprofitable   map[int64][]uuid.UUID
}

// NewProfitEngine builds a ProfitEngine over a shared price cache and gas
// cost estimator.
func NewProfitEngine(prices *PriceCache, gas *GasCostEstimator, defaultMinFeeFp *big.Int) *ProfitEngine {
	return &ProfitEngine{
		prices:        prices,
		gas:           gas,
		minFeeCache:   make(map[string]*big.Int),
		defaultMinFee: defaultMinFeeFp,
		unprofitable:  make(map[int64][]uuid.UUID),
	}
}

// MinRelayerFeeFrac resolves the minimum relayer fee fraction for a route,
// checking (in order) MIN_RELAYER_FEE_PCT_<SYMBOL>_<src>_<dst>, then
// MIN_RELAYER_FEE_PCT_<SYMBOL>, then the configured default. Results are
// cached per route for the lifetime of the process.
func (p *ProfitEngine) MinRelayerFeeFrac(symbol string, originChainID, destChainID int64) *big.Int {
	routeKey := fmt.Sprintf("%s_%d_%d", symbol, originChainID, destChainID)

	p.mu.RLock()
	if v, ok := p.minFeeCache[routeKey]; ok {
		p.mu.RUnlock()
		return v
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.minFeeCache[routeKey]; ok {
		return v
	}

	var resolved *big.Int
	if v, ok := envFixedPoint(fmt.Sprintf("MIN_RELAYER_FEE_PCT_%s_%d_%d", symbol, originChainID, destChainID)); ok {
		resolved = v
	} else if v, ok := envFixedPoint(fmt.Sprintf("MIN_RELAYER_FEE_PCT_%s", symbol)); ok {
		resolved = v
	} else {
		resolved = p.defaultMinFee
	}
	p.minFeeCache[routeKey] = resolved
	return resolved
}

func envFixedPoint(key string) (*big.Int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, false
	}
	f, _, err := big.ParseFloat(raw, 10, 200, big.ToNearestEven)
	if err != nil {
		return nil, false
	}
	scaled := new(big.Float).Mul(f, new(big.Float).SetInt(fixedpoint.Scale))
	v, _ := scaled.Int(nil)
	return v, true
}

// ComputeFillProfit runs the seven-step fixed-point calculation from
// spec.md §4.4. It returns a fully populated FillProfit even when one
// side's price is unknown (Profitable will be false in that case, per
// the "missing price => unprofitable" boundary behavior).
func (p *ProfitEngine) ComputeFillProfit(ctx context.Context, deposit *entities.Deposit, inputs RouteInputs, symbol string) (*entities.FillProfit, error) {
	inputPrice := p.prices.GetPrice(deposit.InputToken.ToNative())
	outputPrice := p.prices.GetPrice(deposit.OutputToken.ToNative())

	inputScaled := fixedpoint.ConvertDecimals(inputs.InputDecimals, 18, deposit.InputAmount)
	inputUsd := fixedpoint.Mul(inputScaled, inputPrice)

	effectiveOutput := deposit.EffectiveOutputAmount()
	outputScaled := fixedpoint.ConvertDecimals(inputs.OutputDecimals, 18, effectiveOutput)
	outputUsd := fixedpoint.Mul(outputScaled, outputPrice)

	lpFeeUsd := new(big.Int)
	if inputUsd.Sign() != 0 {
		lpFeeUsd = fixedpoint.MulFrac(inputScaled, new(big.Int).Mul(inputs.LPFeeFracFp, inputPrice), new(big.Int).Mul(fixedpoint.Scale, fixedpoint.Scale))
	}

	grossRelayerFeeUsd := new(big.Int).Sub(new(big.Int).Sub(inputUsd, outputUsd), lpFeeUsd)
	grossRelayerFeeFrac := new(big.Int)
	if inputUsd.Sign() > 0 && grossRelayerFeeUsd.Sign() > 0 {
		grossRelayerFeeFrac = fixedpoint.Div(grossRelayerFeeUsd, inputUsd)
	} else if grossRelayerFeeUsd.Sign() < 0 {
		grossRelayerFeeUsd = new(big.Int)
	}

	gasCost, err := p.gas.TotalGasCost(ctx, deposit)
	if err != nil {
		return nil, err
	}
	gasCostUsd := new(big.Int)
	if inputs.GasTokenPriceFp != nil && inputs.GasTokenDecimals >= 0 && !fixedpoint.IsUint256Max(gasCost.TokenGasCost) {
		scaledGas := fixedpoint.ConvertDecimals(inputs.GasTokenDecimals, 18, gasCost.TokenGasCost)
		gasCostUsd = fixedpoint.Mul(scaledGas, inputs.GasTokenPriceFp)
	} else {
		gasCostUsd = fixedpoint.Uint256Max
	}

	netRelayerFeeUsd := new(big.Int).Sub(grossRelayerFeeUsd, gasCostUsd)
	netRelayerFeeFrac := new(big.Int)
	if outputUsd.Sign() > 0 {
		netRelayerFeeFrac = fixedpoint.Div(netRelayerFeeUsd, outputUsd)
	}

	minFee := p.MinRelayerFeeFrac(symbol, deposit.Origin, deposit.Destination)
	profitable := inputPrice.Sign() > 0 && outputPrice.Sign() > 0 && outputUsd.Sign() > 0 && netRelayerFeeFrac.Cmp(minFee) >= 0

	gasPadding, gasMultiplier := p.gas.ScalingFor(deposit.Destination, deposit.HasMessage())

	result := &entities.FillProfit{
		InputUsdFp:            inputUsd,
		OutputUsdFp:           outputUsd,
		GrossRelayerFeeUsdFp:  grossRelayerFeeUsd,
		GrossRelayerFeeFracFp: grossRelayerFeeFrac,
		NetRelayerFeeUsdFp:    netRelayerFeeUsd,
		NetRelayerFeeFracFp:   netRelayerFeeFrac,
		GasCostNative:         gasCost.NativeGasCost,
		GasCostToken:          gasCost.TokenGasCost,
		GasCostUsdFp:          gasCostUsd,
		GasPrice:              gasCost.GasPrice,
		GasPaddingFp:          gasPadding,
		GasMultiplierFp:       gasMultiplier,
		Profitable:            profitable,
	}

	if !profitable {
		p.recordUnprofitable(deposit.Origin, deposit.DepositID)
	}
	return result, nil
}

// IsFillProfitable applies the testnet relaxation: on testnets, any
// deposit whose gas simulation actually succeeded (native cost below the
// failure sentinel) is treated as profitable regardless of the computed
// fraction, so integration testing isn't blocked by thin testnet
// liquidity.
func (p *ProfitEngine) IsFillProfitable(ctx context.Context, deposit *entities.Deposit, profit *entities.FillProfit) bool {
	if p.gas.IsTestnet() && !fixedpoint.IsUint256Max(profit.GasCostNative) {
		return true
	}
	return profit.Profitable
}

func (p *ProfitEngine) recordUnprofitable(originChainID int64, depositID uuid.UUID) {
	p.unprofitableMu.Lock()
	defer p.unprofitableMu.Unlock()
	p.unprofitable[originChainID] = append(p.unprofitable[originChainID], depositID)
	logger.Debug(context.Background(), "deposit unprofitable", zap.Int64("origin", originChainID), zap.String("deposit", depositID.String()))
}

// UnprofitableDeposits returns the recorded unprofitable deposit IDs for
// an origin chain.
func (p *ProfitEngine) UnprofitableDeposits(originChainID int64) []uuid.UUID {
	p.unprofitableMu.Lock()
	defer p.unprofitableMu.Unlock()
	out := make([]uuid.UUID, len(p.unprofitable[originChainID]))
	copy(out, p.unprofitable[originChainID])
	return out
}

// ClearUnprofitable empties the recorded list for an origin chain,
// typically called once the caller has acted on (e.g. logged/alerted) the
// current batch.
func (p *ProfitEngine) ClearUnprofitable(originChainID int64) {
	p.unprofitableMu.Lock()
	defer p.unprofitableMu.Unlock()
	delete(p.unprofitable, originChainID)
}
