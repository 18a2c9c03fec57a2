package usecases

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/pkg/fixedpoint"
	"pay-chain.backend/pkg/logger"
)

// GasCost is the simulated per-fill gas cost for one destination chain.
type GasCost struct {
	NativeGasCost *big.Int
	TokenGasCost  *big.Int
	GasPrice      *big.Int
}

// gasSimulator is the subset of repositories.GasSimulationFeed the
// estimator depends on.
type gasSimulator interface {
	GetGasCosts(ctx context.Context, deposit *entities.Deposit, relayer string) (nativeGasCost, tokenGasCost, gasPrice *big.Int, err error)
}

// ChainGasConfig carries the per-destination-chain scaling knobs spec.md
// §4.3 describes: padding applies to both native and token cost,
// multiplier (message/no-message variants) applies to token cost only.
type ChainGasConfig struct {
	GasPaddingFp           *big.Int
	GasMultiplierFp        *big.Int
	GasMultiplierMessageFp *big.Int
	TestnetOutputToken     string
}

// GasCostEstimator caches a simulated fill cost per destination chain for
// empty-message deposits (message-carrying deposits always simulate
// per-call, since a message changes execution cost unpredictably) and
// applies the configured padding/multiplier scaling.
type GasCostEstimator struct {
	sim             gasSimulator
	simulationAddr  string
	testnet         bool
	chainConfig     map[int64]ChainGasConfig
	defaultConfig   ChainGasConfig

	mu    sync.RWMutex
	cache map[int64]*GasCost
}

// NewGasCostEstimator builds an estimator. simulationAddr is the relayer
// address used for synthetic template fills; it must never equal the
// template deposit's recipient, since a self-fill changes simulated gas
// cost.
//
// gasPadding and gasMultiplier are operator-configured (spec.md §4.3) and
// out-of-range values are a Configuration error (spec.md §7): fatal,
// returned rather than silently clamped, so a bad deployment config fails
// at startup instead of mispricing every fill.
func NewGasCostEstimator(sim gasSimulator, simulationAddr string, testnet bool, chainConfig map[int64]ChainGasConfig, defaultConfig ChainGasConfig) (*GasCostEstimator, error) {
	if chainConfig == nil {
		chainConfig = map[int64]ChainGasConfig{}
	}
	if err := validateGasScaling(defaultConfig); err != nil {
		return nil, err
	}
	for chainID, cfg := range chainConfig {
		if err := validateGasScaling(cfg); err != nil {
			return nil, domainerrors.Config("chain " + strconv.FormatInt(chainID, 10) + ": " + err.Error())
		}
	}
	return &GasCostEstimator{
		sim:            sim,
		simulationAddr: simulationAddr,
		testnet:        testnet,
		chainConfig:    chainConfig,
		defaultConfig:  defaultConfig,
		cache:          make(map[int64]*GasCost),
	}, nil
}

// validateGasScaling enforces spec.md §4.3's padding/multiplier bounds.
// A nil field means "unset" and is not validated here; scalingFor treats
// an unset field as 1.0x. A chain override replaces the default config
// as a whole in configFor, so its unset fields do not take the default
// config's values.
func validateGasScaling(cfg ChainGasConfig) error {
	if cfg.GasPaddingFp != nil && (cfg.GasPaddingFp.Cmp(MinGasPaddingFp) < 0 || cfg.GasPaddingFp.Cmp(MaxGasPaddingFp) > 0) {
		return domainerrors.Config("gas padding must be between 1.0x and 3.0x (scaled), got " + cfg.GasPaddingFp.String())
	}
	if cfg.GasMultiplierFp != nil && (cfg.GasMultiplierFp.Cmp(MinGasMultiplierFp) < 0 || cfg.GasMultiplierFp.Cmp(MaxGasMultiplierFp) > 0) {
		return domainerrors.Config("gas multiplier must be between 0x and 4x (scaled), got " + cfg.GasMultiplierFp.String())
	}
	if cfg.GasMultiplierMessageFp != nil && (cfg.GasMultiplierMessageFp.Cmp(MinGasMultiplierFp) < 0 || cfg.GasMultiplierMessageFp.Cmp(MaxGasMultiplierFp) > 0) {
		return domainerrors.Config("message gas multiplier must be between 0x and 4x (scaled), got " + cfg.GasMultiplierMessageFp.String())
	}
	return nil
}

func (g *GasCostEstimator) configFor(chainID int64) ChainGasConfig {
	if c, ok := g.chainConfig[chainID]; ok {
		return c
	}
	return g.defaultConfig
}

// Update repopulates the per-chain gas cost cache by simulating one
// synthetic template deposit per enabled destination chain: known
// recipient, zero existing balance, minimal amount, and the chain's
// configured TestnetOutputToken, passed through as given on mainnet and
// testnet alike; no default output token is chosen when it is empty.
// Simulation failures map to the uint256Max sentinel for
// that chain and are logged, not returned, so one bad chain does not
// block the others.
func (g *GasCostEstimator) Update(ctx context.Context, enabledChains []int64, templateDeposit func(chainID int64, outputToken string) *entities.Deposit) error {
	results := make(map[int64]*GasCost, len(enabledChains))
	for _, chainID := range enabledChains {
		cfg := g.configFor(chainID)
		dep := templateDeposit(chainID, cfg.TestnetOutputToken)
		if dep.Recipient.Eq(entities.NewEvmAddress(g.simulationAddr)) {
			logger.Error(ctx, "gas simulation relayer must not equal recipient", zap.Int64("chain", chainID))
			results[chainID] = &GasCost{NativeGasCost: fixedpoint.Uint256Max, TokenGasCost: fixedpoint.Uint256Max, GasPrice: fixedpoint.Uint256Max}
			continue
		}

		native, token, gasPrice, err := g.sim.GetGasCosts(ctx, dep, g.simulationAddr)
		if err != nil {
			logger.Warn(ctx, "gas simulation failed", zap.Int64("chain", chainID), zap.Error(err))
			results[chainID] = &GasCost{NativeGasCost: fixedpoint.Uint256Max, TokenGasCost: fixedpoint.Uint256Max, GasPrice: fixedpoint.Uint256Max}
			continue
		}
		results[chainID] = g.scale(native, token, gasPrice, cfg, false)
	}

	g.mu.Lock()
	g.cache = results
	g.mu.Unlock()
	return nil
}

// scalingFor resolves the padding/multiplier actually in effect for cfg,
// applying the "unset means 1.0x" default and the message-vs-no-message
// multiplier split from spec.md §4.3.
func scalingFor(cfg ChainGasConfig, hasMessage bool) (padding, multiplier *big.Int) {
	padding = cfg.GasPaddingFp
	if padding == nil {
		padding = fixedpoint.Scale
	}
	multiplier = cfg.GasMultiplierFp
	if hasMessage && cfg.GasMultiplierMessageFp != nil {
		multiplier = cfg.GasMultiplierMessageFp
	}
	if multiplier == nil {
		multiplier = fixedpoint.Scale
	}
	return padding, multiplier
}

// ScalingFor exposes the padding/multiplier that TotalGasCost would apply
// for a deposit on destChainID, so callers (the Profit Engine) can record
// exactly which scaling factors produced a given GasCost.
func (g *GasCostEstimator) ScalingFor(destChainID int64, hasMessage bool) (padding, multiplier *big.Int) {
	return scalingFor(g.configFor(destChainID), hasMessage)
}

func (g *GasCostEstimator) scale(native, token, gasPrice *big.Int, cfg ChainGasConfig, hasMessage bool) *GasCost {
	padding, multiplier := scalingFor(cfg, hasMessage)

	paddedNative := fixedpoint.Mul(native, padding)
	paddedToken := fixedpoint.Mul(token, padding)
	scaledToken := fixedpoint.Mul(paddedToken, multiplier)

	return &GasCost{
		NativeGasCost: paddedNative,
		TokenGasCost:  scaledToken,
		GasPrice:      gasPrice,
	}
}

// TotalGasCost returns the estimated gas cost for deposit. Deposits
// without a message use the cached per-destination-chain estimate;
// deposits carrying a message always simulate per-call, since the
// message's execution cost cannot be approximated by a generic template.
func (g *GasCostEstimator) TotalGasCost(ctx context.Context, deposit *entities.Deposit) (*GasCost, error) {
	if !deposit.HasMessage() {
		g.mu.RLock()
		cached, ok := g.cache[deposit.Destination]
		g.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	cfg := g.configFor(deposit.Destination)
	native, token, gasPrice, err := g.sim.GetGasCosts(ctx, deposit, g.simulationAddr)
	if err != nil {
		logger.Warn(ctx, "per-call gas simulation failed", zap.String("deposit", deposit.DepositID.String()), zap.Error(err))
		return &GasCost{NativeGasCost: fixedpoint.Uint256Max, TokenGasCost: fixedpoint.Uint256Max, GasPrice: fixedpoint.Uint256Max}, nil
	}
	return g.scale(native, token, gasPrice, cfg, deposit.HasMessage()), nil
}

// IsTestnet reports whether this estimator was built in testnet mode,
// which relaxes profitability checks downstream in the Profit Engine.
func (g *GasCostEstimator) IsTestnet() bool {
	return g.testnet
}

// CachedCosts returns a snapshot of the per-chain cache populated by the
// last Update call, for status/admin reporting.
func (g *GasCostEstimator) CachedCosts() map[int64]*GasCost {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[int64]*GasCost, len(g.cache))
	for k, v := range g.cache {
		out[k] = v
	}
	return out
}
