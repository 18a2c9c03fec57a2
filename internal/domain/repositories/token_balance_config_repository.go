package repositories

import (
	"context"

	"pay-chain.backend/internal/domain/entities"
)

// TokenBalanceConfigRepository persists the operator-authored inventory
// targets (TOKEN_BALANCE_CONFIG equivalent). Mirrors the ConfigStore
// client's getSpokeTargetBalancesForBlock surface but as a local,
// operator-editable store rather than an on-chain read.
type TokenBalanceConfigRepository interface {
	GetByL1TokenAndChain(ctx context.Context, l1Token string, chainID int64) ([]*entities.TokenBalanceConfig, error)
	GetAllForL1Token(ctx context.Context, l1Token string) ([]*entities.TokenBalanceConfig, error)
	GetAllL1Tokens(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, cfg *entities.TokenBalanceConfig) error
	Delete(ctx context.Context, l1Token string, chainID int64, l2Token string) error
}
