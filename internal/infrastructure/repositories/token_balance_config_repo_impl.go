package repositories

import (
	"context"
	"math/big"

	"gorm.io/gorm"
	"pay-chain.backend/internal/domain/entities"
	domainrepos "pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/internal/infrastructure/models"
)

// tokenBalanceConfigRepo persists the operator-authored inventory
// targets behind models.TokenBalanceConfig.
type tokenBalanceConfigRepo struct {
	db *gorm.DB
}

// NewTokenBalanceConfigRepository creates a new token balance config repository.
func NewTokenBalanceConfigRepository(db *gorm.DB) domainrepos.TokenBalanceConfigRepository {
	return &tokenBalanceConfigRepo{db: db}
}

func (r *tokenBalanceConfigRepo) GetByL1TokenAndChain(ctx context.Context, l1Token string, chainID int64) ([]*entities.TokenBalanceConfig, error) {
	var rows []models.TokenBalanceConfig
	err := r.db.WithContext(ctx).
		Where("l1_token = ? AND chain_id = ?", l1Token, chainID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toConfigEntities(rows), nil
}

func (r *tokenBalanceConfigRepo) GetAllForL1Token(ctx context.Context, l1Token string) ([]*entities.TokenBalanceConfig, error) {
	var rows []models.TokenBalanceConfig
	err := r.db.WithContext(ctx).Where("l1_token = ?", l1Token).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toConfigEntities(rows), nil
}

func (r *tokenBalanceConfigRepo) GetAllL1Tokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&models.TokenBalanceConfig{}).
		Distinct("l1_token").
		Pluck("l1_token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenBalanceConfigRepo) Upsert(ctx context.Context, cfg *entities.TokenBalanceConfig) error {
	row := toConfigModel(cfg)
	var existing models.TokenBalanceConfig
	err := r.db.WithContext(ctx).
		Where("l1_token = ? AND chain_id = ? AND l2_token = ?", row.L1Token, row.ChainID, row.L2Token).
		First(&existing).Error
	if err == nil {
		row.ID = existing.ID
		return r.db.WithContext(ctx).Save(row).Error
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *tokenBalanceConfigRepo) Delete(ctx context.Context, l1Token string, chainID int64, l2Token string) error {
	return r.db.WithContext(ctx).
		Where("l1_token = ? AND chain_id = ? AND l2_token = ?", l1Token, chainID, l2Token).
		Delete(&models.TokenBalanceConfig{}).Error
}

func toConfigEntities(rows []models.TokenBalanceConfig) []*entities.TokenBalanceConfig {
	out := make([]*entities.TokenBalanceConfig, 0, len(rows))
	for _, row := range rows {
		out = append(out, toConfigEntity(&row))
	}
	return out
}

func toConfigEntity(row *models.TokenBalanceConfig) *entities.TokenBalanceConfig {
	return &entities.TokenBalanceConfig{
		L1Token:                     row.L1Token,
		ChainID:                     row.ChainID,
		L2Token:                     row.L2Token,
		TargetPctFp:                 bigOrNil(row.TargetPctFp),
		ThresholdPctFp:              bigOrNil(row.ThresholdPctFp),
		TargetOverageBufferFp:       bigOrNil(row.TargetOverageBufferFp),
		UnwrapWethThresholdFp:       bigOrNil(row.UnwrapWethThresholdFp),
		UnwrapWethTargetFp:          bigOrNil(row.UnwrapWethTargetFp),
		WithdrawExcessPeriodSeconds: row.WithdrawExcessPeriodSeconds,
	}
}

func toConfigModel(cfg *entities.TokenBalanceConfig) *models.TokenBalanceConfig {
	return &models.TokenBalanceConfig{
		L1Token:                     cfg.L1Token,
		ChainID:                     cfg.ChainID,
		L2Token:                     cfg.L2Token,
		TargetPctFp:                 stringOrEmpty(cfg.TargetPctFp),
		ThresholdPctFp:              stringOrEmpty(cfg.ThresholdPctFp),
		TargetOverageBufferFp:       stringOrEmpty(cfg.TargetOverageBufferFp),
		UnwrapWethThresholdFp:       stringOrEmpty(cfg.UnwrapWethThresholdFp),
		UnwrapWethTargetFp:          stringOrEmpty(cfg.UnwrapWethTargetFp),
		WithdrawExcessPeriodSeconds: cfg.WithdrawExcessPeriodSeconds,
	}
}

func bigOrNil(s string) *big.Int {
	if s == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}

func stringOrEmpty(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
