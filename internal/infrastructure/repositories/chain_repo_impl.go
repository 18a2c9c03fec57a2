package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	domainrepos "pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/utils"
)

// chainRepo persists entities.Chain/entities.ChainRPC directly; both
// already carry the gorm tags their tables need, so no separate
// persistence model exists for them.
type chainRepo struct {
	db *gorm.DB
}

// NewChainRepository creates a new chain repository.
func NewChainRepository(db *gorm.DB) domainrepos.ChainRepository {
	return &chainRepo{db: db}
}

func (r *chainRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Chain, error) {
	var chain entities.Chain
	err := r.db.WithContext(ctx).Preload("RPCs").Where("id = ?", id).First(&chain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &chain, nil
}

func (r *chainRepo) GetByCAIP2(ctx context.Context, caip2 string) (*entities.Chain, error) {
	var chain entities.Chain
	err := r.db.WithContext(ctx).
		Where("chain_id = ?", caip2).
		Or("chain_id = ?", entities.NormalizeChainID(caip2)).
		First(&chain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &chain, nil
}

func (r *chainRepo) GetByChainID(ctx context.Context, chainID string) (*entities.Chain, error) {
	var chain entities.Chain
	err := r.db.WithContext(ctx).Where("chain_id = ?", chainID).First(&chain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &chain, nil
}

func (r *chainRepo) GetAll(ctx context.Context) ([]*entities.Chain, error) {
	var chains []*entities.Chain
	if err := r.db.WithContext(ctx).Order("name").Find(&chains).Error; err != nil {
		return nil, err
	}
	return chains, nil
}

func (r *chainRepo) GetAllRPCs(ctx context.Context, chainID *uuid.UUID, isActive *bool, search *string, pagination utils.PaginationParams) ([]*entities.ChainRPC, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.ChainRPC{})
	if chainID != nil {
		query = query.Where("chain_id = ?", *chainID)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}
	if search != nil && *search != "" {
		query = query.Where("url ILIKE ?", "%"+*search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Chain")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var rpcs []*entities.ChainRPC
	if err := query.Order("priority").Find(&rpcs).Error; err != nil {
		return nil, 0, err
	}
	return rpcs, total, nil
}

func (r *chainRepo) GetActive(ctx context.Context, pagination utils.PaginationParams) ([]*entities.Chain, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Chain{}).Where("is_active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var chains []*entities.Chain
	if err := query.Order("name").Find(&chains).Error; err != nil {
		return nil, 0, err
	}
	return chains, total, nil
}

func (r *chainRepo) Create(ctx context.Context, chain *entities.Chain) error {
	if chain.ID == uuid.Nil {
		chain.ID = utils.GenerateUUIDv7()
	}
	return r.db.WithContext(ctx).Create(chain).Error
}

func (r *chainRepo) Update(ctx context.Context, chain *entities.Chain) error {
	result := r.db.WithContext(ctx).Model(&entities.Chain{}).Where("id = ?", chain.ID).Updates(map[string]interface{}{
		"chain_id":               chain.ChainID,
		"name":                   chain.Name,
		"type":                   chain.Type,
		"image_url":              chain.ImageURL,
		"is_active":              chain.IsActive,
		"is_testnet":             chain.IsTestnet,
		"currency_symbol":        chain.CurrencySymbol,
		"explorer_url":           chain.ExplorerURL,
		"rpcurl":                 chain.RPCURL,
		"is_hub":                 chain.IsHub,
		"is_lite_chain":          chain.IsLiteChain,
		"slow_withdrawal":        chain.SlowWithdrawal,
		"fast_rebalance_capable": chain.FastRebalanceCapable,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *chainRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Chain{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
