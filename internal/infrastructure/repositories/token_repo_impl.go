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

// tokenRepo persists entities.Token directly; it already carries the
// gorm tags its table needs.
type tokenRepo struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *gorm.DB) domainrepos.TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Token, error) {
	var token entities.Token
	err := r.db.WithContext(ctx).Preload("Chain").Where("id = ?", id).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) GetBySymbol(ctx context.Context, symbol string, chainID uuid.UUID) (*entities.Token, error) {
	var token entities.Token
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND chain_id = ?", symbol, chainID).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) GetByAddress(ctx context.Context, address string, chainID uuid.UUID) (*entities.Token, error) {
	var token entities.Token
	err := r.db.WithContext(ctx).
		Where("contract_address = ? AND chain_id = ?", address, chainID).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) GetAll(ctx context.Context) ([]*entities.Token, error) {
	var tokens []*entities.Token
	if err := r.db.WithContext(ctx).Order("symbol").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepo) GetStablecoins(ctx context.Context) ([]*entities.Token, error) {
	var tokens []*entities.Token
	err := r.db.WithContext(ctx).
		Where("is_stablecoin = ?", true).
		Order("symbol").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepo) GetNative(ctx context.Context, chainID uuid.UUID) (*entities.Token, error) {
	var token entities.Token
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND is_native = ?", chainID, true).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) GetTokensByChain(ctx context.Context, chainID uuid.UUID, pagination utils.PaginationParams) ([]*entities.Token, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Token{}).Where("chain_id = ?", chainID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var tokens []*entities.Token
	if err := query.Order("symbol").Find(&tokens).Error; err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}

func (r *tokenRepo) GetAllTokens(ctx context.Context, chainID *uuid.UUID, search *string, pagination utils.PaginationParams) ([]*entities.Token, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Token{})
	if chainID != nil {
		query = query.Where("chain_id = ?", *chainID)
	}
	if search != nil && *search != "" {
		query = query.Where("symbol ILIKE ? OR name ILIKE ?", "%"+*search+"%", "%"+*search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Chain")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var tokens []*entities.Token
	if err := query.Order("symbol").Find(&tokens).Error; err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}

func (r *tokenRepo) Create(ctx context.Context, token *entities.Token) error {
	if token.ID == uuid.Nil {
		token.ID = utils.GenerateUUIDv7()
	}
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepo) Update(ctx context.Context, token *entities.Token) error {
	result := r.db.WithContext(ctx).Model(&entities.Token{}).Where("id = ?", token.ID).Updates(map[string]interface{}{
		"chain_id":            token.ChainUUID,
		"name":                token.Name,
		"symbol":              token.Symbol,
		"decimals":            token.Decimals,
		"type":                token.Type,
		"contract_address":    token.ContractAddress,
		"logo_url":            token.LogoURL,
		"is_active":           token.IsActive,
		"is_native":           token.IsNative,
		"is_stablecoin":       token.IsStablecoin,
		"min_amount":          token.MinAmount,
		"max_amount":          token.MaxAmount,
		"is_l1_canonical":     token.IsL1Canonical,
		"l1_token_address":    token.L1TokenAddress,
		"equivalence_symbol":  token.EquivalenceSymbol,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *tokenRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Token{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
