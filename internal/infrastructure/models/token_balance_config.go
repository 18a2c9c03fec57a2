// Package models holds gorm-tagged persistence shapes for domain
// entities that don't carry their own gorm tags (entities.Chain and
// entities.Token do, and are persisted directly).
package models

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// TokenBalanceConfig is the gorm row for entities.TokenBalanceConfig.
// The entity keeps its fixed-point fields as *big.Int; the row stores
// them as decimal strings since no SQL driver in use here has a native
// uint256 column type.
type TokenBalanceConfig struct {
	ID                          uint   `gorm:"primaryKey;autoIncrement"`
	L1Token                     string `gorm:"type:varchar(255);uniqueIndex:idx_token_balance_config_key"`
	ChainID                     int64  `gorm:"uniqueIndex:idx_token_balance_config_key"`
	L2Token                     null.String `gorm:"type:varchar(255);uniqueIndex:idx_token_balance_config_key"`
	TargetPctFp                 string `gorm:"type:varchar(78)"`
	ThresholdPctFp               string `gorm:"type:varchar(78)"`
	TargetOverageBufferFp       string `gorm:"type:varchar(78)"`
	UnwrapWethThresholdFp       string `gorm:"type:varchar(78)"`
	UnwrapWethTargetFp          string `gorm:"type:varchar(78)"`
	WithdrawExcessPeriodSeconds int64
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// TableName pins the table name rather than relying on gorm's pluralization.
func (TokenBalanceConfig) TableName() string {
	return "token_balance_configs"
}
