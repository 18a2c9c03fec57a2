package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
)

// ChainType represents blockchain type
type ChainType string

const (
	ChainTypeEVM       ChainType = "EVM"
	ChainTypeSVM       ChainType = "SVM"
	ChainTypeSubstrate ChainType = "SUBSTRATE"
)

// Chain represents a blockchain the relayer can hold inventory on and fill
// deposits for. Exactly one enabled Chain has IsHub set; every other
// enabled chain is a spoke.
type Chain struct {
	ID             uuid.UUID  `json:"uuid" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ChainID        string     `json:"id" gorm:"uniqueIndex;not null"` // Map blockchain ID to "id" for FE
	Name           string     `json:"name"`
	Type           ChainType  `json:"chainType" gorm:"type:varchar(50);not null"` // Map Type to "chainType"
	ImageURL       string     `json:"imageUrl,omitempty"`
	IsActive       bool       `json:"isActive"`
	IsTestnet      bool       `json:"isTestnet"`
	CurrencySymbol string     `json:"currencySymbol"`
	ExplorerURL    string     `json:"explorerUrl,omitempty"`
	RPCURL         string     `json:"rpcUrl"` // Main RPC
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" gorm:"index"`

	// IsHub marks the single chain that acts as the rebalancing hub
	// (repayment fallback, source of L1->L2 transfers).
	IsHub bool `json:"isHub" gorm:"default:false"`
	// IsLiteChain marks spoke chains without a pool rebalance route: a
	// deposit originating here must be repaid on its own origin chain.
	IsLiteChain bool `json:"isLiteChain" gorm:"default:false"`
	// SlowWithdrawal marks chains whose L2->L1 withdrawal path is slow
	// enough that the repayment selector should prioritize draining
	// excess balance here ahead of the destination/origin/hub fallback.
	SlowWithdrawal bool `json:"slowWithdrawal" gorm:"default:false"`
	// FastRebalanceCapable marks chains the inventory manager can move
	// funds onto/off of quickly (the hub itself, or a spoke with a fast
	// on/off-ramp); required for forced-origin repayment to apply.
	FastRebalanceCapable bool `json:"fastRebalanceCapable" gorm:"default:false"`

	// Relationships
	RPCs []ChainRPC `json:"rpcs,omitempty" gorm:"foreignKey:ChainID"`
}

// NumericChainID parses the chain's numeric identifier, stripping any
// CAIP-2 namespace prefix (eip155:/solana:) if present.
func (c *Chain) NumericChainID() int64 {
	raw := strings.TrimSpace(c.ChainID)
	if idx := strings.Index(raw, ":"); idx >= 0 {
		raw = raw[idx+1:]
	}
	var n int64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// NormalizeChainID applies the same namespace heuristic as
// Chain.GetCAIP2ID to a bare chain identifier string, for callers (like
// ChainResolver) that only have the raw input, not a loaded Chain row.
// Purely-numeric input is assumed EVM (eip155) since that is the
// overwhelmingly common case among configured chains; anything already
// carrying a CAIP-2 namespace, or non-numeric, is returned unchanged.
func NormalizeChainID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(trimmed, ":") {
		return trimmed
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return trimmed
		}
	}
	return fmt.Sprintf("eip155:%s", trimmed)
}

// ChainRPC represents a blockchain RPC endpoint
type ChainRPC struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ChainID     uuid.UUID      `json:"chainId"`
	URL         string         `json:"url"`
	Priority    int            `json:"priority"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	LastErrorAt *time.Time     `json:"lastErrorAt,omitempty"`
	ErrorCount  int            `json:"errorCount"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Joined fields
	Chain *Chain `json:"chain,omitempty"`
}

// GetCAIP2ID returns the CAIP-2 formatted chain ID
// Deprecated: Logic moved to specific adapters.
// However, useful helper: if ChainType is EVM, generic logic applies.
func (c *Chain) GetCAIP2ID() string {
	raw := strings.TrimSpace(c.ChainID)
	if strings.Contains(raw, ":") {
		return raw
	}

	// Simple heuristic. ideally implementation details should handle this.
	// For EVM: eip155:ChainID
	if c.Type == ChainTypeEVM {
		return fmt.Sprintf("eip155:%s", raw)
	}
	// For SVM: solana:ChainID?
	// This might need refinement based on exact storage of ChainID for Solana.
	if c.Type == ChainTypeSVM {
		return fmt.Sprintf("solana:%s", raw)
	}
	return raw
}

// TokenType represents token type
type TokenType string

const (
	TokenTypeERC20  TokenType = "ERC20"
	TokenTypeNative TokenType = "NATIVE"
	TokenTypeSPL    TokenType = "SPL"
)

// Token represents a token on a specific chain. When IsL1Canonical is
// true, ContractAddress on the hub chain is the "L1 token" identity that
// spoke-chain equivalents are mapped against via L1TokenAddress.
type Token struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ChainUUID       uuid.UUID   `json:"chainId" gorm:"type:uuid;not null;column:chain_id"` // Keep internal UUID mapping
	BlockchainID    string      `json:"blockchainId" gorm:"-"`                             // Virtual field for FE
	Chain           *Chain      `json:"chain,omitempty" gorm:"foreignKey:ChainUUID"`
	Name            string      `json:"name" gorm:"not null"`
	Symbol          string      `json:"symbol" gorm:"not null"`
	Decimals        int         `json:"decimals" gorm:"not null;default:18"`
	Type            TokenType   `json:"type" gorm:"type:varchar(20);not null;default:'ERC20'"`
	ContractAddress string      `json:"contractAddress"` // Renamed from Address
	LogoURL         string      `json:"logoUrl,omitempty"`
	IsActive        bool        `json:"isActive" gorm:"default:true"`
	IsNative        bool        `json:"isNative" gorm:"default:false"`
	IsStablecoin    bool        `json:"isStablecoin" gorm:"default:false"`
	MinAmount       string      `json:"minAmount" gorm:"type:decimal(36,18);default:0"`
	MaxAmount       null.String `json:"maxAmount,omitempty" gorm:"type:decimal(36,18)"`

	// IsL1Canonical marks this row as the hub-chain "L1 token" identity
	// for its symbol. Every spoke-chain Token equivalent to it sets
	// L1TokenAddress to this row's ContractAddress.
	IsL1Canonical bool        `json:"isL1Canonical" gorm:"default:false"`
	L1TokenAddress string     `json:"l1TokenAddress,omitempty"`
	// EquivalenceSymbol supports TOKEN_EQUIVALENCE_REMAPPING: a display
	// symbol (e.g. a chain's native gas token) resolves price/config
	// lookups under this canonical symbol instead of its own.
	EquivalenceSymbol string `json:"equivalenceSymbol,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}
