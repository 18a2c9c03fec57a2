package usecases

import (
	"context"
	"strings"

	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"
)

// TokenRegistry resolves the L1-token / equivalence-symbol relationships
// spec.md §3 calls TOKEN_SYMBOLS_MAP and TOKEN_EQUIVALENCE_REMAPPING,
// backed by the ChainRepository/TokenRepository pair the teacher already
// uses for its chain/token CRUD surface.
type TokenRegistry struct {
	chainRepo repositories.ChainRepository
	tokenRepo repositories.TokenRepository
}

// NewTokenRegistry builds a TokenRegistry over the existing chain/token
// repositories.
func NewTokenRegistry(chainRepo repositories.ChainRepository, tokenRepo repositories.TokenRepository) *TokenRegistry {
	return &TokenRegistry{chainRepo: chainRepo, tokenRepo: tokenRepo}
}

// GetL1Tokens returns every hub-chain canonical token address. Per the
// resolved Open Question (SPEC_FULL.md §4.1), an absent or empty
// tokenConfig both mean "fall back to every hub-pool token", so this
// reads directly off the token repository rather than any operator
// config.
func (r *TokenRegistry) GetL1Tokens(ctx context.Context) ([]string, error) {
	tokens, err := r.tokenRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range tokens {
		if t.IsL1Canonical {
			out = append(out, normalizeEvmAddress(t.ContractAddress))
		}
	}
	return out, nil
}

// ResolveCanonicalAddress maps a (possibly spoke-chain) token address to
// its L1-token canonical address: the token's own address when it is
// L1-canonical, otherwise its recorded L1TokenAddress. No separate
// equivalence-remapping table is consulted.
func (r *TokenRegistry) ResolveCanonicalAddress(ctx context.Context, tokenAddress string) (string, error) {
	tokens, err := r.tokenRepo.GetAll(ctx)
	if err != nil {
		return "", err
	}
	target := strings.ToLower(tokenAddress)
	for _, t := range tokens {
		if strings.ToLower(t.ContractAddress) != target {
			continue
		}
		if t.IsL1Canonical {
			return normalizeEvmAddress(t.ContractAddress), nil
		}
		if t.L1TokenAddress != "" {
			return normalizeEvmAddress(t.L1TokenAddress), nil
		}
		return "", domainerrors.Config("token has no L1 equivalence mapping: " + tokenAddress)
	}
	return "", domainerrors.Config("unknown token: " + tokenAddress)
}

// AreEquivalent reports whether two token addresses share the same
// canonical L1 identity (the repayment selector's fatal-bug check when
// validating a deposit's output token).
func (r *TokenRegistry) AreEquivalent(ctx context.Context, aToken, bToken string) (bool, error) {
	aCanon, err := r.ResolveCanonicalAddress(ctx, aToken)
	if err != nil {
		return false, err
	}
	bCanon, err := r.ResolveCanonicalAddress(ctx, bToken)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(aCanon, bCanon), nil
}
