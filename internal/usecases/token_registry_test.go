package usecases

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pay-chain.backend/internal/domain/entities"
)

func TestTokenRegistry_GetL1Tokens_OnlyCanonical(t *testing.T) {
	chainRepo := newFakeChainRepository()
	tokenRepo := newFakeTokenRepository(
		&entities.Token{ID: uuid.New(), ContractAddress: "0xCANON", IsL1Canonical: true},
		&entities.Token{ID: uuid.New(), ContractAddress: "0xSPOKE", IsL1Canonical: false, L1TokenAddress: "0xCANON"},
	)
	registry := NewTokenRegistry(chainRepo, tokenRepo)

	tokens, err := registry.GetL1Tokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xCANON"}, tokens)
}

func TestTokenRegistry_ResolveCanonicalAddress(t *testing.T) {
	chainRepo := newFakeChainRepository()
	tokenRepo := newFakeTokenRepository(
		&entities.Token{ID: uuid.New(), ContractAddress: "0xCANON", IsL1Canonical: true},
		&entities.Token{ID: uuid.New(), ContractAddress: "0xSPOKE", IsL1Canonical: false, L1TokenAddress: "0xCANON"},
		&entities.Token{ID: uuid.New(), ContractAddress: "0xORPHAN", IsL1Canonical: false},
	)
	registry := NewTokenRegistry(chainRepo, tokenRepo)

	canon, err := registry.ResolveCanonicalAddress(context.Background(), "0xCANON")
	require.NoError(t, err)
	assert.Equal(t, "0xCANON", canon)

	spokeCanon, err := registry.ResolveCanonicalAddress(context.Background(), "0xspoke")
	require.NoError(t, err)
	assert.Equal(t, "0xCANON", spokeCanon, "a spoke token should resolve to its configured L1 canonical address")

	_, err = registry.ResolveCanonicalAddress(context.Background(), "0xorphan")
	assert.Error(t, err, "a token with no L1 equivalence mapping must be a config error")

	_, err = registry.ResolveCanonicalAddress(context.Background(), "0xmissing")
	assert.Error(t, err)
}

func TestTokenRegistry_AreEquivalent(t *testing.T) {
	chainRepo := newFakeChainRepository()
	tokenRepo := newFakeTokenRepository(
		&entities.Token{ID: uuid.New(), ContractAddress: "0xCANON", IsL1Canonical: true},
		&entities.Token{ID: uuid.New(), ContractAddress: "0xSPOKE", IsL1Canonical: false, L1TokenAddress: "0xCANON"},
		&entities.Token{ID: uuid.New(), ContractAddress: "0xOTHER", IsL1Canonical: true},
	)
	registry := NewTokenRegistry(chainRepo, tokenRepo)

	eq, err := registry.AreEquivalent(context.Background(), "0xCANON", "0xSPOKE")
	require.NoError(t, err)
	assert.True(t, eq)

	neq, err := registry.AreEquivalent(context.Background(), "0xCANON", "0xOTHER")
	require.NoError(t, err)
	assert.False(t, neq)
}
