package usecases

import (
	"context"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/pkg/utils"
)

// fakeChainRepository is a minimal in-memory repositories.ChainRepository
// for usecase tests; only the read paths the usecases package actually
// calls are meaningfully implemented.
type fakeChainRepository struct {
	byID     map[uuid.UUID]*entities.Chain
	byCAIP2  map[string]*entities.Chain
	byRawID  map[string]*entities.Chain
	all      []*entities.Chain
}

func newFakeChainRepository(chains ...*entities.Chain) *fakeChainRepository {
	r := &fakeChainRepository{
		byID:    map[uuid.UUID]*entities.Chain{},
		byCAIP2: map[string]*entities.Chain{},
		byRawID: map[string]*entities.Chain{},
	}
	for _, c := range chains {
		r.byID[c.ID] = c
		r.byCAIP2[c.GetCAIP2ID()] = c
		r.byRawID[c.ChainID] = c
		r.all = append(r.all, c)
	}
	return r
}

func (r *fakeChainRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Chain, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeChainRepository) GetByCAIP2(ctx context.Context, caip2 string) (*entities.Chain, error) {
	if c, ok := r.byCAIP2[caip2]; ok {
		return c, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeChainRepository) GetByChainID(ctx context.Context, chainID string) (*entities.Chain, error) {
	if c, ok := r.byRawID[chainID]; ok {
		return c, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeChainRepository) GetAll(ctx context.Context) ([]*entities.Chain, error) {
	return r.all, nil
}

func (r *fakeChainRepository) GetAllRPCs(ctx context.Context, chainID *uuid.UUID, isActive *bool, search *string, pagination utils.PaginationParams) ([]*entities.ChainRPC, int64, error) {
	return nil, 0, nil
}

func (r *fakeChainRepository) GetActive(ctx context.Context, pagination utils.PaginationParams) ([]*entities.Chain, int64, error) {
	var out []*entities.Chain
	for _, c := range r.all {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeChainRepository) Create(ctx context.Context, chain *entities.Chain) error { return nil }
func (r *fakeChainRepository) Update(ctx context.Context, chain *entities.Chain) error { return nil }
func (r *fakeChainRepository) Delete(ctx context.Context, id uuid.UUID) error          { return nil }

// fakeTokenRepository is a minimal in-memory repositories.TokenRepository.
type fakeTokenRepository struct {
	tokens []*entities.Token
}

func newFakeTokenRepository(tokens ...*entities.Token) *fakeTokenRepository {
	return &fakeTokenRepository{tokens: tokens}
}

func (r *fakeTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Token, error) {
	for _, t := range r.tokens {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeTokenRepository) GetBySymbol(ctx context.Context, symbol string, chainID uuid.UUID) (*entities.Token, error) {
	for _, t := range r.tokens {
		if strings.EqualFold(t.Symbol, symbol) && t.ChainUUID == chainID {
			return t, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeTokenRepository) GetByAddress(ctx context.Context, address string, chainID uuid.UUID) (*entities.Token, error) {
	for _, t := range r.tokens {
		if strings.EqualFold(t.ContractAddress, address) && t.ChainUUID == chainID {
			return t, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeTokenRepository) GetAll(ctx context.Context) ([]*entities.Token, error) {
	return r.tokens, nil
}

func (r *fakeTokenRepository) GetStablecoins(ctx context.Context) ([]*entities.Token, error) {
	var out []*entities.Token
	for _, t := range r.tokens {
		if t.IsStablecoin {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTokenRepository) GetNative(ctx context.Context, chainID uuid.UUID) (*entities.Token, error) {
	for _, t := range r.tokens {
		if t.IsNative && t.ChainUUID == chainID {
			return t, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeTokenRepository) GetTokensByChain(ctx context.Context, chainID uuid.UUID, pagination utils.PaginationParams) ([]*entities.Token, int64, error) {
	return nil, 0, nil
}

func (r *fakeTokenRepository) GetAllTokens(ctx context.Context, chainID *uuid.UUID, search *string, pagination utils.PaginationParams) ([]*entities.Token, int64, error) {
	return nil, 0, nil
}

func (r *fakeTokenRepository) Create(ctx context.Context, token *entities.Token) error { return nil }
func (r *fakeTokenRepository) Update(ctx context.Context, token *entities.Token) error { return nil }
func (r *fakeTokenRepository) SoftDelete(ctx context.Context, id uuid.UUID) error      { return nil }

// fakePriceFeed serves a fixed, static price table.
type fakePriceFeed struct {
	name   string
	prices map[string]*big.Float
	err    error
}

func (f *fakePriceFeed) Name() string { return f.name }

func (f *fakePriceFeed) GetPricesByAddress(ctx context.Context, addresses []string) (map[string]*big.Float, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*big.Float, len(addresses))
	for _, a := range addresses {
		if p, ok := f.prices[strings.ToLower(a)]; ok {
			out[a] = p
		}
	}
	return out, nil
}

// fakeGasSimulator returns a fixed (native, token, gasPrice) triple, or an
// error when configured to fail.
type fakeGasSimulator struct {
	native, token, gasPrice *big.Int
	err                     error
	calls                   int
}

func (s *fakeGasSimulator) GetGasCosts(ctx context.Context, deposit *entities.Deposit, relayer string) (*big.Int, *big.Int, *big.Int, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, nil, s.err
	}
	return s.native, s.token, s.gasPrice, nil
}

// fakeTokenBalanceClient serves fixed balances/shortfalls keyed by
// "chainID:tokenAddress". balanceSequence, when set for a key, is
// consumed one value per GetBalance call before falling back to
// balances, letting a test simulate a balance changing between two
// reads of the same (chain, token) pair.
type fakeTokenBalanceClient struct {
	balances        map[string]*big.Int
	shortfalls      map[string]*big.Int
	balanceSequence map[string][]*big.Int
}

func newFakeTokenBalanceClient() *fakeTokenBalanceClient {
	return &fakeTokenBalanceClient{balances: map[string]*big.Int{}, shortfalls: map[string]*big.Int{}, balanceSequence: map[string][]*big.Int{}}
}

func (c *fakeTokenBalanceClient) key(chainID int64, token string) string {
	return strings.ToLower(token) + ":" + bigIntKeySuffix(chainID)
}

func bigIntKeySuffix(chainID int64) string {
	return big.NewInt(chainID).String()
}

func (c *fakeTokenBalanceClient) GetBalance(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	key := c.key(chainID, tokenAddress)
	if seq := c.balanceSequence[key]; len(seq) > 0 {
		c.balanceSequence[key] = seq[1:]
		return seq[0], nil
	}
	if v, ok := c.balances[key]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (c *fakeTokenBalanceClient) GetShortfallTotalRequirement(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	if v, ok := c.shortfalls[c.key(chainID, tokenAddress)]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (c *fakeTokenBalanceClient) DecrementLocalBalance(ctx context.Context, chainID int64, tokenAddress string, amount *big.Int) {
	key := c.key(chainID, tokenAddress)
	cur, ok := c.balances[key]
	if !ok {
		cur = new(big.Int)
	}
	c.balances[key] = new(big.Int).Sub(cur, amount)
}

// fakeCrossChainTransferClient serves a fixed outstanding-transfer amount.
type fakeCrossChainTransferClient struct {
	outstanding map[string]*big.Int
	increases   []*entities.CrossChainTransfer
}

func newFakeCrossChainTransferClient() *fakeCrossChainTransferClient {
	return &fakeCrossChainTransferClient{outstanding: map[string]*big.Int{}}
}

func (c *fakeCrossChainTransferClient) GetOutstandingCrossChainTransferAmount(ctx context.Context, relayer, l1Token, l2Token string, chainID int64) (*big.Int, error) {
	key := strings.ToLower(l2Token) + ":" + bigIntKeySuffix(chainID)
	if v, ok := c.outstanding[key]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (c *fakeCrossChainTransferClient) IncreaseOutstandingTransfer(ctx context.Context, transfer *entities.CrossChainTransfer) error {
	c.increases = append(c.increases, transfer)
	return nil
}

// fakeAdapterManager records every call it receives and returns
// per-field-configured canned results/errors.
type fakeAdapterManager struct {
	sendErr     error
	withdrawErr error
	wrapErr     error
	pendingAmt  *big.Int
	pendingErr  error

	sendCalls     []sendTokenCrossChainCall
	withdrawCalls []withdrawTokenFromL2Call
	wrapCalls     []wrapNativeCall
}

type sendTokenCrossChainCall struct {
	l1Token     string
	destChainID int64
	amount      *big.Int
}

type withdrawTokenFromL2Call struct {
	l2Token string
	chainID int64
	amount  *big.Int
}

type wrapNativeCall struct {
	chainID            int64
	threshold, target  *big.Int
}

func newFakeAdapterManager() *fakeAdapterManager {
	return &fakeAdapterManager{pendingAmt: new(big.Int)}
}

func (a *fakeAdapterManager) SendTokenCrossChain(ctx context.Context, l1Token string, destChainID int64, amount *big.Int) (string, error) {
	a.sendCalls = append(a.sendCalls, sendTokenCrossChainCall{l1Token, destChainID, amount})
	if a.sendErr != nil {
		return "", a.sendErr
	}
	return "0xtx", nil
}

func (a *fakeAdapterManager) WithdrawTokenFromL2(ctx context.Context, l2Token string, chainID int64, amount *big.Int) (string, error) {
	a.withdrawCalls = append(a.withdrawCalls, withdrawTokenFromL2Call{l2Token, chainID, amount})
	if a.withdrawErr != nil {
		return "", a.withdrawErr
	}
	return "0xtx", nil
}

func (a *fakeAdapterManager) GetL2PendingWithdrawalAmount(ctx context.Context, l2Token string, chainID int64, sincePeriodStart int64) (*big.Int, error) {
	if a.pendingErr != nil {
		return nil, a.pendingErr
	}
	return a.pendingAmt, nil
}

func (a *fakeAdapterManager) WrapNativeTokenIfAboveThreshold(ctx context.Context, chainID int64, threshold, target *big.Int) error {
	a.wrapCalls = append(a.wrapCalls, wrapNativeCall{chainID, threshold, target})
	return a.wrapErr
}

func (a *fakeAdapterManager) SetL1TokenApprovals(ctx context.Context, l1Token string, spender string) error {
	return nil
}
