package handlers

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/response"
	"pay-chain.backend/internal/usecases"
	"pay-chain.backend/pkg/logger"
)

// AdminHandler exposes the operator-facing status/admin surface over the
// engine: current prices, gas costs, a manual update() trigger, and a
// rebalance-plan preview; per-token distribution snapshots are not
// served. It is not a
// payments API; it has no mutating effect on user funds, only on the
// engine's own cached state and planning output.
type AdminHandler struct {
	inventory *usecases.InventoryManager
}

// NewAdminHandler builds an AdminHandler over the already-wired engine.
func NewAdminHandler(inventory *usecases.InventoryManager) *AdminHandler {
	return &AdminHandler{inventory: inventory}
}

// GetPrice returns the cached USD price for a token identifier.
func (h *AdminHandler) GetPrice(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, domainerrors.BadRequest("token query param required"))
		return
	}
	price := h.inventory.Prices.GetPrice(token)
	response.Success(c, http.StatusOK, gin.H{
		"token":    token,
		"priceFp":  price.String(),
		"lastErr":  errString(h.inventory.Prices.LastError()),
	})
}

// GetGasCosts returns the cached per-chain gas cost snapshot.
func (h *AdminHandler) GetGasCosts(c *gin.Context) {
	costs := h.inventory.Gas.CachedCosts()
	out := make(gin.H, len(costs))
	for chainID, cost := range costs {
		out[strconv.FormatInt(chainID, 10)] = gin.H{
			"nativeGasCost": cost.NativeGasCost.String(),
			"tokenGasCost":  cost.TokenGasCost.String(),
			"gasPrice":      cost.GasPrice.String(),
		}
	}
	response.Success(c, http.StatusOK, gin.H{"chains": out, "testnet": h.inventory.Gas.IsTestnet()})
}

// GetStatus reports the last Update tick's outcome.
func (h *AdminHandler) GetStatus(c *gin.Context) {
	at, err := h.inventory.LastUpdate()
	response.Success(c, http.StatusOK, gin.H{
		"lastUpdateAt": at,
		"lastError":    errString(err),
	})
}

// TriggerUpdate runs one price/gas refresh tick on demand. Guarded by
// OperatorAuthMiddleware since it drives outbound RPC/HTTP calls.
func (h *AdminHandler) TriggerUpdate(c *gin.Context) {
	var req struct {
		Addresses     []string `json:"addresses"`
		EnabledChains []int64  `json:"enabledChains"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	templateDeposit := defaultTemplateDeposit
	if err := h.inventory.Update(c.Request.Context(), req.Addresses, req.EnabledChains, templateDeposit); err != nil {
		logger.Error(c.Request.Context(), "manual update trigger failed")
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "updated"})
}

// PreviewRebalances runs the L1->L2 planner over operator-supplied
// allocations without executing anything, for the admin API's
// rebalance-plan preview.
func (h *AdminHandler) PreviewRebalances(c *gin.Context) {
	var req struct {
		L1Token             string                    `json:"l1Token"`
		CumulativeBalanceFp string                    `json:"cumulativeBalanceFp"`
		Allocations         []usecases.ChainAllocation `json:"allocations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}
	cumulative, ok := new(big.Int).SetString(req.CumulativeBalanceFp, 10)
	if !ok {
		response.Error(c, domainerrors.BadRequest("cumulativeBalanceFp must be a base-10 integer string"))
		return
	}

	plans := h.inventory.PlanRebalances(req.L1Token, req.Allocations, cumulative)
	response.Success(c, http.StatusOK, gin.H{"plans": plans})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// defaultTemplateDeposit builds the synthetic gas-simulation fill the gas
// cost estimator needs one of per enabled chain: a minimal one-unit
// transfer to a fixed dummy recipient, with no message.
func defaultTemplateDeposit(chainID int64, outputToken string) *entities.Deposit {
	amount := big.NewInt(1)
	return &entities.Deposit{
		DepositID:    uuid.New(),
		Destination:  chainID,
		OutputToken:  entities.NewEvmAddress(outputToken),
		OutputAmount: amount,
		InputAmount:  amount,
		Recipient:    entities.NewEvmAddress("0x000000000000000000000000000000000000dEaD"),
		QuoteTimestamp: time.Now(),
	}
}
