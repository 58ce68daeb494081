package handler

import (
	"ledger-service/internal/adapter/http/dto"
	"ledger-service/internal/adapter/http/middleware"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"
	"ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves read-only views of the caller's account.
type AccountHandler struct {
	querySvc ports.QueryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(querySvc ports.QueryService) *AccountHandler {
	return &AccountHandler{querySvc: querySvc}
}

// GetBalance handles GET /api/v1/accounts/me/balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	balance, err := h.querySvc.GetBalance(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Username: username,
		Balance:  dto.FormatAmount(balance),
	})
}

// GetTransactions handles GET /api/v1/accounts/me/transactions.
func (h *AccountHandler) GetTransactions(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	txs, err := h.querySvc.GetTransactions(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewTransactionResponses(txs))
}

// GetProfile handles GET /api/v1/accounts/me.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	acc, err := h.querySvc.GetAccount(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewAccountResponse(acc))
}
