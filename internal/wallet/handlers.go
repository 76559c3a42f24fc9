package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/John840001/decentroz/internal/middleware"
	"github.com/John840001/decentroz/internal/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /wallet/balance
func (h *Handler) Balance(c echo.Context) error {
	addr := middleware.Address(c)
	balance, err := h.svc.Balance(c.Request().Context(), addr)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"address": addr,
		"balance": balance,
	})
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// POST /wallet/topup
func (h *Handler) Topup(c echo.Context) error {
	req := new(amountRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.Topup(c.Request().Context(), middleware.Address(c), req.Amount); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "wallet funded"})
}

// POST /wallet/withdraw
func (h *Handler) Withdraw(c echo.Context) error {
	req := new(amountRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.Withdraw(c.Request().Context(), middleware.Address(c), req.Amount); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "withdrawal successful"})
}

// GET /wallet/transactions
func (h *Handler) Transactions(c echo.Context) error {
	entries, err := h.svc.Transactions(c.Request().Context(), middleware.Address(c))
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": entries})
}
