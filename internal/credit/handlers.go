package credit

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/middleware"
	"github.com/John840001/decentroz/internal/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /credit/info
func (h *Handler) Info(c echo.Context) error {
	state, err := h.svc.Info(c.Request().Context())
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"name":         Name,
		"symbol":       Symbol,
		"address":      h.svc.Address(),
		"admin":        state.Admin,
		"total_supply": state.TotalSupply,
	})
}

// GET /credit/balance/:address
func (h *Handler) BalanceOf(c echo.Context) error {
	addr := c.Param("address")
	balance, err := h.svc.BalanceOf(c.Request().Context(), addr)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"address": addr,
		"balance": balance,
	})
}

// GET /credit/allowance?owner=&spender=
func (h *Handler) Allowance(c echo.Context) error {
	owner := c.QueryParam("owner")
	spender := c.QueryParam("spender")
	amount, err := h.svc.Allowance(c.Request().Context(), owner, spender)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"owner":     owner,
		"spender":   spender,
		"allowance": amount,
	})
}

type mintRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// POST /credit/mint
func (h *Handler) Mint(c echo.Context) error {
	req := new(mintRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.Mint(c.Request().Context(), middleware.Address(c), req.To, req.Amount); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "tokens minted"})
}

type setAdminRequest struct {
	Admin string `json:"admin"`
}

// POST /credit/admin
func (h *Handler) SetAdmin(c echo.Context) error {
	req := new(setAdminRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.SetAdmin(c.Request().Context(), middleware.Address(c), req.Admin); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "admin updated"})
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// POST /credit/transfer
func (h *Handler) Transfer(c echo.Context) error {
	req := new(transferRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.Transfer(c.Request().Context(), middleware.Address(c), req.To, req.Amount); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "transfer complete"})
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  int64  `json:"amount"`
}

// POST /credit/approve
func (h *Handler) Approve(c echo.Context) error {
	req := new(approveRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.Approve(c.Request().Context(), middleware.Address(c), req.Spender, req.Amount); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "allowance set"})
}

type transferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// POST /credit/transfer-from
func (h *Handler) TransferFrom(c echo.Context) error {
	req := new(transferFromRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.TransferFrom(c.Request().Context(), middleware.Address(c), req.From, req.To, req.Amount); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "transfer complete"})
}

type tokenDataRequest struct {
	Account string `json:"account"`
}

// POST /api/token-data
//
// The coarse read-only proxy for external pages: {account} in, {data} out,
// bare 500 on any internal failure.
func (h *Handler) TokenData(c echo.Context) error {
	req := new(tokenDataRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
	}

	balance, err := h.svc.BalanceOf(c.Request().Context(), req.Account)
	if err != nil {
		zap.L().Error("token data lookup failed", zap.Error(err))

		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": balance})
}
