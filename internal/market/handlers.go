package market

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

type createItemRequest struct {
	AssetContract string `json:"asset_contract"`
	TokenID       int64  `json:"token_id"`
	Price         int64  `json:"price"`
}

// POST /market/items
func (h *Handler) CreateItem(c echo.Context) error {
	req := new(createItemRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	listing, err := h.svc.CreateItem(c.Request().Context(), middleware.Address(c),
		req.AssetContract, req.TokenID, req.Price)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusCreated, listing)
}

type cancelItemRequest struct {
	AssetContract string `json:"asset_contract"`
	TokenID       int64  `json:"token_id"`
}

// POST /market/items/cancel
func (h *Handler) CancelItem(c echo.Context) error {
	req := new(cancelItemRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	listing, err := h.svc.Cancel(c.Request().Context(), middleware.Address(c),
		req.AssetContract, req.TokenID)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, listing)
}

type buyRequest struct {
	AssetContract string `json:"asset_contract"`
	TokenID       int64  `json:"token_id"`
	Payment       int64  `json:"payment"`
}

// POST /market/items/buy
func (h *Handler) Buy(c echo.Context) error {
	req := new(buyRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	listing, err := h.svc.BuyNative(c.Request().Context(), middleware.Address(c),
		req.AssetContract, req.TokenID, req.Payment)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, listing)
}

type buyWithTokenRequest struct {
	AssetContract string `json:"asset_contract"`
	TokenID       int64  `json:"token_id"`
	TokenContract string `json:"token_contract"`
}

// POST /market/items/buy-erc20
func (h *Handler) BuyWithToken(c echo.Context) error {
	req := new(buyWithTokenRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	listing, err := h.svc.BuyWithToken(c.Request().Context(), middleware.Address(c),
		req.AssetContract, req.TokenContract, req.TokenID)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, listing)
}

// GET /market/items
func (h *Handler) Available(c echo.Context) error {
	listings, err := h.svc.Available(c.Request().Context())
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}

// GET /market/items/mine?role=seller|owner
func (h *Handler) Mine(c echo.Context) error {
	listings, err := h.svc.ByAddressProperty(c.Request().Context(),
		middleware.Address(c), c.QueryParam("role"))
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}
