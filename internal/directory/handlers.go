package directory

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

type registerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsBuyer     bool   `json:"is_buyer"`
	IsSeller    bool   `json:"is_seller"`
}

// POST /users
func (h *Handler) Register(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err := h.svc.Register(c.Request().Context(), middleware.Address(c),
		req.Name, req.Description, req.IsBuyer, req.IsSeller)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered"})
}

type detailsRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PATCH /users/details
func (h *Handler) UpdateDetails(c echo.Context) error {
	req := new(detailsRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err := h.svc.UpdateDetails(c.Request().Context(), middleware.Address(c), req.Name, req.Description)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "details updated"})
}

type roleRequest struct {
	IsBuyer  bool `json:"is_buyer"`
	IsSeller bool `json:"is_seller"`
}

// PATCH /users/role
func (h *Handler) UpdateRole(c echo.Context) error {
	req := new(roleRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err := h.svc.UpdateRole(c.Request().Context(), middleware.Address(c), req.IsBuyer, req.IsSeller)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// POST /users/nfts/increment
func (h *Handler) IncrementNFTs(c echo.Context) error {
	if err := h.svc.IncrementAssets(c.Request().Context(), middleware.Address(c)); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "counter incremented"})
}

// GET /users/:address
func (h *Handler) Details(c echo.Context) error {
	record, registered, err := h.svc.Details(c.Request().Context(), c.Param("address"))
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"registered": registered,
		"user":       record,
	})
}
