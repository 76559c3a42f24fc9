package registry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/John840001/decentroz/internal/directory"
	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/middleware"
	"github.com/John840001/decentroz/internal/utils"
)

// Handler exposes the registry and orchestrates the one cross-component
// side effect: bumping the minter's directory counter. The registry
// itself stays ignorant of the directory.
type Handler struct {
	svc       *Service
	directory *directory.Service
}

func NewHandler(svc *Service, dir *directory.Service) *Handler {
	return &Handler{svc: svc, directory: dir}
}

// GET /assets/info
func (h *Handler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"name":                Name,
		"symbol":              Symbol,
		"address":             h.svc.Address(),
		"marketplace_address": h.svc.MarketplaceAddress(),
	})
}

type mintRequest struct {
	MetadataURI string `json:"metadata_uri"`
}

// POST /assets
func (h *Handler) Mint(c echo.Context) error {
	req := new(mintRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	caller := middleware.Address(c)
	asset, err := h.svc.Mint(c.Request().Context(), caller, req.MetadataURI)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	// Profile bookkeeping is best-effort: unregistered minters are fine.
	if err := h.directory.IncrementAssets(c.Request().Context(), caller); err != nil &&
		!errors.Is(err, entity.ErrNotRegistered) {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"token_id":            asset.TokenID,
		"metadata_uri":        asset.MetadataURI,
		"marketplace_address": h.svc.MarketplaceAddress(),
	})
}

type transferRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID int64  `json:"token_id"`
}

// POST /assets/transfer
func (h *Handler) Transfer(c echo.Context) error {
	req := new(transferRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	caller := middleware.Address(c)
	from := req.From
	if from == "" {
		from = caller
	}
	if err := h.svc.Transfer(c.Request().Context(), caller, from, req.To, req.TokenID); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "asset transferred"})
}

type approvalRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// POST /assets/approval
func (h *Handler) SetApprovalForAll(c echo.Context) error {
	req := new(approvalRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.svc.SetApprovalForAll(c.Request().Context(), middleware.Address(c), req.Operator, req.Approved); err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "approval updated"})
}

// GET /assets/owned
func (h *Handler) Owned(c echo.Context) error {
	assets, err := h.svc.OwnedBy(c.Request().Context(), middleware.Address(c))
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"assets": assets})
}

// GET /assets/created
func (h *Handler) Created(c echo.Context) error {
	assets, err := h.svc.CreatedBy(c.Request().Context(), middleware.Address(c))
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"assets": assets})
}

// GET /assets/:id/creator
func (h *Handler) Creator(c echo.Context) error {
	tokenID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
	}

	creator, err := h.svc.CreatorOf(c.Request().Context(), tokenID)
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token_id": tokenID,
		"creator":  creator,
	})
}
