package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/John840001/decentroz/internal/entity"
)

// HTTPError maps a component failure to a status code and writes the
// specific reason string. Callers never see a silent no-op.
func HTTPError(c echo.Context, err error) error {
	return c.JSON(statusOf(err), echo.Map{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnauthorized),
		errors.Is(err, entity.ErrNotOwner),
		errors.Is(err, entity.ErrNotApproved),
		errors.Is(err, entity.ErrNotOwnerOrApproved),
		errors.Is(err, entity.ErrNotSeller):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrAlreadyRegistered),
		errors.Is(err, entity.ErrEmailInUse),
		errors.Is(err, entity.ErrAlreadyListed),
		errors.Is(err, entity.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotRegistered),
		errors.Is(err, entity.ErrInsufficientBalance),
		errors.Is(err, entity.ErrInsufficientAllowance),
		errors.Is(err, entity.ErrInsufficientFunds),
		errors.Is(err, entity.ErrInvalidAddress),
		errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrInvalidPrice),
		errors.Is(err, entity.ErrInvalidRole),
		errors.Is(err, entity.ErrInvalidURI),
		errors.Is(err, entity.ErrWrongPaymentAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
