package entity

import "errors"

// Failure reasons surfaced to callers. Every operation either completes in
// full or aborts with one of these; nothing silently no-ops.
var (
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")

	ErrAlreadyRegistered = errors.New("user already registered")
	ErrNotRegistered     = errors.New("user not registered")
	ErrEmailInUse        = errors.New("email already in use")

	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientFunds     = errors.New("insufficient funds")

	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidPrice   = errors.New("price must be greater than zero")
	ErrInvalidRole    = errors.New("role must be seller or owner")
	ErrInvalidURI     = errors.New("metadata uri must not be empty")

	ErrNotOwner           = errors.New("caller does not hold the asset")
	ErrNotApproved        = errors.New("marketplace is not approved to transfer the asset")
	ErrNotOwnerOrApproved = errors.New("caller is not owner nor approved")

	ErrNotSeller          = errors.New("only the seller can cancel the listing")
	ErrNotActive          = errors.New("listing is not active")
	ErrAlreadyListed      = errors.New("asset already has an active listing")
	ErrWrongPaymentAmount = errors.New("payment must equal the asking price")
)
