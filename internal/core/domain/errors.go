package domain

import "errors"

// Gateway and session errors.
var (
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrWalletNotLoaded    = errors.New("wallet not loaded")
	ErrForbidden          = errors.New("access forbidden")
)

// Business rule violations. These are user-correctable and never retried automatically.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientTickets = errors.New("insufficient tickets")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidTickets      = errors.New("tickets must not be negative")
	ErrAccrualNotDue       = errors.New("ticket accrual not due")
	ErrInvalidAccount      = errors.New("name, email and class group are required")
	ErrInvalidCard         = errors.New("invalid card details")
)

// Lookup and account errors.
var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrCardNotFound       = errors.New("card not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAdminImmutable     = errors.New("admin accounts cannot be edited")
)
