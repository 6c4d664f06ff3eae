package checkout

import "errors"

var (
	ErrValidation        = errors.New("checkout form is incomplete")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrStockUnavailable  = errors.New("some items are out of stock")
	ErrBelowMinimum      = errors.New("order total is below the minimum online charge")
	ErrNoLineItems       = errors.New("no payable items in cart")
	ErrNoPendingOrder    = errors.New("no pending order to complete")
	ErrNoReturnIndicator = errors.New("return url has neither success nor canceled set")
	ErrInvalidTransition = errors.New("invalid checkout transition")
)
