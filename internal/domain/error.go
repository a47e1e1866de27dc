package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidURL      = errors.New("invalid product url")
	ErrAlreadyTracked  = errors.New("product already tracked for this chat")
	ErrInvalidArgument = errors.New("invalid argument")

	// Poll errors. Both are transient: logged and retried on the next
	// sweep, never surfaced to the owning chat.
	ErrFetchFailed   = errors.New("fetching product page failed")
	ErrPriceNotFound = errors.New("price not found on product page")
)
