package homework

import "context"

// StatusSource fetches homework status changes since a unix timestamp.
// The result is the decoded JSON body, still untyped; ValidateResponse gives it shape.
type StatusSource interface {
	FetchStatuses(ctx context.Context, fromDate int64) (any, error)
}
