// Package feed fetches whale transactions from the whale-watch API.
package feed

import (
	"context"

	"whale-copytrader/internal/models"
)

// Client fetches the single latest transaction from a remote feed.
// A nil record with a nil error means there is nothing new to look at.
type Client interface {
	FetchLatest(ctx context.Context) (*models.TransactionRecord, error)
}
