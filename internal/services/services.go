// package services defines interface CatalogService for the Humble Bundle web API
package services

import (
	"context"

	"humblesync/internal/models"
)

// TrovePageSize is the fixed page size of the Trove catalog endpoint. Callers
// paginate while the most recently fetched page is full.
const TrovePageSize = 20

// CatalogService defines the remote catalog operations consumed by the
// library resolver and the download dispatcher.
type CatalogService interface {
	// Authenticate verifies the session cookie and returns the account's
	// user id and display name.
	Authenticate(ctx context.Context, sessionCookie string) (userID, userName string, err error)

	// GetOrderList retrieves the gamekeys of every purchased order.
	GetOrderList(ctx context.Context) ([]string, error)

	// GetOrder retrieves one order with its subproducts and key records.
	GetOrder(ctx context.Context, gamekey string) (*models.Order, error)

	// HadTroveSubscription reports whether the account ever had an active
	// monthly subscription.
	HadTroveSubscription(ctx context.Context) (bool, error)

	// GetTrovePage retrieves one page of the Trove catalog, newest first.
	GetTrovePage(ctx context.Context, page int) ([]models.TroveData, error)

	// GetTroveSignedURL requests a signed, time-limited download URL for a
	// trove download. Fails with shared.ErrAuthenticationRequired when the
	// monthly entitlement has lapsed.
	GetTroveSignedURL(ctx context.Context, download models.TroveDownload, machineName string) (string, error)

	// Close releases the underlying session.
	Close() error
}
