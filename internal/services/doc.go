// Package services implements the remote catalog client for the Humble Bundle
// web API.
//
// # Catalog access
//
// The [CatalogService] interface is the only surface the rest of the engine
// sees; [HumbleService] is the production implementation. It authenticates
// with the _simpleauth_sess browser session cookie (the service has no token
// or OAuth flow) and exposes the five catalog operations the library resolver
// and download dispatcher need:
//
//   - [CatalogService.Authenticate] : verify a session and identify the user
//   - [CatalogService.GetOrderList] : gamekeys of all purchased orders
//   - [CatalogService.GetOrder] : one order with subproducts and keys
//   - [CatalogService.HadTroveSubscription] : monthly-subscriber status
//   - [CatalogService.GetTrovePage] : one page of the Trove catalog
//   - [CatalogService.GetTroveSignedURL] : time-limited download link
//
// # Error mapping
//
// HTTP 401/403 map to [shared.ErrAuthenticationRequired]; for signed-URL
// requests that status means "monthly entitlement lapsed" and callers
// downgrade rather than fail. Transport errors and other non-2xx statuses map
// to [shared.ErrRemoteUnavailable].
//
// # Rate limiting
//
// All requests pass through a token-bucket limiter (golang.org/x/time/rate) so
// full-library resolves don't hammer the catalog.
package services
