// Humble Bundle web API implementation of [CatalogService]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"humblesync/internal/models"
	"humblesync/internal/shared"
)

const (
	humbleBaseURL = "https://www.humblebundle.com"

	userDetailsPath  = "/api/v1/user/details"
	orderListPath    = "/api/v1/user/order"
	orderPath        = "/api/v1/order/%s?all_tpkds=true"
	subscriberPath   = "/api/v1/subscription/history"
	troveChunkPath   = "/api/v1/trove/chunk?property=start&direction=desc&index=%d"
	troveSignPath    = "/api/v1/user/download/sign"
	sessionCookieKey = "_simpleauth_sess"
)

// HumbleService implements [CatalogService] against the Humble Bundle web API
// using session-cookie authentication.
type HumbleService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	session    string
}

// NewHumbleService creates a catalog client. baseURL and client default to the
// production API and [http.DefaultClient]; requestsPerSecond <= 0 defaults to 4.
func NewHumbleService(baseURL string, client *http.Client, requestsPerSecond float64) *HumbleService {
	if baseURL == "" {
		baseURL = humbleBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}

	return &HumbleService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)),
	}
}

type userDetails struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Authenticate stores the session cookie and verifies it against the user
// details endpoint.
func (h *HumbleService) Authenticate(ctx context.Context, sessionCookie string) (string, string, error) {
	if sessionCookie == "" {
		return "", "", fmt.Errorf("%w: empty session cookie", shared.ErrMissingCredentials)
	}
	h.session = sessionCookie

	var details userDetails
	if err := h.doRequest(ctx, http.MethodGet, userDetailsPath, nil, &details); err != nil {
		h.session = ""
		return "", "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return details.UserID, details.UserName, nil
}

// GetOrderList retrieves the gamekeys of all purchased orders.
func (h *HumbleService) GetOrderList(ctx context.Context) ([]string, error) {
	var entries []struct {
		GameKey string `json:"gamekey"`
	}
	if err := h.doRequest(ctx, http.MethodGet, orderListPath, nil, &entries); err != nil {
		return nil, err
	}

	gamekeys := make([]string, 0, len(entries))
	for _, entry := range entries {
		gamekeys = append(gamekeys, entry.GameKey)
	}
	return gamekeys, nil
}

// GetOrder retrieves one order by gamekey.
func (h *HumbleService) GetOrder(ctx context.Context, gamekey string) (*models.Order, error) {
	var order models.Order
	if err := h.doRequest(ctx, http.MethodGet, fmt.Sprintf(orderPath, url.PathEscape(gamekey)), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// HadTroveSubscription reports whether the account ever subscribed to the
// monthly service.
func (h *HumbleService) HadTroveSubscription(ctx context.Context) (bool, error) {
	var history struct {
		Subscribed bool `json:"has_ever_subscribed"`
	}
	if err := h.doRequest(ctx, http.MethodGet, subscriberPath, nil, &history); err != nil {
		return false, err
	}
	return history.Subscribed, nil
}

// GetTrovePage retrieves one page of the Trove catalog.
func (h *HumbleService) GetTrovePage(ctx context.Context, page int) ([]models.TroveData, error) {
	var chunk []models.TroveData
	if err := h.doRequest(ctx, http.MethodGet, fmt.Sprintf(troveChunkPath, page), nil, &chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetTroveSignedURL requests a signed download URL for a trove artifact.
//
// A 401/403 here means the monthly entitlement has lapsed, not that the
// session is invalid; it is surfaced as shared.ErrAuthenticationRequired so
// the dispatcher can downgrade to the subscription-management page.
func (h *HumbleService) GetTroveSignedURL(ctx context.Context, download models.TroveDownload, machineName string) (string, error) {
	form := url.Values{}
	form.Set("machine_name", machineName)
	form.Set("filename", download.MachineName)

	var signed struct {
		SignedURL string `json:"signed_url"`
	}
	if err := h.doRequest(ctx, http.MethodPost, troveSignPath, strings.NewReader(form.Encode()), &signed); err != nil {
		return "", err
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("%w: empty signed url", shared.ErrRemoteUnavailable)
	}
	return signed.SignedURL, nil
}

// Close discards the session cookie. The underlying transport is shared and
// left open.
func (h *HumbleService) Close() error {
	h.session = ""
	return nil
}

// doRequest performs a rate-limited, session-authenticated request and decodes
// the JSON response into result.
func (h *HumbleService) doRequest(ctx context.Context, method, path string, body *strings.Reader, result any) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if h.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieKey, Value: h.session})
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrAuthenticationRequired, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrRemoteUnavailable, err)
		}
	}

	return nil
}
