package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"humblesync/internal/models"
	"humblesync/internal/services"
	"humblesync/internal/shared"
)

// subscriberURL is the subscription-management page opened when a trove
// signed-URL request reports a lapsed entitlement.
const subscriberURL = "https://www.humblebundle.com/monthly/subscriber"

// KeyRevealer presents a redeemable key to the user. The engine's job ends
// once the presentation has run; reveal diagnostics never fail a dispatch.
type KeyRevealer interface {
	Reveal(ctx context.Context, key models.Key) error
}

// HelperKeyRevealer launches an external helper process with the key's human
// name, type, and value. Anything the helper writes to stderr is drained and
// logged, but does not fail the reveal.
type HelperKeyRevealer struct {
	helperPath string
	logger     *log.Logger
}

// NewHelperKeyRevealer creates a revealer running the helper binary at path.
func NewHelperKeyRevealer(path string, logger *log.Logger) *HelperKeyRevealer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &HelperKeyRevealer{helperPath: path, logger: logger}
}

func (h *HelperKeyRevealer) Reveal(ctx context.Context, key models.Key) error {
	cmd := exec.CommandContext(ctx, h.helperPath,
		key.Data.HumanName, key.Data.KeyTypeHumanName, key.Data.RedeemedKeyVal)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stderr.Len() > 0 {
		h.logger.Debug("key reveal helper diagnostics", "id", key.MachineName(), "stderr", stderr.String())
	}
	if runErr != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("key reveal helper failed: %w: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("key reveal helper failed: %w", runErr)
	}
	return nil
}

// Dispatcher maps an owned product onto its acquisition flow. Behavior is a
// pure function of the product's variant; every variant has a handling arm
// and anything unrecognized is an error.
type Dispatcher struct {
	api       services.CatalogService
	downloads *DownloadResolver
	revealer  KeyRevealer
	openURL   func(string) error
	logger    *log.Logger
}

// NewDispatcher creates a dispatcher. openURL defaults to shared.OpenBrowser.
func NewDispatcher(api services.CatalogService, downloads *DownloadResolver, revealer KeyRevealer, openURL func(string) error, logger *log.Logger) *Dispatcher {
	if downloads == nil {
		downloads = NewDownloadResolver()
	}
	if openURL == nil {
		openURL = shared.OpenBrowser
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{
		api:       api,
		downloads: downloads,
		revealer:  revealer,
		openURL:   openURL,
		logger:    logger,
	}
}

// Dispatch executes the acquisition flow for one owned product.
//
// A trove signed-URL request rejected with shared.ErrAuthenticationRequired
// means the monthly entitlement lapsed; that case opens the subscription
// management page and returns nil. It is a deliberate downgrade, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, game models.HumbleGame) error {
	switch g := game.(type) {
	case models.Key:
		return d.revealer.Reveal(ctx, g)

	case models.Subproduct:
		chosen, err := d.downloads.ChooseSubproduct(g)
		if err != nil {
			return err
		}
		return d.openURL(chosen.URL.Web)

	case models.TroveGame:
		chosen, err := d.downloads.ChooseTrove(g)
		if err != nil {
			return err
		}
		signedURL, err := d.api.GetTroveSignedURL(ctx, chosen, g.MachineName())
		if errors.Is(err, shared.ErrAuthenticationRequired) {
			d.logger.Info("monthly subscription looks expired, opening subscription management", "id", g.MachineName())
			return d.openURL(subscriberURL)
		}
		if err != nil {
			return err
		}
		return d.openURL(signedURL)

	default:
		return fmt.Errorf("%w: %T", shared.ErrUnknownProductKind, game)
	}
}
