package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"humblesync/internal/shared"
)

// humbleLoginURL is where the browser handoff sends the user to sign in.
const humbleLoginURL = "https://www.humblebundle.com/login"

// AuthLogin extracts the Humble Bundle session cookie from a pasted cookie
// line or a browser-exported cURL command, verifies it against the catalog,
// and stores it in the configuration file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	cookieLine := cmd.StringArg("cookies")
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	var sessionCookie string
	var err error

	switch {
	case curlFile != "":
		sessionCookie, err = shared.SessionFromCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed session cookie from cURL file", "file", curlFile)
	case curlCmd != "":
		sessionCookie, err = shared.SessionFromCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed session cookie from cURL command")
	case cookieLine != "":
		sessionCookie = shared.SessionFromCookieLine(cookieLine)
		if sessionCookie == "" {
			return fmt.Errorf("%w: session cookie not found in cookie line", shared.ErrMissingCredentials)
		}
	default:
		// No credentials yet: hand off to the browser so the user can sign in
		// and copy the session cookie out of DevTools.
		if err := r.openURL(humbleLoginURL); err != nil {
			r.logger.Debug("failed to open browser", "err", err)
		}
		r.writePlain("Opened %s in your browser.\n", humbleLoginURL)
		r.writePlain("Sign in, copy the request as cURL from DevTools, then run:\n")
		r.writePlain("  humblesync auth login --curl '<paste>'\n")
		return nil
	}

	r.logger.Info("verifying session cookie against the catalog")

	userID, userName, err := r.catalog().Authenticate(ctx, sessionCookie)
	if err != nil {
		return fmt.Errorf("login verification failed: %w", err)
	}

	r.config.Credentials.SessionCookie = sessionCookie
	r.config.Credentials.UserID = userID
	r.config.Credentials.UserName = userName

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.logger.Info("credentials saved", "path", r.configPath)
	}

	r.writePlain("✓ Logged in as %s (id %s)\n", userName, userID)
	return nil
}

// AuthStatus checks the stored session cookie against the catalog.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	if r.config.Credentials.SessionCookie == "" {
		return fmt.Errorf("%w: run 'humblesync auth login' first", shared.ErrNotAuthenticated)
	}

	userID, userName, err := r.catalog().Authenticate(ctx, r.config.Credentials.SessionCookie)
	if err != nil {
		return fmt.Errorf("stored session is not valid: %w", err)
	}

	r.writePlain("✓ Session valid\n")
	r.writePlain("User: %s (id %s)\n", userName, userID)
	return nil
}
