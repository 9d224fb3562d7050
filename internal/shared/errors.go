package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and session errors
	ErrMissingCredentials     = fmt.Errorf("missing credentials")
	ErrAuthFailed             = fmt.Errorf("authentication failed")
	ErrNotAuthenticated       = fmt.Errorf("not authenticated")
	ErrAuthenticationRequired = fmt.Errorf("authentication required")

	// Catalog and cache errors
	ErrRemoteUnavailable = fmt.Errorf("remote catalog unavailable")
	ErrCacheCorrupt      = fmt.Errorf("persisted library cache corrupt")
	ErrOrderNotFound     = fmt.Errorf("order not found")

	// Library and dispatch errors
	ErrGameNotFound       = fmt.Errorf("game not found")
	ErrDownloadNotFound   = fmt.Errorf("no suitable download found")
	ErrUnsupportedOS      = fmt.Errorf("unsupported operating system")
	ErrUnknownProductKind = fmt.Errorf("unknown product kind")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
