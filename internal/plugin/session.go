package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"humblesync/internal/library"
	"humblesync/internal/local"
	"humblesync/internal/models"
	"humblesync/internal/services"
	"humblesync/internal/shared"
)

// GameDispatcher abstracts the download dispatcher for the session, mirroring
// how the resolver and finder are injected.
type GameDispatcher interface {
	Dispatch(ctx context.Context, game models.HumbleGame) error
}

// LibraryResolver produces the owned library under a strategy tier.
// Implemented by library.Resolver.
type LibraryResolver interface {
	Resolve(ctx context.Context, strategy library.Strategy) (map[string]models.HumbleGame, error)
}

// SettingsReloader reports user-driven ownership filter changes.
// Implemented by library.Settings.
type SettingsReloader interface {
	ReloadIfChanged() bool
}

// taskSlot is the Idle/Running state of one background task.
type taskSlot struct {
	running atomic.Bool
}

// tryStart transitions Idle -> Running; false means the previous invocation
// has not finished.
func (s *taskSlot) tryStart() bool {
	return s.running.CompareAndSwap(false, true)
}

func (s *taskSlot) finish() {
	s.running.Store(false)
}

// SessionOpts contains the collaborators a session is built from.
type SessionOpts struct {
	API        services.CatalogService
	Resolver   LibraryResolver
	Settings   SettingsReloader
	Finder     local.AppFinder
	Dispatcher GameDispatcher
	Notifier   Notifier
	Reporter   Reporter
	Logger     *log.Logger
}

// Session owns all state for one account: the owned library, the local
// installs, the status cache, and the three independently-paced background
// tasks that keep them fresh.
type Session struct {
	api        services.CatalogService
	resolver   LibraryResolver
	settings   SettingsReloader
	finder     local.AppFinder
	dispatcher GameDispatcher
	notifier   Notifier
	reporter   Reporter
	tracker    *StatusTracker
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	owned map[string]models.HumbleGame
	local map[string]models.LocalGame

	installMu sync.Mutex
	inFlight  map[string]bool

	// gettingOwned blocks the background ownership task while a foreground
	// GetOwnedGames call is resolving.
	gettingOwned atomic.Bool

	ownedSlot     taskSlot
	installedSlot taskSlot
	statusesSlot  taskSlot
}

// NewSession creates a session around the given collaborators. Notifier and
// Reporter default to log-backed implementations.
func NewSession(opts SessionOpts) *Session {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(opts.Logger)
	}
	if opts.Reporter == nil {
		opts.Reporter = NewLogReporter(opts.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		api:        opts.API,
		resolver:   opts.Resolver,
		settings:   opts.Settings,
		finder:     opts.Finder,
		dispatcher: opts.Dispatcher,
		notifier:   opts.Notifier,
		reporter:   opts.Reporter,
		tracker:    NewStatusTracker(),
		logger:     opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
		owned:      make(map[string]models.HumbleGame),
		local:      make(map[string]models.LocalGame),
		inFlight:   make(map[string]bool),
	}
}

// Authenticate verifies a stored session cookie against the catalog.
func (s *Session) Authenticate(ctx context.Context, sessionCookie string) (string, string, error) {
	if sessionCookie == "" {
		return "", "", fmt.Errorf("%w: no stored credentials", shared.ErrNotAuthenticated)
	}
	return s.api.Authenticate(ctx, sessionCookie)
}

// PassLoginCredentials extracts the session cookie from a raw browser cookie
// line and authenticates with it. Returns the cookie value for storage
// alongside the identity.
func (s *Session) PassLoginCredentials(ctx context.Context, cookieLine string) (sessionCookie, userID, userName string, err error) {
	sessionCookie = shared.SessionFromCookieLine(cookieLine)
	if sessionCookie == "" {
		return "", "", "", fmt.Errorf("%w: session cookie not found in login response", shared.ErrAuthFailed)
	}
	userID, userName, err = s.api.Authenticate(ctx, sessionCookie)
	if err != nil {
		return "", "", "", err
	}
	return sessionCookie, userID, userName, nil
}

// GetOwnedGames resolves the owned library under the full-fetch tier and
// replaces the session's owned set. The background ownership task yields
// while this runs.
func (s *Session) GetOwnedGames(ctx context.Context) ([]models.HumbleGame, error) {
	s.gettingOwned.Store(true)
	defer s.gettingOwned.Store(false)

	owned, err := s.resolver.Resolve(ctx, library.StrategyFetch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.owned = owned
	s.mu.Unlock()

	return sortedGames(owned), nil
}

// ResolveOwned resolves the owned library under an explicit strategy tier and
// replaces the session's owned set. GetOwnedGames is the full-fetch variant
// that also parks the background ownership task.
func (s *Session) ResolveOwned(ctx context.Context, strategy library.Strategy) ([]models.HumbleGame, error) {
	owned, err := s.resolver.Resolve(ctx, strategy)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.owned = owned
	s.mu.Unlock()

	return sortedGames(owned), nil
}

// GetLocalGames rescans the machine and merges the result into the local set.
// Scanner failure is reported and treated as "no local games this cycle".
func (s *Session) GetLocalGames(ctx context.Context) ([]models.LocalGame, error) {
	ownedSnapshot := s.ownedSnapshot()
	if s.finder == nil || len(ownedSnapshot) == 0 {
		return nil, nil
	}

	if err := s.finder.Refresh(); err != nil {
		s.reporter.Report(err, nil)
		return nil, nil
	}

	locals, err := s.finder.FindLocalGames(ctx, ownedSnapshot)
	if err != nil {
		s.reporter.Report(err, nil)
		return nil, nil
	}

	s.mu.Lock()
	for _, game := range locals {
		s.local[game.ID()] = game
	}
	merged := make([]models.LocalGame, 0, len(s.local))
	for _, game := range s.local {
		merged = append(merged, game)
	}
	s.mu.Unlock()

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID() < merged[j].ID() })
	return merged, nil
}

// InstallGame dispatches the acquisition flow for one owned product. A second
// call for an id already in flight is a silent no-op; dispatch failures are
// reported with the product attached and never raised.
func (s *Session) InstallGame(ctx context.Context, id string) {
	s.installMu.Lock()
	if s.inFlight[id] {
		s.installMu.Unlock()
		return
	}
	s.inFlight[id] = true
	s.installMu.Unlock()

	defer func() {
		s.installMu.Lock()
		delete(s.inFlight, id)
		s.installMu.Unlock()
	}()

	s.mu.Lock()
	game, ok := s.owned[id]
	s.mu.Unlock()
	if !ok {
		err := fmt.Errorf("%w: install %s, owned: %v", shared.ErrGameNotFound, id, s.ownedIDs())
		s.reporter.Report(err, id)
		s.logger.Error("install requested for unknown game", "id", id)
		return
	}

	if err := s.dispatcher.Dispatch(ctx, game); err != nil {
		s.reporter.Report(err, game)
		s.logger.Error("dispatch failed", "id", id, "err", err)
	}
}

// LaunchGame runs an installed game. Unknown ids are reported with the local
// set attached and the call returns without effect.
func (s *Session) LaunchGame(ctx context.Context, id string) error {
	game, ok := s.localGame(id)
	if !ok {
		s.reporter.Report(fmt.Errorf("%w: launch %s", shared.ErrGameNotFound, id), s.localIDs())
		return nil
	}
	return game.Run(ctx)
}

// UninstallGame runs an installed game's uninstaller. Unknown ids are
// reported with the local set attached and the call returns without effect.
func (s *Session) UninstallGame(ctx context.Context, id string) error {
	game, ok := s.localGame(id)
	if !ok {
		s.reporter.Report(fmt.Errorf("%w: uninstall %s", shared.ErrGameNotFound, id), s.localIDs())
		return nil
	}
	return game.Uninstall(ctx)
}

// Tick drives the scheduler: every idle slot gets a fresh task goroutine,
// running slots are skipped. The ownership slot additionally yields to a
// foreground GetOwnedGames call. Tick itself never blocks.
func (s *Session) Tick() {
	if !s.gettingOwned.Load() && s.ownedSlot.tryStart() {
		go func() {
			defer s.ownedSlot.finish()
			s.checkOwned(s.ctx)
		}()
	}

	if s.statusesSlot.tryStart() {
		go func() {
			defer s.statusesSlot.finish()
			s.checkStatuses()
		}()
	}

	if s.installedSlot.tryStart() {
		go func() {
			defer s.installedSlot.finish()
			s.checkInstalled(s.ctx)
		}()
	}
}

// Shutdown cancels background work and releases the catalog session.
func (s *Session) Shutdown() {
	s.cancel()
	if err := s.api.Close(); err != nil {
		s.logger.Debug("failed to close catalog session", "err", err)
	}
}

// checkOwned reconciles the owned set after a user-driven filter change.
// The owned set is re-resolved from cache and the minimal add/remove diff is
// emitted: removals first, then additions, nothing for unaffected ids.
func (s *Session) checkOwned(ctx context.Context) {
	if !s.settings.ReloadIfChanged() {
		return
	}

	fresh, err := s.resolver.Resolve(ctx, library.StrategyCache)
	if err != nil {
		s.logger.Warn("ownership refresh failed, retrying next cycle", "err", err)
		return
	}

	s.mu.Lock()
	previous := s.owned
	s.owned = fresh
	s.mu.Unlock()

	for id := range previous {
		if _, ok := fresh[id]; !ok {
			s.notifier.RemoveGame(id)
		}
	}
	for id, game := range fresh {
		if _, ok := previous[id]; !ok {
			s.notifier.AddGame(game)
		}
	}
}

// checkInstalled merges a fresh scan into the local set. Entries are
// overwritten, never removed; removal is host-observed via later scans.
func (s *Session) checkInstalled(ctx context.Context) {
	if _, err := s.GetLocalGames(ctx); err != nil {
		s.logger.Warn("install rescan failed, retrying next cycle", "err", err)
	}
}

// checkStatuses polls a snapshot of the local set and forwards only genuine
// state transitions.
func (s *Session) checkStatuses() {
	s.mu.Lock()
	frozen := make([]models.LocalGame, 0, len(s.local))
	for _, game := range s.local {
		frozen = append(frozen, game)
	}
	s.mu.Unlock()

	for _, game := range frozen {
		state := game.State()
		if s.tracker.Observe(game.ID(), state) {
			s.notifier.UpdateLocalGameStatus(game.ID(), state)
		}
	}
}

func (s *Session) ownedSnapshot() []models.HumbleGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	games := make([]models.HumbleGame, 0, len(s.owned))
	for _, game := range s.owned {
		games = append(games, game)
	}
	return games
}

func (s *Session) ownedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.owned))
	for id := range s.owned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) localGame(id string) (models.LocalGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.local[id]
	return game, ok
}

func (s *Session) localIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.local))
	for id := range s.local {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedGames(owned map[string]models.HumbleGame) []models.HumbleGame {
	games := make([]models.HumbleGame, 0, len(owned))
	for _, game := range owned {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].MachineName() < games[j].MachineName() })
	return games
}
