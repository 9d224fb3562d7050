package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"humblesync/internal/library"
	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// mockResolver serves canned libraries and can hold callers on a gate channel
// to exercise the scheduler's overlap rules.
type mockResolver struct {
	mu         sync.Mutex
	result     map[string]models.HumbleGame
	err        error
	calls      int
	strategies []library.Strategy
	entered    chan struct{}
	gate       chan struct{}
}

func (m *mockResolver) Resolve(ctx context.Context, strategy library.Strategy) (map[string]models.HumbleGame, error) {
	m.mu.Lock()
	m.calls++
	m.strategies = append(m.strategies, strategy)
	entered, gate := m.entered, m.gate
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]models.HumbleGame, len(m.result))
	for id, game := range m.result {
		out[id] = game
	}
	return out, nil
}

func (m *mockResolver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockSettings struct {
	mu      sync.Mutex
	changed bool
	calls   int
}

func (m *mockSettings) ReloadIfChanged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.changed
}

func (m *mockSettings) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockFinder struct {
	locals     []models.LocalGame
	refreshErr error
	findErr    error
	refreshes  int
}

func (m *mockFinder) Refresh() error {
	m.refreshes++
	return m.refreshErr
}

func (m *mockFinder) FindLocalGames(ctx context.Context, owned []models.HumbleGame) ([]models.LocalGame, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.locals, nil
}

type fakeLocalGame struct {
	id           string
	state        models.GameState
	runErr       error
	uninstallErr error
	runs         int
	uninstalls   int
}

func (f *fakeLocalGame) ID() string              { return f.id }
func (f *fakeLocalGame) State() models.GameState { return f.state }
func (f *fakeLocalGame) Run(ctx context.Context) error {
	f.runs++
	return f.runErr
}
func (f *fakeLocalGame) Uninstall(ctx context.Context) error {
	f.uninstalls++
	return f.uninstallErr
}

// recNotifier records every change event in arrival order.
type recNotifier struct {
	mu       sync.Mutex
	added    []string
	removed  []string
	statuses []string
}

func (n *recNotifier) AddGame(game models.HumbleGame) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, game.MachineName())
}

func (n *recNotifier) RemoveGame(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed = append(n.removed, id)
}

func (n *recNotifier) UpdateLocalGameStatus(id string, state models.GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, id+":"+state.String())
}

type recReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recReporter) Report(err error, context any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type blockingDispatcher struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	gate    chan struct{}
	err     error
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, game models.HumbleGame) error {
	d.mu.Lock()
	d.calls++
	entered, gate := d.entered, d.gate
	d.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return d.err
}

func (d *blockingDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func ownedFixture(names ...string) map[string]models.HumbleGame {
	owned := make(map[string]models.HumbleGame, len(names))
	for _, name := range names {
		owned[name] = models.Subproduct{Data: models.SubproductData{MachineName: name, HumanName: name}}
	}
	return owned
}

type sessionFixture struct {
	session    *Session
	resolver   *mockResolver
	settings   *mockSettings
	finder     *mockFinder
	dispatcher *blockingDispatcher
	notifier   *recNotifier
	reporter   *recReporter
}

func newTestSession(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		resolver:   &mockResolver{},
		settings:   &mockSettings{},
		finder:     &mockFinder{},
		dispatcher: &blockingDispatcher{},
		notifier:   &recNotifier{},
		reporter:   &recReporter{},
	}
	f.session = NewSession(SessionOpts{
		API:        &mockCatalog{},
		Resolver:   f.resolver,
		Settings:   f.settings,
		Finder:     f.finder,
		Dispatcher: f.dispatcher,
		Notifier:   f.notifier,
		Reporter:   f.reporter,
	})
	t.Cleanup(f.session.Shutdown)
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSessionAuthenticate(t *testing.T) {
	t.Run("Empty Cookie", func(t *testing.T) {
		f := newTestSession(t)
		if _, _, err := f.session.Authenticate(context.Background(), ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Stored Cookie", func(t *testing.T) {
		f := newTestSession(t)
		userID, userName, err := f.session.Authenticate(context.Background(), "abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if userID != "1" || userName != "tester" {
			t.Errorf("unexpected identity: %s %s", userID, userName)
		}
	})
}

func TestPassLoginCredentials(t *testing.T) {
	t.Run("Cookie Line", func(t *testing.T) {
		f := newTestSession(t)
		cookie, userID, userName, err := f.session.PassLoginCredentials(context.Background(), "csrf=1; _simpleauth_sess=sess-value; other=2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cookie != "sess-value" {
			t.Errorf("expected extracted cookie, got %q", cookie)
		}
		if userID != "1" || userName != "tester" {
			t.Errorf("unexpected identity: %s %s", userID, userName)
		}
	})

	t.Run("Missing Session Cookie", func(t *testing.T) {
		f := newTestSession(t)
		if _, _, _, err := f.session.PassLoginCredentials(context.Background(), "csrf=1"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestGetOwnedGames(t *testing.T) {
	t.Run("Sorted Full Fetch", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("zeta", "alpha")

		games, err := f.session.GetOwnedGames(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(games) != 2 || games[0].MachineName() != "alpha" || games[1].MachineName() != "zeta" {
			t.Errorf("expected sorted games, got %v", games)
		}
		if len(f.resolver.strategies) != 1 || f.resolver.strategies[0] != library.StrategyFetch {
			t.Errorf("expected one full-fetch resolve, got %v", f.resolver.strategies)
		}
	})

	t.Run("Resolver Failure Surfaces", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.err = shared.ErrRemoteUnavailable

		if _, err := f.session.GetOwnedGames(context.Background()); !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})

	t.Run("Background Ownership Task Yields", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("alpha")
		f.resolver.entered = make(chan struct{}, 1)
		f.resolver.gate = make(chan struct{})
		f.settings.changed = true

		done := make(chan struct{})
		go func() {
			defer close(done)
			f.session.GetOwnedGames(context.Background())
		}()
		<-f.resolver.entered

		f.session.Tick()
		f.session.Tick()
		if got := f.settings.callCount(); got != 0 {
			t.Errorf("ownership task must yield to a foreground fetch, saw %d reload checks", got)
		}

		close(f.resolver.gate)
		<-done
	})
}

func TestCheckOwned(t *testing.T) {
	t.Run("Minimal Diff", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("a", "b", "c")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		f.settings.changed = true
		f.resolver.result = ownedFixture("b", "c", "d")
		f.session.checkOwned(context.Background())

		f.notifier.mu.Lock()
		defer f.notifier.mu.Unlock()
		if len(f.notifier.removed) != 1 || f.notifier.removed[0] != "a" {
			t.Errorf("expected exactly one removal of a, got %v", f.notifier.removed)
		}
		if len(f.notifier.added) != 1 || f.notifier.added[0] != "d" {
			t.Errorf("expected exactly one addition of d, got %v", f.notifier.added)
		}
	})

	t.Run("No Change No Resolve", func(t *testing.T) {
		f := newTestSession(t)
		f.settings.changed = false

		f.session.checkOwned(context.Background())
		if f.resolver.callCount() != 0 {
			t.Errorf("unchanged settings must not hit the resolver")
		}
	})

	t.Run("Refresh Uses Cache Tier", func(t *testing.T) {
		f := newTestSession(t)
		f.settings.changed = true
		f.resolver.result = ownedFixture("a")

		f.session.checkOwned(context.Background())
		if len(f.resolver.strategies) != 1 || f.resolver.strategies[0] != library.StrategyCache {
			t.Errorf("expected cache-tier resolve, got %v", f.resolver.strategies)
		}
	})

	t.Run("Resolve Failure Keeps Previous Set", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("a")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		f.settings.changed = true
		f.resolver.err = shared.ErrRemoteUnavailable
		f.session.checkOwned(context.Background())

		f.notifier.mu.Lock()
		defer f.notifier.mu.Unlock()
		if len(f.notifier.removed) != 0 {
			t.Errorf("failed refresh must keep the previous set, got removals %v", f.notifier.removed)
		}
	})
}

func TestTick(t *testing.T) {
	t.Run("Running Slot Skipped", func(t *testing.T) {
		f := newTestSession(t)
		f.settings.changed = true
		f.resolver.result = ownedFixture("a")
		f.resolver.entered = make(chan struct{}, 2)
		f.resolver.gate = make(chan struct{})

		f.session.Tick()
		<-f.resolver.entered

		f.session.Tick()
		f.session.Tick()
		if got := f.resolver.callCount(); got != 1 {
			t.Fatalf("ticks during a running task must not start another, got %d resolves", got)
		}

		close(f.resolver.gate)
		waitFor(t, "ownership slot to drain", func() bool { return !f.session.ownedSlot.running.Load() })

		f.resolver.mu.Lock()
		f.resolver.entered = nil
		f.resolver.gate = nil
		f.resolver.mu.Unlock()

		f.session.Tick()
		waitFor(t, "second resolve", func() bool { return f.resolver.callCount() == 2 })
	})

	t.Run("Installed Task Merges Scan", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("goo")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		f.finder.locals = []models.LocalGame{&fakeLocalGame{id: "goo", state: models.StateInstalled}}

		f.session.Tick()
		waitFor(t, "scan to merge", func() bool {
			_, ok := f.session.localGame("goo")
			return ok
		})
	})
}

func TestInstallGame(t *testing.T) {
	t.Run("At Most One Dispatch Per ID", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("x")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		f.dispatcher.entered = make(chan struct{}, 1)
		f.dispatcher.gate = make(chan struct{})

		done := make(chan struct{})
		go func() {
			defer close(done)
			f.session.InstallGame(context.Background(), "x")
		}()
		<-f.dispatcher.entered

		// Second request while the first is in flight is a silent no-op.
		f.session.InstallGame(context.Background(), "x")
		if got := f.dispatcher.callCount(); got != 1 {
			t.Fatalf("expected one dispatch, got %d", got)
		}

		close(f.dispatcher.gate)
		<-done

		f.dispatcher.mu.Lock()
		f.dispatcher.entered = nil
		f.dispatcher.gate = nil
		f.dispatcher.mu.Unlock()

		// Completion releases the id for a later request.
		f.session.InstallGame(context.Background(), "x")
		if got := f.dispatcher.callCount(); got != 2 {
			t.Errorf("expected dispatch after release, got %d", got)
		}
	})

	t.Run("Unknown ID Reported Not Raised", func(t *testing.T) {
		f := newTestSession(t)
		f.session.InstallGame(context.Background(), "nope")

		if f.dispatcher.callCount() != 0 {
			t.Errorf("unknown id must not dispatch")
		}
		f.reporter.mu.Lock()
		defer f.reporter.mu.Unlock()
		if len(f.reporter.errs) != 1 || !errors.Is(f.reporter.errs[0], shared.ErrGameNotFound) {
			t.Errorf("expected one ErrGameNotFound report, got %v", f.reporter.errs)
		}
	})

	t.Run("Dispatch Failure Swallowed", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("x")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		f.dispatcher.err = shared.ErrRemoteUnavailable

		f.session.InstallGame(context.Background(), "x")
		if f.reporter.count() != 1 {
			t.Errorf("expected dispatch failure reported, got %d reports", f.reporter.count())
		}
	})
}

func TestLaunchAndUninstall(t *testing.T) {
	t.Run("Unknown IDs Reported", func(t *testing.T) {
		f := newTestSession(t)
		if err := f.session.LaunchGame(context.Background(), "ghost"); err != nil {
			t.Errorf("unknown launch must not raise, got %v", err)
		}
		if err := f.session.UninstallGame(context.Background(), "ghost"); err != nil {
			t.Errorf("unknown uninstall must not raise, got %v", err)
		}
		if f.reporter.count() != 2 {
			t.Errorf("expected two reports, got %d", f.reporter.count())
		}
	})

	t.Run("Known ID Runs", func(t *testing.T) {
		f := newTestSession(t)
		game := &fakeLocalGame{id: "goo", state: models.StateInstalled}
		f.session.mu.Lock()
		f.session.local["goo"] = game
		f.session.mu.Unlock()

		if err := f.session.LaunchGame(context.Background(), "goo"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := f.session.UninstallGame(context.Background(), "goo"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if game.runs != 1 || game.uninstalls != 1 {
			t.Errorf("expected one run and one uninstall, got %d/%d", game.runs, game.uninstalls)
		}
	})
}

func TestGetLocalGames(t *testing.T) {
	t.Run("No Owned Games No Scan", func(t *testing.T) {
		f := newTestSession(t)
		locals, err := f.session.GetLocalGames(context.Background())
		if err != nil || locals != nil {
			t.Errorf("expected empty result, got %v %v", locals, err)
		}
		if f.finder.refreshes != 0 {
			t.Errorf("scan must wait for an owned library")
		}
	})

	t.Run("Merge Never Removes", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("one", "two")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		f.finder.locals = []models.LocalGame{
			&fakeLocalGame{id: "one", state: models.StateInstalled},
			&fakeLocalGame{id: "two", state: models.StateInstalled},
		}
		if _, err := f.session.GetLocalGames(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.finder.locals = []models.LocalGame{&fakeLocalGame{id: "two", state: models.StateInstalled}}
		locals, err := f.session.GetLocalGames(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(locals) != 2 {
			t.Errorf("entries absent from a scan must be kept, got %d", len(locals))
		}
	})

	t.Run("Scanner Failure Reported", func(t *testing.T) {
		f := newTestSession(t)
		f.resolver.result = ownedFixture("one")
		if _, err := f.session.GetOwnedGames(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		f.finder.findErr = errors.New("walk failed")

		locals, err := f.session.GetLocalGames(context.Background())
		if err != nil || locals != nil {
			t.Errorf("scanner failure must yield empty result, got %v %v", locals, err)
		}
		if f.reporter.count() != 1 {
			t.Errorf("expected scanner failure reported, got %d", f.reporter.count())
		}
	})
}

func TestCheckStatuses(t *testing.T) {
	f := newTestSession(t)
	game := &fakeLocalGame{id: "goo", state: models.StateInstalled}
	f.session.mu.Lock()
	f.session.local["goo"] = game
	f.session.mu.Unlock()

	f.session.checkStatuses()
	f.session.checkStatuses()
	game.state = models.StateRunning
	f.session.checkStatuses()

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	want := []string{"goo:" + models.StateInstalled.String(), "goo:" + models.StateRunning.String()}
	if len(f.notifier.statuses) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.notifier.statuses)
	}
	for i := range want {
		if f.notifier.statuses[i] != want[i] {
			t.Errorf("status %d: expected %s, got %s", i, want[i], f.notifier.statuses[i])
		}
	}
}
