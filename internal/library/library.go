package library

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"humblesync/internal/models"
	"humblesync/internal/repositories"
	"humblesync/internal/services"
	"humblesync/internal/shared"
)

// Strategy selects how much remote state a resolve re-fetches.
type Strategy int

const (
	// StrategyFetch always hits the remote catalog and ignores the
	// persisted snapshot.
	StrategyFetch Strategy = iota

	// StrategyCache rebuilds the owned set purely from the persisted
	// snapshot; no network calls.
	StrategyCache

	// StrategyOptimized starts from the snapshot and selectively refreshes
	// only the subsets likely to have changed.
	StrategyOptimized
)

func (s Strategy) String() string {
	switch s {
	case StrategyFetch:
		return "fetch"
	case StrategyCache:
		return "cache"
	case StrategyOptimized:
		return "optimized"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name as used by CLI flags.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "fetch":
		return StrategyFetch, nil
	case "cache":
		return StrategyCache, nil
	case "optimized":
		return StrategyOptimized, nil
	default:
		return StrategyFetch, fmt.Errorf("%w: unknown strategy %q", shared.ErrInvalidInput, name)
	}
}

// cacheKey is the store key holding the serialized snapshot.
const cacheKey = "library"

// snapshot is the persisted raw catalog state a cache-tier resolve rebuilds
// the owned set from.
type snapshot struct {
	Orders          map[string]models.Order `json:"orders"`
	Troves          []models.TroveData      `json:"troves"`
	TroveSubscribed bool                    `json:"trove_subscribed"`
}

func emptySnapshot() snapshot {
	return snapshot{Orders: make(map[string]models.Order)}
}

func (s snapshot) empty() bool {
	return len(s.Orders) == 0 && len(s.Troves) == 0
}

// Resolver produces the canonical deduplicated mapping of owned products,
// consulting the cache store and/or the remote catalog as dictated by the
// strategy tier.
type Resolver struct {
	api      services.CatalogService
	store    repositories.Store
	settings *Settings
	logger   *log.Logger

	// mu serializes resolves. One resolver is shared between the host-facing
	// calls and the background ownership task, and both mutate the snapshot.
	mu      sync.Mutex
	snap    snapshot
	corrupt bool
}

// NewResolver creates a resolver seeded from the persisted snapshot. A
// malformed snapshot is noted and repaired by the next resolve; it is never
// surfaced to the caller.
func NewResolver(api services.CatalogService, store repositories.Store, settings *Settings, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	r := &Resolver{
		api:      api,
		store:    store,
		settings: settings,
		logger:   logger,
		snap:     emptySnapshot(),
	}

	raw, ok, err := store.Get(cacheKey)
	if err != nil {
		logger.Warn("failed to read library cache", "err", err)
		return r
	}
	if !ok || raw == "" {
		return r
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		r.corrupt = true
		logger.Warn("library cache corrupt, will force full fetch", "err", fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err))
		return r
	}
	if snap.Orders == nil {
		snap.Orders = make(map[string]models.Order)
	}
	r.snap = snap
	return r
}

// Resolve produces the owned library under the given strategy. Keys of the
// returned map are machine names and are unique by construction.
func (r *Resolver) Resolve(ctx context.Context, strategy Strategy) (map[string]models.HumbleGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filters := r.settings.Owned()

	// Cache tiers degrade to a full fetch when there is nothing usable to
	// rebuild from.
	if strategy != StrategyFetch && (r.corrupt || r.snap.empty()) {
		r.logger.Info("library cache unusable, falling back to full fetch", "strategy", strategy.String())
		strategy = StrategyFetch
	}

	switch strategy {
	case StrategyFetch:
		if err := r.fetchAll(ctx, filters); err != nil {
			return nil, err
		}
	case StrategyOptimized:
		r.refreshChanged(ctx, filters)
	case StrategyCache:
		// Snapshot as-is.
	default:
		return nil, fmt.Errorf("%w: strategy %d", shared.ErrInvalidInput, strategy)
	}

	if err := r.persist(); err != nil {
		return nil, err
	}
	r.corrupt = false

	return r.buildLibrary(filters), nil
}

// fetchAll replaces the snapshot with freshly fetched remote state.
func (r *Resolver) fetchAll(ctx context.Context, filters Filters) error {
	gamekeys, err := r.api.GetOrderList(ctx)
	if err != nil {
		return err
	}

	snap := emptySnapshot()
	for _, gamekey := range gamekeys {
		order, err := r.api.GetOrder(ctx, gamekey)
		if err != nil {
			return err
		}
		snap.Orders[gamekey] = *order
	}

	if filters.TroveGames {
		subscribed, troves, err := r.fetchTroves(ctx, 0)
		if err != nil {
			return err
		}
		snap.TroveSubscribed = subscribed
		snap.Troves = troves
	} else {
		// Keep what we know so flipping the filter back on works offline.
		snap.TroveSubscribed = r.snap.TroveSubscribed
		snap.Troves = r.snap.Troves
	}

	r.snap = snap
	return nil
}

// fetchTroves checks the subscription flag and paginates the trove catalog
// starting at fromPage, while the most recently fetched page is full.
func (r *Resolver) fetchTroves(ctx context.Context, fromPage int) (bool, []models.TroveData, error) {
	subscribed, err := r.api.HadTroveSubscription(ctx)
	if err != nil {
		return false, nil, err
	}
	if !subscribed {
		return false, nil, nil
	}

	var troves []models.TroveData
	for page := fromPage; ; page++ {
		chunk, err := r.api.GetTrovePage(ctx, page)
		if err != nil {
			return subscribed, troves, err
		}
		troves = append(troves, chunk...)
		if len(chunk) < services.TrovePageSize {
			break
		}
	}
	return subscribed, troves, nil
}

// refreshChanged selectively refreshes the snapshot subsets likely to have
// changed. Remote failures degrade to the cached state instead of failing the
// resolve.
func (r *Resolver) refreshChanged(ctx context.Context, filters Filters) {
	// New orders only.
	gamekeys, err := r.api.GetOrderList(ctx)
	if err != nil {
		r.logger.Warn("optimized refresh: order list unavailable, using cache", "err", err)
	} else {
		for _, gamekey := range gamekeys {
			if _, ok := r.snap.Orders[gamekey]; ok {
				continue
			}
			order, err := r.api.GetOrder(ctx, gamekey)
			if err != nil {
				r.logger.Warn("optimized refresh: order fetch failed", "gamekey", gamekey, "err", err)
				continue
			}
			r.snap.Orders[gamekey] = *order
		}
	}

	// Orders still holding unrevealed keys, re-checked for reveal status.
	for gamekey, order := range r.snap.Orders {
		if !hasUnrevealedKey(order) {
			continue
		}
		fresh, err := r.api.GetOrder(ctx, gamekey)
		if err != nil {
			r.logger.Warn("optimized refresh: key re-check failed", "gamekey", gamekey, "err", err)
			continue
		}
		r.snap.Orders[gamekey] = *fresh
	}

	// Trove state, only when the cached state does not already reflect
	// monthly-subscriber ownership; resume pagination at the last full page.
	if filters.TroveGames && !r.snap.TroveSubscribed {
		subscribed, troves, err := r.fetchTroves(ctx, len(r.snap.Troves)/services.TrovePageSize)
		if err != nil {
			r.logger.Warn("optimized refresh: trove refresh failed", "err", err)
		} else if subscribed {
			r.snap.TroveSubscribed = true
			r.snap.Troves = mergeTroves(r.snap.Troves, troves)
		}
	}
}

func hasUnrevealedKey(order models.Order) bool {
	for _, key := range order.TpkdDict.AllTpks {
		if key.RedeemedKeyVal == "" {
			return true
		}
	}
	return false
}

// mergeTroves appends freshly fetched trove entries, replacing stale entries
// with the same machine name.
func mergeTroves(cached, fresh []models.TroveData) []models.TroveData {
	seen := make(map[string]int, len(cached))
	merged := make([]models.TroveData, len(cached))
	copy(merged, cached)
	for i, trove := range merged {
		seen[trove.MachineName] = i
	}
	for _, trove := range fresh {
		if i, ok := seen[trove.MachineName]; ok {
			merged[i] = trove
			continue
		}
		seen[trove.MachineName] = len(merged)
		merged = append(merged, trove)
	}
	return merged
}

// persist serializes the snapshot and flushes it before the resolve returns.
func (r *Resolver) persist() error {
	raw, err := json.Marshal(r.snap)
	if err != nil {
		return fmt.Errorf("failed to serialize library snapshot: %w", err)
	}
	if err := r.store.Set(cacheKey, string(raw)); err != nil {
		return fmt.Errorf("failed to store library snapshot: %w", err)
	}
	if err := r.store.Flush(); err != nil {
		return fmt.Errorf("failed to flush library snapshot: %w", err)
	}
	return nil
}

// buildLibrary deduplicates the snapshot into one owned product per machine
// name. Trove entries are inserted first so order-sourced records win key
// collisions; within an order, downloadable subproducts shadow key records.
func (r *Resolver) buildLibrary(filters Filters) map[string]models.HumbleGame {
	owned := make(map[string]models.HumbleGame)

	if filters.TroveGames && r.snap.TroveSubscribed {
		for _, trove := range r.snap.Troves {
			owned[trove.MachineName] = models.TroveGame{Data: trove}
		}
	}

	subproductNames := make(map[string]bool)
	for _, order := range r.snap.Orders {
		for _, sub := range order.Subproducts {
			subproductNames[sub.MachineName] = true
		}
	}

	for _, order := range r.snap.Orders {
		if !categoryAllowed(order.Product.Category, filters) {
			continue
		}

		for _, key := range order.TpkdDict.AllTpks {
			if key.RedeemedKeyVal != "" && !filters.RevealedKeys {
				continue
			}
			if !filters.KeysWithoutGame && !subproductNames[key.MachineName] {
				continue
			}
			owned[key.MachineName] = models.Key{Data: key}
		}

		for _, sub := range order.Subproducts {
			if len(sub.Downloads) == 0 {
				continue
			}
			owned[sub.MachineName] = models.Subproduct{Data: sub}
		}
	}

	return owned
}

// categoryAllowed applies the bundle-category filters. Unknown categories are
// kept; the filters only carve out the big optional groups.
func categoryAllowed(category string, filters Filters) bool {
	switch category {
	case "bundle":
		return filters.GameBundles
	case "software":
		return filters.Software
	case "ebook":
		return filters.Ebooks
	default:
		return true
	}
}
