// Package models defines domain entities for the Humble Bundle library sync engine.
//
// The package contains three categories of types:
//
// 1. Catalog payloads: structs mirroring the fields this core reads from the
// remote catalog API
//   - [Order] : A purchased bundle with its product records
//   - [SubproductData] : A downloadable product inside an order
//   - [KeyData] : A redeemable third-party key inside an order
//   - [TroveData] : A monthly-subscription (Trove) catalog entry
//
// 2. Owned products: the [HumbleGame] sum type with variants [Key],
// [Subproduct], and [TroveGame], each keyed by a stable machine name. A
// resolved library is a map from machine name to HumbleGame; the map is
// rebuilt wholesale on each successful resolve, never mutated field-by-field.
//
// 3. Local installation facets: [LocalGame] and [GameState] reported by the
// install scanner and diffed by the status tracker.
package models
