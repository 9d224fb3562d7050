package models

// Kind discriminates the variants of the HumbleGame sum type.
type Kind string

const (
	KindKey        Kind = "key"
	KindSubproduct Kind = "subproduct"
	KindTrove      Kind = "trove"
)

// HumbleGame is an owned product: a redeemable key, a directly downloadable
// subproduct, or a Trove entry. Implementations are immutable value types
// constructed from one catalog snapshot; a resolved library replaces them
// wholesale. Every variant is identified by a stable machine name, unique
// across the owned set.
type HumbleGame interface {
	MachineName() string
	HumanName() string
	Kind() Kind
}

// Key is a third-party redeemable key (e.g. a Steam key).
type Key struct {
	Data KeyData
}

func (k Key) MachineName() string { return k.Data.MachineName }
func (k Key) HumanName() string   { return k.Data.HumanName }
func (k Key) Kind() Kind          { return KindKey }

// IsRevealed reports whether the user has already revealed the key value.
func (k Key) IsRevealed() bool { return k.Data.RedeemedKeyVal != "" }

// Subproduct is a DRM-free product downloaded directly from the catalog.
type Subproduct struct {
	Data SubproductData
}

func (s Subproduct) MachineName() string { return s.Data.MachineName }
func (s Subproduct) HumanName() string   { return s.Data.HumanName }
func (s Subproduct) Kind() Kind          { return KindSubproduct }

// TroveGame is a monthly-subscription entry whose downloads require a signed
// URL issued per request.
type TroveGame struct {
	Data TroveData
}

func (t TroveGame) MachineName() string { return t.Data.MachineName }
func (t TroveGame) HumanName() string   { return t.Data.HumanName }
func (t TroveGame) Kind() Kind          { return KindTrove }
