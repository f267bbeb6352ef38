package enum

// ── Order lifecycle (CHECK constrained in DB) ──
//
// The chain is strictly forward-only: pending → claimed → served.
// There is no cancellation or backward transition.

const (
	OrderStatusPending = "pending"
	OrderStatusClaimed = "claimed"
	OrderStatusServed  = "served"
)

// ── Stock actions (wire values from the ordering client) ──

const (
	StockActionAdd = "add"
	StockActionUse = "use"
	StockActionSet = "set"
)

// ── Staff roles (client-side preference, not an authorization boundary) ──

const (
	StaffRoleFront = "front"
	StaffRoleBar   = "bar"
	StaffRoleAdmin = "admin"
)

// ── Configurable labels (no DB constraint) ──

const (
	BaseSpiritWhisky  = "whisky"
	BaseSpiritVodka   = "vodka"
	BaseSpiritRum     = "rum"
	BaseSpiritGin     = "gin"
	BaseSpiritTequila = "tequila"
	BaseSpiritNone    = "none"
)

const (
	MaterialCategorySpirit  = "spirit"
	MaterialCategoryMixer   = "mixer"
	MaterialCategoryGarnish = "garnish"
	MaterialCategoryOther   = "other"
)
