package models

import (
	"time"
)

// EntryKind is the business reason for a ledger entry.
type EntryKind string

const (
	EntryEarned      EntryKind = "earned"
	EntryStaked      EntryKind = "staked"
	EntryUnstaked    EntryKind = "unstaked"
	EntryTransferred EntryKind = "transferred"
)

// BalancePool names the sub-balance a ledger entry applies to.
type BalancePool string

const (
	PoolLiquid BalancePool = "liquid"
	PoolStaked BalancePool = "staked"
)

// AccountBalance holds one account's BUILD token balances. Created lazily
// with the signup bonus on first access.
type AccountBalance struct {
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	Liquid    int64     `json:"liquid" dynamodbav:"liquid"`
	Staked    int64     `json:"staked" dynamodbav:"staked"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// LedgerEntry is a single row in the append-only transaction log. Entries are
// never mutated or deleted; each pool's balance reconciles against the sum of
// its entries.
type LedgerEntry struct {
	ID          string      `json:"id"`
	AccountID   string      `json:"account_id"`
	Kind        EntryKind   `json:"kind"`
	Pool        BalancePool `json:"pool"`
	Amount      int64       `json:"amount"` // signed
	Description string      `json:"description"`
	Timestamp   time.Time   `json:"timestamp"`
}

// ResourceKind identifies a registrable infrastructure entity type.
type ResourceKind string

const (
	KindHotspot    ResourceKind = "hotspot"
	KindPartner    ResourceKind = "partner"
	KindFarm       ResourceKind = "farm"
	KindHealthcare ResourceKind = "healthcare"
	KindTaxPoint   ResourceKind = "tax_point"
	KindCharger    ResourceKind = "charger"
)

// ResourceStatus is the lifecycle state of a resource. The valid domain
// depends on the kind: connectivity nodes use online/offline/maintenance,
// service providers use active/inactive/pending, chargers add charging.
type ResourceStatus string

const (
	StatusOnline      ResourceStatus = "online"
	StatusOffline     ResourceStatus = "offline"
	StatusMaintenance ResourceStatus = "maintenance"
	StatusActive      ResourceStatus = "active"
	StatusInactive    ResourceStatus = "inactive"
	StatusPending     ResourceStatus = "pending"
	StatusCharging    ResourceStatus = "charging"
)

// ChargerInfo carries the charger-specific fields of a charger resource.
type ChargerInfo struct {
	PlotID        string  `json:"plot_id"`
	Type          string  `json:"type"` // level1, level2, dcfast, tesla_supercharger
	PowerOutputKW float64 `json:"power_output_kw"`
	PricingModel  string  `json:"pricing_model"` // per_kwh or per_second
	PerKWh        float64 `json:"per_kwh,omitempty"`
	PerSecond     float64 `json:"per_second,omitempty"`
	InstallCost   int64   `json:"install_cost"`
	TotalSessions int64   `json:"total_sessions"`
	TotalEnergy   float64 `json:"total_energy"` // kWh
}

// Resource is the generic shape shared by all registrable entities. Owned by
// exactly one account; destroyed only by a full-store reset. Earnings counts
// usage-driven rewards accrued after activation, not the registration reward.
type Resource struct {
	ID        string         `json:"id"`
	Kind      ResourceKind   `json:"kind"`
	OwnerID   string         `json:"owner_id"`
	Name      string         `json:"name"`
	Location  string         `json:"location,omitempty"`
	Status    ResourceStatus `json:"status"`
	Earnings  int64          `json:"earnings"`
	Meta      map[string]any `json:"meta,omitempty"`    // kind-specific free-form fields
	Charger   *ChargerInfo   `json:"charger,omitempty"` // set when Kind == charger
	CreatedAt time.Time      `json:"created_at"`
}

// VerificationStatus is the state of a verification request.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationRequest gates activation of a registered resource. Terminal
// once approved or rejected.
type VerificationRequest struct {
	ID           string             `json:"id"`
	ResourceKind ResourceKind       `json:"resource_kind"`
	ResourceID   string             `json:"resource_id"`
	RequestedBy  string             `json:"requested_by"`
	Status       VerificationStatus `json:"status"`
	ReviewedBy   string             `json:"reviewed_by,omitempty"`
	ReviewNotes  string             `json:"review_notes,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	ReviewedAt   *time.Time         `json:"reviewed_at,omitempty"`
}

// PlotStatus is the occupancy state of a charging plot.
type PlotStatus string

const (
	PlotAvailable PlotStatus = "available"
	PlotOccupied  PlotStatus = "occupied"
	PlotReserved  PlotStatus = "reserved"
)

// ChargingPlot is a uniquely-ownable infrastructure slot. A plot either has
// an owner or is available; an owned plot hosts at most one active listing.
type ChargingPlot struct {
	ID          string     `json:"id"`
	Location    string     `json:"location"`
	City        string     `json:"city,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	Status      PlotStatus `json:"status"`
	Price       int64      `json:"price"` // BUILD tokens
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
}

// ListingStatus is shared by plot and points listings.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// PlotListing is an escrow-market offer for an owned plot.
type PlotListing struct {
	ID            string        `json:"id"`
	PlotID        string        `json:"plot_id"`
	SellerID      string        `json:"seller_id"`
	OriginalPrice int64         `json:"original_price"`
	SalePrice     int64         `json:"sale_price"`
	Status        ListingStatus `json:"status"`
	ListedAt      time.Time     `json:"listed_at"`
}

// PointsBalance tracks the secondary reward unit earned from charging
// sessions. Distinct from the token ledger; spent only via the points market.
type PointsBalance struct {
	AccountID   string    `json:"account_id"`
	Points      int64     `json:"points"`
	EarnedTotal int64     `json:"earned_total"`
	TradedTotal int64     `json:"traded_total"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PointsListing is a partial-fill marketplace offer. AskPrice stays
// proportional to the remaining points: price-per-point is fixed at listing
// time and partial fills rescale both fields together.
type PointsListing struct {
	ID          string        `json:"id"`
	SellerID    string        `json:"seller_id"`
	Points      int64         `json:"points"`
	AskPrice    int64         `json:"ask_price"` // BUILD tokens
	DiscountPct int           `json:"discount_pct"`
	Status      ListingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TradeDirection is the side a point transaction was recorded from.
type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// PointTransaction is the append-only trade record of the points market,
// independent of the token ledger.
type PointTransaction struct {
	ID            string         `json:"id"`
	FromAccountID string         `json:"from_account_id"`
	ToAccountID   string         `json:"to_account_id"`
	Points        int64          `json:"points"`
	LedgerPrice   int64          `json:"ledger_price"` // BUILD tokens moved
	DiscountPct   int            `json:"discount_pct"`
	Direction     TradeDirection `json:"direction"`
	Timestamp     time.Time      `json:"timestamp"`
}

// SessionStatus is the state of a charging session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// ChargingSession records one vehicle-charging usage event. Ending a session
// awards points to the driver and tokens to the charger owner.
type ChargingSession struct {
	ID           string        `json:"id"`
	ChargerID    string        `json:"charger_id"`
	DriverID     string        `json:"driver_id"`
	VehicleType  string        `json:"vehicle_type"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	EnergyKWh    float64       `json:"energy_kwh"`
	DurationSec  int64         `json:"duration_sec"`
	Cost         float64       `json:"cost"` // PKR, informational
	PointsEarned int64         `json:"points_earned"`
	Status       SessionStatus `json:"status"`
}

// NotificationCategory classifies a notification for display.
type NotificationCategory string

const (
	NotifyReward       NotificationCategory = "reward"
	NotifySystem       NotificationCategory = "system"
	NotifyVerification NotificationCategory = "verification"
	NotifySecurity     NotificationCategory = "security"
)

// Notification is a fire-and-forget mailbox item. Mutated only to flip Read.
type Notification struct {
	ID          string               `json:"id"`
	RecipientID string               `json:"recipient_id"`
	Category    NotificationCategory `json:"category"`
	Title       string               `json:"title"`
	Body        string               `json:"body"`
	Read        bool                 `json:"read"`
	CreatedAt   time.Time            `json:"created_at"`
}
