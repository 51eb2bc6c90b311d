package model

import (
	"strings"
	"time"
)

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CustomerTier drives differentiated policy thresholds and conflict
// handling. Tiers come from the tenant's CRM or are derived upstream.
type CustomerTier string

const (
	TierVIP      CustomerTier = "VIP"
	TierPremium  CustomerTier = "PREMIUM"
	TierStandard CustomerTier = "STANDARD"
	TierNew      CustomerTier = "NEW"
	TierAtRisk   CustomerTier = "AT_RISK"
	TierFlagged  CustomerTier = "FLAGGED"
)

// NormalizeTier maps free-form tier strings onto the known set, defaulting
// to STANDARD.
func NormalizeTier(s string) CustomerTier {
	switch CustomerTier(normalizeUpper(s)) {
	case TierVIP:
		return TierVIP
	case TierPremium:
		return TierPremium
	case TierNew:
		return TierNew
	case TierAtRisk:
		return TierAtRisk
	case TierFlagged:
		return TierFlagged
	default:
		return TierStandard
	}
}

// CustomerProfile is the per-customer slice of enriched context.
type CustomerProfile struct {
	CustomerID     string       `json:"customer_id"`
	Email          string       `json:"email,omitempty"`
	Tier           CustomerTier `json:"tier"`
	LifetimeValue  float64      `json:"lifetime_value"`
	OrderCount     int          `json:"order_count"`
	Complaints90d  int          `json:"complaints_90d"`
	ReturnsCount   int          `json:"returns_count"`
	MemberSince    time.Time    `json:"member_since,omitzero"`
}

// OrderItem is a single line item on an order.
type OrderItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderContext is the per-order slice of enriched context.
type OrderContext struct {
	OrderID               string      `json:"order_id"`
	Status                string      `json:"status"`
	Total                 float64     `json:"total"`
	Items                 []OrderItem `json:"items,omitempty"`
	CreatedAt             time.Time   `json:"created_at,omitzero"`
	IsCancelled           bool        `json:"is_cancelled"`
	IsShipped             bool        `json:"is_shipped"`
	ReturnWindowExpired   bool        `json:"return_window_expired"`
	DaysUntilReturnExpiry int         `json:"days_until_return_expiry"`
	TrackingNumber        string      `json:"tracking_number,omitempty"`
}

// EnrichedContext bundles the optional customer and order context a request
// was enriched with. Either side may be nil; every consumer degrades to a
// reduced evaluation rather than failing.
type EnrichedContext struct {
	Customer *CustomerProfile `json:"customer,omitempty"`
	Order    *OrderContext    `json:"order,omitempty"`
}

// Tier returns the customer tier, or STANDARD when no profile is attached.
func (c *EnrichedContext) Tier() CustomerTier {
	if c == nil || c.Customer == nil {
		return TierStandard
	}
	return c.Customer.Tier
}
