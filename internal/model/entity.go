package model

// EntityType classifies a span extracted from a customer message.
type EntityType string

const (
	EntityOrderID        EntityType = "order_id"
	EntityProductSKU     EntityType = "product_sku"
	EntityProductName    EntityType = "product_name"
	EntityTrackingNumber EntityType = "tracking_number"
	EntityDeadline       EntityType = "deadline"
	EntityMoneyAmount    EntityType = "money_amount"
	EntitySize           EntityType = "size"
	EntityColor          EntityType = "color"
	EntityQuantity       EntityType = "quantity"
	EntityAddress        EntityType = "address"
	EntityReason         EntityType = "reason"
	EntityEmail          EntityType = "email"
	EntityPhone          EntityType = "phone"
)

// Entity is a single extracted entity with its source span.
type Entity struct {
	Type       EntityType `json:"entity_type"`
	Value      string     `json:"value"`
	RawSpan    string     `json:"raw_span"`
	StartPos   int        `json:"start_pos"`
	EndPos     int        `json:"end_pos"`
	Confidence float64    `json:"confidence"`
}
