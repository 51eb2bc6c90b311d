package model

// Request is one classification request flowing through the pipeline.
// RequestID is assigned by the caller (the server layer uses UUIDs);
// Embedding is pre-computed upstream, the pipeline never embeds.
type Request struct {
	RequestID       string       `json:"request_id"`
	TenantID        string       `json:"tenant_id"`
	Channel         string       `json:"channel,omitempty"`
	Text            string       `json:"text"`
	Embedding       []float32    `json:"-"`
	CustomerEmail   string       `json:"customer_email,omitempty"`
	CustomerTier    CustomerTier `json:"customer_tier,omitempty"`
	OrderIDs        []string     `json:"order_ids,omitempty"`
	PreviousIntents []string     `json:"previous_intents,omitempty"`
}
