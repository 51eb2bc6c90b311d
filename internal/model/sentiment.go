package model

// SentimentResult carries the tone scores derived from a message.
// Sentiment is in [-1, 1]; urgency and frustration are in [0, 1].
type SentimentResult struct {
	Sentiment    float64  `json:"sentiment"`
	Urgency      float64  `json:"urgency"`
	Frustration  float64  `json:"frustration"`
	PriorityFlag bool     `json:"priority_flag"`
	Signals      []string `json:"signals,omitempty"`
}
