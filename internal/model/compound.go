package model

// CompoundSignalType names the heuristic that produced a compound signal.
type CompoundSignalType string

const (
	SignalConjunction       CompoundSignalType = "conjunction"
	SignalMultipleSentences CompoundSignalType = "multiple_sentences"
	SignalCategoryMix       CompoundSignalType = "category_mix"
)

// CompoundSignal is one piece of evidence that a message carries more than
// one intent.
type CompoundSignal struct {
	SignalType  CompoundSignalType `json:"signal_type"`
	Description string             `json:"description"`
	Confidence  float64            `json:"confidence"`
}

// CompoundResult is the detector's combined verdict for one message.
type CompoundResult struct {
	IsCompound bool             `json:"is_compound"`
	Confidence float64          `json:"confidence"`
	Signals    []CompoundSignal `json:"signals,omitempty"`
}
