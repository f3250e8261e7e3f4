package models

import "time"

// Report is the fully composed one-pager, built once per run and discarded
// after rendering. Rows keep the column order of the primary dataset.
type Report struct {
	StockID     string    `json:"stock_id"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Rows []Verdict `json:"rows"`

	// Narrative is markdown commentary from the language model, or the
	// placeholder text when generation was unavailable.
	Narrative            string `json:"narrative"`
	NarrativePlaceholder bool   `json:"narrative_placeholder,omitempty"`

	// Snapshot is nil when the market fetch failed entirely.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}
