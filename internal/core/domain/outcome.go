package domain

import "time"

type ClauseStatus string

const (
	StatusApplied       ClauseStatus = "applied"
	StatusClamped       ClauseStatus = "clamped"
	StatusSkipped       ClauseStatus = "skipped"
	StatusNotFound      ClauseStatus = "not_found"
	StatusOutOfStock    ClauseStatus = "out_of_stock"
	StatusNoEffect      ClauseStatus = "no_effect"
	StatusPersistFailed ClauseStatus = "persist_failed"
)

// ClauseOutcome reports what happened to one parsed clause.
type ClauseOutcome struct {
	Clause    ParsedClause `json:"clause"`
	Status    ClauseStatus `json:"status"`
	Key       string       `json:"sku,omitempty"`
	Name      string       `json:"name,omitempty"`
	Score     float64      `json:"score,omitempty"`
	Requested int          `json:"requested"`
	Applied   int          `json:"applied"`
	Stock     int          `json:"stock"`
	Message   string       `json:"message"`
	Err       error        `json:"-"`
}

// Report is the result of handling one utterance.
type Report struct {
	Utterance string          `json:"utterance"`
	Intent    Intent          `json:"intent"`
	Outcomes  []ClauseOutcome `json:"outcomes,omitempty"`
	Cart      map[string]int  `json:"cart"`
	Total     float64         `json:"total,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type EventType string

const (
	EventItemAdded    EventType = "item_added"
	EventItemRemoved  EventType = "item_removed"
	EventCheckout     EventType = "checkout"
	EventUnrecognized EventType = "unrecognized"
)

// Event is emitted after every state change and for unrecognised commands.
// Consumers render it as human readable text; it never feeds back into state.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Key       string         `json:"sku,omitempty"`
	Name      string         `json:"name,omitempty"`
	Quantity  int            `json:"quantity,omitempty"`
	Cart      map[string]int `json:"cart"`
	Total     float64        `json:"total,omitempty"`
	Utterance string         `json:"utterance,omitempty"`
	At        time.Time      `json:"at"`
}

// Checkpoint is one combined, recoverable record of cart and inventory.
type Checkpoint struct {
	SessionID string         `json:"session_id"`
	Revision  string         `json:"revision"`
	Cart      map[string]int `json:"cart"`
	Stock     map[string]int `json:"stock"`
	SavedAt   time.Time      `json:"saved_at"`
}
