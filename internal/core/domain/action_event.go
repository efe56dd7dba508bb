package domain

import "time"

// ActionEvent is the journal record of one finished or skipped action.
type ActionEvent struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	Action     Action    `json:"action"`
	Outcome    string    `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}
