package domain

import "time"

// Outcome records how a chat exchange ended.
type Outcome string

const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeUnavailable Outcome = "unavailable"
)

// Exchange is one completed round trip to the completion API, kept only in
// the optional transcript log.
type Exchange struct {
	ID            string
	CorrelationID string
	Message       string
	Reply         string
	Model         string
	Outcome       Outcome
	CreatedAt     time.Time
}
