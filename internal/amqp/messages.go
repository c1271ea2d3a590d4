package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScenarioMessage reports one recomputation of a calculator session. It
// carries the headline figures only; the session itself never leaves the
// web process.
type ScenarioMessage struct {
	// Scenario is an opaque key derived from the session, stable for the
	// session's lifetime.
	Scenario       string    `json:"scenario"`
	Kind           string    `json:"kind"`
	Slot           string    `json:"slot,omitempty"`
	InvestmentMNOK string    `json:"investment_mnok"`
	RatePct        string    `json:"rate_pct"`
	GrossDrift     int64     `json:"gross_drift"`
	TicketRevenue  int64     `json:"ticket_revenue"`
	NetDrift       int64     `json:"net_drift"`
	TotalBurden    int64     `json:"total_burden"`
	PerAdult       int64     `json:"per_adult"`
	FlatPerPerson  int64     `json:"flat_per_person"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks the fields a consumer relies on.
func (m *ScenarioMessage) Validate() error {
	if m.Scenario == "" {
		return fmt.Errorf("scenario message: empty scenario key")
	}
	if m.Kind == "" {
		return fmt.Errorf("scenario message: empty kind")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ScenarioMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ScenarioMessageFromJSON decodes and validates a message.
func ScenarioMessageFromJSON(data []byte) (*ScenarioMessage, error) {
	var msg ScenarioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
