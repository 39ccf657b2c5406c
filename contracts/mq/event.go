package mq

import "encoding/json"

// Event is the envelope every message on the events exchange carries.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:    eventType,
		Payload: data,
	}, nil
}
