package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire frame for every message in either direction. Inbound
// frames from clients carry only Type and Data; outbound frames are stamped
// with an id and timestamp.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventType identifies a message on the player channel.
type EventType string

const (
	// Inbound, client → server.
	EventTypeJoin         EventType = "player:join"
	EventTypeStartTimer   EventType = "player:startTimer"
	EventTypeSubmitAnswer EventType = "player:submitAnswer"

	// Outbound, server → client.
	EventTypeJoinAck          EventType = "join:ack"
	EventTypeAnswerAck        EventType = "answer:ack"
	EventTypeScoreboardUpdate EventType = "scoreboard:update"
)

// JoinPayload announces a player. PersistentID is optional: a client joining
// for the first time leaves it empty and stores the id returned in the ack,
// presenting it again on every reconnect.
type JoinPayload struct {
	Name         string `json:"name"`
	PersistentID string `json:"persistent_id,omitempty"`
}

// StartTimerPayload opens the timer for a stage.
type StartTimerPayload struct {
	PersistentID string `json:"persistent_id"`
	Stage        int    `json:"stage"`
}

// SubmitAnswerPayload submits a stage answer.
type SubmitAnswerPayload struct {
	PersistentID string `json:"persistent_id"`
	Stage        int    `json:"stage"`
	Answer       string `json:"answer"`
}

// JoinAckPayload acknowledges a join with the durable identity to keep.
type JoinAckPayload struct {
	Success      bool   `json:"success"`
	PersistentID string `json:"persistent_id"`
}

// AnswerAckPayload acknowledges a submission.
type AnswerAckPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ParseEventPayload decodes an inbound envelope's data into its typed
// payload. Unknown event types return (nil, nil) so callers can drop them
// silently.
func ParseEventPayload(env *Envelope) (interface{}, error) {
	switch env.Type {
	case EventTypeJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil

	case EventTypeStartTimer:
		var p StartTimerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil

	case EventTypeSubmitAnswer:
		var p SubmitAnswerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, nil
	}
}

// NewEnvelope builds an outbound frame around a payload.
func NewEnvelope(t EventType, payload interface{}, now time.Time) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Envelope{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: now,
		Data:      data,
	}, nil
}
