package game

import "time"

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusActive       Status = "active"
	StatusDisconnected Status = "disconnected"
	StatusFinished     Status = "finished"
)

// StageTimer records one player's attempt at one stage.
type StageTimer struct {
	StartedAt      *time.Time `json:"started_at"`
	StoppedAt      *time.Time `json:"stopped_at"`
	ElapsedSeconds *float64   `json:"elapsed_seconds"`
}

// Stopped reports whether the timer has been closed, either by a correct
// answer or by hitting the stage cutoff. A stopped timer is immutable.
func (t *StageTimer) Stopped() bool {
	return t != nil && t.StoppedAt != nil
}

// Session is one player's live run through the stages. It is keyed by
// PersistentID, which survives reconnects; ConnectionID is the current
// transport binding and is empty while the player is disconnected.
type Session struct {
	PersistentID string                `json:"persistent_id"`
	ConnectionID string                `json:"-"`
	Name         string                `json:"name"`
	CurrentStage int                   `json:"current_stage"`
	Timers       map[int]*StageTimer   `json:"timers"`
	Status       Status                `json:"status"`
	FinalTime    *float64              `json:"final_time"`
}

// FinishedResult is the durable, immutable snapshot of a completed run.
type FinishedResult struct {
	PersistentID string              `json:"persistent_id"`
	Name         string              `json:"name"`
	FinalTime    float64             `json:"final_time"`
	Timers       map[int]*StageTimer `json:"timers"`
	CompletedAt  time.Time           `json:"completed_at"`
	Status       Status              `json:"status"`
}

// copyTimers deep-copies a timer map so a snapshot cannot alias live state.
func copyTimers(timers map[int]*StageTimer) map[int]*StageTimer {
	out := make(map[int]*StageTimer, len(timers))
	for stage, t := range timers {
		if t == nil {
			continue
		}
		c := *t
		out[stage] = &c
	}
	return out
}
