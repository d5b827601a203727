// Package scoreboard merges live sessions with the durable record of
// finished runs into a single broadcast-ready view.
package scoreboard

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gauntlet/internal/game"
	"github.com/mcdev12/gauntlet/internal/results"
)

// Entry is one row of the scoreboard view.
type Entry struct {
	PersistentID string                   `json:"persistent_id"`
	Name         string                   `json:"name"`
	CurrentStage int                      `json:"current_stage,omitempty"`
	Timers       map[int]*game.StageTimer `json:"timers"`
	FinalTime    *float64                 `json:"final_time,omitempty"`
	Status       game.Status              `json:"status"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
}

// Aggregator computes the merged view. It holds no state of its own.
type Aggregator struct {
	registry *game.Registry
	store    results.Store
}

// NewAggregator wires an aggregator to its two sources.
func NewAggregator(registry *game.Registry, store results.Store) *Aggregator {
	return &Aggregator{registry: registry, store: store}
}

// ComputeView snapshots every live session keyed by persistent identity and
// unions in the finished results under "finished_<n>" keys so they can never
// collide with a live entry. Finished results are reloaded from the store on
// every call; a failed read degrades to live sessions only.
func (a *Aggregator) ComputeView() map[string]Entry {
	view := make(map[string]Entry)

	for _, s := range a.registry.Sessions() {
		view[s.PersistentID] = Entry{
			PersistentID: s.PersistentID,
			Name:         s.Name,
			CurrentStage: s.CurrentStage,
			Timers:       s.Timers,
			FinalTime:    s.FinalTime,
			Status:       s.Status,
		}
	}

	finished, err := a.store.ListAll()
	if err != nil {
		log.Error().Err(err).Msg("failed to load finished results for scoreboard")
	}
	for i, r := range finished {
		completedAt := r.CompletedAt
		finalTime := r.FinalTime
		view[fmt.Sprintf("finished_%d", i)] = Entry{
			PersistentID: r.PersistentID,
			Name:         r.Name,
			Timers:       r.Timers,
			FinalTime:    &finalTime,
			Status:       game.StatusFinished,
			CompletedAt:  &completedAt,
		}
	}

	return view
}
