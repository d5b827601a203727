// Package results persists finished runs. The store is the source of truth
// for completed games: the scoreboard re-reads it on every recomputation
// rather than trusting any in-memory copy, so out-of-process edits and
// process restarts are picked up automatically.
package results

import "github.com/mcdev12/gauntlet/internal/game"

// Store is a durable, append-only collection of finished runs.
type Store interface {
	// Append durably records a finished run without losing any record
	// already stored.
	Append(result game.FinishedResult) error
	// ListAll reloads every stored record from durable storage. A read or
	// parse failure returns the error alongside an empty slice; callers
	// degrade to the empty view instead of aborting.
	ListAll() ([]game.FinishedResult, error)
}
