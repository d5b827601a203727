package game

import "sync"

// AnswerKey maps stage numbers to their expected answers. Reads come from
// the coordinator's event loop while updates arrive on HTTP handler
// goroutines, so access is guarded.
type AnswerKey struct {
	mu      sync.RWMutex
	answers map[int]string
}

// NewAnswerKey creates a key from an initial stage→answer mapping.
func NewAnswerKey(answers map[int]string) *AnswerKey {
	m := make(map[int]string, len(answers))
	for stage, a := range answers {
		m[stage] = a
	}
	return &AnswerKey{answers: m}
}

// Expected returns the configured answer for a stage.
func (k *AnswerKey) Expected(stage int) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	a, ok := k.answers[stage]
	return a, ok
}

// Update merges non-empty entries into the key.
func (k *AnswerKey) Update(answers map[int]string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for stage, a := range answers {
		if a != "" {
			k.answers[stage] = a
		}
	}
}

// All returns a copy of the current mapping.
func (k *AnswerKey) All() map[int]string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(map[int]string, len(k.answers))
	for stage, a := range k.answers {
		out[stage] = a
	}
	return out
}
