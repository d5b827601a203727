package game

import (
	"strings"
	"time"
)

const (
	// DefaultStages is the number of sequential challenge stages.
	DefaultStages = 3
	// DefaultCutoff is how long a player gets per stage before the
	// timer is clamped and the stage closes.
	DefaultCutoff = 600 * time.Second
)

// Outcome classifies the result of an answer submission.
type Outcome int

const (
	// OutcomeTimerNotStarted means the player submitted before starting
	// the stage timer.
	OutcomeTimerNotStarted Outcome = iota
	// OutcomeTimedOut means the stage cutoff elapsed; the stage is closed
	// at the full penalty and the answer was not evaluated.
	OutcomeTimedOut
	// OutcomeStageClosed means the stage timer was already stopped by an
	// earlier submission.
	OutcomeStageClosed
	// OutcomeIncorrect means the answer did not match; the timer keeps
	// running and the player may retry.
	OutcomeIncorrect
	// OutcomeAdvanced means the answer matched and the player moved on to
	// the next stage.
	OutcomeAdvanced
	// OutcomeCompleted means the answer matched on the final stage; the
	// run is finished.
	OutcomeCompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTimerNotStarted:
		return "timer_not_started"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeStageClosed:
		return "stage_closed"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// SubmitResult carries the outcome of a submission. Finished is non-nil only
// for OutcomeCompleted.
type SubmitResult struct {
	Outcome  Outcome
	Finished *FinishedResult
}

// Engine holds the timing rules. All of its methods are pure over the
// session they are handed: the engine itself carries no state, so a single
// value can serve every session.
type Engine struct {
	Stages int
	Cutoff time.Duration
}

// NewEngine returns an engine with the stock three-stage, ten-minute rules.
func NewEngine() Engine {
	return Engine{Stages: DefaultStages, Cutoff: DefaultCutoff}
}

// StartStage opens (or reopens) the timer for a stage. Restarting an
// incomplete timer overwrites it — last call wins — but a stopped timer is
// closed for good and the call is a no-op. Starting never advances the
// session's current stage.
func (e Engine) StartStage(s *Session, stage int, now time.Time) {
	if stage < 1 || stage > e.Stages {
		return
	}
	if s.Timers[stage].Stopped() {
		return
	}
	started := now
	s.Timers[stage] = &StageTimer{StartedAt: &started}
}

// SubmitAnswer evaluates an answer against the expected one and mutates the
// session accordingly. Comparison ignores surrounding whitespace and case.
// Once the cutoff has elapsed the stage is clamped to the full penalty and
// the answer is not evaluated, no matter its content.
func (e Engine) SubmitAnswer(s *Session, stage int, answer, expected string, now time.Time) SubmitResult {
	t := s.Timers[stage]
	if t == nil || t.StartedAt == nil {
		return SubmitResult{Outcome: OutcomeTimerNotStarted}
	}
	if t.Stopped() {
		if *t.ElapsedSeconds >= e.Cutoff.Seconds() {
			return SubmitResult{Outcome: OutcomeTimedOut}
		}
		return SubmitResult{Outcome: OutcomeStageClosed}
	}

	elapsed := now.Sub(*t.StartedAt).Seconds()
	if elapsed > e.Cutoff.Seconds() {
		stopped := t.StartedAt.Add(e.Cutoff)
		capped := e.Cutoff.Seconds()
		t.StoppedAt = &stopped
		t.ElapsedSeconds = &capped
		return SubmitResult{Outcome: OutcomeTimedOut}
	}

	if !answersMatch(answer, expected) {
		// Timer keeps running; the player can retry until the cutoff.
		return SubmitResult{Outcome: OutcomeIncorrect}
	}

	stopped := now
	t.StoppedAt = &stopped
	t.ElapsedSeconds = &elapsed

	if stage < e.Stages {
		s.CurrentStage = stage + 1
		return SubmitResult{Outcome: OutcomeAdvanced}
	}

	total := e.FinalTime(s)
	s.FinalTime = &total
	s.Status = StatusFinished

	return SubmitResult{
		Outcome: OutcomeCompleted,
		Finished: &FinishedResult{
			PersistentID: s.PersistentID,
			Name:         s.Name,
			FinalTime:    total,
			Timers:       copyTimers(s.Timers),
			CompletedAt:  now,
			Status:       StatusFinished,
		},
	}
}

// FinalTime sums elapsed seconds across all stages. A stage without a
// recorded elapsed time contributes the full cutoff penalty, which keeps the
// total bounded even if a stage was somehow skipped.
func (e Engine) FinalTime(s *Session) float64 {
	var total float64
	for stage := 1; stage <= e.Stages; stage++ {
		if t := s.Timers[stage]; t != nil && t.ElapsedSeconds != nil {
			total += *t.ElapsedSeconds
		} else {
			total += e.Cutoff.Seconds()
		}
	}
	return total
}

func answersMatch(answer, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(expected))
}
