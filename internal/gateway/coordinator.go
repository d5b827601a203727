package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gauntlet/internal/game"
	"github.com/mcdev12/gauntlet/internal/results"
	"github.com/mcdev12/gauntlet/internal/scoreboard"
)

// Ack messages surfaced to the submitting player.
const (
	msgCorrect         = "Correct answer."
	msgIncorrect       = "Incorrect answer."
	msgTimesUp         = "Time's up!"
	msgTimerNotStarted = "Timer not started."
	msgStageClosed     = "Stage already closed."
	msgUnknownStage    = "Unknown stage."
)

// DefaultGracePeriod is how long a disconnected session is held before
// eviction.
const DefaultGracePeriod = 300 * time.Second

// client is the slice of a connection the coordinator needs: an identity and
// a non-blocking way to push a frame at it.
type client interface {
	ConnID() string
	Enqueue(payload []byte) bool
}

// broadcaster pushes a frame to every live connection.
type broadcaster interface {
	Broadcast(payload []byte)
}

type eventKind int

const (
	eventInbound eventKind = iota
	eventDisconnect
	eventEvict
)

// coordinatorEvent is one unit of work on the event loop. Inbound and
// disconnect events originate from connection goroutines; evict events from
// grace-period timers.
type coordinatorEvent struct {
	kind         eventKind
	conn         client
	env          Envelope
	persistentID string
	timer        clockwork.Timer
}

// eviction pairs a grace timer with the cancel signal its waiter goroutine
// selects on. Stopping a timer that already fired leaves nothing on its
// channel for the waiter; the cancel channel releases it instead.
type eviction struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// Coordinator routes connection events through a single event loop that owns
// all session mutation. Handlers run to completion one at a time, so no
// locking is needed around the registry: connections and timers only enqueue
// work here.
type Coordinator struct {
	registry *game.Registry
	engine   game.Engine
	answers  *game.AnswerKey
	store    results.Store
	board    *scoreboard.Aggregator
	bc       broadcaster
	clock    clockwork.Clock

	gracePeriod time.Duration

	events chan coordinatorEvent

	// evictions tracks the pending grace-period timer per persistent
	// identity. Loop-confined: only event handlers touch it.
	evictions map[string]eviction
}

// NewCoordinator wires a coordinator. The broadcaster is typically the
// connection Manager; tests substitute fakes for it and for the clock.
func NewCoordinator(
	registry *game.Registry,
	engine game.Engine,
	answers *game.AnswerKey,
	store results.Store,
	board *scoreboard.Aggregator,
	bc broadcaster,
	clock clockwork.Clock,
	gracePeriod time.Duration,
) *Coordinator {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return &Coordinator{
		registry:    registry,
		engine:      engine,
		answers:     answers,
		store:       store,
		board:       board,
		bc:          bc,
		clock:       clock,
		gracePeriod: gracePeriod,
		events:      make(chan coordinatorEvent, 256),
		evictions:   make(map[string]eviction),
	}
}

// HandleMessage implements EventSink for raw WebSocket frames.
func (c *Coordinator) HandleMessage(conn *Connection, raw []byte) {
	c.IngestMessage(conn, raw)
}

// HandleDisconnect implements EventSink for dropped connections.
func (c *Coordinator) HandleDisconnect(conn *Connection) {
	c.IngestDisconnect(conn)
}

// IngestMessage parses a frame and queues it for the event loop. Unparseable
// frames are dropped with a log line; clients get no error channel for
// malformed input.
func (c *Coordinator) IngestMessage(conn client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", conn.ConnID()).
			Msg("dropping unparseable frame")
		return
	}
	c.events <- coordinatorEvent{kind: eventInbound, conn: conn, env: env}
}

// IngestDisconnect queues a disconnect for the event loop.
func (c *Coordinator) IngestDisconnect(conn client) {
	c.events <- coordinatorEvent{kind: eventDisconnect, conn: conn}
}

// Run processes events until the context is cancelled. All session state is
// owned by this goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info().
		Dur("grace_period", c.gracePeriod).
		Int("stages", c.engine.Stages).
		Msg("coordinator started")

	for {
		select {
		case <-ctx.Done():
			for persistentID, pending := range c.evictions {
				close(pending.cancel)
				stopAndDrainTimer(pending.timer)
				delete(c.evictions, persistentID)
			}
			log.Info().Msg("coordinator shutting down")
			return
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

func (c *Coordinator) dispatch(ctx context.Context, ev coordinatorEvent) {
	switch ev.kind {
	case eventDisconnect:
		c.handleDisconnect(ctx, ev.conn)
	case eventEvict:
		c.handleEvict(ev.persistentID, ev.timer)
	case eventInbound:
		payload, err := ParseEventPayload(&ev.env)
		if err != nil {
			log.Warn().
				Err(err).
				Str("type", string(ev.env.Type)).
				Str("connection_id", ev.conn.ConnID()).
				Msg("dropping frame with bad payload")
			return
		}
		switch p := payload.(type) {
		case JoinPayload:
			c.handleJoin(ctx, ev.conn, p)
		case StartTimerPayload:
			c.handleStartTimer(p)
		case SubmitAnswerPayload:
			c.handleSubmitAnswer(ev.conn, p)
		default:
			log.Debug().
				Str("type", string(ev.env.Type)).
				Msg("ignoring unknown event type")
		}
	}
}

func (c *Coordinator) handleJoin(ctx context.Context, conn client, p JoinPayload) {
	persistentID := p.PersistentID
	if persistentID == "" {
		// First join from this client; mint a durable identity for it.
		// The transport connection id is never used as session identity.
		persistentID = uuid.New().String()
	}

	// If this connection was bound to a different identity, that session
	// just lost its transport; give it the same grace period a dropped
	// connection would get.
	if stale := c.registry.MarkDisconnected(conn.ConnID()); stale != nil && stale.PersistentID != persistentID {
		c.scheduleEviction(ctx, stale.PersistentID)
	}

	session := c.registry.GetOrCreate(persistentID, p.Name, conn.ConnID())
	c.cancelEviction(persistentID)

	log.Info().
		Str("persistent_id", persistentID).
		Str("connection_id", conn.ConnID()).
		Str("name", session.Name).
		Int("current_stage", session.CurrentStage).
		Msg("player joined")

	c.send(conn, EventTypeJoinAck, JoinAckPayload{Success: true, PersistentID: persistentID})
	c.broadcastScoreboard()
}

func (c *Coordinator) handleStartTimer(p StartTimerPayload) {
	session := c.registry.Get(p.PersistentID)
	if session == nil {
		// Late event for an evicted or finished session.
		return
	}

	c.engine.StartStage(session, p.Stage, c.clock.Now())

	log.Info().
		Str("persistent_id", p.PersistentID).
		Int("stage", p.Stage).
		Msg("stage timer started")

	c.broadcastScoreboard()
}

func (c *Coordinator) handleSubmitAnswer(conn client, p SubmitAnswerPayload) {
	session := c.registry.Get(p.PersistentID)
	if session == nil {
		return
	}

	expected, ok := c.answers.Expected(p.Stage)
	if !ok {
		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: false, Message: msgUnknownStage})
		return
	}

	result := c.engine.SubmitAnswer(session, p.Stage, p.Answer, expected, c.clock.Now())

	log.Info().
		Str("persistent_id", p.PersistentID).
		Int("stage", p.Stage).
		Stringer("outcome", result.Outcome).
		Msg("answer submitted")

	switch result.Outcome {
	case game.OutcomeTimerNotStarted:
		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: false, Message: msgTimerNotStarted})

	case game.OutcomeTimedOut:
		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: false, Message: msgTimesUp})
		c.broadcastScoreboard()

	case game.OutcomeStageClosed:
		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: false, Message: msgStageClosed})

	case game.OutcomeIncorrect:
		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: false, Message: msgIncorrect})

	case game.OutcomeAdvanced:
		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: true, Message: msgCorrect})
		c.broadcastScoreboard()

	case game.OutcomeCompleted:
		// The record must be durable before the ack or broadcast can be
		// observed; a write failure keeps the in-memory completion
		// (liveness over durability) and is surfaced operationally.
		if err := c.store.Append(*result.Finished); err != nil {
			log.Error().
				Err(err).
				Str("persistent_id", p.PersistentID).
				Msg("failed to persist finished result")
		}
		c.registry.Remove(p.PersistentID)
		c.cancelEviction(p.PersistentID)

		log.Info().
			Str("persistent_id", p.PersistentID).
			Str("name", result.Finished.Name).
			Float64("final_time", result.Finished.FinalTime).
			Msg("player finished")

		c.send(conn, EventTypeAnswerAck, AnswerAckPayload{Success: true, Message: msgCorrect})
		c.broadcastScoreboard()
	}
}

func (c *Coordinator) handleDisconnect(ctx context.Context, conn client) {
	session := c.registry.MarkDisconnected(conn.ConnID())
	if session == nil {
		// Late or duplicate disconnect; nothing bound to this connection.
		return
	}

	log.Info().
		Str("persistent_id", session.PersistentID).
		Str("connection_id", conn.ConnID()).
		Msg("player disconnected, grace period started")

	c.scheduleEviction(ctx, session.PersistentID)
	c.broadcastScoreboard()
}

// scheduleEviction arms the grace-period timer for an identity, superseding
// any timer already pending for it.
func (c *Coordinator) scheduleEviction(ctx context.Context, persistentID string) {
	c.cancelEviction(persistentID)

	pending := eviction{
		timer:  c.clock.NewTimer(c.gracePeriod),
		cancel: make(chan struct{}),
	}
	c.evictions[persistentID] = pending

	go func() {
		select {
		case <-pending.timer.Chan():
			c.events <- coordinatorEvent{kind: eventEvict, persistentID: persistentID, timer: pending.timer}
		case <-pending.cancel:
		case <-ctx.Done():
		}
	}()
}

// cancelEviction stops and forgets any pending eviction timer for an
// identity, releasing its waiter goroutine.
func (c *Coordinator) cancelEviction(persistentID string) {
	pending, ok := c.evictions[persistentID]
	if !ok {
		return
	}
	close(pending.cancel)
	stopAndDrainTimer(pending.timer)
	delete(c.evictions, persistentID)
}

// handleEvict fires when a grace period ends. The decision is made on the
// state observed now, not at schedule time: a session that reattached in the
// window is left alone, and a fire from a superseded timer is ignored.
func (c *Coordinator) handleEvict(persistentID string, timer clockwork.Timer) {
	current, ok := c.evictions[persistentID]
	if !ok || current.timer != timer {
		return
	}
	delete(c.evictions, persistentID)

	session := c.registry.Get(persistentID)
	if session == nil || session.Status != game.StatusDisconnected {
		return
	}

	c.registry.Remove(persistentID)

	log.Info().
		Str("persistent_id", persistentID).
		Str("name", session.Name).
		Msg("session evicted after grace period")

	c.broadcastScoreboard()
}

// send pushes an envelope at a single connection.
func (c *Coordinator) send(conn client, t EventType, payload interface{}) {
	env, err := NewEnvelope(t, payload, c.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("failed to build envelope")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("failed to marshal envelope")
		return
	}
	if !conn.Enqueue(data) {
		log.Warn().
			Str("connection_id", conn.ConnID()).
			Str("type", string(t)).
			Msg("dropping ack, connection send buffer full")
	}
}

// broadcastScoreboard recomputes the merged view and pushes it to everyone.
// It runs synchronously with the event that changed state, never batched.
func (c *Coordinator) broadcastScoreboard() {
	view := c.board.ComputeView()
	env, err := NewEnvelope(EventTypeScoreboardUpdate, view, c.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build scoreboard envelope")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal scoreboard envelope")
		return
	}
	c.bc.Broadcast(data)
}

// stopAndDrainTimer stops a timer and drains any tick already buffered on
// its channel, per the time.Timer.Stop() documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
