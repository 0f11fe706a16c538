package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/cargoquote/internal/logging"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

// EventKind distinguishes typed text from a button press.
type EventKind int

const (
	EventText EventKind = iota
	EventSelect
)

// Event is one inbound user action.
type Event struct {
	Kind  EventKind
	Text  string
	Token string
}

// Text builds a free-text event.
func Text(s string) Event { return Event{Kind: EventText, Text: s} }

// Select builds a button-press event.
func Select(token string) Event { return Event{Kind: EventSelect, Token: token} }

// Outcome classifies how an event was handled.
type Outcome int

const (
	OutcomeStarted Outcome = iota
	OutcomeAccepted
	OutcomeRejected
	OutcomeCancelled
	OutcomeToggled
	OutcomeCompleted
	OutcomeIgnored
	OutcomeAction
	OutcomeFailed
)

var outcomeNames = [...]string{
	OutcomeStarted:   "started",
	OutcomeAccepted:  "accepted",
	OutcomeRejected:  "rejected",
	OutcomeCancelled: "cancelled",
	OutcomeToggled:   "toggled",
	OutcomeCompleted: "completed",
	OutcomeIgnored:   "ignored",
	OutcomeAction:    "action",
	OutcomeFailed:    "failed",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Reply is the engine's answer to an event.
type Reply struct {
	Outcome Outcome
	// Prompt describes the step now awaited.
	Prompt Prompt
	// Action is set for OutcomeAction.
	Action Action
	// Result is set for OutcomeCompleted and OutcomeAction.
	Result *pricing.CostBreakdown
	// Request is the priced input for OutcomeCompleted and OutcomeFailed.
	Request pricing.Request
	// Toggled and Added describe an OutcomeToggled change.
	Toggled tariff.Extra
	Added   bool
}

// Observer receives one call per handled event.
type Observer interface {
	ObserveEvent(state, outcome string)
}

// Engine runs conversations. It owns no global state; any number of engines
// can share or not share a store.
type Engine struct {
	store  Store
	locker Locker
	calc   pricing.Calculator
	now    func() time.Time
	log    *logging.Logger
	obs    Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.log = l.Sub("dialogue") }
}

// WithCalculator replaces the pricing engine.
func WithCalculator(c pricing.Calculator) EngineOption {
	return func(e *Engine) { e.calc = c }
}

// WithClock sets the time source for session timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMetrics registers an event observer.
func WithMetrics(o Observer) EngineOption {
	return func(e *Engine) { e.obs = o }
}

// NewEngine returns an engine that keeps sessions in store and serializes
// events per identity with locker.
func NewEngine(store Store, locker Locker, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		locker: locker,
		calc:   pricing.Engine{},
		now:    time.Now,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) withLock(ctx context.Context, identity string, fn func() error) error {
	unlock, err := e.locker.Lock(ctx, identity)
	if err != nil {
		return fmt.Errorf("locking session %s: %w", identity, err)
	}
	defer unlock()
	return fn()
}

// Start begins a fresh calculation, discarding any previous progress.
func (e *Engine) Start(ctx context.Context, identity string) (Reply, error) {
	var reply Reply
	err := e.withLock(ctx, identity, func() error {
		s := NewSession(identity, e.now())
		if err := e.store.Save(ctx, s); err != nil {
			return fmt.Errorf("saving session %s: %w", identity, err)
		}
		reply = Reply{Outcome: OutcomeStarted, Prompt: PromptFor(s.State, nil)}
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	e.observe(ServiceType, reply.Outcome)
	e.log.Debug().Str("identity", identity).Msg("session started")
	return reply, nil
}

// Handle applies one event to the identity's session, creating the session
// at the first step if none exists.
func (e *Engine) Handle(ctx context.Context, identity string, ev Event) (Reply, error) {
	var (
		reply Reply
		from  State
	)
	err := e.withLock(ctx, identity, func() error {
		s, ok, err := e.store.Get(ctx, identity)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", identity, err)
		}
		if !ok {
			s = NewSession(identity, e.now())
		}
		from = s.State

		reply = e.apply(s, ev)
		s.UpdatedAt = e.now()
		if err := e.store.Save(ctx, s); err != nil {
			return fmt.Errorf("saving session %s: %w", identity, err)
		}
		return nil
	})
	if err != nil {
		return Reply{}, err
	}

	e.observe(from, reply.Outcome)
	e.log.Debug().
		Str("identity", identity).
		Str("from", from.String()).
		Str("to", reply.Prompt.State.String()).
		Str("outcome", reply.Outcome.String()).
		Msg("event handled")
	return reply, nil
}

// Current returns the prompt the identity's session is waiting on.
func (e *Engine) Current(ctx context.Context, identity string) (Prompt, bool, error) {
	var (
		p  Prompt
		ok bool
	)
	err := e.withLock(ctx, identity, func() error {
		s, found, err := e.store.Get(ctx, identity)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", identity, err)
		}
		if found {
			p, ok = PromptFor(s.State, s.Extras), true
		}
		return nil
	})
	return p, ok, err
}

// Discard drops the identity's session.
func (e *Engine) Discard(ctx context.Context, identity string) error {
	return e.withLock(ctx, identity, func() error {
		if err := e.store.Clear(ctx, identity); err != nil {
			return fmt.Errorf("clearing session %s: %w", identity, err)
		}
		return nil
	})
}

func (e *Engine) observe(s State, o Outcome) {
	if e.obs != nil {
		e.obs.ObserveEvent(s.String(), o.String())
	}
}

// apply runs the step contract against s, mutating it in place.
func (e *Engine) apply(s *Session, ev Event) Reply {
	if IsCancel(ev) {
		if s.State.Terminal() {
			return e.ignored(s)
		}
		s.reset()
		return Reply{Outcome: OutcomeCancelled, Prompt: PromptFor(s.State, nil)}
	}

	switch s.State {
	case SelectingExtras:
		return e.applyExtras(s, ev)
	case AwaitingAction:
		return e.applyAction(s, ev)
	}

	field, _ := s.State.Field()
	value, problem := answer(s.State, ev)
	if problem != "" {
		p := PromptFor(s.State, s.Extras)
		p.Problem = problem
		return Reply{Outcome: OutcomeRejected, Prompt: p}
	}
	s.Answers[field] = value
	s.State, _ = Next(s.State)
	return Reply{Outcome: OutcomeAccepted, Prompt: PromptFor(s.State, s.Extras)}
}

// answer validates ev for a question state and returns the canonical value
// or a problem for the user.
func answer(s State, ev Event) (string, string) {
	switch s {
	case Workers, Floor:
		if ev.Token != "" {
			return "", "Please type a number."
		}
		parse := ParseWorkers
		if s == Floor {
			parse = ParseFloor
		}
		n, err := parse(ev.Text)
		if err != nil {
			return "", reason(err)
		}
		return fmt.Sprint(n), ""
	case Hours:
		if ev.Token != "" {
			return "", "Please type a number."
		}
		h, err := ParseHours(ev.Text)
		if err != nil {
			return "", reason(err)
		}
		return pricing.FormatHours(h), ""
	}
	key, ok := match(s, ev)
	if !ok {
		return "", "Please choose one of the options below."
	}
	return key, ""
}

func reason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}

func (e *Engine) applyExtras(s *Session, ev Event) Reply {
	tok := ev.Token
	if tok == "" {
		text := strings.TrimSpace(ev.Text)
		for _, o := range stepOptions(SelectingExtras) {
			if text == o.Label {
				tok = o.Token
				break
			}
		}
		if tok == "" {
			return e.ignored(s)
		}
	}

	switch tok {
	case TokenExtrasDone:
		return e.finish(s)
	case TokenExtrasSkip:
		s.Extras = nil
		return e.finish(s)
	}

	extra, ok := ParseExtraToken(tok)
	if !ok || !extra.Known() {
		p := PromptFor(s.State, s.Extras)
		p.Problem = "Please choose one of the options below."
		return Reply{Outcome: OutcomeRejected, Prompt: p}
	}
	added := s.toggle(extra)
	return Reply{
		Outcome: OutcomeToggled,
		Prompt:  PromptFor(s.State, s.Extras),
		Toggled: extra,
		Added:   added,
	}
}

func (e *Engine) finish(s *Session) Reply {
	req, err := s.Request()
	if err == nil {
		var result pricing.CostBreakdown
		result, err = e.calc.Calculate(req)
		if err == nil {
			s.LastResult = &result
			s.State, _ = Next(s.State)
			return Reply{
				Outcome: OutcomeCompleted,
				Prompt:  PromptFor(s.State, s.Extras),
				Result:  &result,
				Request: req,
			}
		}
	}

	e.log.Error().Err(err).Str("identity", s.Identity).Msg("calculation failed")
	s.reset()
	return Reply{Outcome: OutcomeFailed, Prompt: PromptFor(s.State, nil), Request: req}
}

func (e *Engine) applyAction(s *Session, ev Event) Reply {
	action, ok := ParseActionToken(ev.Token)
	if !ok && ev.Token == "" {
		text := strings.TrimSpace(ev.Text)
		for _, a := range Actions() {
			if text == a.Label() {
				action, ok = a, true
				break
			}
		}
	}
	if !ok {
		return e.ignored(s)
	}

	reply := Reply{Outcome: OutcomeAction, Action: action, Result: s.LastResult}
	if action == ActionNew {
		s.reset()
	}
	reply.Prompt = PromptFor(s.State, s.Extras)
	return reply
}

func (e *Engine) ignored(s *Session) Reply {
	return Reply{Outcome: OutcomeIgnored, Prompt: PromptFor(s.State, s.Extras)}
}
