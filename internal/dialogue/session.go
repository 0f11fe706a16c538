package dialogue

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

// Session is one user's in-progress calculation.
type Session struct {
	Identity   string                 `json:"identity"`
	State      State                  `json:"state"`
	Answers    map[Field]string       `json:"answers"`
	Extras     []tariff.Extra         `json:"extras,omitempty"`
	LastResult *pricing.CostBreakdown `json:"lastResult,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// NewSession returns a session at the first step.
func NewSession(identity string, now time.Time) *Session {
	return &Session{
		Identity:  identity,
		State:     ServiceType,
		Answers:   make(map[Field]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = make(map[Field]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.Extras = slices.Clone(s.Extras)
	if s.LastResult != nil {
		r := *s.LastResult
		r.ExtraLines = slices.Clone(r.ExtraLines)
		r.Request.Extras = slices.Clone(r.Request.Extras)
		c.LastResult = &r
	}
	return &c
}

func (s *Session) reset() {
	s.State = ServiceType
	s.Answers = make(map[Field]string)
	s.Extras = nil
	s.LastResult = nil
}

// toggle flips membership of e and reports whether it is now selected.
func (s *Session) toggle(e tariff.Extra) bool {
	if i := slices.Index(s.Extras, e); i >= 0 {
		s.Extras = slices.Delete(s.Extras, i, i+1)
		return false
	}
	s.Extras = append(s.Extras, e)
	return true
}

// Validate checks that the answers are exactly those owned by the steps
// before the current state and that extras and result match the state.
func (s *Session) Validate() error {
	if !s.State.Valid() {
		return fmt.Errorf("session %s: invalid state %d", s.Identity, int(s.State))
	}
	want := fieldsBefore(s.State)
	if len(s.Answers) != len(want) {
		return fmt.Errorf("session %s: %d answers in state %s, want %d", s.Identity, len(s.Answers), s.State, len(want))
	}
	for _, f := range want {
		if _, ok := s.Answers[f]; !ok {
			return fmt.Errorf("session %s: missing %s in state %s", s.Identity, f, s.State)
		}
	}
	if len(s.Extras) > 0 && s.State < SelectingExtras {
		return fmt.Errorf("session %s: extras selected in state %s", s.Identity, s.State)
	}
	if (s.LastResult != nil) != (s.State == AwaitingAction) {
		return fmt.Errorf("session %s: result presence does not match state %s", s.Identity, s.State)
	}
	return nil
}

// Request assembles a pricing request from the collected answers. It fails
// if any question is still unanswered.
func (s *Session) Request() (pricing.Request, error) {
	for _, f := range fieldsBefore(SelectingExtras) {
		if _, ok := s.Answers[f]; !ok {
			return pricing.Request{}, fmt.Errorf("session %s: %s not answered", s.Identity, f)
		}
	}
	workers, err := strconv.Atoi(s.Answers[FieldWorkers])
	if err != nil {
		return pricing.Request{}, fmt.Errorf("session %s: workers: %w", s.Identity, err)
	}
	hours, err := strconv.ParseFloat(s.Answers[FieldHours], 64)
	if err != nil {
		return pricing.Request{}, fmt.Errorf("session %s: hours: %w", s.Identity, err)
	}
	floor, err := strconv.Atoi(s.Answers[FieldFloor])
	if err != nil {
		return pricing.Request{}, fmt.Errorf("session %s: floor: %w", s.Identity, err)
	}
	return pricing.Request{
		Service:   tariff.Service(s.Answers[FieldServiceType]),
		Volume:    tariff.Volume(s.Answers[FieldVolume]),
		Workers:   workers,
		Hours:     hours,
		Urgency:   tariff.Urgency(s.Answers[FieldUrgency]),
		Floor:     floor,
		Elevator:  tariff.Elevator(s.Answers[FieldElevator]),
		TimeOfDay: tariff.TimeOfDay(s.Answers[FieldTimeOfDay]),
		DayType:   tariff.DayType(s.Answers[FieldDayType]),
		Extras:    slices.Clone(s.Extras),
	}, nil
}

// Store keeps sessions keyed by identity. Implementations return copies, so
// callers must Save after mutating. Get reports false for unknown or expired
// identities.
type Store interface {
	Get(ctx context.Context, identity string) (*Session, bool, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, identity string) error
	Len(ctx context.Context) (int, error)
}

// Locker serializes work per identity.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
