package dialogue

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soyeahso/cargoquote/internal/pricing"
)

// Range bounds a numeric answer, inclusive on both ends.
type Range struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Integer bool    `json:"integer"`
}

// Contains reports whether v lies in r.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

func (r Range) String() string {
	return fmt.Sprintf("%s to %s", pricing.FormatHours(r.Min), pricing.FormatHours(r.Max))
}

var (
	WorkersRange = Range{Min: 1, Max: 10, Integer: true}
	HoursRange   = Range{Min: 1, Max: 24}
	FloorRange   = Range{Min: 1, Max: 25, Integer: true}
)

// ValidationError explains why an answer was refused. Reason is shown to the
// user.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func parseInt(f Field, r Range, text string) (int, error) {
	reason := fmt.Sprintf("Please enter a whole number from %s.", r)
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &ValidationError{Field: f, Reason: reason}
	}
	if !r.Contains(float64(n)) {
		return 0, &ValidationError{Field: f, Reason: reason}
	}
	return n, nil
}

// ParseWorkers accepts an integer number of movers.
func ParseWorkers(text string) (int, error) { return parseInt(FieldWorkers, WorkersRange, text) }

// ParseFloor accepts an integer floor number.
func ParseFloor(text string) (int, error) { return parseInt(FieldFloor, FloorRange, text) }

// ParseHours accepts a number of hours; a comma works as the decimal
// separator.
func ParseHours(text string) (float64, error) {
	reason := fmt.Sprintf("Please enter a number of hours from %s.", HoursRange)
	t := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	h, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) || !HoursRange.Contains(h) {
		return 0, &ValidationError{Field: FieldHours, Reason: reason}
	}
	return h, nil
}

// ValidateRequest checks every field of a fully specified request against the
// same domains the conversation enforces.
func ValidateRequest(req pricing.Request) error {
	var errs []error
	invalid := func(f Field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: f, Reason: fmt.Sprintf(format, args...)})
	}

	if !req.Service.Known() {
		invalid(FieldServiceType, "unknown service %q", req.Service)
	}
	if !req.Volume.Known() {
		invalid(FieldVolume, "unknown volume %q", req.Volume)
	}
	if !WorkersRange.Contains(float64(req.Workers)) {
		invalid(FieldWorkers, "must be from %s", WorkersRange)
	}
	if math.IsNaN(req.Hours) || !HoursRange.Contains(req.Hours) {
		invalid(FieldHours, "must be from %s", HoursRange)
	}
	if !req.Urgency.Known() {
		invalid(FieldUrgency, "unknown urgency %q", req.Urgency)
	}
	if !FloorRange.Contains(float64(req.Floor)) {
		invalid(FieldFloor, "must be from %s", FloorRange)
	}
	if !req.Elevator.Known() {
		invalid(FieldElevator, "unknown elevator %q", req.Elevator)
	}
	if !req.TimeOfDay.Known() {
		invalid(FieldTimeOfDay, "unknown time of day %q", req.TimeOfDay)
	}
	if !req.DayType.Known() {
		invalid(FieldDayType, "unknown day type %q", req.DayType)
	}
	for _, e := range req.Extras {
		if !e.Known() {
			errs = append(errs, fmt.Errorf("unknown extra %q", e))
		}
	}
	return errors.Join(errs...)
}
