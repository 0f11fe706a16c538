package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/soyeahso/cargoquote/internal/tariff"
)

// ErrCalculation is returned when a request cannot be priced.
var ErrCalculation = errors.New("calculation failed")

// CalculationError names the offending input.
type CalculationError struct {
	Field string
	Value any
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("pricing: invalid %s: %v", e.Field, e.Value)
}

// Unwrap makes errors.Is(err, ErrCalculation) work.
func (e *CalculationError) Unwrap() error { return ErrCalculation }

// Calculator prices a request.
type Calculator interface {
	Calculate(req Request) (CostBreakdown, error)
}

// CalculatorFunc adapts a function to Calculator.
type CalculatorFunc func(req Request) (CostBreakdown, error)

// Calculate calls f(req).
func (f CalculatorFunc) Calculate(req Request) (CostBreakdown, error) { return f(req) }

// Engine is the default Calculator backed by the tariff catalog.
type Engine struct{}

// Calculate implements Calculator.
func (Engine) Calculate(req Request) (CostBreakdown, error) { return Calculate(req) }

// round is the rounding applied to every monetary term. Half-to-even keeps
// x.5 amounts stable across platforms and matches the historical quotes.
func round(v float64) int64 { return int64(math.RoundToEven(v)) }

// Calculate prices a request. It is pure: the same request always yields the
// same breakdown. Every sub-total is rounded on its own before being summed
// into Total, so Total may differ by a unit or two from rounding the exact
// sum.
func Calculate(req Request) (CostBreakdown, error) {
	req = req.WithDefaults()
	if err := check(req); err != nil {
		return CostBreakdown{}, err
	}

	rate := tariff.BaseRate(req.Service)
	volumeMult := tariff.VolumeMultiplier(req.Volume)
	urgencyMult := tariff.UrgencyMultiplier(req.Urgency)
	workers := float64(req.Workers)
	hours := req.Hours

	baseCost := float64(rate) * workers * hours * volumeMult * urgencyMult

	var floorExtra float64
	climb := float64(req.Floor - 1)
	switch req.Elevator {
	case tariff.ElevatorNone:
		floorExtra = climb * tariff.FloorRate * workers * hours
	case tariff.ElevatorPassenger:
		floorExtra = climb * (tariff.FloorRate * tariff.PassengerElevatorFactor) * workers * hours
	}

	var nightExtra, weekendExtra float64
	if req.IsNight() {
		nightExtra = baseCost * tariff.NightSurcharge
	}
	if req.IsWeekend() {
		weekendExtra = baseCost * tariff.WeekendSurcharge
	}

	var extrasTotal float64
	var lines []ExtraLine
	seen := make(map[tariff.Extra]bool, len(req.Extras))
	for _, e := range req.Extras {
		if seen[e] {
			continue
		}
		seen[e] = true
		price, ok := tariff.Price(e)
		if !ok {
			continue
		}
		amount := price.Amount(baseCost, hours)
		extrasTotal += amount
		lines = append(lines, ExtraLine{
			Extra:  e,
			Label:  e.Label(),
			Tag:    price.Tag(),
			Kind:   price.Kind,
			Amount: amount,
		})
	}

	// Checked in report order so the first offending term is named.
	for _, term := range []struct {
		name string
		v    float64
	}{
		{"base cost", baseCost},
		{"floor extra", floorExtra},
		{"night extra", nightExtra},
		{"weekend extra", weekendExtra},
		{"extras total", extrasTotal},
	} {
		if math.IsNaN(term.v) || math.IsInf(term.v, 0) || term.v > math.MaxInt64/8 {
			return CostBreakdown{}, &CalculationError{Field: term.name, Value: term.v}
		}
	}

	b := CostBreakdown{
		Request:           req,
		BaseRate:          rate,
		VolumeMultiplier:  volumeMult,
		UrgencyMultiplier: urgencyMult,
		BaseCost:          round(baseCost),
		FloorExtra:        round(floorExtra),
		NightExtra:        round(nightExtra),
		WeekendExtra:      round(weekendExtra),
		ExtrasTotal:       round(extrasTotal),
		ExtraLines:        lines,
	}
	b.Total = b.BaseCost + b.FloorExtra + b.NightExtra + b.WeekendExtra + b.ExtrasTotal
	b.Details = details(b)
	return b, nil
}

func check(req Request) error {
	if req.Workers < 1 {
		return &CalculationError{Field: "workers", Value: req.Workers}
	}
	if math.IsNaN(req.Hours) || math.IsInf(req.Hours, 0) || req.Hours <= 0 {
		return &CalculationError{Field: "hours", Value: req.Hours}
	}
	if req.Floor < 1 {
		return &CalculationError{Field: "floor", Value: req.Floor}
	}
	return nil
}
