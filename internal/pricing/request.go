// Package pricing turns a completed set of answers into an itemized quote.
package pricing

import (
	"github.com/soyeahso/cargoquote/internal/tariff"
)

// Request is the finalized input to the pricing engine.
type Request struct {
	Service   tariff.Service   `json:"serviceType"`
	Volume    tariff.Volume    `json:"volume"`
	Workers   int              `json:"workers"`
	Hours     float64          `json:"hours"`
	Urgency   tariff.Urgency   `json:"urgency"`
	Floor     int              `json:"floor"`
	Elevator  tariff.Elevator  `json:"elevator"`
	TimeOfDay tariff.TimeOfDay `json:"timeOfDay"`
	DayType   tariff.DayType   `json:"dayType"`
	Extras    []tariff.Extra   `json:"extras,omitempty"`
}

// Defaults for fields that are absent from a request.
const (
	DefaultWorkers = 2
	DefaultHours   = 3.0
	DefaultFloor   = 1
)

// DefaultRequest returns a request with every defaulted field filled in.
// TimeOfDay and DayType have no default; left empty they price as night and
// weekend.
func DefaultRequest() Request {
	return Request{
		Service:  tariff.ServiceMoving,
		Volume:   tariff.VolumeMedium,
		Workers:  DefaultWorkers,
		Hours:    DefaultHours,
		Urgency:  tariff.UrgencyNormal,
		Floor:    DefaultFloor,
		Elevator: tariff.ElevatorFreight,
	}
}

// WithDefaults returns a copy of r with zero-valued fields replaced by their
// defaults.
func (r Request) WithDefaults() Request {
	d := DefaultRequest()
	if r.Service == "" {
		r.Service = d.Service
	}
	if r.Volume == "" {
		r.Volume = d.Volume
	}
	if r.Workers == 0 {
		r.Workers = d.Workers
	}
	if r.Hours == 0 {
		r.Hours = d.Hours
	}
	if r.Urgency == "" {
		r.Urgency = d.Urgency
	}
	if r.Floor == 0 {
		r.Floor = d.Floor
	}
	if r.Elevator == "" {
		r.Elevator = d.Elevator
	}
	return r
}

// IsNight reports whether the night surcharge applies. Anything other than
// an explicit "day" is billed as night.
func (r Request) IsNight() bool { return r.TimeOfDay != tariff.TimeDay }

// IsWeekend reports whether the weekend surcharge applies. Anything other
// than an explicit "weekday" is billed as weekend.
func (r Request) IsWeekend() bool { return r.DayType != tariff.DayWeekday }

// HasExtra reports whether e was selected.
func (r Request) HasExtra(e tariff.Extra) bool {
	for _, x := range r.Extras {
		if x == e {
			return true
		}
	}
	return false
}
