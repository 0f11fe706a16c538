// Package tariff holds the fixed price list used to quote moving and
// delivery jobs. All tables are read-only; lookups never fail and fall back
// to the apartment-moving baseline.
package tariff

// Currency is the symbol printed next to every amount.
const Currency = "€"

// Service is the kind of job being quoted.
type Service string

const (
	ServiceDelivery    Service = "delivery"
	ServiceMoving      Service = "moving"
	ServiceOffice      Service = "office"
	ServiceDismantling Service = "dismantling"
	ServiceAssembly    Service = "assembly"
	ServiceRigging     Service = "rigging"
)

// Volume classifies the amount of cargo.
type Volume string

const (
	VolumeSmall  Volume = "small"
	VolumeMedium Volume = "medium"
	VolumeLarge  Volume = "large"
	VolumeHuge   Volume = "huge"
)

// Urgency is how soon the job must be done.
type Urgency string

const (
	UrgencyNormal  Urgency = "normal"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyExpress Urgency = "express"
)

// Elevator describes lift access at the destination.
type Elevator string

const (
	ElevatorFreight   Elevator = "yes"
	ElevatorPassenger Elevator = "passenger"
	ElevatorNone      Elevator = "no"
)

// TimeOfDay selects the day or night tariff.
type TimeOfDay string

const (
	TimeDay   TimeOfDay = "day"
	TimeNight TimeOfDay = "night"
)

// DayType selects the weekday or weekend/holiday tariff.
type DayType string

const (
	DayWeekday DayType = "weekday"
	DayWeekend DayType = "weekend"
)

// Extra is an optional add-on service.
type Extra string

const (
	ExtraPacking              Extra = "packing"
	ExtraMaterials            Extra = "materials"
	ExtraFurnitureDisassembly Extra = "furniture_disassembly"
	ExtraFurnitureAssembly    Extra = "furniture_assembly"
	ExtraWasteRemoval         Extra = "waste_removal"
	ExtraInsurance            Extra = "insurance"
	ExtraPiano                Extra = "piano"
	ExtraSafe                 Extra = "safe"
	ExtraWaiting              Extra = "waiting"
	ExtraLongDistance         Extra = "long_distance"
)

// Baseline values used when a key is not in the catalog.
const (
	FallbackRate              = 25
	FallbackVolumeMultiplier  = 1.3
	FallbackUrgencyMultiplier = 1.0
)

// Surcharges and floor pricing.
const (
	// FloorRate is charged per floor above the first, per worker, per hour.
	FloorRate = 5.0
	// PassengerElevatorFactor scales FloorRate when only a passenger lift exists.
	PassengerElevatorFactor = 0.5
	NightSurcharge          = 0.5
	WeekendSurcharge        = 0.3
)

var baseRates = map[Service]int{
	ServiceDelivery:    20,
	ServiceMoving:      25,
	ServiceOffice:      30,
	ServiceDismantling: 35,
	ServiceAssembly:    30,
	ServiceRigging:     40,
}

var volumeMultipliers = map[Volume]float64{
	VolumeSmall:  1.0,
	VolumeMedium: 1.3,
	VolumeLarge:  1.7,
	VolumeHuge:   2.2,
}

var urgencyMultipliers = map[Urgency]float64{
	UrgencyNormal:  1.0,
	UrgencyUrgent:  1.5,
	UrgencyExpress: 2.0,
}

// BaseRate returns the hourly rate per worker for a service.
func BaseRate(s Service) int {
	if r, ok := baseRates[s]; ok {
		return r
	}
	return FallbackRate
}

// VolumeMultiplier returns the cost multiplier for a volume class.
func VolumeMultiplier(v Volume) float64 {
	if m, ok := volumeMultipliers[v]; ok {
		return m
	}
	return FallbackVolumeMultiplier
}

// UrgencyMultiplier returns the cost multiplier for an urgency level.
func UrgencyMultiplier(u Urgency) float64 {
	if m, ok := urgencyMultipliers[u]; ok {
		return m
	}
	return FallbackUrgencyMultiplier
}

// Known reports whether s is in the catalog.
func (s Service) Known() bool {
	_, ok := baseRates[s]
	return ok
}

// Known reports whether v is in the catalog.
func (v Volume) Known() bool {
	_, ok := volumeMultipliers[v]
	return ok
}

// Known reports whether u is in the catalog.
func (u Urgency) Known() bool {
	_, ok := urgencyMultipliers[u]
	return ok
}

// Known reports whether e is one of the three elevator options.
func (e Elevator) Known() bool {
	return e == ElevatorFreight || e == ElevatorPassenger || e == ElevatorNone
}

// Known reports whether t is day or night.
func (t TimeOfDay) Known() bool { return t == TimeDay || t == TimeNight }

// Known reports whether d is weekday or weekend.
func (d DayType) Known() bool { return d == DayWeekday || d == DayWeekend }

// Services lists services in menu order.
func Services() []Service {
	return []Service{ServiceDelivery, ServiceMoving, ServiceOffice, ServiceDismantling, ServiceAssembly, ServiceRigging}
}

// Volumes lists volume classes from smallest to largest.
func Volumes() []Volume {
	return []Volume{VolumeSmall, VolumeMedium, VolumeLarge, VolumeHuge}
}

// Urgencies lists urgency levels from slowest to fastest.
func Urgencies() []Urgency {
	return []Urgency{UrgencyNormal, UrgencyUrgent, UrgencyExpress}
}

// Elevators lists elevator options in menu order.
func Elevators() []Elevator {
	return []Elevator{ElevatorFreight, ElevatorPassenger, ElevatorNone}
}

// TimesOfDay lists the time-of-day options.
func TimesOfDay() []TimeOfDay { return []TimeOfDay{TimeDay, TimeNight} }

// DayTypes lists the day options.
func DayTypes() []DayType { return []DayType{DayWeekday, DayWeekend} }
