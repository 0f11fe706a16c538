package tariff

// Display labels. Unknown keys render as their raw value.

var serviceLabels = map[Service]string{
	ServiceDelivery:    "🚚 Cargo delivery",
	ServiceMoving:      "🏠 Apartment move",
	ServiceOffice:      "🏢 Office move",
	ServiceDismantling: "🔨 Dismantling",
	ServiceAssembly:    "🪑 Furniture assembly",
	ServiceRigging:     "📦 Rigging",
}

var volumeLabels = map[Volume]string{
	VolumeSmall:  "📦 Small (up to 10m³)",
	VolumeMedium: "📦📦 Medium (10-30m³)",
	VolumeLarge:  "📦📦📦 Large (30-60m³)",
	VolumeHuge:   "🏭 Very large (60+m³)",
}

var urgencyLabels = map[Urgency]string{
	UrgencyNormal:  "🚶 Normal (3-5 days)",
	UrgencyUrgent:  "⚡ Urgent (24 hours)",
	UrgencyExpress: "🔥 Express (2-4 hours)",
}

var elevatorLabels = map[Elevator]string{
	ElevatorFreight:   "✅ Freight elevator",
	ElevatorPassenger: "🔄 Passenger elevator",
	ElevatorNone:      "❌ No elevator",
}

var timeLabels = map[TimeOfDay]string{
	TimeDay:   "☀️ Day (08:00-22:00)",
	TimeNight: "🌙 Night (22:00-08:00)",
}

var dayLabels = map[DayType]string{
	DayWeekday: "📅 Weekday",
	DayWeekend: "🎉 Weekend/holiday",
}

var extraLabels = map[Extra]string{
	ExtraPacking:              "📦 Packing",
	ExtraMaterials:            "📎 Packing materials",
	ExtraFurnitureDisassembly: "🔧 Furniture disassembly",
	ExtraFurnitureAssembly:    "🛠️ Furniture assembly",
	ExtraWasteRemoval:         "🗑️ Waste removal",
	ExtraInsurance:            "🛡️ Cargo insurance",
	ExtraPiano:                "🎹 Piano",
	ExtraSafe:                 "🔒 Safe/ATM",
	ExtraWaiting:              "⏱️ Waiting time",
	ExtraLongDistance:         "🛣️ Out of town (50+ km)",
}

func label[K ~string](m map[K]string, k K) string {
	if l, ok := m[k]; ok {
		return l
	}
	return string(k)
}

func (s Service) Label() string   { return label(serviceLabels, s) }
func (v Volume) Label() string    { return label(volumeLabels, v) }
func (u Urgency) Label() string   { return label(urgencyLabels, u) }
func (e Elevator) Label() string  { return label(elevatorLabels, e) }
func (t TimeOfDay) Label() string { return label(timeLabels, t) }
func (d DayType) Label() string   { return label(dayLabels, d) }
func (e Extra) Label() string     { return label(extraLabels, e) }

// ShortLabel is the lowercase elevator wording used inside report lines.
// Unknown values read as a freight elevator.
func (e Elevator) ShortLabel() string {
	switch e {
	case ElevatorPassenger:
		return "passenger elevator"
	case ElevatorNone:
		return "no elevator"
	default:
		return "freight elevator"
	}
}
