package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soyeahso/cargoquote/internal/tariff"
)

// CostBreakdown is the itemized result of pricing a request. Monetary fields
// are whole currency units.
type CostBreakdown struct {
	Request           Request     `json:"request"`
	Total             int64       `json:"total"`
	BaseRate          int         `json:"baseRate"`
	VolumeMultiplier  float64     `json:"volumeMultiplier"`
	UrgencyMultiplier float64     `json:"urgencyMultiplier"`
	BaseCost          int64       `json:"baseCost"`
	FloorExtra        int64       `json:"floorExtra"`
	NightExtra        int64       `json:"nightExtra"`
	WeekendExtra      int64       `json:"weekendExtra"`
	ExtrasTotal       int64       `json:"extrasTotal"`
	ExtraLines        []ExtraLine `json:"extraLines,omitempty"`
	Details           string      `json:"details"`
}

// ExtraLine is one selected add-on with its resolved amount.
type ExtraLine struct {
	Extra  tariff.Extra     `json:"extra"`
	Label  string           `json:"label"`
	Tag    string           `json:"tag"`
	Kind   tariff.PriceKind `json:"kind"`
	Amount float64          `json:"amount"`
}

// Text renders the line for the report.
func (l ExtraLine) Text() string {
	switch l.Kind {
	case tariff.Percent, tariff.PerHour:
		return fmt.Sprintf("%s (%s = %s)", l.Label, l.Tag, tariff.FormatAmount(l.Amount))
	default:
		return fmt.Sprintf("%s (%s)", l.Label, l.Tag)
	}
}

// FormatHours prints hours without a trailing ".0".
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func details(b CostBreakdown) string {
	r := b.Request
	var sb strings.Builder

	fmt.Fprintf(&sb, "📋 SERVICE: %s\n", r.Service.Label())
	fmt.Fprintf(&sb, "📦 VOLUME: %s\n", r.Volume.Label())
	fmt.Fprintf(&sb, "👷 WORKERS: %d\n", r.Workers)
	fmt.Fprintf(&sb, "⏱️ HOURS: %s\n", FormatHours(r.Hours))
	fmt.Fprintf(&sb, "⚡ URGENCY: %s\n", r.Urgency.Label())
	fmt.Fprintf(&sb, "🏢 FLOOR: %d (%s)\n", r.Floor, r.Elevator.ShortLabel())
	if r.IsNight() {
		sb.WriteString("🌙 TIME OF DAY: night\n")
	} else {
		sb.WriteString("🌙 TIME OF DAY: day\n")
	}
	if r.IsWeekend() {
		sb.WriteString("📅 DAY: weekend/holiday\n")
	} else {
		sb.WriteString("📅 DAY: weekday\n")
	}

	if len(b.ExtraLines) > 0 {
		sb.WriteString("\n➕ EXTRA SERVICES:\n")
		for _, l := range b.ExtraLines {
			sb.WriteString(l.Text())
			sb.WriteByte('\n')
		}
	}

	sb.WriteByte('\n')
	sb.WriteString(b.Summary())
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "\n💰 TOTAL: %d %s", b.Total, tariff.Currency)
	return sb.String()
}

// Summary renders the short breakdown block: base rate, base cost and every
// non-zero surcharge.
func (b CostBreakdown) Summary() string {
	var sb strings.Builder
	sb.WriteString("📊 BREAKDOWN:\n")
	fmt.Fprintf(&sb, "• Base rate: %d%s/h per worker\n", b.BaseRate, tariff.Currency)
	fmt.Fprintf(&sb, "• Base cost: %d%s\n", b.BaseCost, tariff.Currency)
	if b.FloorExtra > 0 {
		fmt.Fprintf(&sb, "• Floor surcharge: +%d%s\n", b.FloorExtra, tariff.Currency)
	}
	if b.NightExtra > 0 {
		fmt.Fprintf(&sb, "• Night rate: +%d%s\n", b.NightExtra, tariff.Currency)
	}
	if b.WeekendExtra > 0 {
		fmt.Fprintf(&sb, "• Weekend: +%d%s\n", b.WeekendExtra, tariff.Currency)
	}
	if b.ExtrasTotal > 0 {
		fmt.Fprintf(&sb, "• Extra services: +%d%s\n", b.ExtrasTotal, tariff.Currency)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
