package tariff

import "fmt"

// PriceKind says how an extra's Value is applied.
type PriceKind int

const (
	// Flat adds Value once.
	Flat PriceKind = iota
	// Percent adds Value (a fraction) of the base cost.
	Percent
	// PerHour adds Value for every booked hour.
	PerHour
)

// ExtraPrice is the catalog entry for an add-on service.
type ExtraPrice struct {
	Kind  PriceKind
	Value float64
}

var extraPrices = map[Extra]ExtraPrice{
	ExtraPacking:              {Kind: Flat, Value: 50},
	ExtraMaterials:            {Kind: Flat, Value: 30},
	ExtraFurnitureDisassembly: {Kind: Flat, Value: 40},
	ExtraFurnitureAssembly:    {Kind: Flat, Value: 60},
	ExtraWasteRemoval:         {Kind: Flat, Value: 35},
	ExtraInsurance:            {Kind: Percent, Value: 0.05},
	ExtraPiano:                {Kind: Flat, Value: 100},
	ExtraSafe:                 {Kind: Flat, Value: 150},
	ExtraWaiting:              {Kind: PerHour, Value: 15},
	ExtraLongDistance:         {Kind: Flat, Value: 100},
}

// Extras lists every add-on in menu order.
func Extras() []Extra {
	return []Extra{
		ExtraPacking,
		ExtraMaterials,
		ExtraFurnitureDisassembly,
		ExtraFurnitureAssembly,
		ExtraWasteRemoval,
		ExtraInsurance,
		ExtraPiano,
		ExtraSafe,
		ExtraWaiting,
		ExtraLongDistance,
	}
}

// Price returns the catalog price of an extra. Unknown extras are not priced.
func Price(e Extra) (ExtraPrice, bool) {
	p, ok := extraPrices[e]
	return p, ok
}

// Known reports whether e is in the catalog.
func (e Extra) Known() bool {
	_, ok := extraPrices[e]
	return ok
}

// Amount resolves the price of an extra for a job with the given base cost
// and duration.
func (p ExtraPrice) Amount(baseCost, hours float64) float64 {
	switch p.Kind {
	case Percent:
		return baseCost * p.Value
	case PerHour:
		return p.Value * hours
	default:
		return p.Value
	}
}

// Tag is the short price hint shown next to an extra in menus,
// e.g. "+50€", "+5%" or "15€/h".
func (p ExtraPrice) Tag() string {
	switch p.Kind {
	case Percent:
		return fmt.Sprintf("+%d%%", int(p.Value*100+0.5))
	case PerHour:
		return fmt.Sprintf("%s%s/h", formatAmount(p.Value), Currency)
	default:
		return fmt.Sprintf("+%s%s", formatAmount(p.Value), Currency)
	}
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatAmount renders a currency amount without trailing zeros.
func FormatAmount(v float64) string {
	return formatAmount(v) + Currency
}
