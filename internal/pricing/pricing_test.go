package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cargoquote/internal/tariff"
)

func baseline() Request {
	return Request{
		Service:   tariff.ServiceMoving,
		Volume:    tariff.VolumeMedium,
		Workers:   2,
		Hours:     3,
		Urgency:   tariff.UrgencyNormal,
		Floor:     1,
		Elevator:  tariff.ElevatorFreight,
		TimeOfDay: tariff.TimeDay,
		DayType:   tariff.DayWeekday,
	}
}

func TestCalculateExamples(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
		want   CostBreakdown
	}{
		{
			name:   "baseline",
			modify: func(r *Request) {},
			want:   CostBreakdown{BaseCost: 195, Total: 195},
		},
		{
			name: "no elevator third floor",
			modify: func(r *Request) {
				r.Elevator = tariff.ElevatorNone
				r.Floor = 3
			},
			want: CostBreakdown{BaseCost: 195, FloorExtra: 60, Total: 255},
		},
		{
			name:   "night",
			modify: func(r *Request) { r.TimeOfDay = tariff.TimeNight },
			want:   CostBreakdown{BaseCost: 195, NightExtra: 98, Total: 293},
		},
		{
			name: "insurance and waiting",
			modify: func(r *Request) {
				r.Extras = []tariff.Extra{tariff.ExtraInsurance, tariff.ExtraWaiting}
			},
			want: CostBreakdown{BaseCost: 195, ExtrasTotal: 55, Total: 250},
		},
		{
			name: "passenger elevator pays half",
			modify: func(r *Request) {
				r.Elevator = tariff.ElevatorPassenger
				r.Floor = 3
			},
			want: CostBreakdown{BaseCost: 195, FloorExtra: 30, Total: 225},
		},
		{
			name:   "weekend",
			modify: func(r *Request) { r.DayType = tariff.DayWeekend },
			want:   CostBreakdown{BaseCost: 195, WeekendExtra: 58, Total: 253},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseline()
			tt.modify(&req)
			got, err := Calculate(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want.BaseCost, got.BaseCost)
			assert.Equal(t, tt.want.FloorExtra, got.FloorExtra)
			assert.Equal(t, tt.want.NightExtra, got.NightExtra)
			assert.Equal(t, tt.want.WeekendExtra, got.WeekendExtra)
			assert.Equal(t, tt.want.ExtrasTotal, got.ExtrasTotal)
			assert.Equal(t, tt.want.Total, got.Total)
		})
	}
}

func TestRoundHalfToEven(t *testing.T) {
	assert.Equal(t, int64(98), round(97.5))
	assert.Equal(t, int64(96), round(96.5))
	assert.Equal(t, int64(10), round(9.75))
}

func TestUnknownServiceFallsBack(t *testing.T) {
	req := baseline()
	req.Service = "teleport"
	got, err := Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, 25, got.BaseRate)
	assert.Equal(t, int64(195), got.Total)
}

func TestAmbiguousTimeAndDayBillExpensiveBranch(t *testing.T) {
	req := baseline()
	req.TimeOfDay = ""
	req.DayType = "holiday-ish"
	got, err := Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, int64(98), got.NightExtra)
	assert.Equal(t, int64(58), got.WeekendExtra)
}

func TestTotalIsSumOfRoundedTerms(t *testing.T) {
	for _, s := range tariff.Services() {
		for _, v := range tariff.Volumes() {
			for _, u := range tariff.Urgencies() {
				for _, e := range tariff.Elevators() {
					req := Request{
						Service:  s,
						Volume:   v,
						Workers:  3,
						Hours:    2.5,
						Urgency:  u,
						Floor:    4,
						Elevator: e,
						Extras:   []tariff.Extra{tariff.ExtraInsurance, tariff.ExtraWaiting, tariff.ExtraPiano},
					}
					got, err := Calculate(req)
					require.NoError(t, err)
					sum := got.BaseCost + got.FloorExtra + got.NightExtra + got.WeekendExtra + got.ExtrasTotal
					assert.Equal(t, sum, got.Total)
				}
			}
		}
	}
}

func TestTotalMonotonicInWorkersAndHours(t *testing.T) {
	req := baseline()
	req.Elevator = tariff.ElevatorNone
	req.Floor = 5
	req.Extras = []tariff.Extra{tariff.ExtraInsurance, tariff.ExtraWaiting}

	prev := int64(-1)
	for w := 1; w <= 10; w++ {
		req.Workers = w
		got, err := Calculate(req)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Total, prev, "workers=%d", w)
		prev = got.Total
	}

	req.Workers = 2
	prev = -1
	for h := 1.0; h <= 24; h += 0.5 {
		req.Hours = h
		got, err := Calculate(req)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Total, prev, "hours=%v", h)
		prev = got.Total
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	req := baseline()
	req.Extras = []tariff.Extra{tariff.ExtraPacking, tariff.ExtraInsurance}
	a, err := Calculate(req)
	require.NoError(t, err)
	b, err := Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDuplicateAndUnknownExtrasIgnored(t *testing.T) {
	req := baseline()
	req.Extras = []tariff.Extra{tariff.ExtraPacking, tariff.ExtraPacking, "hovercraft"}
	got, err := Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.ExtrasTotal)
	assert.Len(t, got.ExtraLines, 1)
}

func TestWithDefaults(t *testing.T) {
	got := Request{}.WithDefaults()
	want := DefaultRequest()
	assert.Equal(t, want, got)
	assert.True(t, got.IsNight())
	assert.True(t, got.IsWeekend())
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
		field  string
	}{
		{"negative workers", func(r *Request) { r.Workers = -1 }, "workers"},
		{"nan hours", func(r *Request) { r.Hours = math.NaN() }, "hours"},
		{"infinite hours", func(r *Request) { r.Hours = math.Inf(1) }, "hours"},
		{"negative floor", func(r *Request) { r.Floor = -2 }, "floor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseline()
			tt.modify(&req)
			_, err := Calculate(req)
			require.ErrorIs(t, err, ErrCalculation)
			var ce *CalculationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCalculateNamesFirstOverflowingTerm(t *testing.T) {
	req := baseline()
	req.Hours = 1e300
	req.Floor = 5
	req.Elevator = tariff.ElevatorNone
	req.TimeOfDay = tariff.TimeNight
	req.DayType = tariff.DayWeekend
	req.Extras = []tariff.Extra{tariff.ExtraInsurance}

	// Every term overflows; the reported one must not depend on iteration order.
	for i := 0; i < 50; i++ {
		_, err := Calculate(req)
		var ce *CalculationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "base cost", ce.Field)
	}
}

func TestDetailsReport(t *testing.T) {
	req := baseline()
	req.TimeOfDay = tariff.TimeNight
	req.Extras = []tariff.Extra{tariff.ExtraInsurance, tariff.ExtraWaiting}
	got, err := Calculate(req)
	require.NoError(t, err)

	assert.Contains(t, got.Details, "🏠 Apartment move")
	assert.Contains(t, got.Details, "👷 WORKERS: 2")
	assert.Contains(t, got.Details, "TIME OF DAY: night")
	assert.Contains(t, got.Details, "DAY: weekday")
	assert.Contains(t, got.Details, "🛡️ Cargo insurance (+5% = 9.75€)")
	assert.Contains(t, got.Details, "⏱️ Waiting time (15€/h = 45€)")
	assert.Contains(t, got.Details, "Night rate: +98€")
	assert.NotContains(t, got.Details, "Weekend:")
	assert.Contains(t, got.Details, "💰 TOTAL: 348 €")
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "3", FormatHours(3))
	assert.Equal(t, "3.5", FormatHours(3.5))
}
