package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseRate(t *testing.T) {
	tests := []struct {
		service Service
		want    int
	}{
		{ServiceDelivery, 20},
		{ServiceMoving, 25},
		{ServiceOffice, 30},
		{ServiceDismantling, 35},
		{ServiceAssembly, 30},
		{ServiceRigging, 40},
		{"spaceship", FallbackRate},
		{"", FallbackRate},
	}
	for _, tt := range tests {
		t.Run(string(tt.service), func(t *testing.T) {
			assert.Equal(t, tt.want, BaseRate(tt.service))
		})
	}
}

func TestMultiplierFallbacks(t *testing.T) {
	assert.Equal(t, 2.2, VolumeMultiplier(VolumeHuge))
	assert.Equal(t, 1.3, VolumeMultiplier("enormous"))
	assert.Equal(t, 2.0, UrgencyMultiplier(UrgencyExpress))
	assert.Equal(t, 1.0, UrgencyMultiplier("yesterday"))
}

func TestRatesWithinCatalogBounds(t *testing.T) {
	for _, s := range Services() {
		r := BaseRate(s)
		assert.GreaterOrEqual(t, r, 20, s)
		assert.LessOrEqual(t, r, 40, s)
	}
	for _, v := range Volumes() {
		m := VolumeMultiplier(v)
		assert.GreaterOrEqual(t, m, 1.0, v)
		assert.LessOrEqual(t, m, 2.2, v)
	}
	for _, u := range Urgencies() {
		m := UrgencyMultiplier(u)
		assert.GreaterOrEqual(t, m, 1.0, u)
		assert.LessOrEqual(t, m, 2.0, u)
	}
}

func TestExtraAmount(t *testing.T) {
	tests := []struct {
		extra Extra
		want  float64
	}{
		{ExtraPacking, 50},
		{ExtraSafe, 150},
		{ExtraInsurance, 10},
		{ExtraWaiting, 45},
	}
	for _, tt := range tests {
		t.Run(string(tt.extra), func(t *testing.T) {
			p, ok := Price(tt.extra)
			assert.True(t, ok)
			assert.InDelta(t, tt.want, p.Amount(200, 3), 1e-9)
		})
	}

	_, ok := Price("jacuzzi")
	assert.False(t, ok)
}

func TestExtraTag(t *testing.T) {
	p, _ := Price(ExtraPacking)
	assert.Equal(t, "+50€", p.Tag())
	p, _ = Price(ExtraInsurance)
	assert.Equal(t, "+5%", p.Tag())
	p, _ = Price(ExtraWaiting)
	assert.Equal(t, "15€/h", p.Tag())
}

func TestEveryValueHasLabel(t *testing.T) {
	for _, s := range Services() {
		assert.NotEqual(t, string(s), s.Label())
	}
	for _, v := range Volumes() {
		assert.NotEqual(t, string(v), v.Label())
	}
	for _, u := range Urgencies() {
		assert.NotEqual(t, string(u), u.Label())
	}
	for _, e := range Elevators() {
		assert.NotEqual(t, string(e), e.Label())
	}
	for _, e := range Extras() {
		assert.NotEqual(t, string(e), e.Label())
		assert.True(t, e.Known())
	}
	assert.Equal(t, "mystery", Service("mystery").Label())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "45€", FormatAmount(45))
	assert.Equal(t, "22.50€", FormatAmount(22.5))
}
