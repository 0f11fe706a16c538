package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/store"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

func do(t *testing.T, method, url, token, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (f *fixture) record(t *testing.T, identity, username string, extras ...tariff.Extra) int64 {
	t.Helper()
	req := pricing.DefaultRequest()
	req.TimeOfDay = tariff.TimeDay
	req.DayType = tariff.DayWeekday
	req.Extras = extras
	b, err := pricing.Calculate(req)
	require.NoError(t, err)

	channelID, userID, _ := strings.Cut(identity, ":")
	id, err := f.quotes.Record(context.Background(), domain.Quote{
		Identity:  identity,
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
		Result:    b,
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return id
}

func TestTariffEndpoint(t *testing.T) {
	f := newFixture(t)
	status, body := do(t, http.MethodGet, f.ts.URL+"/api/v1/tariff", "", "")
	require.Equal(t, http.StatusOK, status)

	var tr Tariff
	require.NoError(t, json.Unmarshal(body, &tr))
	assert.Equal(t, "€", tr.Currency)
	require.Len(t, tr.Services, len(tariff.Services()))
	assert.Equal(t, TariffItem{Key: "moving", Label: tariff.ServiceMoving.Label(), Value: 25}, tr.Services[1])
	assert.Len(t, tr.Extras, 10)
	assert.Equal(t, 0.5, tr.Surcharges.Night)

	kinds := map[string]string{}
	for _, e := range tr.Extras {
		kinds[e.Key] = e.Kind
	}
	assert.Equal(t, "percent", kinds["insurance"])
	assert.Equal(t, "per_hour", kinds["waiting"])
	assert.Equal(t, "flat", kinds["piano"])
}

func TestQuoteEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		total int64
	}{
		{"defaults fill the rest", `{"serviceType":"moving","timeOfDay":"day","dayType":"weekday"}`, 195},
		{
			"office at night on a weekend",
			`{"serviceType":"office","volume":"large","workers":3,"hours":4,"urgency":"urgent","floor":5,
			  "elevator":"passenger","timeOfDay":"night","dayType":"weekend","extras":["packing","insurance"]}`,
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			status, body := do(t, http.MethodPost, f.ts.URL+"/api/v1/quotes", "", tt.body)
			require.Equal(t, http.StatusOK, status, string(body))

			var b pricing.CostBreakdown
			require.NoError(t, json.Unmarshal(body, &b))
			if tt.total != 0 {
				assert.Equal(t, tt.total, b.Total)
			}

			var req pricing.Request
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			want, err := pricing.Calculate(req.WithDefaults())
			require.NoError(t, err)
			assert.Equal(t, want.Total, b.Total)
			assert.NotEmpty(t, b.Details)
		})
	}
}

func TestQuoteEndpoint_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"unknown values", `{"serviceType":"teleport","volume":"tiny","timeOfDay":"day","dayType":"weekday"}`, []string{"serviceType", "volume"}},
		{"out of range", `{"workers":11,"hours":0.5,"floor":30,"timeOfDay":"day","dayType":"weekday"}`, []string{"workers", "hours", "floor"}},
		{"time and day required", `{}`, []string{"timeOfDay", "dayType"}},
		{"unknown extra", `{"timeOfDay":"day","dayType":"weekday","extras":["jacuzzi"]}`, []string{"extras"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			status, body := do(t, http.MethodPost, f.ts.URL+"/api/v1/quotes", "", tt.body)
			require.Equal(t, http.StatusBadRequest, status)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, "invalid request", resp.Error)
			var got []string
			for _, fe := range resp.Fields {
				got = append(got, fe.Field)
				assert.NotEmpty(t, fe.Reason)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestQuoteEndpoint_BadJSON(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{"serviceType":`, `{"colour":"red"}`, `[]`} {
		status, resp := do(t, http.MethodPost, f.ts.URL+"/api/v1/quotes", "", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, string(resp), "invalid JSON", body)
	}
}

func TestQuoteEndpoint_CalculatorFailure(t *testing.T) {
	failing := pricing.CalculatorFunc(func(pricing.Request) (pricing.CostBreakdown, error) {
		return pricing.CostBreakdown{}, errors.New("tariff unavailable")
	})
	f := newFixture(t, WithCalculator(failing))
	status, body := do(t, http.MethodPost, f.ts.URL+"/api/v1/quotes", "",
		`{"timeOfDay":"day","dayType":"weekday"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), "tariff unavailable")
}

func TestAdminAuth(t *testing.T) {
	f := newFixture(t)
	url := f.ts.URL + "/api/v1/stats"

	status, _ := do(t, http.MethodGet, url, "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, http.MethodGet, url, "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "invalid token")

	status, _ = do(t, http.MethodGet, url, testAdminToken, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestAdminAuth_RateLimited(t *testing.T) {
	f := newFixture(t)
	url := f.ts.URL + "/api/v1/stats"
	for i := 0; i < authRateMaxFails; i++ {
		do(t, http.MethodGet, url, "wrong", "")
	}
	status, _ := do(t, http.MethodGet, url, testAdminToken, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestAdminAuth_DisabledWithoutToken(t *testing.T) {
	f := newFixture(t)
	f.srv.adminToken = ""
	status, body := do(t, http.MethodGet, f.ts.URL+"/api/v1/calculations", "anything", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, string(body), "admin API disabled")
}

func TestCalculations(t *testing.T) {
	f := newFixture(t)
	f.record(t, "telegram:1", "alice")
	f.record(t, "irc:bob", "bob", tariff.ExtraPiano)
	f.record(t, "telegram:1", "alice")

	list := func(query string) []store.Calculation {
		t.Helper()
		status, body := do(t, http.MethodGet, f.ts.URL+"/api/v1/calculations"+query, testAdminToken, "")
		require.Equal(t, http.StatusOK, status, string(body))
		var resp struct {
			Calculations []store.Calculation `json:"calculations"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		return resp.Calculations
	}

	all := list("")
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[2].ID, "newest first")

	assert.Len(t, list("?limit=2"), 2)
	assert.Len(t, list("?identity=telegram:1"), 2)

	found := list("?q=piano")
	require.Len(t, found, 1)
	assert.Equal(t, "irc:bob", found[0].Identity)

	assert.Empty(t, list("?identity=web:nobody"))
}

func TestCalculations_BadLimit(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"?limit=abc", "?limit=0", "?limit=-3"} {
		status, _ := do(t, http.MethodGet, f.ts.URL+"/api/v1/calculations"+q, testAdminToken, "")
		assert.Equal(t, http.StatusBadRequest, status, q)
	}
}

func TestCalculations_BadSearch(t *testing.T) {
	f := newFixture(t)
	f.record(t, "telegram:1", "alice")

	status, body := do(t, http.MethodGet, f.ts.URL+"/api/v1/calculations?q=piano+OR", testAdminToken, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "invalid search query")
}

func TestCalculationByID(t *testing.T) {
	f := newFixture(t)
	id := f.record(t, "telegram:1", "alice")

	status, body := do(t, http.MethodGet, fmt.Sprintf("%s/api/v1/calculations/%d", f.ts.URL, id), testAdminToken, "")
	require.Equal(t, http.StatusOK, status)
	var calc store.Calculation
	require.NoError(t, json.Unmarshal(body, &calc))
	assert.Equal(t, id, calc.ID)
	assert.Equal(t, int64(195), calc.TotalCost)

	status, _ = do(t, http.MethodGet, f.ts.URL+"/api/v1/calculations/9999", testAdminToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, http.MethodGet, f.ts.URL+"/api/v1/calculations/abc", testAdminToken, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.record(t, "telegram:1", "alice")
	f.record(t, "telegram:2", "carol")

	status, body := do(t, http.MethodGet, f.ts.URL+"/api/v1/stats", testAdminToken, "")
	require.Equal(t, http.StatusOK, status)
	var st store.Stats
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, int64(2), st.Count)
	assert.Equal(t, int64(390), st.Sum)
	assert.Equal(t, map[string]int64{"moving": 2}, st.ByService)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	status, body := do(t, http.MethodGet, f.ts.URL+"/api/v1/status", testAdminToken, "")
	require.Equal(t, http.StatusOK, status)

	var st StatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "dev", st.Version)
	require.Len(t, st.Channels, 1)
	assert.Equal(t, "web", st.Channels[0].ChannelID)
	require.NotNil(t, st.WebVisitors)
	assert.Zero(t, *st.WebVisitors)
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t)
	f.srv.quotes = nil
	for _, path := range []string{"/api/v1/calculations", "/api/v1/calculations/1", "/api/v1/stats"} {
		status, _ := do(t, http.MethodGet, f.ts.URL+path, testAdminToken, "")
		assert.Equal(t, http.StatusServiceUnavailable, status, path)
	}
}

func TestFieldErrors(t *testing.T) {
	assert.Equal(t, []fieldError{{Field: "extras", Reason: "boom"}}, fieldErrors(errors.New("boom")))
}
