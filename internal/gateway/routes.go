package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soyeahso/cargoquote/internal/dialogue"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/store"
	"github.com/soyeahso/cargoquote/internal/tariff"
	"github.com/soyeahso/cargoquote/internal/version"
)

const maxQuoteBody = 16 << 10

// QuoteHistory is the read side of the quote store.
type QuoteHistory interface {
	Recent(ctx context.Context, limit int) ([]store.Calculation, error)
	ByIdentity(ctx context.Context, identity string, limit int) ([]store.Calculation, error)
	Search(ctx context.Context, query string, limit int) ([]store.Calculation, error)
	Get(ctx context.Context, id int64) (store.Calculation, bool, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// TariffItem is one priced catalog entry.
type TariffItem struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ExtraItem is one add-on with its price rule.
type ExtraItem struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Tag   string  `json:"tag"`
}

// Tariff is the public price list.
type Tariff struct {
	Currency   string       `json:"currency"`
	Services   []TariffItem `json:"services"`
	Volumes    []TariffItem `json:"volumes"`
	Urgencies  []TariffItem `json:"urgencies"`
	Extras     []ExtraItem  `json:"extras"`
	Surcharges struct {
		FloorRate               float64 `json:"floorRate"`
		PassengerElevatorFactor float64 `json:"passengerElevatorFactor"`
		Night                   float64 `json:"night"`
		Weekend                 float64 `json:"weekend"`
	} `json:"surcharges"`
}

// StatusResponse is returned by the admin status endpoint.
type StatusResponse struct {
	Version     string                 `json:"version"`
	Uptime      string                 `json:"uptime"`
	Channels    []domain.ChannelStatus `json:"channels"`
	WebVisitors *int                   `json:"webVisitors,omitempty"`
}

func buildTariff() Tariff {
	var t Tariff
	t.Currency = tariff.Currency
	for _, s := range tariff.Services() {
		t.Services = append(t.Services, TariffItem{Key: string(s), Label: s.Label(), Value: float64(tariff.BaseRate(s))})
	}
	for _, v := range tariff.Volumes() {
		t.Volumes = append(t.Volumes, TariffItem{Key: string(v), Label: v.Label(), Value: tariff.VolumeMultiplier(v)})
	}
	for _, u := range tariff.Urgencies() {
		t.Urgencies = append(t.Urgencies, TariffItem{Key: string(u), Label: u.Label(), Value: tariff.UrgencyMultiplier(u)})
	}
	for _, e := range tariff.Extras() {
		p, _ := tariff.Price(e)
		t.Extras = append(t.Extras, ExtraItem{
			Key:   string(e),
			Label: e.Label(),
			Kind:  kindName(p.Kind),
			Value: p.Value,
			Tag:   p.Tag(),
		})
	}
	t.Surcharges.FloorRate = tariff.FloorRate
	t.Surcharges.PassengerElevatorFactor = tariff.PassengerElevatorFactor
	t.Surcharges.Night = tariff.NightSurcharge
	t.Surcharges.Weekend = tariff.WeekendSurcharge
	return t
}

func kindName(k tariff.PriceKind) string {
	switch k {
	case tariff.Percent:
		return "percent"
	case tariff.PerHour:
		return "per_hour"
	default:
		return "flat"
	}
}

func (s *Server) handleTariff(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tariff)
}

// handleQuote prices a request without starting a conversation. Absent
// fields take the conversation's defaults; time of day and day type are
// required.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuoteBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req pricing.Request
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req = req.WithDefaults()

	if err := dialogue.ValidateRequest(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid request",
			Fields: fieldErrors(err),
		})
		return
	}

	breakdown, err := s.calc.Calculate(req)
	if err != nil {
		s.log.Error().Err(err).Msg("pricing failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// fieldErrors flattens a joined validation error.
func fieldErrors(err error) []fieldError {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	out := make([]fieldError, 0, len(errs))
	for _, e := range errs {
		var ve *dialogue.ValidationError
		if errors.As(e, &ve) {
			out = append(out, fieldError{Field: string(ve.Field), Reason: ve.Reason})
			continue
		}
		out = append(out, fieldError{Field: "extras", Reason: e.Error()})
	}
	return out
}

func (s *Server) handleCalculations(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history is disabled")
		return
	}
	q := r.URL.Query()
	limit := store.DefaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	var (
		calcs []store.Calculation
		err   error
	)
	switch {
	case q.Get("q") != "":
		calcs, err = s.quotes.Search(r.Context(), q.Get("q"), limit)
	case q.Get("identity") != "":
		calcs, err = s.quotes.ByIdentity(r.Context(), q.Get("identity"), limit)
	default:
		calcs, err = s.quotes.Recent(r.Context(), limit)
	}
	if errors.Is(err, store.ErrBadQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("listing calculations failed")
		writeError(w, http.StatusInternalServerError, "listing calculations failed")
		return
	}
	if calcs == nil {
		calcs = []store.Calculation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"calculations": calcs})
}

func (s *Server) handleCalculation(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history is disabled")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	calc, ok, err := s.quotes.Get(r.Context(), id)
	switch {
	case err != nil:
		s.log.Error().Err(err).Int64("id", id).Msg("loading calculation failed")
		writeError(w, http.StatusInternalServerError, "loading calculation failed")
	case !ok:
		writeError(w, http.StatusNotFound, "calculation not found")
	default:
		writeJSON(w, http.StatusOK, calc)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history is disabled")
		return
	}
	stats, err := s.quotes.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("computing stats failed")
		writeError(w, http.StatusInternalServerError, "computing stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Version:  version.Version,
		Uptime:   s.uptime().String(),
		Channels: []domain.ChannelStatus{},
	}
	if s.channels != nil {
		resp.Channels = s.channels.Status()
	}
	if c, ok := s.webChat.(interface{ Count() int }); ok {
		n := c.Count()
		resp.WebVisitors = &n
	}
	writeJSON(w, http.StatusOK, resp)
}
