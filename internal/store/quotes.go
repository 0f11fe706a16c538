package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/pricing"
)

// DefaultLimit caps listing queries when the caller passes no limit.
const DefaultLimit = 20

const maxLimit = 500

// ErrBadQuery is returned by Search for a malformed full-text query.
var ErrBadQuery = errors.New("invalid search query")

var ftsQueryErrors = []string{"fts5:", "no such column", "unterminated string", "unknown special query"}

// searchErr marks SQLite's full-text query parse errors as ErrBadQuery.
func searchErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range ftsQueryErrors {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s", ErrBadQuery, msg)
		}
	}
	return fmt.Errorf("searching calculations: %w", err)
}

// Calculation is one stored quote.
type Calculation struct {
	ID        int64           `json:"id"`
	Identity  string          `json:"identity"`
	ChannelID string          `json:"channelId"`
	UserID    string          `json:"userId"`
	Username  string          `json:"username,omitempty"`
	Request   pricing.Request `json:"params"`
	Details   string          `json:"details"`
	TotalCost int64           `json:"totalCost"`
	CreatedAt time.Time       `json:"createdAt"`
	Rank      float64         `json:"rank,omitempty"` // FTS5 rank (search results only)
}

// Stats summarises the stored quotes.
type Stats struct {
	Count     int64            `json:"count"`
	Sum       int64            `json:"sum"`
	Average   float64          `json:"average"`
	Max       int64            `json:"max"`
	ByService map[string]int64 `json:"byService"`
}

// QuoteStore keeps the history of computed quotes.
type QuoteStore struct {
	db *DB
}

// NewQuoteStore creates a quote store using the given database.
func NewQuoteStore(db *DB) *QuoteStore {
	return &QuoteStore{db: db}
}

// Record stores q and returns its row ID.
func (s *QuoteStore) Record(ctx context.Context, q domain.Quote) (int64, error) {
	params, err := json.Marshal(q.Result.Request)
	if err != nil {
		return 0, fmt.Errorf("encoding params: %w", err)
	}
	created := q.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO calculations (identity, channel_id, user_id, username, service, params, details, total_cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Identity, q.ChannelID, q.UserID, q.Username, string(q.Result.Request.Service),
		string(params), q.Result.Details, q.Result.Total, created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting calculation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading calculation id: %w", err)
	}

	s.db.log.Debug().Int64("id", id).Str("identity", q.Identity).Int64("total", q.Result.Total).Msg("calculation saved")
	return id, nil
}

const calculationColumns = `c.id, c.identity, c.channel_id, c.user_id, c.username, c.params, c.details, c.total_cost, c.created_at`

// Recent returns the newest quotes first.
func (s *QuoteStore) Recent(ctx context.Context, limit int) ([]Calculation, error) {
	return s.query(ctx,
		`SELECT `+calculationColumns+` FROM calculations c ORDER BY c.id DESC LIMIT ?`,
		clampLimit(limit),
	)
}

// ByIdentity returns the newest quotes of one user first.
func (s *QuoteStore) ByIdentity(ctx context.Context, identity string, limit int) ([]Calculation, error) {
	return s.query(ctx,
		`SELECT `+calculationColumns+` FROM calculations c WHERE c.identity = ? ORDER BY c.id DESC LIMIT ?`,
		identity, clampLimit(limit),
	)
}

// Search finds quotes whose report or username matches the FTS5 query,
// best match first.
func (s *QuoteStore) Search(ctx context.Context, query string, limit int) ([]Calculation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT `+calculationColumns+`, f.rank
		 FROM calculations_fts f
		 JOIN calculations c ON c.id = f.rowid
		 WHERE calculations_fts MATCH ?
		 ORDER BY f.rank
		 LIMIT ?`,
		query, clampLimit(limit),
	)
	if err != nil {
		return nil, searchErr(err)
	}
	defer rows.Close()

	var out []Calculation
	for rows.Next() {
		var rank float64
		c, err := scanCalculation(rows, &rank)
		if err != nil {
			return nil, err
		}
		c.Rank = rank
		out = append(out, c)
	}
	return out, searchErr(rows.Err())
}

// Get returns one quote by ID.
func (s *QuoteStore) Get(ctx context.Context, id int64) (Calculation, bool, error) {
	out, err := s.query(ctx, `SELECT `+calculationColumns+` FROM calculations c WHERE c.id = ?`, id)
	if err != nil || len(out) == 0 {
		return Calculation{}, false, err
	}
	return out[0], true, nil
}

// Stats aggregates over all stored quotes.
func (s *QuoteStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByService: make(map[string]int64)}
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_cost), 0), COALESCE(AVG(total_cost), 0), COALESCE(MAX(total_cost), 0)
		 FROM calculations`,
	).Scan(&st.Count, &st.Sum, &st.Average, &st.Max)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating calculations: %w", err)
	}

	rows, err := s.db.sql.QueryContext(ctx, `SELECT service, COUNT(*) FROM calculations GROUP BY service`)
	if err != nil {
		return Stats{}, fmt.Errorf("counting services: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			service string
			n       int64
		)
		if err := rows.Scan(&service, &n); err != nil {
			return Stats{}, fmt.Errorf("scanning service count: %w", err)
		}
		st.ByService[service] = n
	}
	return st, rows.Err()
}

func (s *QuoteStore) query(ctx context.Context, q string, args ...any) ([]Calculation, error) {
	rows, err := s.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calculations: %w", err)
	}
	defer rows.Close()

	var out []Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCalculation(rows *sql.Rows, extra ...any) (Calculation, error) {
	var (
		c       Calculation
		params  string
		created string
	)
	dest := []any{&c.ID, &c.Identity, &c.ChannelID, &c.UserID, &c.Username, &params, &c.Details, &c.TotalCost, &created}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return Calculation{}, fmt.Errorf("scanning calculation: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &c.Request); err != nil {
		return Calculation{}, fmt.Errorf("decoding params of calculation %d: %w", c.ID, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return c, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
