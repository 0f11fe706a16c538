package store

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// SeedOrders is how many demo orders Seed creates.
const SeedOrders = 50

// SeedReport counts the rows written by Seed.
type SeedReport struct {
	Loaders   int `json:"loaders"`
	Transport int `json:"transport"`
	Orders    int `json:"orders"`
}

var (
	seedLoaders = []string{
		"Jonas Petraitis", "Petras Kazlauskas", "Ona Jankauskienė", "Rasa Stankevičienė",
		"Tomas Vasiliauskas", "Eglė Žukauskienė", "Mindaugas Butkus",
	}
	seedTransport = []struct{ name, kind, capacity string }{
		{"Light van", "van", "1.5 t"},
		{"Box truck", "truck", "5 t"},
		{"Passenger car", "car", "500 kg"},
		{"Panel van", "van", "1 t"},
		{"Heavy equipment", "special", "up to 10 t"},
	}
	seedWorkTypes = []string{"🚚 Delivery", "🛠 Dismantling", "📦 Moving", "♻️ Waste removal", "🪑 Furniture assembly"}
	seedAddresses = []string{"Gedimino pr. 9", "Didžioji g. 15", "Pilies g. 7", "Konstitucijos pr. 20", "Laisvės pr. 60"}
	seedStatuses  = []string{"pending", "assigned", "in_progress", "completed"}
)

// Seeder fills the operations tables with demo data.
type Seeder struct {
	db  *DB
	now func() time.Time
}

// NewSeeder creates a seeder using the given database.
func NewSeeder(db *DB) *Seeder {
	return &Seeder{db: db, now: time.Now}
}

// Seed replaces the contents of loaders, transport and orders with demo
// rows drawn from rng. Calculations are left alone.
func (s *Seeder) Seed(ctx context.Context, rng *rand.Rand) (SeedReport, error) {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return SeedReport{}, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"orders", "loaders", "transport"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return SeedReport{}, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	var rep SeedReport
	for i, name := range seedLoaders {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO loaders (user_id, full_name, phone, is_active, total_orders, total_earnings, rating)
			 VALUES (?, ?, ?, 1, ?, ?, ?)`,
			2000+i, name,
			fmt.Sprintf("+3706%07d", rng.IntN(9_000_000)+1_000_000),
			between(rng, 5, 50),
			500+rng.Float64()*4500,
			math.Round((4.5+rng.Float64()*0.5)*10)/10,
		)
		if err != nil {
			return SeedReport{}, fmt.Errorf("inserting loader %q: %w", name, err)
		}
		rep.Loaders++
	}

	for _, t := range seedTransport {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transport (name, type, capacity, is_available) VALUES (?, ?, ?, 1)`,
			t.name, t.kind, t.capacity,
		); err != nil {
			return SeedReport{}, fmt.Errorf("inserting transport %q: %w", t.name, err)
		}
		rep.Transport++
	}

	now := s.now()
	for i := range SeedOrders {
		var comment string
		if rng.Float64() > 0.5 {
			comment = fmt.Sprintf("Test comment %d", i)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (user_id, username, work_type, scheduled_date, scheduled_time, address, comment, status, cost)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			between(rng, 1000, 9999),
			fmt.Sprintf("client_%d", between(rng, 1, 100)),
			pick(rng, seedWorkTypes),
			now.AddDate(0, 0, between(rng, 0, 30)).Format("02.01.2006"),
			fmt.Sprintf("%d:00", between(rng, 8, 20)),
			pick(rng, seedAddresses),
			comment,
			pick(rng, seedStatuses),
			between(rng, 50, 400),
		); err != nil {
			return SeedReport{}, fmt.Errorf("inserting order %d: %w", i, err)
		}
		rep.Orders++
	}

	if err := tx.Commit(); err != nil {
		return SeedReport{}, fmt.Errorf("commit seed: %w", err)
	}
	s.db.log.Info().
		Int("loaders", rep.Loaders).
		Int("transport", rep.Transport).
		Int("orders", rep.Orders).
		Msg("demo data seeded")
	return rep, nil
}

// Counts returns the current row counts of the operations tables.
func (s *Seeder) Counts(ctx context.Context) (SeedReport, error) {
	var rep SeedReport
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"loaders", &rep.Loaders},
		{"transport", &rep.Transport},
		{"orders", &rep.Orders},
	} {
		if err := s.db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return SeedReport{}, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	return rep, nil
}

// between returns a uniform integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.IntN(len(xs))]
}
