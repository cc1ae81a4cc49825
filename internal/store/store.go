package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/capmon/capmon/pkg/models"
	_ "modernc.org/sqlite"
)

// TimestampLayout is how observation timestamps are stored. Text in this
// layout sorts lexicographically in time order, which MAX() relies on.
const TimestampLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

// Store is an append-only log of usage observations keyed by the
// provider's "as of" timestamp. Rows are never updated or deleted.
type Store struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	st := &Store{conn: conn}
	if err := st.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return st, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		observed_at TEXT NOT NULL,
		total_gb REAL NOT NULL,
		upload_gb REAL NOT NULL,
		download_gb REAL NOT NULL,
		allowance_gb REAL,
		period_start TEXT,
		period_end TEXT,
		allowance_to_date REAL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_observed_at ON usage(observed_at);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Append durably adds one observation and returns its row id. There is no
// uniqueness check: the caller decides whether an observation is new before
// appending.
func (s *Store) Append(ctx context.Context, obs models.Observation) (int64, error) {
	query := `
	INSERT INTO usage (observed_at, total_gb, upload_gb, download_gb, allowance_gb, period_start, period_end, allowance_to_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var periodStart, periodEnd string
	if !obs.PeriodStart.IsZero() {
		periodStart = obs.PeriodStart.Format(dateLayout)
	}
	if !obs.PeriodEnd.IsZero() {
		periodEnd = obs.PeriodEnd.Format(dateLayout)
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)

	res, err := s.conn.ExecContext(ctx, query,
		obs.ObservedAt.Format(TimestampLayout),
		obs.TotalGB, obs.UploadGB, obs.DownloadGB,
		obs.AllowanceGB, periodStart, periodEnd, obs.AllowanceToDate,
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting observation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted row id: %w", err)
	}

	return id, nil
}

// Latest returns the observation with the maximum observed_at, or the
// zero-valued sentinel when the log is empty. An empty log is not an error.
func (s *Store) Latest(ctx context.Context) (models.Observation, error) {
	query := `
	SELECT id, observed_at, total_gb, upload_gb, download_gb, allowance_gb, period_start, period_end, allowance_to_date
	FROM usage
	ORDER BY observed_at DESC
	LIMIT 1
	`

	row := s.conn.QueryRowContext(ctx, query)

	obs, err := scanObservation(row)
	if err == sql.ErrNoRows {
		return models.Observation{}, nil
	}
	if err != nil {
		return models.Observation{}, fmt.Errorf("querying latest observation: %w", err)
	}

	return obs, nil
}

// List retrieves the full stored history, newest first
func (s *Store) List(ctx context.Context) ([]models.Observation, error) {
	query := `
	SELECT id, observed_at, total_gb, upload_gb, download_gb, allowance_gb, period_start, period_end, allowance_to_date
	FROM usage
	ORDER BY observed_at DESC
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var results []models.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, obs)
	}

	return results, rows.Err()
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanObservation(row scanner) (models.Observation, error) {
	var obs models.Observation
	var observedAt string
	var allowance, allowanceToDate sql.NullFloat64
	var periodStart, periodEnd sql.NullString

	err := row.Scan(&obs.ID, &observedAt, &obs.TotalGB, &obs.UploadGB, &obs.DownloadGB,
		&allowance, &periodStart, &periodEnd, &allowanceToDate)
	if err != nil {
		return models.Observation{}, err
	}

	obs.ObservedAt, err = time.Parse(TimestampLayout, observedAt)
	if err != nil {
		return models.Observation{}, fmt.Errorf("parsing observed_at: %w", err)
	}

	if allowance.Valid {
		obs.AllowanceGB = allowance.Float64
	}
	if allowanceToDate.Valid {
		obs.AllowanceToDate = allowanceToDate.Float64
	}

	if periodStart.Valid && periodStart.String != "" {
		obs.PeriodStart, err = time.Parse(dateLayout, periodStart.String)
		if err != nil {
			return models.Observation{}, fmt.Errorf("parsing period_start: %w", err)
		}
	}
	if periodEnd.Valid && periodEnd.String != "" {
		obs.PeriodEnd, err = time.Parse(dateLayout, periodEnd.String)
		if err != nil {
			return models.Observation{}, fmt.Errorf("parsing period_end: %w", err)
		}
	}

	return obs, nil
}
