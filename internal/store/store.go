// internal/store/store.go - SQLite-backed GPS point store
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "modernc.org/sqlite"

	"trip-heatmap/internal"
)

// Point is one recorded GPS observation of an anonymized trip
type Point struct {
	ID           int64      `json:"id"`
	RandomizedID int64      `json:"randomized_id"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
	Alt          float64    `json:"alt"`
	Spd          float64    `json:"spd"`
	Azm          float64    `json:"azm"`
	Anomaly      bool       `json:"anomaly,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// Window bounds a point query. Min/Max are inclusive; the corner order of
// the originating request has already been resolved by the caller.
// Optional filters are nil/empty when absent.
type Window struct {
	LatMin, LatMax float64
	LonMin, LonMax float64

	DateStart *time.Time
	DateEnd   *time.Time

	// DaysOfWeek uses 0=Sunday .. 6=Saturday. Nil means no day filter; a
	// non-nil empty set matches nothing.
	DaysOfWeek []int

	// Time-of-day bounds as minutes since midnight; TimeStart inclusive,
	// TimeEnd exclusive. Negative means absent.
	TimeStart int
	TimeEnd   int

	AnomalyOnly bool
}

// NewWindow builds a window over the inclusive coordinate bounds with all
// optional filters absent. The zero Window value has an active empty
// time-of-day filter; always start from NewWindow.
func NewWindow(latMin, latMax, lonMin, lonMax float64) Window {
	return Window{
		LatMin: latMin, LatMax: latMax,
		LonMin: lonMin, LonMax: lonMax,
		TimeStart: -1,
		TimeEnd:   -1,
	}
}

// Route is the trace of one randomized trip id, ordered by timestamp
type Route struct {
	RandomizedID int64   `json:"randomized_id"`
	Points       []Point `json:"points"`
}

const schema = `
CREATE TABLE IF NOT EXISTS points (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	randomized_id INTEGER NOT NULL,
	lat           REAL NOT NULL,
	lon           REAL NOT NULL,
	alt           REAL NOT NULL,
	spd           REAL NOT NULL,
	azm           REAL NOT NULL,
	anomaly       INTEGER NOT NULL DEFAULT 0,
	timestamp     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_points_lat_lon ON points(lat, lon);
CREATE INDEX IF NOT EXISTS idx_points_route ON points(randomized_id, timestamp);
`

// Store provides access to the points database
type Store struct {
	db     *sql.DB
	logger log.Interface
}

// Open opens (creating if needed) the SQLite database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeStorage, "failed to open database", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. The caller is responsible for the
// schema; used by tests with a mock connection.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: log.WithField("component", "store"),
	}
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the schema
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return internal.NewError(internal.ErrorCodeStorage, "failed to apply schema", err)
	}
	return nil
}

// InsertBatch inserts points in one transaction. An empty batch is a no-op.
func (s *Store) InsertBatch(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal.NewError(internal.ErrorCodeStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (randomized_id, lat, lon, alt, spd, azm, anomaly, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`)
	if err != nil {
		return internal.NewError(internal.ErrorCodeStorage, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, p := range points {
		var ts interface{}
		if p.Timestamp != nil {
			ts = p.Timestamp.UTC()
		}
		if _, err := stmt.ExecContext(ctx, p.RandomizedID, p.Lat, p.Lon, p.Alt, p.Spd, p.Azm, p.Anomaly, ts); err != nil {
			return internal.NewError(internal.ErrorCodeStorage,
				fmt.Sprintf("failed to insert point for trip %d", p.RandomizedID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return internal.NewError(internal.ErrorCodeStorage, "failed to commit batch", err)
	}
	s.logger.WithField("points", len(points)).Debug("batch inserted")
	return nil
}

// PointsIn returns the points inside the window. Spatial and date bounds are
// pushed into SQL; day-of-week and time-of-day filters are applied in
// process because they depend on the local interpretation of the timestamp.
func (s *Store) PointsIn(ctx context.Context, w Window) ([]Point, error) {
	query := `SELECT id, randomized_id, lat, lon, alt, spd, azm, anomaly, timestamp
		FROM points
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`
	args := []interface{}{w.LatMin, w.LatMax, w.LonMin, w.LonMax}

	if w.DateStart != nil {
		query += " AND timestamp >= ?"
		args = append(args, w.DateStart.UTC())
	}
	if w.DateEnd != nil {
		query += " AND timestamp <= ?"
		args = append(args, w.DateEnd.UTC())
	}
	if w.AnomalyOnly {
		query += " AND anomaly = 1"
	}
	query += " ORDER BY randomized_id, timestamp"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeStorage, "point query failed", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		var ts sql.NullTime
		if err := rows.Scan(&p.ID, &p.RandomizedID, &p.Lat, &p.Lon, &p.Alt, &p.Spd, &p.Azm, &p.Anomaly, &ts); err != nil {
			return nil, internal.NewError(internal.ErrorCodeStorage, "point scan failed", err)
		}
		if ts.Valid {
			t := ts.Time
			p.Timestamp = &t
		}
		if !w.matches(p.Timestamp) {
			continue
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, internal.NewError(internal.ErrorCodeStorage, "point iteration failed", err)
	}
	return points, nil
}

// AnomalyRoutes returns anomalous traces grouped by randomized id. PointsIn
// already orders by (randomized_id, timestamp), so grouping is a single scan.
func (s *Store) AnomalyRoutes(ctx context.Context, w Window) ([]Route, error) {
	w.AnomalyOnly = true
	points, err := s.PointsIn(ctx, w)
	if err != nil {
		return nil, err
	}

	var routes []Route
	for _, p := range points {
		if len(routes) == 0 || routes[len(routes)-1].RandomizedID != p.RandomizedID {
			routes = append(routes, Route{RandomizedID: p.RandomizedID})
		}
		last := &routes[len(routes)-1]
		last.Points = append(last.Points, p)
	}
	return routes, nil
}

// matches applies the in-process day and time-of-day filters. Points without
// a timestamp pass only when no such filter is set.
func (w Window) matches(ts *time.Time) bool {
	dayFiltered := w.DaysOfWeek != nil
	todFiltered := w.TimeStart >= 0 && w.TimeEnd >= 0

	if ts == nil {
		return !dayFiltered && !todFiltered
	}

	if dayFiltered {
		day := int(ts.UTC().Weekday())
		found := false
		for _, d := range w.DaysOfWeek {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if todFiltered {
		minutes := ts.UTC().Hour()*60 + ts.UTC().Minute()
		if minutes < w.TimeStart || minutes >= w.TimeEnd {
			return false
		}
	}

	return true
}
