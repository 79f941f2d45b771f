// internal/store/store_test.go - Unit tests for the point store
package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func pointColumns() []string {
	return []string{"id", "randomized_id", "lat", "lon", "alt", "spd", "azm", "anomaly", "timestamp"}
}

func TestInsertBatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO points")
	prep.ExpectExec().
		WithArgs(int64(42), 1.5, 2.5, 100.0, 30.0, 90.0, false, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(int64(42), 1.6, 2.6, 101.0, 31.0, 91.0, false, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	points := []Point{
		{RandomizedID: 42, Lat: 1.5, Lon: 2.5, Alt: 100, Spd: 30, Azm: 90},
		{RandomizedID: 42, Lat: 1.6, Lon: 2.6, Alt: 101, Spd: 31, Azm: 91},
	}
	if err := s.InsertBatch(context.Background(), points); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInsertBatchEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	if err := s.InsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty InsertBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("empty batch touched the database: %v", err)
	}
}

func TestPointsInBounds(t *testing.T) {
	s, mock := newMockStore(t)

	ts := time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC) // a Monday
	mock.ExpectQuery("SELECT id, randomized_id, lat, lon, alt, spd, azm, anomaly, timestamp FROM points").
		WithArgs(0.0, 1.0, 0.0, 1.0).
		WillReturnRows(sqlmock.NewRows(pointColumns()).
			AddRow(1, 7, 0.5, 0.5, 10.0, 20.0, 180.0, false, ts).
			AddRow(2, 7, 0.6, 0.6, 10.0, 25.0, 180.0, false, ts))

	points, err := s.PointsIn(context.Background(), NewWindow(0, 1, 0, 1))
	if err != nil {
		t.Fatalf("PointsIn: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Spd != 20 || points[0].Timestamp == nil {
		t.Errorf("first point = %+v", points[0])
	}
}

func TestPointsInDateRange(t *testing.T) {
	s, mock := newMockStore(t)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("timestamp >= .+ AND timestamp <=").
		WithArgs(0.0, 1.0, 0.0, 1.0, start, end).
		WillReturnRows(sqlmock.NewRows(pointColumns()))

	w := NewWindow(0, 1, 0, 1)
	w.DateStart = &start
	w.DateEnd = &end
	if _, err := s.PointsIn(context.Background(), w); err != nil {
		t.Fatalf("PointsIn: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPointsInDayFilter(t *testing.T) {
	s, mock := newMockStore(t)

	monday := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM points").
		WillReturnRows(sqlmock.NewRows(pointColumns()).
			AddRow(1, 7, 0.5, 0.5, 0.0, 20.0, 0.0, false, monday).
			AddRow(2, 7, 0.6, 0.6, 0.0, 25.0, 0.0, false, sunday))

	w := NewWindow(0, 1, 0, 1)
	w.DaysOfWeek = []int{1} // Monday
	points, err := s.PointsIn(context.Background(), w)
	if err != nil {
		t.Fatalf("PointsIn: %v", err)
	}
	if len(points) != 1 || points[0].ID != 1 {
		t.Errorf("day filter kept %d points, want the Monday one", len(points))
	}
}

func TestPointsInTimeOfDayFilter(t *testing.T) {
	s, mock := newMockStore(t)

	morning := time.Date(2024, 5, 6, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC)
	boundary := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM points").
		WillReturnRows(sqlmock.NewRows(pointColumns()).
			AddRow(1, 7, 0.5, 0.5, 0.0, 20.0, 0.0, false, morning).
			AddRow(2, 7, 0.6, 0.6, 0.0, 25.0, 0.0, false, evening).
			AddRow(3, 7, 0.7, 0.7, 0.0, 30.0, 0.0, false, boundary))

	w := NewWindow(0, 1, 0, 1)
	w.TimeStart = 8 * 60 // 08:00 inclusive
	w.TimeEnd = 9 * 60   // 09:00 exclusive
	points, err := s.PointsIn(context.Background(), w)
	if err != nil {
		t.Fatalf("PointsIn: %v", err)
	}
	if len(points) != 1 || points[0].ID != 1 {
		t.Errorf("time-of-day filter kept %d points, want only the 08:30 one", len(points))
	}
}

func TestAnomalyRoutesGrouping(t *testing.T) {
	s, mock := newMockStore(t)

	ts := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("anomaly = 1").
		WillReturnRows(sqlmock.NewRows(pointColumns()).
			AddRow(1, 7, 0.1, 0.1, 0.0, 20.0, 0.0, true, ts).
			AddRow(2, 7, 0.2, 0.2, 0.0, 21.0, 0.0, true, ts.Add(time.Minute)).
			AddRow(3, 9, 0.3, 0.3, 0.0, 22.0, 0.0, true, ts))

	routes, err := s.AnomalyRoutes(context.Background(), NewWindow(0, 1, 0, 1))
	if err != nil {
		t.Fatalf("AnomalyRoutes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if routes[0].RandomizedID != 7 || len(routes[0].Points) != 2 {
		t.Errorf("first route = %+v", routes[0])
	}
	if routes[1].RandomizedID != 9 || len(routes[1].Points) != 1 {
		t.Errorf("second route = %+v", routes[1])
	}
}

func TestWindowMatchesNilTimestamp(t *testing.T) {
	w := NewWindow(0, 1, 0, 1)
	if !w.matches(nil) {
		t.Error("unfiltered window should accept a point without timestamp")
	}

	w.DaysOfWeek = []int{1}
	if w.matches(nil) {
		t.Error("day-filtered window should reject a point without timestamp")
	}
}

func TestWindowMatchesEmptyDaySet(t *testing.T) {
	// A non-nil empty day set is an active filter over no days: nothing
	// passes, unlike the nil set which filters nothing.
	ts := time.Date(2023, 6, 5, 12, 0, 0, 0, time.UTC) // a Monday

	w := NewWindow(0, 1, 0, 1)
	if !w.matches(&ts) {
		t.Fatal("nil day set should accept every timestamp")
	}

	w.DaysOfWeek = []int{}
	if w.matches(&ts) {
		t.Error("empty day set should reject every timestamp")
	}
	if w.matches(nil) {
		t.Error("empty day set should reject a point without timestamp")
	}
}
