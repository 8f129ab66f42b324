package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// CheckRecord is one ticket-check result, unique per bus per calendar day.
type CheckRecord struct {
	BusNo            string    `db:"bus_no" json:"busNo"`
	RouteNo          string    `db:"route_no" json:"routeNo"`
	Checked          bool      `db:"checked" json:"checked"`
	NonTicketHolders int       `db:"non_ticket_holders" json:"nonTicketHolders"`
	FineCollected    float64   `db:"fine_collected" json:"fineCollected"`
	CheckDate        string    `db:"check_date" json:"checkDate"`
	CheckedAt        time.Time `db:"checked_at" json:"checkedAt"`
}

// AttendanceRecord is one conductor attendance entry; no dedup.
type AttendanceRecord struct {
	BusNo         string    `db:"bus_no" json:"busNo"`
	ConductorName string    `db:"conductor_name" json:"conductorName"`
	RecordedAt    time.Time `db:"recorded_at" json:"recordedAt"`
}

// RecordStore is the durable store for write-back records. The live-feed
// pipeline never touches it.
type RecordStore interface {
	UpsertCheck(ctx context.Context, rec CheckRecord) (CheckRecord, error)
	InsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
}

type PostgresStore struct {
	db *sqlx.DB
}

// connectStore dials Postgres with a fixed backoff up to the configured
// attempt budget. Callers treat a final failure as fatal: the service is
// useless without persistence even though the feed pipeline does not
// depend on it.
func connectStore(cfg DatabaseConfig) (*PostgresStore, error) {
	var db *sqlx.DB
	var err error
	for i := 0; i < cfg.ConnectAttempts; i++ {
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			break
		}
		log.Printf("waiting for database (%d/%d): %v", i+1, cfg.ConnectAttempts, err)
		time.Sleep(cfg.ConnectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	log.Printf("connected to postgres at %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS bus_checks (
	bus_no             TEXT NOT NULL,
	route_no           TEXT NOT NULL,
	checked            BOOLEAN NOT NULL DEFAULT TRUE,
	non_ticket_holders INTEGER NOT NULL,
	fine_collected     DOUBLE PRECISION NOT NULL,
	check_date         DATE NOT NULL,
	checked_at         TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (bus_no, check_date)
);
CREATE TABLE IF NOT EXISTS bus_attendance (
	id             BIGSERIAL PRIMARY KEY,
	bus_no         TEXT NOT NULL,
	conductor_name TEXT NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL
);`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertCheck writes one check record per bus per calendar day. The day
// boundary is the process-local midnight, passed in as rec.CheckDate.
func (s *PostgresStore) UpsertCheck(ctx context.Context, rec CheckRecord) (CheckRecord, error) {
	const q = `
INSERT INTO bus_checks (bus_no, route_no, checked, non_ticket_holders, fine_collected, check_date, checked_at)
VALUES ($1, $2, TRUE, $3, $4, $5, $6)
ON CONFLICT (bus_no, check_date) DO UPDATE SET
	route_no = EXCLUDED.route_no,
	checked = TRUE,
	non_ticket_holders = EXCLUDED.non_ticket_holders,
	fine_collected = EXCLUDED.fine_collected,
	checked_at = EXCLUDED.checked_at`
	_, err := s.db.ExecContext(ctx, q,
		rec.BusNo, rec.RouteNo, rec.NonTicketHolders, rec.FineCollected, rec.CheckDate, rec.CheckedAt)
	if err != nil {
		return CheckRecord{}, err
	}
	rec.Checked = true
	return rec, nil
}

func (s *PostgresStore) InsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	const q = `
INSERT INTO bus_attendance (bus_no, conductor_name, recorded_at)
VALUES ($1, $2, $3)`
	_, err := s.db.ExecContext(ctx, q, rec.BusNo, rec.ConductorName, rec.RecordedAt)
	if err != nil {
		return AttendanceRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// isStorageUnavailable reports whether a store error means the persistence
// layer cannot be reached, as opposed to a query-level failure.
func isStorageUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// localCheckDate formats the calendar-day key for check upserts.
func localCheckDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
