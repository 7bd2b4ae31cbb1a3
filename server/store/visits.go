package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visit is a single teleport of a player into an era.
type Visit struct {
	Player uuid.UUID
	Name   string
	Era    int
	At     time.Time
}

// RecordVisit queues v for writing. Visits are dropped when the writer falls
// behind or the store is closed.
func (s *Store) RecordVisit(v Visit) {
	if s == nil {
		return
	}
	if v.At.IsZero() {
		v.At = time.Now()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- v:
	default:
		s.log.Warn("Visit queue full, dropping visit.", "player", v.Name, "era", v.Era)
	}
}

// VisitCounts returns the number of recorded visits per era.
func (s *Store) VisitCounts(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT era, COUNT(*) FROM visits GROUP BY era`)
	if err != nil {
		return nil, fmt.Errorf("query visit counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var era, n int
		if err := rows.Scan(&era, &n); err != nil {
			return nil, fmt.Errorf("scan visit count: %w", err)
		}
		counts[era] = n
	}
	return counts, rows.Err()
}

// PlayerVisits returns the visits of a player, newest first.
func (s *Store) PlayerVisits(ctx context.Context, id uuid.UUID) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, era, at FROM visits WHERE player=? ORDER BY id DESC`, subjectKey(id))
	if err != nil {
		return nil, fmt.Errorf("query player visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		v := Visit{Player: id}
		var at string
		if err := rows.Scan(&v.Name, &v.Era, &at); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.At = parseTime(at)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) loop() {
	ctx := context.Background()
	insert, err := s.db.Prepare(`INSERT INTO visits(player,name,era,at) VALUES(?,?,?,?)`)
	if err != nil {
		s.log.Error("Prepare visit insert.", "error", err)
		for range s.ch {
		}
		return
	}
	defer insert.Close()

	for v := range s.ch {
		if _, err := insert.ExecContext(ctx, subjectKey(v.Player), v.Name, v.Era, v.At.UTC().Format(time.RFC3339Nano)); err != nil {
			s.log.Error("Write visit.", "error", err, "player", v.Name, "era", v.Era)
		}
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
