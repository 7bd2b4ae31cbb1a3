package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Grant is an explicit permission entry for a player. Allow false marks a
// denial.
type Grant struct {
	Subject uuid.UUID
	Name    string
	Node    string
	Allow   bool
}

// SetGrant stores or replaces the entry for subject and node.
func (s *Store) SetGrant(ctx context.Context, g Grant) error {
	node := strings.ToLower(strings.TrimSpace(g.Node))
	if node == "" {
		return fmt.Errorf("set grant: empty node")
	}
	allow := 0
	if g.Allow {
		allow = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grants(subject,name,node,allow,updated_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(subject,node) DO UPDATE SET name=excluded.name, allow=excluded.allow, updated_at=excluded.updated_at`,
		subjectKey(g.Subject), g.Name, node, allow, now())
	if err != nil {
		return fmt.Errorf("set grant: %w", err)
	}
	return nil
}

// DeleteGrant removes the entry for subject and node. It reports whether an
// entry existed.
func (s *Store) DeleteGrant(ctx context.Context, subject uuid.UUID, node string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grants WHERE subject=? AND node=?`,
		subjectKey(subject), strings.ToLower(strings.TrimSpace(node)))
	if err != nil {
		return false, fmt.Errorf("delete grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete grant: %w", err)
	}
	return n > 0, nil
}

// Grants returns all entries for subject ordered by node.
func (s *Store) Grants(ctx context.Context, subject uuid.UUID) ([]Grant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,node,allow FROM grants WHERE subject=? ORDER BY node`, subjectKey(subject))
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		g := Grant{Subject: subject}
		var allow int
		if err := rows.Scan(&g.Name, &g.Node, &allow); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		g.Allow = allow != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// SubjectByName returns the UUID of the most recently updated entry recorded
// under the case-insensitive player name.
func (s *Store) SubjectByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT subject FROM grants WHERE lower(name)=lower(?) ORDER BY updated_at DESC LIMIT 1`, name).Scan(&raw)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("query subject: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("parse subject: %w", err)
	}
	return id, true, nil
}
