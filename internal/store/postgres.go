package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry is one row of the append-only registration audit log.
type AuditEntry struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	VolunteerEmail string    `json:"volunteerEmail"`
	Outcome        string    `json:"outcome"`
	Remaining      int       `json:"remaining"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AuditStore records registration outcomes in PostgreSQL. Writes are
// best-effort from the workflow's point of view and never block a
// registration.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Migrate creates the audit table if it doesn't exist.
func (s *AuditStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS registration_audit (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			post_id         VARCHAR(64)  NOT NULL,
			volunteer_email VARCHAR(255) NOT NULL,
			outcome         VARCHAR(32)  NOT NULL,
			remaining       INTEGER      NOT NULL,
			created_at      TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

func (s *AuditStore) Record(ctx context.Context, postID, volunteerEmail, outcome string, remaining int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO registration_audit (post_id, volunteer_email, outcome, remaining)
		 VALUES ($1, $2, $3, $4)`,
		postID, volunteerEmail, outcome, remaining,
	)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func (s *AuditStore) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, post_id, volunteer_email, outcome, remaining, created_at
		 FROM registration_audit
		 ORDER BY created_at DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.PostID, &e.VolunteerEmail, &e.Outcome, &e.Remaining, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
