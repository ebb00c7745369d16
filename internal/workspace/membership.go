package workspace

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Membership reads business membership from PostgreSQL.
type Membership struct {
	pool *pgxpool.Pool
}

// NewMembership constructs a Membership.
func NewMembership(pool *pgxpool.Pool) *Membership {
	return &Membership{pool: pool}
}

// IsMember reports whether userID belongs to businessID.
func (m *Membership) IsMember(ctx context.Context, userID, businessID int64) (bool, error) {
	var ok bool
	err := m.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM business_members bm
			JOIN businesses b ON b.id = bm.business_id
			WHERE bm.user_id = $1 AND bm.business_id = $2 AND b.deleted_at IS NULL
		)`, userID, businessID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("workspace: membership: %w", err)
	}
	return ok, nil
}

// ListBusinesses returns the live businesses userID belongs to, by name.
func (m *Membership) ListBusinesses(ctx context.Context, userID int64) ([]Business, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT b.id, b.name, bm.role FROM business_members bm
		 JOIN businesses b ON b.id = bm.business_id
		 WHERE bm.user_id = $1 AND b.deleted_at IS NULL
		 ORDER BY b.name, b.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("workspace: list businesses: %w", err)
	}
	defer rows.Close()
	var out []Business
	for rows.Next() {
		var b Business
		if err := rows.Scan(&b.ID, &b.Name, &b.Role); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
