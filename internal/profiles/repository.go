package profiles

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizos/bizos/internal/platform/db"
	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	GetProfile(ctx context.Context, userID int64) (Profile, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (before Profile, after Profile, err error)
	ListUnknownRoles(ctx context.Context, known func(rbac.Role) bool) ([]RoleCount, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `user_id, primary_role, roles, display_name, language, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var (
		p       Profile
		primary string
		roles   []string
	)
	if err := row.Scan(&p.UserID, &primary, &roles, &p.DisplayName, &p.Language, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
		return Profile{}, err
	}
	p.PrimaryRole = rbac.NormalizeRole(primary)
	p.Roles = rbac.NormalizeRoles(roles)
	return p, nil
}

// GetProfile returns the live profile of userID.
func (r *Repository) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 AND deleted_at IS NULL`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, fmt.Errorf("profiles: get profile: %w", err)
	}
	return p, nil
}

// LookupRole returns the raw role data of userID for the role resolver.
func (r *Repository) LookupRole(ctx context.Context, userID int64) (rbac.RoleRecord, error) {
	var record rbac.RoleRecord
	err := r.pool.QueryRow(ctx,
		`SELECT primary_role, roles FROM profiles WHERE user_id = $1 AND deleted_at IS NULL`, userID,
	).Scan(&record.Primary, &record.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rbac.RoleRecord{}, rbac.ErrNoProfile
		}
		return rbac.RoleRecord{}, err
	}
	return record, nil
}

// UpdateProfile applies input to the live profile of userID and returns the
// row before and after the change.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (Profile, Profile, error) {
	var before, after Profile
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		before, err = scanProfile(tx.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 AND deleted_at IS NULL FOR UPDATE`, userID))
		if err != nil {
			return err
		}
		after, err = scanProfile(tx.QueryRow(ctx,
			`UPDATE profiles SET display_name = $2, language = $3, updated_at = NOW()
			 WHERE user_id = $1 RETURNING `+profileColumns,
			userID, input.DisplayName, input.Language))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, Profile{}, shared.ErrNotFound
		}
		return Profile{}, Profile{}, fmt.Errorf("profiles: update profile: %w", err)
	}
	return before, after, nil
}

// ListUnknownRoles counts live profiles whose primary role is not known.
// Stored values are normalized before the check.
func (r *Repository) ListUnknownRoles(ctx context.Context, known func(rbac.Role) bool) ([]RoleCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT primary_role, COUNT(*) FROM profiles WHERE deleted_at IS NULL GROUP BY primary_role`)
	if err != nil {
		return nil, fmt.Errorf("profiles: count roles: %w", err)
	}
	defer rows.Close()

	counts := make(map[rbac.Role]int)
	for rows.Next() {
		var (
			raw   string
			count int
		)
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, err
		}
		counts[rbac.NormalizeRole(raw)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return unknownRoles(counts, known), nil
}

func unknownRoles(counts map[rbac.Role]int, known func(rbac.Role) bool) []RoleCount {
	var out []RoleCount
	for role, count := range counts {
		if known(role) {
			continue
		}
		out = append(out, RoleCount{Role: role, Profiles: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

var (
	_ RepositoryPort     = (*Repository)(nil)
	_ rbac.ProfileSource = (*Repository)(nil)
)
