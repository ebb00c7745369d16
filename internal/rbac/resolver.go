package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// RoleRecord is the raw role data stored on a profile.
type RoleRecord struct {
	Primary string
	Roles   []string
}

// ProfileSource looks up the role data of a user. Implementations return
// ErrNoProfile when the user has no live profile.
type ProfileSource interface {
	LookupRole(ctx context.Context, userID int64) (RoleRecord, error)
}

// Resolution is the outcome of resolving the acting user's role. While
// Loading is set the role is unknown, not denied.
type Resolution struct {
	UserID  int64
	Role    Role
	Roles   []Role
	Loading bool
	Err     error
}

// Known reports whether the resolution settled on a role.
func (r Resolution) Known() bool {
	return !r.Loading && r.Err == nil && r.Role != ""
}

// Denied reports whether the resolution settled without a usable role.
func (r Resolution) Denied() bool {
	return !r.Loading && !r.Known()
}

// Resolver resolves roles from profiles, de-duplicating concurrent lookups of
// the same user and caching settled results.
type Resolver struct {
	source        ProfileSource
	cache         *RoleCache
	logger        *slog.Logger
	metrics       *ResolverMetrics
	lookupTimeout time.Duration
	group         singleflight.Group
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithRoleCache enables caching of resolved roles.
func WithRoleCache(cache *RoleCache) ResolverOption {
	return func(r *Resolver) { r.cache = cache }
}

// WithResolverLogger sets the logger used for cache failures.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// WithResolverMetrics enables lookup counters.
func WithResolverMetrics(metrics *ResolverMetrics) ResolverOption {
	return func(r *Resolver) { r.metrics = metrics }
}

// WithLookupTimeout bounds a single shared lookup. Callers waiting on it are
// bounded separately by their own context.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.lookupTimeout = d }
}

// NewResolver builds a Resolver over source.
func NewResolver(source ProfileSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source, lookupTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the role of userID. If ctx ends before the lookup settles
// the caller abandons the wait and receives a Loading resolution; the shared
// lookup keeps running for other callers.
func (r *Resolver) Resolve(ctx context.Context, userID int64) Resolution {
	if userID <= 0 {
		return Resolution{Err: ErrNoSession}
	}
	if r == nil || r.source == nil {
		return Resolution{UserID: userID, Err: errors.New("rbac: resolver not configured")}
	}
	if err := ctx.Err(); err != nil {
		return Resolution{UserID: userID, Loading: true}
	}
	ch := r.group.DoChan(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()
		return r.lookup(lookupCtx, userID)
	})
	select {
	case <-ctx.Done():
		r.metrics.observe("abandoned")
		return Resolution{UserID: userID, Loading: true}
	case res := <-ch:
		if res.Err != nil {
			return Resolution{UserID: userID, Err: res.Err}
		}
		entry := res.Val.(cachedRole)
		return Resolution{
			UserID: userID,
			Role:   entry.Role,
			Roles:  append([]Role(nil), entry.Roles...),
		}
	}
}

// Invalidate drops any cached role of userID.
func (r *Resolver) Invalidate(ctx context.Context, userID int64) error {
	if r == nil {
		return nil
	}
	return r.cache.Invalidate(ctx, userID)
}

func (r *Resolver) lookup(ctx context.Context, userID int64) (cachedRole, error) {
	entry, ok, err := r.cache.get(ctx, userID)
	if err != nil {
		r.log().Warn("role cache read", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	if ok {
		r.metrics.observe("cache_hit")
		return entry, nil
	}

	record, err := r.source.LookupRole(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			r.metrics.observe("no_profile")
			return cachedRole{}, ErrNoProfile
		}
		r.metrics.observe("error")
		return cachedRole{}, fmt.Errorf("rbac: lookup role: %w", err)
	}

	entry = normalizeRecord(record)
	if entry.Role == "" {
		r.metrics.observe("no_role")
		return cachedRole{}, ErrNoProfile
	}
	if !entry.Role.Known() {
		r.log().Warn("profile holds undeclared role", slog.Int64("user_id", userID), slog.String("role", string(entry.Role)))
	}
	if err := r.cache.set(ctx, userID, entry); err != nil {
		r.log().Warn("role cache write", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	r.metrics.observe("source")
	return entry, nil
}

func normalizeRecord(record RoleRecord) cachedRole {
	primary := NormalizeRole(record.Primary)
	aux := make([]Role, 0, len(record.Roles))
	for _, role := range NormalizeRoles(record.Roles) {
		if role == primary {
			continue
		}
		aux = append(aux, role)
	}
	return cachedRole{Role: primary, Roles: aux}
}

func (r *Resolver) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
