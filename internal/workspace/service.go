package workspace

import (
	"context"
	"time"
)

// MembershipPort answers membership questions.
type MembershipPort interface {
	IsMember(ctx context.Context, userID, businessID int64) (bool, error)
	ListBusinesses(ctx context.Context, userID int64) ([]Business, error)
}

// SelectionStore persists selections.
type SelectionStore interface {
	Load(ctx context.Context, userID int64) (Selection, error)
	Save(ctx context.Context, sel Selection) error
	Clear(ctx context.Context, userID int64) error
}

// Service selects and reads the active business of a user.
type Service struct {
	store   SelectionStore
	members MembershipPort
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(store SelectionStore, members MembershipPort) *Service {
	return &Service{store: store, members: members, now: time.Now}
}

// Current returns the saved selection. A selection pointing at a business the
// user no longer belongs to is cleared and reported as ErrNoSelection.
func (s *Service) Current(ctx context.Context, userID int64) (Selection, error) {
	sel, err := s.store.Load(ctx, userID)
	if err != nil {
		return Selection{}, err
	}
	ok, err := s.members.IsMember(ctx, userID, sel.BusinessID)
	if err != nil {
		return Selection{}, err
	}
	if !ok {
		if err := s.store.Clear(ctx, userID); err != nil {
			return Selection{}, err
		}
		return Selection{}, ErrNoSelection
	}
	return sel, nil
}

// Select saves businessID as the active business of userID.
func (s *Service) Select(ctx context.Context, userID, businessID int64) (Selection, error) {
	ok, err := s.members.IsMember(ctx, userID, businessID)
	if err != nil {
		return Selection{}, err
	}
	if !ok {
		return Selection{}, ErrNotMember
	}
	sel := Selection{UserID: userID, BusinessID: businessID, UpdatedAt: s.now().UTC()}
	if err := s.store.Save(ctx, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Businesses lists the businesses of userID.
func (s *Service) Businesses(ctx context.Context, userID int64) ([]Business, error) {
	return s.members.ListBusinesses(ctx, userID)
}

// Clear forgets the selection of userID.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.store.Clear(ctx, userID)
}
