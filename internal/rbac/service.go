package rbac

import "context"

// Service answers role questions for the middleware and admin handlers.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RoleFor resolves the subject's role within an app. Absent grants resolve
// to RoleNone rather than an error.
func (s *Service) RoleFor(ctx context.Context, userID int64, appCode string) (Role, error) {
	role, found, err := s.repo.Get(ctx, userID, appCode)
	if err != nil {
		return RoleNone, err
	}
	if !found {
		return RoleNone, nil
	}
	return role, nil
}

// Allowed reports whether the subject holds at least min within the app.
func (s *Service) Allowed(ctx context.Context, userID int64, appCode string, min Role) (bool, error) {
	role, err := s.RoleFor(ctx, userID, appCode)
	if err != nil {
		return false, err
	}
	return role.AtLeast(min), nil
}

// Assign sets the subject's role within an app, replacing any prior grant.
func (s *Service) Assign(ctx context.Context, userID int64, appCode string, role Role) error {
	return s.repo.Upsert(ctx, userID, appCode, role)
}

// GrantsFor lists every grant the subject holds.
func (s *Service) GrantsFor(ctx context.Context, userID int64) ([]Grant, error) {
	return s.repo.ListForUser(ctx, userID)
}
