package registry

import "context"

// Service exposes registry reads and startup seeding.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SeedDefaults applies the bootstrap list idempotently. Called once at
// startup; existing rows, including operator-disabled apps, are untouched.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, app := range DefaultApps {
		if err := s.repo.InsertIfAbsent(ctx, app); err != nil {
			return err
		}
	}
	return nil
}

// List returns enabled apps for dashboards.
func (s *Service) List(ctx context.Context) ([]App, error) {
	return s.repo.List(ctx, true)
}

// ListAll returns every registered app, including disabled ones.
func (s *Service) ListAll(ctx context.Context) ([]App, error) {
	return s.repo.List(ctx, false)
}

// SetEnabled toggles an app's dashboard visibility.
func (s *Service) SetEnabled(ctx context.Context, code string, enabled bool) error {
	return s.repo.SetEnabled(ctx, code, enabled)
}
