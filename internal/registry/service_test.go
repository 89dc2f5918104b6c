package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAppRepo struct {
	apps    map[string]App
	inserts int
}

func (r *fakeAppRepo) List(ctx context.Context, enabledOnly bool) ([]App, error) {
	var out []App
	for _, a := range r.apps {
		if enabledOnly && !a.Enabled {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAppRepo) InsertIfAbsent(ctx context.Context, app App) error {
	r.inserts++
	if r.apps == nil {
		r.apps = map[string]App{}
	}
	if _, exists := r.apps[app.Code]; exists {
		return nil
	}
	r.apps[app.Code] = app
	return nil
}

func (r *fakeAppRepo) SetEnabled(ctx context.Context, code string, enabled bool) error {
	a, ok := r.apps[code]
	if !ok {
		return nil
	}
	a.Enabled = enabled
	r.apps[code] = a
	return nil
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := &fakeAppRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaults(ctx))
	require.Len(t, repo.apps, len(DefaultApps))

	// Operator disables an app; re-seeding must not resurrect it.
	require.NoError(t, repo.SetEnabled(ctx, "crm", false))
	require.NoError(t, svc.SeedDefaults(ctx))
	require.False(t, repo.apps["crm"].Enabled)
}

func TestListReturnsEnabledOnly(t *testing.T) {
	repo := &fakeAppRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaults(ctx))
	require.NoError(t, repo.SetEnabled(ctx, "events", false))

	apps, err := svc.List(ctx)
	require.NoError(t, err)
	for _, a := range apps {
		require.True(t, a.Enabled)
		require.NotEqual(t, "events", a.Code)
	}

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(DefaultApps))
}
