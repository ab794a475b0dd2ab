package core

import (
	"context"
	"fmt"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/records"
	"plantkeeper/internal/scope"
)

// Whoami describes the active identity without exposing credentials.
type Whoami struct {
	Namespace     scope.Namespace
	Authenticated bool
	UserID        string
}

// SignIn consumes a session from the auth layer, persists it when a session
// file is configured, and reloads every collection for the new namespace.
func (a *App) SignIn(ctx context.Context, s scope.Session) (records.RefreshSummary, error) {
	if s.AccessToken == "" {
		return records.RefreshSummary{}, fmt.Errorf("session has no access token")
	}
	if a.session.Path != "" {
		if err := a.session.Save(s); err != nil {
			return records.RefreshSummary{}, fmt.Errorf("failed to persist session: %w", err)
		}
	}
	a.Resolver.SetSession(&s)
	logging.Core("signed in as %s", a.Resolver.Namespace())
	return a.Store.RefreshAll(ctx), nil
}

// SignOut drops the session and falls back to the guest identity.
func (a *App) SignOut(ctx context.Context) (records.RefreshSummary, error) {
	if a.session.Path != "" {
		if err := a.session.Clear(); err != nil {
			return records.RefreshSummary{}, fmt.Errorf("failed to clear session: %w", err)
		}
	}
	a.Resolver.ClearSession()
	logging.Core("signed out")
	return a.Store.RefreshAll(ctx), nil
}

// Whoami resolves the active identity.
func (a *App) Whoami(ctx context.Context) Whoami {
	id := a.Resolver.Resolve(ctx)
	return Whoami{
		Namespace:     id.Namespace(),
		Authenticated: id.Authenticated(),
		UserID:        id.UserID,
	}
}

// Sync refreshes every collection from the backend.
func (a *App) Sync(ctx context.Context) records.RefreshSummary {
	return a.Store.RefreshAll(ctx)
}
