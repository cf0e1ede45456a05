// Package session owns the authenticated-identity lifecycle: sign-in through
// an external provider, persistence, restore at startup and sign-out.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/storage"
)

// Provider runs one external authorization exchange.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	Authorize(ctx context.Context) (Outcome, error)
}

type Manager struct {
	store  storage.Store
	logger *log.Logger

	mu       sync.RWMutex
	identity core.Identity
}

func NewManager(store storage.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Manager{
		store:  store,
		logger: logger.WithComponent(log.ComponentSession),
	}
}

// Current returns the in-memory identity and whether someone is signed in.
func (m *Manager) Current() (core.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, !m.identity.IsZero()
}

// SignIn runs p's exchange and persists the resulting identity before making
// it current. On any failure the current identity is left as it was.
func (m *Manager) SignIn(ctx context.Context, p Provider) (core.Identity, error) {
	fields := log.NewFields().WithOperation(log.OpSignIn).WithProvider(p.Name())

	outcome, err := p.Authorize(ctx)
	if err != nil {
		err = classifyProviderError(ctx, err)
		m.logAuthFailure(ctx, err, fields)
		return core.Identity{}, err
	}

	id, err := Normalize(outcome)
	if err != nil {
		m.logAuthFailure(ctx, err, fields)
		return core.Identity{}, err
	}

	blob, err := json.Marshal(id)
	if err != nil {
		return core.Identity{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := m.store.Set(ctx, storage.SessionKey, string(blob)); err != nil {
		err = fmt.Errorf("%w: persist identity: %w", core.ErrStorageUnavailable, err)
		m.logger.Fields(ctx, slog.LevelError, "Failed to persist identity",
			fields.WithIdentity(id.ID).WithError(err).WithErrorKind(core.KindOf(err)))
		return core.Identity{}, err
	}

	m.mu.Lock()
	m.identity = id
	m.mu.Unlock()

	m.logger.Fields(ctx, slog.LevelInfo, "Signed in", fields.WithIdentity(id.ID))
	return id, nil
}

// RestoreSession loads the persisted identity, if any. It never fails: a
// missing, unreadable or corrupt entry leaves the manager signed out.
func (m *Manager) RestoreSession(ctx context.Context) core.Identity {
	fields := log.NewFields().WithOperation(log.OpRestore)

	var id core.Identity
	blob, ok, err := m.store.Get(ctx, storage.SessionKey)
	switch {
	case err != nil:
		m.logger.Fields(ctx, slog.LevelWarn, "Could not read persisted identity, starting signed out",
			fields.WithError(err).WithErrorKind(core.KindStorageUnavailable))
	case !ok:
		m.logger.Fields(ctx, slog.LevelDebug, "No persisted identity", fields)
	default:
		if err := json.Unmarshal([]byte(blob), &id); err != nil {
			m.logger.Fields(ctx, slog.LevelWarn, "Persisted identity is corrupt, starting signed out", fields.WithError(err))
			id = core.Identity{}
		}
	}

	m.mu.Lock()
	m.identity = id
	m.mu.Unlock()

	if !id.IsZero() {
		m.logger.Fields(ctx, slog.LevelInfo, "Session restored", fields.WithIdentity(id.ID))
	}
	return id
}

// SignOut removes the persisted identity and then clears memory. Calling it
// while signed out is a no-op apart from the storage delete.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.store.Remove(ctx, storage.SessionKey); err != nil {
		err = fmt.Errorf("%w: remove identity: %w", core.ErrStorageUnavailable, err)
		m.logger.Fields(ctx, slog.LevelError, "Failed to remove persisted identity",
			log.NewFields().WithOperation(log.OpSignOut).WithError(err))
		return err
	}

	m.mu.Lock()
	previous := m.identity
	m.identity = core.Identity{}
	m.mu.Unlock()

	m.logger.Fields(ctx, slog.LevelInfo, "Signed out",
		log.NewFields().WithOperation(log.OpSignOut).WithIdentity(previous.ID))
	return nil
}

func (m *Manager) logAuthFailure(ctx context.Context, err error, fields log.LogFields) {
	fields = fields.WithError(err).WithErrorKind(core.KindOf(err))
	if errors.Is(err, core.ErrAuthCancelled) {
		m.logger.Fields(ctx, slog.LevelInfo, "Sign-in cancelled", fields)
		return
	}
	m.logger.Fields(ctx, slog.LevelWarn, "Sign-in failed", fields)
}

// classifyProviderError makes sure every provider error lands in the auth
// part of the taxonomy.
func classifyProviderError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, core.ErrAuthCancelled), errors.Is(err, core.ErrAuthExchangeFailed):
		return err
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		return fmt.Errorf("%w: %w", core.ErrAuthCancelled, err)
	}
	return fmt.Errorf("%w: %w", core.ErrAuthExchangeFailed, err)
}
