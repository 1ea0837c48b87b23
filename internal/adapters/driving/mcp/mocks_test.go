package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/core/services"
)

type mockSessionService struct {
	mu      sync.Mutex
	mode    domain.Mode
	results []domain.Result
	// next replaces mode right after Mode is read, as a concurrent set_mode would.
	next    *domain.Mode
	models  []string
	err     error

	asked    []string
	askedIn  []domain.Mode
	setModes []domain.Mode
}

func (m *mockSessionService) ID() string { return "session-1" }

func (m *mockSessionService) Mode() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode := m.mode
	if m.next != nil {
		m.mode, m.next = *m.next, nil
	}
	return mode
}

func (m *mockSessionService) SetMode(mode domain.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.setModes = append(m.setModes, mode)
}

func (m *mockSessionService) PersistContext() bool { return false }

func (m *mockSessionService) Ask(ctx context.Context, content string) ([]domain.Result, error) {
	return m.AskWith(ctx, content, m.Mode())
}

func (m *mockSessionService) AskWith(_ context.Context, content string, mode domain.Mode) ([]domain.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked = append(m.asked, content)
	m.askedIn = append(m.askedIn, mode)
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockSessionService) AskStream(context.Context, string) (driving.DeltaStream, error) {
	return nil, domain.ErrInvalidState
}

func (m *mockSessionService) ListModels(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.models, nil
}

func newCatalog() *services.ModeCatalogService {
	return services.NewModeCatalogService(domain.DefaultAppSettings(), nil)
}

func newTestServer(session *mockSessionService, settings driving.SettingsService) (*Server, *services.ModeCatalogService, error) {
	catalog := newCatalog()
	if session.mode.IsZero() {
		session.mode = catalog.Chat()
	}
	server, err := NewServer(&Ports{Session: session, Modes: catalog, Settings: settings})
	return server, catalog, err
}
