package tui

import (
	"context"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/core/services"
)

type mockSession struct {
	mode    domain.Mode
	results []domain.Result
	models  []string
	setTo   []domain.Mode
}

func (m *mockSession) ID() string { return "tui-test" }
func (m *mockSession) Mode() domain.Mode { return m.mode }
func (m *mockSession) PersistContext() bool { return false }
func (m *mockSession) SetMode(mode domain.Mode) {
	m.mode = mode
	m.setTo = append(m.setTo, mode)
}

func (m *mockSession) Ask(context.Context, string) ([]domain.Result, error) {
	return m.results, nil
}

func (m *mockSession) AskWith(context.Context, string, domain.Mode) ([]domain.Result, error) {
	return m.results, nil
}

func (m *mockSession) AskStream(context.Context, string) (driving.DeltaStream, error) {
	return nil, domain.ErrInvalidState
}

func (m *mockSession) ListModels(context.Context) ([]string, error) {
	return m.models, nil
}

func newTestPorts() (*Ports, *mockSession) {
	catalog := services.NewModeCatalogService(domain.DefaultAppSettings(), nil)
	session := &mockSession{mode: catalog.Chat()}
	return NewPorts(session, catalog), session
}
