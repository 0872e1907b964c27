// Package session keeps the per-login dashboard state (filters and layouts)
// in a pluggable store, and carries it through a request.
package session

import (
	"context"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is everything remembered between requests of one login.
type State struct {
	UserID                   uint                   `json:"user_id"`
	CompanyFilter            listing.CompanyMode    `json:"company_filter"`
	IndividualFilter         listing.IndividualMode `json:"individual_filter"`
	ArchivedCompanyFilter    listing.CompanyMode    `json:"archived_company_filter"`
	ArchivedIndividualFilter listing.IndividualMode `json:"archived_individual_filter"`
	CompanyLayout            listing.Layout         `json:"company_layout"`
	IndividualLayout         listing.Layout         `json:"individual_layout"`
}

// NewState is the state of a fresh login: every filter and layout at 1.
func NewState(userID uint) *State {
	return &State{
		UserID:                   userID,
		CompanyFilter:            listing.AllCompanies,
		IndividualFilter:         listing.AllIndividuals,
		ArchivedCompanyFilter:    listing.AllCompanies,
		ArchivedIndividualFilter: listing.AllIndividuals,
		CompanyLayout:            listing.CardLayout,
		IndividualLayout:         listing.CardLayout,
	}
}

// normalize resets any out-of-range value to 1.
func (s *State) normalize() {
	if !s.CompanyFilter.Valid() {
		s.CompanyFilter = listing.AllCompanies
	}
	if !s.IndividualFilter.Valid() {
		s.IndividualFilter = listing.AllIndividuals
	}
	if !s.ArchivedCompanyFilter.Valid() {
		s.ArchivedCompanyFilter = listing.AllCompanies
	}
	if !s.ArchivedIndividualFilter.Valid() {
		s.ArchivedIndividualFilter = listing.AllIndividuals
	}
	if !s.CompanyLayout.Valid() {
		s.CompanyLayout = listing.CardLayout
	}
	if !s.IndividualLayout.Valid() {
		s.IndividualLayout = listing.CardLayout
	}
}

// Store persists State by session id. Get returns e.ErrNotFound for an
// unknown or expired id.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, id string, state *State) error
	Delete(ctx context.Context, id string) error
}

// RequestContext is built once per authenticated request and passed
// explicitly to everything that needs the session.
type RequestContext struct {
	SessionID string
	User      *models.User
	State     *State
}

func (rc *RequestContext) IsStaff() bool {
	return rc != nil && rc.User != nil && rc.User.IsStaff
}

// Manager creates, mutates and ends sessions on top of a Store.
type Manager struct {
	store  Store
	logger *zap.Logger
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger.Named("session")}
}

// Start opens a session for userID with default state.
func (m *Manager) Start(ctx context.Context, userID uint) (string, *State, error) {
	id := uuid.NewString()
	state := NewState(userID)
	if err := m.store.Save(ctx, id, state); err != nil {
		return "", nil, fmt.Errorf("failed to start session: %w", err)
	}
	m.logger.Debug("session started", zap.Uint("user_id", userID))
	return id, state, nil
}

// Load returns the stored state for id.
func (m *Manager) Load(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, e.ErrNotFound
	}
	state, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state.normalize()
	return state, nil
}

// Update reads the state, applies mutate and writes it back. Concurrent
// updates are not serialised; the last write wins.
func (m *Manager) Update(ctx context.Context, id string, mutate func(*State)) (*State, error) {
	state, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	mutate(state)
	state.normalize()
	if err := m.store.Save(ctx, id, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

// End deletes the session and all state in it.
func (m *Manager) End(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}
