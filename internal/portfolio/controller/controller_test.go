package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gartstein/vcpms/internal/portfolio/db"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/session"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// RecordingProducer keeps every produced event for assertions.
type RecordingProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingProducer) Produce(eventType events.EventType, id uint, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events.Event{Type: eventType, EntityID: id, Payload: payload})
}

func (p *RecordingProducer) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// MockRepository overrides single Repository methods; everything else goes
// to the embedded implementation.
type MockRepository struct {
	Repository
	DeleteDocumentFunc func(ctx context.Context, id uint) error
	CreateCompanyFunc  func(ctx context.Context, company *models.Company) error
}

func (m *MockRepository) DeleteDocument(ctx context.Context, id uint) error {
	if m.DeleteDocumentFunc != nil {
		return m.DeleteDocumentFunc(ctx, id)
	}
	return m.Repository.DeleteDocument(ctx, id)
}

func (m *MockRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	if m.CreateCompanyFunc != nil {
		return m.CreateCompanyFunc(ctx, company)
	}
	return m.Repository.CreateCompany(ctx, company)
}

// env wires every service against a migrated in-memory database and a
// temporary media root.
type env struct {
	repo     *db.Repository
	files    *storage.LocalFileStorage
	producer *RecordingProducer
	sessions *session.Manager

	companies   *CompanyService
	individuals *IndividualService
	documents   *DocumentService
	investments *InvestmentService
	founders    *FounderService
	programmes  *ProgrammeService
	accounts    *AccountService
	admin       *AdminService
	dashboard   *DashboardService
}

var userSeq atomic.Int64

var testToday = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

func setupEnv(t *testing.T) *env {
	t.Helper()
	repo, err := db.NewRepository(&db.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })

	logger := zaptest.NewLogger(t)
	files := storage.NewLocalFileStorage(t.TempDir())
	producer := &RecordingProducer{}
	sessions := session.NewManager(session.NewMemoryStore(), logger)

	ev := &env{
		repo:        repo,
		files:       files,
		producer:    producer,
		sessions:    sessions,
		companies:   NewCompanyService(repo, files, producer, logger),
		individuals: NewIndividualService(repo, files, producer, logger),
		documents:   NewDocumentService(repo, files, producer, logger),
		investments: NewInvestmentService(repo, producer, logger),
		founders:    NewFounderService(repo, producer, logger),
		programmes:  NewProgrammeService(repo, files, producer, logger),
		accounts:    NewAccountService(repo, files, sessions, "test-secret", time.Hour, producer, logger),
		admin:       NewAdminService(repo, producer, logger, 2),
		dashboard:   NewDashboardService(repo, sessions, logger),
	}
	ev.companies.now = fixedClock
	ev.investments.now = fixedClock
	ev.accounts.now = fixedClock
	return ev
}

func (ev *env) company(t *testing.T, name string) *models.Company {
	t.Helper()
	c, err := ev.companies.CreateCompany(context.Background(), models.CompanyInput{Name: name})
	require.NoError(t, err)
	return c
}

func (ev *env) individual(t *testing.T, name string) *models.Individual {
	t.Helper()
	ind, err := ev.individuals.CreateIndividual(context.Background(), IndividualForm{
		Individual: models.IndividualInput{Name: name, Email: "someone@example.com", PrimaryNumber: "+447400123456"},
	})
	require.NoError(t, err)
	return ind
}

func (ev *env) programmeInput(t *testing.T, name string, cohort int) models.ProgrammeInput {
	t.Helper()
	n := userSeq.Add(1)
	partner := ev.company(t, fmt.Sprintf("Partner %d", n))
	participant := ev.company(t, fmt.Sprintf("Participant %d", n))
	coach := ev.individual(t, "Coach")
	return models.ProgrammeInput{
		Name:           name,
		Cohort:         cohort,
		Partners:       []uint{partner.ID},
		Participants:   []uint{participant.ID},
		CoachesMentors: []uint{coach.ID},
	}
}

func (ev *env) programme(t *testing.T, name string, cohort int) *models.Programme {
	t.Helper()
	p, err := ev.programmes.CreateProgramme(context.Background(), ev.programmeInput(t, name, cohort), nil)
	require.NoError(t, err)
	return p
}

// requestContext logs a user in and returns what the middleware would build.
func (ev *env) requestContext(t *testing.T, staff bool) *session.RequestContext {
	t.Helper()
	user := &models.User{
		Email:     fmt.Sprintf("user%d@example.com", userSeq.Add(1)),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "07123456789",
		IsActive:  true,
		IsStaff:   staff,
	}
	require.NoError(t, ev.repo.CreateUser(context.Background(), user, nil))
	id, st, err := ev.sessions.Start(context.Background(), user.ID)
	require.NoError(t, err)
	return &session.RequestContext{SessionID: id, User: user, State: st}
}
