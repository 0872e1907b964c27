package test

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/db"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const (
	kafkaBroker = "localhost:9092"
	topic       = "portfolio-events-test"
)

// IntegrationTestSuite runs the services against Postgres and Kafka from
// docker compose.
type IntegrationTestSuite struct {
	suite.Suite
	repo        *db.Repository
	producer    *events.Producer
	reader      *kafka.Reader
	companies   *controller.CompanyService
	investments *controller.InvestmentService
	testTimeout time.Duration
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	logger := zap.NewNop()
	s.testTimeout = 20 * time.Second

	repo, err := initializeDBWithRetry()
	if err != nil {
		s.T().Fatal("Database initialization failed:", err)
	}
	s.repo = repo

	s.producer, err = events.NewProducer([]string{kafkaBroker}, logger, topic)
	if err != nil {
		s.T().Fatal("Kafka producer initialization failed:", err)
	}
	s.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{kafkaBroker},
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	files := storage.NewLocalFileStorage(s.T().TempDir())
	s.companies = controller.NewCompanyService(s.repo, files, s.producer, logger)
	s.investments = controller.NewInvestmentService(s.repo, s.producer, logger)
}

func initializeDBWithRetry() (*db.Repository, error) {
	cfg := &db.Config{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		User:     "test",
		Password: "test",
		DBName:   "test",
		SSLMode:  "disable",
	}
	var repo *db.Repository
	err := backoff.Retry(func() error {
		var err error
		if repo, err = db.NewRepository(cfg); err != nil {
			return err
		}
		return repo.Ping(context.Background())
	}, backoff.NewExponentialBackOff())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return repo, repo.Migrate(ctx)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.reader != nil {
		_ = s.reader.Close()
	}
	if s.producer != nil {
		s.producer.Close()
	}
	if s.repo != nil {
		_ = s.repo.Close()
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()
	companies, err := s.repo.ListCompanies(ctx)
	s.Require().NoError(err)
	for _, c := range companies {
		s.Require().NoError(s.companies.DeleteCompany(ctx, c.ID))
	}
}

func (s *IntegrationTestSuite) createCompany(ctx context.Context, name string) *models.Company {
	c, err := s.companies.CreateCompany(ctx, models.CompanyInput{
		Name:              name,
		IncorporationDate: "2020-01-15",
	})
	s.Require().NoError(err)
	return c
}

func (s *IntegrationTestSuite) TestCompanyCreate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	created := s.createCompany(ctx, "Integration Company")
	assert.Equal(s.T(), "Integration Company", created.Name)
	s.verifyKafkaEvent(ctx, events.CompanyCreated, created.ID)
}

func (s *IntegrationTestSuite) TestCompanyArchive() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	created := s.createCompany(ctx, "Archived Company")
	s.Require().NoError(s.companies.SetArchived(ctx, created.ID, true))

	got, err := s.repo.GetCompany(ctx, created.ID)
	s.Require().NoError(err)
	assert.True(s.T(), got.IsArchived)
	s.verifyKafkaEvent(ctx, events.CompanyArchived, created.ID)
}

func (s *IntegrationTestSuite) TestCompanyDeleteCascades() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	investor := s.createCompany(ctx, "Investor Company")
	startup := s.createCompany(ctx, "Startup Company")
	inv, err := s.investments.CreateCompanyInvestor(ctx, controller.CompanyInvestorInput{
		CompanyID:      investor.ID,
		Classification: string(models.VentureCapital),
	})
	s.Require().NoError(err)
	pc, err := s.investments.CreatePortfolioCompany(ctx, models.PortfolioCompanyInput{
		ParentCompanyID: startup.ID,
		WayraNumber:     "WN-IT-1",
	})
	s.Require().NoError(err)
	investment, err := s.investments.CreateInvestment(ctx, models.InvestmentInput{
		InvestorID:   inv.ID,
		StartupID:    pc.ID,
		RoundType:    string(models.SeedRound),
		Amount:       "125000.50",
		DateInvested: "2023-03-01",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.companies.DeleteCompany(ctx, investor.ID))

	_, err = s.repo.GetCompany(ctx, investor.ID)
	assert.ErrorIs(s.T(), err, e.ErrNotFound)
	_, err = s.repo.GetInvestment(ctx, investment.ID)
	assert.ErrorIs(s.T(), err, e.ErrNotFound)
	s.verifyKafkaEvent(ctx, events.CompanyDeleted, investor.ID)
}

func (s *IntegrationTestSuite) TestConcurrentRolesAdmitOne() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	company := s.createCompany(ctx, "Contested Company")
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = s.investments.CreatePortfolioCompany(ctx, models.PortfolioCompanyInput{
			ParentCompanyID: company.ID,
			WayraNumber:     "WN-IT-C",
		})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = s.investments.CreateCompanyInvestor(ctx, controller.CompanyInvestorInput{
			CompanyID:      company.ID,
			Classification: string(models.VentureCapital),
		})
	}()
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(s.T(), err, e.ErrInvalidInput)
			failed++
		}
	}
	assert.Equal(s.T(), 1, failed)
}

// verifyKafkaEvent reads until it sees the event keyed for id.
func (s *IntegrationTestSuite) verifyKafkaEvent(ctx context.Context, eventType events.EventType, id uint) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	want := fmt.Sprintf("%s:%s", eventType, strconv.FormatUint(uint64(id), 10))
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			s.T().Fatalf("no %s event received: %v", eventType, err)
		}
		if string(msg.Key) != want {
			s.T().Logf("Skipping message with key %s", msg.Key)
			continue
		}
		var event events.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			s.T().Fatalf("Failed to unmarshal Kafka message: %v", err)
		}
		assert.Equal(s.T(), eventType, event.Type)
		assert.Equal(s.T(), id, event.EntityID)
		return
	}
}
