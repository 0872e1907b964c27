package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/gartstein/vcpms/internal/portfolio/config"
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/db"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/seed"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vcpmsctl",
	Short: "Administration tool for the portfolio management service",
	Long: `vcpmsctl runs maintenance tasks against the database configured for the
portfolio service: schema migration, demo data and superuser accounts.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file (default $VCPMS_CONFIG or config/config.yaml)")
}

// env is what every command works with. close releases it.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *db.Repository
	producer events.Publisher
	close    func()
}

func openEnv(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	repo, err := db.NewRepository(cfg.Database())
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
	}

	var producer events.Publisher = events.NopProducer{}
	closeProducer := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Warn("Kafka unavailable, lifecycle events are dropped", zap.Error(err))
		} else {
			producer, closeProducer = p, p.Close
		}
	}
	return &env{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		producer: producer,
		close: func() {
			closeProducer()
			_ = repo.Close()
			_ = logger.Sync()
		},
	}, nil
}

func (e *env) adminService() *controller.AdminService {
	return controller.NewAdminService(e.repo, e.producer, e.logger, e.cfg.AdminPageSize)
}

func (e *env) seeder() *seed.Seeder {
	files := storage.NewLocalFileStorage(e.cfg.MediaRoot)
	return seed.NewSeeder(e.repo, seed.Services{
		Admin:       e.adminService(),
		Companies:   controller.NewCompanyService(e.repo, files, e.producer, e.logger),
		Individuals: controller.NewIndividualService(e.repo, files, e.producer, e.logger),
		Investments: controller.NewInvestmentService(e.repo, e.producer, e.logger),
		Founders:    controller.NewFounderService(e.repo, e.producer, e.logger),
		Programmes:  controller.NewProgrammeService(e.repo, files, e.producer, e.logger),
		Documents:   controller.NewDocumentService(e.repo, files, e.producer, e.logger),
	}, e.logger)
}
