package app

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/medtriage/pkg/common/config"
	"github.com/synaptica-ai/medtriage/pkg/common/database"
	"github.com/synaptica-ai/medtriage/pkg/common/kafka"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
	"github.com/synaptica-ai/medtriage/pkg/gateway/routes"
	"github.com/synaptica-ai/medtriage/pkg/identity"
	"github.com/synaptica-ai/medtriage/pkg/patient"
	"github.com/synaptica-ai/medtriage/pkg/serving"
	"github.com/synaptica-ai/medtriage/pkg/serving/predictor"
	"github.com/synaptica-ai/medtriage/pkg/storage"
	"github.com/synaptica-ai/medtriage/pkg/triage"
)

// App holds the wired components shared by the service binaries.
type App struct {
	Config       *config.Config
	Model        *predictor.Model
	Engine       *triage.Engine
	Patients     *patient.Service
	Clinicians   *identity.Service
	Analyses     *serving.Repository
	HealthChecks map[string]routes.Pinger

	closers []func() error
}

// LoadEngine loads the model artifact and routing table. Any failure
// wraps predictor.ErrModelUnavailable or a routing error and should stop
// the process.
func LoadEngine(cfg *config.Config) (*triage.Engine, *predictor.Model, error) {
	model, err := predictor.Load(cfg.ModelArtifactPath)
	if err != nil {
		return nil, nil, err
	}
	router, err := triage.LoadRouter(cfg.RoutingTablePath)
	if err != nil {
		return nil, nil, err
	}
	engine, err := triage.NewEngineFromModel(model, router)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.WithFields(map[string]interface{}{
		"model":   model.Name(),
		"version": model.Version(),
		"path":    cfg.ModelArtifactPath,
	}).Info("triage model loaded")
	return engine, model, nil
}

// New builds every component selected by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	engine, model, err := LoadEngine(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Model:        model,
		Engine:       engine,
		HealthChecks: make(map[string]routes.Pinger),
	}
	deps := patient.Dependencies{Engine: engine}

	var clinicianStore identity.Store
	switch cfg.StoreBackend {
	case "memory":
		deps.Store = patient.NewMemoryStore()
		clinicianStore = identity.NewMemoryStore()
		logger.Log.Warn("using in-memory stores; records are lost on restart")
	case "postgres":
		db, err := database.GetPostgres()
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		patients := patient.NewRepository(db)
		clinicians := identity.NewRepository(db)
		analyses := serving.NewRepository(db, model.Name(), model.Version())
		for _, migrate := range []func() error{patients.AutoMigrate, clinicians.AutoMigrate, analyses.AutoMigrate} {
			if err := migrate(); err != nil {
				return nil, fmt.Errorf("migrating tables: %w", err)
			}
		}
		deps.Store = patients
		deps.Recorder = analyses
		clinicianStore = clinicians
		a.Analyses = analyses
		a.HealthChecks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
		a.closers = append(a.closers, database.ClosePostgres)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.AllocatorBackend {
	case "local":
		deps.Allocator = patient.NewAllocator(patient.NewLocalCounter(), deps.Store)
	case "redis":
		client, err := database.OpenRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.Allocator = patient.NewAllocator(patient.NewRedisCounter(client), deps.Store)
		a.HealthChecks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		a.closers = append(a.closers, client.Close)
	default:
		return nil, fmt.Errorf("unknown allocator backend %q", cfg.AllocatorBackend)
	}

	documents, err := storage.NewDocumentStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.Documents = documents

	if cfg.KafkaEnabled() {
		events := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventsTopic, "triage-service")
		queue := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaAnalysisTopic, "triage-service")
		deps.Events = events
		deps.AnalysisQueue = queue
		a.closers = append(a.closers, events.Close, queue.Close)
	} else {
		logger.Log.Info("no Kafka brokers configured; events disabled and analysis runs inline")
	}

	a.Patients, err = patient.NewService(deps)
	if err != nil {
		return nil, err
	}

	a.Clinicians = identity.NewService(clinicianStore)
	if err := a.Clinicians.Bootstrap(ctx, cfg.BootstrapClinicianUsername, cfg.BootstrapClinicianPassword); err != nil {
		return nil, err
	}

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Log.WithError(err).Warn("error closing component")
		}
	}
}
