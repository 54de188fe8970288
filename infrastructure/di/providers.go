// Package di wires application dependencies. Providers are plain
// constructors so they can be composed by google/wire or called directly.
package di

import (
	"context"
	"fmt"

	"deckgen-backend/application/commands"
	"deckgen-backend/application/ports"
	"deckgen-backend/application/services"
	"deckgen-backend/infrastructure/config"
	"deckgen-backend/infrastructure/messaging"
	"deckgen-backend/infrastructure/persistence/dynamodb"
	"deckgen-backend/infrastructure/persistence/memory"
	"deckgen-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	SlideRepo ports.SlideRepository
	Store     ports.HistoryStore
	EventBus  ports.EventBus
	Histories *commands.HistoryManager
	Registry  *commands.Registry
	Metrics   *observability.Collector
	Tracing   *observability.TracerProvider
	Editor    *services.EditorService
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideSlideRepository,
	ProvideHistoryStore,
	ProvideEventBus,
	ProvideHistoryManager,
	ProvideRegistry,
	ProvideMetrics,
	ProvideTracing,
	ProvideEditorService,
	wire.Struct(new(Container), "*"),
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideSlideRepository selects the slide repository for the configured
// persistence driver.
func ProvideSlideRepository(
	client *awsdynamodb.Client,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) (ports.SlideRepository, error) {
	switch cfg.PersistenceDriver {
	case config.DriverMemory:
		return memory.NewInMemorySlideRepository(), nil
	case config.DriverDynamoDB:
		return dynamodb.NewSlideRepository(client, cfg.SlidesTable, logger, metrics), nil
	default:
		return nil, fmt.Errorf("unknown persistence driver: %s", cfg.PersistenceDriver)
	}
}

// ProvideHistoryStore selects the history store for the configured
// persistence driver. A nil store is returned when history persistence is
// disabled; the editor treats that as "do not persist".
func ProvideHistoryStore(
	client *awsdynamodb.Client,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) (ports.HistoryStore, error) {
	if !cfg.Editing.PersistHistory {
		return nil, nil
	}
	switch cfg.PersistenceDriver {
	case config.DriverMemory:
		return memory.NewInMemoryHistoryStore(), nil
	case config.DriverDynamoDB:
		return dynamodb.NewHistoryStore(client, cfg.HistoryTable, logger, metrics), nil
	default:
		return nil, fmt.Errorf("unknown persistence driver: %s", cfg.PersistenceDriver)
	}
}

// ProvideEventBus creates the event bus
func ProvideEventBus(logger *zap.Logger) ports.EventBus {
	return messaging.NewInMemoryEventBus(logger)
}

// ProvideHistoryManager creates the per-deck history manager
func ProvideHistoryManager(cfg *config.Config) *commands.HistoryManager {
	return commands.NewHistoryManager(cfg.Editing.MaxHistory)
}

// ProvideRegistry creates the command registry with the built-in edit
// commands registered.
func ProvideRegistry() *commands.Registry {
	return commands.DefaultRegistry()
}

// ProvideMetrics creates the metrics collector; nil disables collection
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("deckgen")
}

// ProvideTracing initializes distributed tracing
func ProvideTracing(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	return observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "deckgen-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.TracingEndpoint,
		SampleRate:  0.1,
		Enabled:     cfg.EnableTracing,
	})
}

// ProvideEditorService creates the editor service facade
func ProvideEditorService(
	repo ports.SlideRepository,
	histories *commands.HistoryManager,
	registry *commands.Registry,
	store ports.HistoryStore,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	tracing *observability.TracerProvider,
	logger *zap.Logger,
) *services.EditorService {
	return services.NewEditorService(repo, histories, registry, store, eventBus, metrics, tracing.Tracer(), logger)
}

// NewContainer builds the container without code generation. It mirrors
// what the wire injector produces and is what cmd/api uses.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	metrics := ProvideMetrics(cfg)

	var client *awsdynamodb.Client
	if cfg.PersistenceDriver == config.DriverDynamoDB {
		awsCfg, err := ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = ProvideDynamoDBClient(awsCfg)
	}

	repo, err := ProvideSlideRepository(client, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	store, err := ProvideHistoryStore(client, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	tracing, err := ProvideTracing(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	eventBus := ProvideEventBus(logger)
	histories := ProvideHistoryManager(cfg)
	registry := ProvideRegistry()
	editor := ProvideEditorService(repo, histories, registry, store, eventBus, metrics, tracing, logger)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		SlideRepo: repo,
		Store:     store,
		EventBus:  eventBus,
		Histories: histories,
		Registry:  registry,
		Metrics:   metrics,
		Tracing:   tracing,
		Editor:    editor,
	}, nil
}
