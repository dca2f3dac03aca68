package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/routes"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// DatabaseDependency connects Postgres and runs migrations
type DatabaseDependency struct {
	Cfg    config.Config
	Logger ectologger.Logger
	DB     database.DB
}

func (d *DatabaseDependency) GetName() string { return "database" }
func (d *DatabaseDependency) DependsOn() []string { return nil }

func (d *DatabaseDependency) Start(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Cfg.DatabaseHost, d.Cfg.DatabasePort, d.Cfg.DatabaseUserName,
		d.Cfg.DatabasePassword, d.Cfg.DatabaseName, d.Cfg.DatabaseSSLMode)

	db, err := sqlx.Open(d.Cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(d.Cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(d.Cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(d.Cfg.DatabaseConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	d.DB = database.NewDatabaseInstance(db, d.Logger)

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrations := database.NewMigrationService(d.Logger, &database.MigrationConfig{
		MigrationFolderPath: d.Cfg.DatabaseMigrationFolderPath,
		Version:             uint(d.Cfg.DatabaseMigrationVersion),
		Force:               d.Cfg.DatabaseMigrationForce,
		AutoRollback:        d.Cfg.DatabaseMigrationAutoRollback,
	})

	return migrations.Migrate(d.Cfg.DatabaseName, driver)
}

func (d *DatabaseDependency) Stop(ctx context.Context) error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// TracingDependency initializes the OTLP tracer provider
type TracingDependency struct {
	Cfg      config.Config
	shutdown func(context.Context) error
}

func (d *TracingDependency) GetName() string { return "tracing" }
func (d *TracingDependency) DependsOn() []string { return nil }

func (d *TracingDependency) Start(ctx context.Context) error {
	shutdown, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
		ServiceName:  d.Cfg.AppName,
		Exporter:     d.Cfg.TracingExporter,
		OTLPEndpoint: d.Cfg.TracingOTLPEndpoint,
		OTLPProtocol: d.Cfg.TracingOTLPProtocol,
		OTLPInsecure: d.Cfg.TracingOTLPInsecure,
	})
	if err != nil {
		return err
	}
	d.shutdown = shutdown
	return nil
}

func (d *TracingDependency) Stop(ctx context.Context) error {
	if d.shutdown == nil {
		return nil
	}
	return d.shutdown(ctx)
}

// GraphDependency connects the family graph projection store
type GraphDependency struct {
	Cfg    config.Config
	Logger ectologger.Logger
	Client *graph.Client
}

func (d *GraphDependency) GetName() string { return "graph" }
func (d *GraphDependency) DependsOn() []string { return nil }

func (d *GraphDependency) Start(ctx context.Context) error {
	if !d.Cfg.GraphDBEnabled {
		return nil
	}
	client, err := graph.NewClient(graph.Config{
		Host:     d.Cfg.GraphDBHost,
		Port:     d.Cfg.GraphDBPort,
		Username: d.Cfg.GraphDBUser,
		Password: d.Cfg.GraphDBPassword,
	}, d.Logger)
	if err != nil {
		return err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph database unreachable: %w", err)
	}
	d.Client = client
	return nil
}

func (d *GraphDependency) Stop(ctx context.Context) error {
	if d.Client == nil {
		return nil
	}
	return d.Client.Close(ctx)
}

// ConsumerDependency runs the extraction ingest consumer
type ConsumerDependency struct {
	Cfg      config.Config
	Logger   ectologger.Logger
	Handler  kafka.MessageHandler
	Consumer *kafka.Consumer
}

func (d *ConsumerDependency) GetName() string { return "consumer" }
func (d *ConsumerDependency) DependsOn() []string { return []string{"database"} }

func (d *ConsumerDependency) Start(ctx context.Context) error {
	if !d.Cfg.KafkaConsumerEnabled {
		return nil
	}
	d.Consumer = kafka.NewConsumer(d.Cfg, d.Logger, d.Handler)
	return d.Consumer.Start(ctx)
}

func (d *ConsumerDependency) Stop(ctx context.Context) error {
	if d.Consumer == nil {
		return nil
	}
	return d.Consumer.Stop()
}

// ServerDependency runs the HTTP API
type ServerDependency struct {
	Cfg     config.Config
	Logger  ectologger.Logger
	DB      database.DB
	Checker *health.Checker
	echo    *echo.Echo
}

func (d *ServerDependency) GetName() string { return "server" }
func (d *ServerDependency) DependsOn() []string { return []string{"database", "tracing"} }

func (d *ServerDependency) Start(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(d.Cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(d.Cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(d.Cfg.HttpServerIdleTimeoutSeconds) * time.Second

	routes.Register(e, d.Cfg, d.Logger)
	if d.Checker != nil {
		d.Checker.RegisterRoutes(e)
	}

	d.echo = e

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", d.Cfg.Port)); err != nil {
			d.Logger.WithError(err).Info("HTTP server stopped")
		}
	}()

	if d.Checker != nil {
		d.Checker.SetReady(true)
	}
	return nil
}

func (d *ServerDependency) Stop(ctx context.Context) error {
	if d.echo == nil {
		return nil
	}
	if d.Checker != nil {
		d.Checker.SetReady(false)
	}
	return d.echo.Shutdown(ctx)
}
