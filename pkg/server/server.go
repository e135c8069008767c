package server

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KyleBrandon/w1-reporter/config"
	"github.com/KyleBrandon/w1-reporter/internal/database"
	"github.com/KyleBrandon/w1-reporter/internal/indicator"
	"github.com/KyleBrandon/w1-reporter/internal/jobs"
	"github.com/KyleBrandon/w1-reporter/internal/mqtt"
	"github.com/KyleBrandon/w1-reporter/internal/reporter"
	"github.com/KyleBrandon/w1-reporter/internal/scheduler"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
	"github.com/KyleBrandon/w1-reporter/internal/transport"
	"github.com/KyleBrandon/w1-reporter/pkg/server/health"
	"github.com/KyleBrandon/w1-reporter/pkg/server/reports"
	"github.com/KyleBrandon/w1-reporter/pkg/server/status"
	"github.com/KyleBrandon/w1-reporter/pkg/server/temperatures"
	"github.com/KyleBrandon/w1-reporter/pkg/utils"
)

const shutdownTimeout = 5 * time.Second

// Used by "flag" to read command line argument
var (
	cmdLineFlagMockSensor bool
	cmdLineFlagLogLevel   string
)

type ServerConfig struct {
	mux         *http.ServeMux
	Env         config.EnvSettings
	Config      config.Config
	Logger      *slog.Logger
	LoggerLevel *slog.LevelVar
	LogFile     *os.File

	UseMockSensor bool
	Bus           sensor.Bus
	Roster        *sensor.Roster
	Reporter      *reporter.Reporter
	Scheduler     *scheduler.Scheduler
	Indicator     *indicator.Indicator

	Queries      *database.Queries
	DBConnection *sql.DB
	Retention    *jobs.JobConfig
	MQTT         *mqtt.Publisher
}

// init will read and initialize the global command line variables
func init() {
	// initialize the mock sensor commandline flag
	flag.BoolVar(&cmdLineFlagMockSensor, "use_mock_sensor", false, "Use the mock devices from the config file instead of the one-wire bus.")
	flag.StringVar(&cmdLineFlagLogLevel, "log_level", config.DefaultLogLevel.String(), "The log level to start the reporter at")
}

// InitializeServer loads the configuration and builds every component.
// Startup errors are returned and are fatal to the caller.
func InitializeServer(ctx context.Context) (*ServerConfig, error) {
	slog.Debug(">>InitializeServer")
	defer slog.Debug("<<InitializeServer")

	sc := &ServerConfig{}

	// MUST BE FIRST
	if err := sc.readEnvironmentVariables(); err != nil {
		return nil, err
	}

	// configure slog
	if err := sc.configureLogger(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigSettings(sc.Env.ConfigFileLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", sc.Env.ConfigFileLocation, err)
	}
	cfg.ApplyEnv(sc.Env)

	if err := config.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	sc.Config = cfg

	if err := sc.initializeSensors(); err != nil {
		sc.Close()
		return nil, err
	}

	if err := sc.initializeReporter(ctx); err != nil {
		sc.Close()
		return nil, err
	}

	sc.registerRoutes()

	return sc, nil
}

// Run starts the cycle scheduler, the retention job and the status API and
// blocks until ctx is cancelled or one of them fails.
func (sc *ServerConfig) Run(ctx context.Context) error {
	slog.Info(">>Run")
	defer slog.Info("<<Run")

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return sc.Scheduler.Run(ctx, func(ctx context.Context) {
			sc.Reporter.RunCycle(ctx)
		})
	})

	if sc.Retention != nil {
		eg.Go(func() error {
			return sc.Retention.Run(ctx)
		})
	}

	if sc.Env.ServerPort != "" {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%s", sc.Env.ServerPort),
			Handler:           sc.mux,
			ReadHeaderTimeout: 15 * time.Second,
		}

		eg.Go(func() error {
			slog.Info("Starting server", "port", sc.Env.ServerPort)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server failed", "error", err)
				return err
			}
			return nil
		})

		eg.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return server.Shutdown(shutdownCtx)
		})
	}

	return eg.Wait()
}

// Close releases everything InitializeServer opened.
func (sc *ServerConfig) Close() {
	if sc.MQTT != nil {
		sc.MQTT.Close()
	}

	if sc.Indicator != nil {
		if err := sc.Indicator.Off(); err != nil {
			slog.Warn("failed to turn off status indicator", "error", err)
		}
	}

	if closer, ok := sc.Bus.(io.Closer); ok {
		closer.Close()
	}

	if sc.DBConnection != nil {
		sc.DBConnection.Close()
	}

	if sc.LogFile != nil && sc.LogFile != os.Stderr {
		sc.LogFile.Close()
	}
}

func (sc *ServerConfig) readEnvironmentVariables() error {
	slog.Debug(">>readEnvironmentVariables")
	defer slog.Debug("<<readEnvironmentVariables")

	env, err := config.LoadEnvSettings()
	if err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if len(env.ConfigFileLocation) == 0 {
		env.ConfigFileLocation = config.DefaultConfigFileLocation
	}

	sc.Env = env

	// mock sensor flag is a command line flag for debugging
	sc.UseMockSensor = cmdLineFlagMockSensor

	return nil
}

// configureLogger will initialize the slog to stderr and save the log level so it can be set via API.
func (sc *ServerConfig) configureLogger() error {
	// create a variable to store the current log level
	currentLevel := new(slog.LevelVar)

	// parse the log level from any passed in command line flag
	level, err := utils.ParseLogLevel(cmdLineFlagLogLevel)
	if err != nil {
		slog.Error("Failed to parse the log level, setting to DefaultLogLevel", "error", err, "log_level", cmdLineFlagLogLevel)
		level = config.DefaultLogLevel
	}

	// set the log level
	currentLevel.Set(level)

	// by default we will write to stderr
	logFile := os.Stderr
	if len(sc.Env.LogFileLocation) != 0 {
		slog.Info("Save to log file", "file", sc.Env.LogFileLocation)
		logFile, err = os.OpenFile(sc.Env.LogFileLocation, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}

	// create new text handler for log file
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: currentLevel})

	logger := slog.New(fileHandler)

	slog.SetDefault(logger)

	sc.Logger = logger
	sc.LoggerLevel = currentLevel
	sc.LogFile = logFile

	return nil
}

func (sc *ServerConfig) initializeSensors() error {
	slog.Debug(">>initializeSensors")
	defer slog.Debug("<<initializeSensors")

	bus, err := sensor.NewBus(sc.Config.Bus, sc.UseMockSensor)
	if err != nil {
		return fmt.Errorf("failed to open one-wire bus: %w", err)
	}
	sc.Bus = bus

	roster, err := sensor.NewRoster(bus, sc.Config.Devices)
	if err != nil {
		return fmt.Errorf("failed to initialize sensors: %w", err)
	}
	sc.Roster = roster

	sc.Indicator = indicator.New(sc.Config.Indicator)

	return nil
}

func (sc *ServerConfig) initializeReporter(ctx context.Context) error {
	slog.Debug(">>initializeReporter")
	defer slog.Debug("<<initializeReporter")

	client, err := transport.NewClient(sc.Config.API)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(sc.Config.Schedule)
	if err != nil {
		return err
	}
	sc.Scheduler = sched

	sc.Reporter = reporter.New(sc.Roster, client, sc.Indicator)

	if len(sc.Env.DatabaseURL) != 0 {
		db, queries, err := database.Open(ctx, sc.Env.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		sc.DBConnection = db
		sc.Queries = queries
		sc.Reporter.AddSink(reporter.NewStoreSink(queries))

		sc.Retention, err = jobs.NewRetentionJob(queries, sc.Config.History.RetentionDays)
		if err != nil {
			return err
		}
	} else {
		slog.Info("no database connection string is configured, report history disabled")
	}

	if len(sc.Config.MQTT.Broker) != 0 {
		publisher := mqtt.New(mqtt.NewClient(sc.Config.MQTT), sc.Config.MQTT.Topic)
		if err := publisher.Connect(); err != nil {
			// the reporter keeps running without the mirror
			slog.Error("failed to connect to mqtt broker", "broker", sc.Config.MQTT.Broker, "error", err)
		} else {
			sc.MQTT = publisher
			sc.Reporter.AddSink(reporter.NewPublisherSink(publisher.Name(), publisher))
		}
	}

	return nil
}

func (sc *ServerConfig) registerRoutes() {
	sc.mux = http.NewServeMux()

	names := make(map[string]string, len(sc.Config.Devices))
	for _, d := range sc.Config.Devices {
		if addr, err := sensor.ParseAddress(d.Address); err == nil {
			names[addr.Compact()] = d.Name
		}
	}

	healthHandler := health.NewHandler(sc.LoggerLevel, sc.Env.AdminApiKey)
	healthHandler.RegisterRoutes(sc.mux)

	temperatureHandler := temperatures.NewHandler(sc.Reporter, names)
	temperatureHandler.RegisterRoutes(sc.mux)

	statusHandler := status.NewHandler(sc.Reporter, names, sc.Config.OriginPatterns)
	statusHandler.RegisterRoutes(sc.mux)

	var store reports.ReportStore
	if sc.Queries != nil {
		store = sc.Queries
	}
	reportsHandler := reports.NewHandler(store)
	reportsHandler.RegisterRoutes(sc.mux)
}
