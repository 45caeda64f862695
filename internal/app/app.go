package app

import (
	"context"
	"fmt"
	"time"

	"github.com/droidkeep/droidkeep/internal/adapter/bridge"
	"github.com/droidkeep/droidkeep/internal/adapter/compressor"
	"github.com/droidkeep/droidkeep/internal/adapter/storage"
	"github.com/droidkeep/droidkeep/internal/config"
	"github.com/droidkeep/droidkeep/internal/domain"
	"github.com/droidkeep/droidkeep/internal/infrastructure/logger"
	"github.com/droidkeep/droidkeep/internal/infrastructure/scheduler"
	"github.com/droidkeep/droidkeep/internal/usecase"
)

// App wires the bridge adapters, storage targets and use cases
// together and drives the configured backup sessions.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	scheduler  *scheduler.Scheduler
	probe      *bridge.Probe
	connector  *bridge.Connector
	builder    *usecase.SessionBuilder
	controller *usecase.SessionController
	cleanupUC  *usecase.Cleanup
	inspectUC  *usecase.Inspect
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)
	log.Infof("Found %d backup session(s) configured", len(cfg.Sessions))

	localStorage, err := storage.NewLocal(cfg.Backup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	runner := bridge.NewRunner(
		cfg.Bridge.Binary,
		time.Duration(cfg.Bridge.CommandTimeoutSeconds)*time.Second,
		log,
	)
	probe := bridge.NewProbe(runner, log)
	connector := bridge.NewConnector(runner, log)
	input := bridge.NewInputAgent(runner, log)
	diagnostics := bridge.NewDiagnostics(runner, log)

	uploadTargets := initializeUploadTargets(cfg, log)

	builder := usecase.NewSessionBuilder(
		localStorage,
		log,
		usecase.SettleDelaysFrom(cfg.Backup.SettleDelays),
	)

	controller := usecase.NewSessionController(
		runner.Binary(),
		input,
		localStorage,
		uploadTargets,
		compressor.NewGzip(),
		log,
		cfg.Backup.Compress,
	)

	cleanupUC := usecase.NewCleanup(
		localStorage,
		uploadTargets,
		log,
		cfg.Backup.RetentionDays,
	)

	inspectUC := usecase.NewInspect(diagnostics, localStorage, log)

	return &App{
		config:     cfg,
		logger:     log,
		scheduler:  scheduler.New(log),
		probe:      probe,
		connector:  connector,
		builder:    builder,
		controller: controller,
		cleanupUC:  cleanupUC,
		inspectUC:  inspectUC,
	}, nil
}

func initializeUploadTargets(cfg *config.Config, log *logger.Logger) []usecase.UploadTarget {
	var targets []usecase.UploadTarget

	for _, targetCfg := range cfg.GetEnabledUploadTargets() {
		var stor domain.Storage
		var err error

		switch targetCfg.Type {
		case "gdrive":
			stor, err = storage.NewGDrive(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive: %v", err)
				continue
			}
			log.Infof("✓ Google Drive upload enabled")

		case "s3":
			stor, err = storage.NewS3(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize S3: %v", err)
				continue
			}
			log.Infof("✓ AWS S3 upload enabled (bucket: %s)", targetCfg.Bucket)

		case "telegram":
			stor, err = storage.NewTelegram(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Telegram: %v", err)
				continue
			}
			log.Infof("✓ Telegram upload enabled")

		case "local":
			// The archive directory is always a destination.
			continue

		default:
			log.Warnf("Unknown upload target type: %s", targetCfg.Type)
			continue
		}

		targets = append(targets, usecase.UploadTarget{
			Name:    targetCfg.Type,
			Storage: stor,
		})
	}

	return targets
}

func (a *App) Run(ctx context.Context) error {
	scheduled := 0

	for _, sessCfg := range a.config.Sessions {
		if sessCfg.Schedule == "" {
			a.runSession(ctx, sessCfg)
			continue
		}

		name := sessCfg.Name
		if name == "" {
			name = fmt.Sprintf("%s backup", sessCfg.Scope)
		}

		if err := a.scheduler.AddJob(name, sessCfg.Schedule, func(ctx context.Context) error {
			return a.runSession(ctx, sessCfg)
		}); err != nil {
			return fmt.Errorf("failed to schedule session %q: %w", name, err)
		}
		a.logger.Infof("✓ Scheduled session %q: %s", name, sessCfg.Schedule)
		scheduled++
	}

	if scheduled == 0 {
		a.logger.Infof("No scheduled sessions, exiting after one-shot run")
		return a.cleanupUC.Execute(ctx)
	}

	// Daily retention cleanup at 3 AM.
	cleanupSchedule := "0 0 3 * * *"
	if err := a.scheduler.AddJob("cleanup", cleanupSchedule, a.cleanupUC.Execute); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	a.logger.Infof("Scheduling cleanup: %s", cleanupSchedule)

	a.scheduler.Start()
	a.logger.Infof("Scheduler started with %d session(s)", scheduled)

	<-ctx.Done()
	return nil
}

// runSession resolves the device fresh, builds the session and runs
// it to a terminal state. Device state is never cached between runs:
// a device authorized an hour ago may be unplugged now.
func (a *App) runSession(ctx context.Context, sessCfg config.SessionConfig) error {
	device, err := a.resolveDevice(ctx, sessCfg)
	if err != nil {
		a.logger.Errorf("Session %q skipped: %v", sessCfg.Name, err)
		return err
	}

	sess, err := a.builder.Build(sessCfg, device)
	if err != nil {
		a.logger.Errorf("Session %q invalid: %v", sessCfg.Name, err)
		return err
	}

	result, err := a.controller.Execute(ctx, sess)
	if err != nil {
		return err
	}

	a.logger.Infof("Session %q %s in %s",
		sessCfg.Name, result.Outcome, result.Duration.Round(time.Second))

	if result.Outcome != domain.OutcomeSucceeded {
		return fmt.Errorf("session %q %s: %s", sessCfg.Name, result.Outcome, result.Stderr)
	}

	// Archive a device report next to a successful backup.
	if _, err := a.inspectUC.SaveReport(ctx, device); err != nil {
		a.logger.Warnf("Device report for %s unavailable: %v", device, err)
	}

	return nil
}

// resolveDevice picks the session's device: the configured serial, or
// the sole authorized device when none is configured. Network serials
// get a connect attempt first, since they drop off between runs.
func (a *App) resolveDevice(ctx context.Context, sessCfg config.SessionConfig) (domain.DeviceID, error) {
	if sessCfg.Device != "" {
		device := domain.DeviceID(sessCfg.Device)
		if device.IsNetwork() {
			if _, err := a.connector.Connect(ctx, string(device)); err != nil {
				a.logger.Warnf("Could not connect to %s: %v", device, err)
			}
		}
		return device, nil
	}

	var authorized []domain.DeviceID
	for _, transport := range []domain.Transport{domain.TransportUSB, domain.TransportNetwork} {
		report := a.probe.Probe(ctx, transport)
		a.logger.Infof("Probe %s: %s", report.Transport, report.Summary)
		authorized = append(authorized, report.Authorized...)
	}

	switch len(authorized) {
	case 0:
		return "", fmt.Errorf("no authorized devices found")
	case 1:
		return authorized[0], nil
	default:
		return "", fmt.Errorf("%d authorized devices found, set sessions[].device to pick one", len(authorized))
	}
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down...")
	a.scheduler.Stop()
	a.logger.Close()
}
