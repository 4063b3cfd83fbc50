// Command server runs the paper brokerage engine: account management,
// session auth, atomic trade execution, and the portfolio/ledger API
// over a single SQLite store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/config"
	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/events"
	"github.com/apetros/paperbroker/internal/modules/accounts"
	"github.com/apetros/paperbroker/internal/modules/audit"
	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/history"
	historyhandlers "github.com/apetros/paperbroker/internal/modules/history/handlers"
	"github.com/apetros/paperbroker/internal/modules/ledger"
	ledgerhandlers "github.com/apetros/paperbroker/internal/modules/ledger/handlers"
	"github.com/apetros/paperbroker/internal/modules/portfolio"
	portfoliohandlers "github.com/apetros/paperbroker/internal/modules/portfolio/handlers"
	"github.com/apetros/paperbroker/internal/modules/preferences"
	preferencehandlers "github.com/apetros/paperbroker/internal/modules/preferences/handlers"
	"github.com/apetros/paperbroker/internal/modules/roles"
	"github.com/apetros/paperbroker/internal/modules/sessions"
	"github.com/apetros/paperbroker/internal/modules/settings"
	"github.com/apetros/paperbroker/internal/modules/trading"
	tradinghandlers "github.com/apetros/paperbroker/internal/modules/trading/handlers"
	"github.com/apetros/paperbroker/internal/reliability"
	"github.com/apetros/paperbroker/internal/scheduler"
	"github.com/apetros/paperbroker/internal/server"
	"github.com/apetros/paperbroker/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("enforce_solvency", cfg.EnforceSolvency).
		Msg("Starting paperbroker")

	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "brokerage.db"),
		Profile: database.ProfileLedger,
		Name:    "brokerage",
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}

	// Event bus and the audit trail listening on it
	eventManager := events.NewManager(log)
	auditRepo := audit.NewRepository(db.Conn(), log)
	audit.NewListener(auditRepo, log).Register(eventManager)

	// Repositories
	userRepo := accounts.NewRepository(db.Conn(), log)
	balanceRepo := balances.NewRepository(db.Conn(), log)
	prefsRepo := preferences.NewRepository(db.Conn(), log)
	sessionRepo := sessions.NewRepository(db.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(db.Conn(), log)
	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	historyRepo := history.NewRepository(db.Conn(), log)
	settingsRepo := settings.NewRepository(db.Conn(), log)
	rolesRepo := roles.NewRepository(db.Conn(), log)
	backupLogRepo := reliability.NewBackupLogRepository(db.Conn(), log)

	// Runtime config overrides for trade economics
	commission, err := settingsRepo.GetFloat("trade_commission", cfg.Commission)
	if err != nil {
		return fmt.Errorf("failed to read commission config: %w", err)
	}
	enforceSolvency, err := settingsRepo.GetBool("enforce_solvency", cfg.EnforceSolvency)
	if err != nil {
		return fmt.Errorf("failed to read solvency config: %w", err)
	}

	// Services
	accountService := accounts.NewService(db, userRepo, balanceRepo, prefsRepo, eventManager, cfg.StartingCash, log)
	sessionService := sessions.NewService(db, sessionRepo, accountService, eventManager, cfg.SessionTTL, log)
	prefsService := preferences.NewService(prefsRepo, eventManager, log)
	portfolioService := portfolio.NewService(positionRepo, balanceRepo, historyRepo, log)
	tradingService := trading.NewService(db, balanceRepo, positionRepo, ledgerRepo, eventManager, commission, enforceSolvency, log)

	var s3Client *reliability.S3Client
	if cfg.BackupsEnabled && cfg.Backup != nil {
		s3Client, err = reliability.NewS3Client(context.Background(), reliability.S3Config{
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
			Bucket:          cfg.Backup.Bucket,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
	}
	backupService := reliability.NewBackupService(
		db, backupLogRepo, s3Client, filepath.Join(cfg.DataDir, "backups"), eventManager, log)

	// Background jobs
	sched := scheduler.New(log)
	registerJobs(sched, sessionService, auditRepo, backupService, db, cfg, log)
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:           log,
		Cfg:           cfg,
		DB:            db,
		Accounts:      accountService,
		Sessions:      sessionService,
		Roles:         rolesRepo,
		Settings:      settingsRepo,
		AuditRepo:     auditRepo,
		BackupService: backupService,
		BackupLogs:    backupLogRepo,
		Portfolio:     portfoliohandlers.NewHandler(portfolioService, balanceRepo, log),
		Trading:       tradinghandlers.NewHandler(tradingService, log),
		Ledger:        ledgerhandlers.NewHandler(ledgerRepo, log),
		Preferences:   preferencehandlers.NewHandler(prefsService, log),
		History:       historyhandlers.NewHandler(historyRepo, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

// registerJobs wires the maintenance schedule: session sweeps every
// 15 minutes, store maintenance hourly, audit retention and backups
// nightly.
func registerJobs(
	sched *scheduler.Scheduler,
	sessionService *sessions.Service,
	auditRepo *audit.Repository,
	backupService *reliability.BackupService,
	db *database.DB,
	cfg *config.Config,
	log zerolog.Logger,
) {
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{"0 */15 * * * *", sessions.NewSweepJob(sessionService)},
		{"0 30 * * * *", reliability.NewMaintenanceJob(db, log)},
		{"0 0 2 * * *", audit.NewRetentionJob(auditRepo, time.Duration(cfg.AuditRetention)*24*time.Hour, log)},
	}
	if cfg.BackupsEnabled {
		jobs = append(jobs, struct {
			schedule string
			job      scheduler.Job
		}{"0 0 3 * * *", reliability.NewBackupJob(backupService, cfg.BackupRetention, log)})
	}

	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			log.Error().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}
}
