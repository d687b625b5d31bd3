package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/howardstar/f1hub/internal/config"
	"github.com/howardstar/f1hub/internal/delivery/telegram"
	"github.com/howardstar/f1hub/internal/delivery/webapi"
	"github.com/howardstar/f1hub/internal/infra/db"
	"github.com/howardstar/f1hub/internal/infra/ergast"
	"github.com/howardstar/f1hub/internal/infra/log"
	"github.com/howardstar/f1hub/internal/scheduler"
	"github.com/howardstar/f1hub/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	bot        *telegram.Bot
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
	logger     *zap.Logger
	cleanupFn  func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	userRepo := db.NewUserRepository(dbConn)
	favoriteRepo := db.NewFavoriteRepository(dbConn)
	stateRepo := db.NewNotificationStateRepository(dbConn)
	voteRepo := db.NewVoteRepository(dbConn)
	groupRepo := db.NewGroupChatRepository(dbConn)

	dataClient, err := ergast.NewClient(cfg.ErgastBaseURL, cfg.ErgastTimeout, cfg.CacheDir, cfg.ScheduleCacheTTL, cfg.ResultsCacheTTL, logger)
	if err != nil {
		return nil, err
	}

	userUC := usecase.NewUserUsecase(userRepo, cfg.DefaultTimezone, cfg.DefaultNotifyLead)
	favoritesUC := usecase.NewFavoritesUsecase(userRepo, favoriteRepo)
	scheduleUC := usecase.NewScheduleUsecase(dataClient)
	standingsUC := usecase.NewStandingsUsecase(dataClient)
	resultsUC := usecase.NewResultsUsecase(dataClient, scheduleUC)
	votesUC := usecase.NewVotesUsecase(userRepo, voteRepo, dataClient)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}

	notifier := telegram.NewNotifier(api, logger)
	notifyUC := usecase.NewNotifyUsecase(userRepo, favoriteRepo, stateRepo, groupRepo, dataClient, notifier, cfg.ReminderPollInterval, logger)

	handlers := telegram.NewHandlers(userUC, favoritesUC, scheduleUC, standingsUC, resultsUC, votesUC, groupRepo, cfg.AdminChatIDs, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout)

	apiServer := webapi.NewServer(userUC, favoritesUC, scheduleUC, standingsUC, resultsUC, votesUC, cfg.TelegramBotToken, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	backup := db.NewBackup(dbConn, cfg.BackupDir, cfg.BackupKeep, logger)

	sched := scheduler.New(ctx, logger)
	sched.AddEvery("race-reminders", cfg.ReminderPollInterval, notifyUC.RemindUpcoming)
	sched.AddEvery("race-results", cfg.ResultsPollInterval, notifyUC.BroadcastRaceResults)
	sched.AddEvery("quali-results", cfg.QualiPollInterval, notifyUC.BroadcastQualiResults)
	sched.AddEvery("cache-warmup", cfg.WarmupInterval, notifyUC.Warmup)
	if err := sched.AddCron("db-backup", cfg.BackupSchedule, backup.Run); err != nil {
		return nil, err
	}

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{
		bot:        bot,
		httpServer: httpServer,
		scheduler:  sched,
		logger:     logger,
		cleanupFn:  cleanup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("f1hub service starting")

	a.scheduler.Start()

	go func() {
		a.logger.Info("http server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", zap.Error(err))
		}
	}()

	a.logger.Info("f1hub service started")
	return a.bot.Start(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("f1hub service shutting down")

	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("failed to stop http server", zap.Error(err))
	}

	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
