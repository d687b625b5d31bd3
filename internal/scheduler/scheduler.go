package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic work. Jobs may overlap each other but never
// themselves; an instance still running when the next tick arrives makes
// that tick a no-op.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *zap.Logger
}

type cronZapLogger struct {
	logger *zap.Logger
}

func (l cronZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronZapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

func New(ctx context.Context, logger *zap.Logger) *Scheduler {
	cronLogger := cronZapLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		ctx:    ctx,
		logger: logger,
	}
}

func (s *Scheduler) AddEvery(name string, interval time.Duration, job Job) {
	s.cron.Schedule(cron.Every(interval), s.wrap(name, job))
}

func (s *Scheduler) AddCron(name, spec string, job Job) error {
	_, err := s.cron.AddJob(spec, s.wrap(name, job))
	return err
}

func (s *Scheduler) wrap(name string, job Job) cron.Job {
	return cron.FuncJob(func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Warn("job failed",
				zap.String("job", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("job complete",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to drain.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
