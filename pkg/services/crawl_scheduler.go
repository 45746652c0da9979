package services

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
)

// CrawlScheduler triggers crawls on a cron schedule (six fields, with seconds).
type CrawlScheduler struct {
	cron    *cron.Cron
	crawls  CrawlService
	logger  *zap.Logger
	baseCtx context.Context
}

// NewCrawlScheduler creates a scheduler for crawls. It does nothing until
// Schedule and Start are called. Once baseCtx is done, scheduled runs no
// longer start crawls.
func NewCrawlScheduler(baseCtx context.Context, crawls CrawlService, logger *zap.Logger) *CrawlScheduler {
	return &CrawlScheduler{
		cron:    cron.New(cron.WithSeconds()),
		crawls:  crawls,
		logger:  logger.Named("scheduler"),
		baseCtx: baseCtx,
	}
}

// Schedule registers a crawl at the cron expression spec.
func (s *CrawlScheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() { s.trigger(s.baseCtx) })
	return err
}

// trigger submits a crawl unless the process is shutting down. A crawl that
// is already running is left alone.
func (s *CrawlScheduler) trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	snap, err := s.crawls.Start()
	switch {
	case err == nil:
		s.logger.Info("Scheduled crawl started", zap.String("task_id", snap.ID))
	case errors.Is(err, apperrors.ErrQueueBusy):
		s.logger.Info("Scheduled crawl skipped, a crawl is already running")
	default:
		s.logger.Error("Scheduled crawl failed to start", zap.Error(err))
	}
}

func (s *CrawlScheduler) Start() {
	s.logger.Info("cron started")
	s.cron.Start()
}

// Stop waits for a running trigger to return. It does not wait for the crawl.
func (s *CrawlScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron stopped")
}
