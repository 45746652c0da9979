package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/crawler"
	"github.com/winecollections/winecollections/pkg/services/workqueue"
)

// CatalogCrawler refreshes the catalog from a start page.
// *crawler.Crawler satisfies it.
type CatalogCrawler interface {
	Run(ctx context.Context, startURL string) (*crawler.CrawlReport, error)
}

// CrawlService runs catalog crawls as a single background job.
type CrawlService interface {
	// Start submits a crawl. Returns apperrors.ErrQueueBusy if one is running.
	Start() (workqueue.TaskSnapshot, error)
	// Status reports the running or most recent crawl.
	Status() workqueue.TaskSnapshot
	// Cancel stops the running crawl. Returns apperrors.ErrNotFound if none runs.
	Cancel() error
}

type crawlService struct {
	crawler  CatalogCrawler
	startURL string
	queue    *workqueue.Queue
	logger   *zap.Logger
}

// NewCrawlService creates a crawl service that submits to queue.
func NewCrawlService(c CatalogCrawler, startURL string, queue *workqueue.Queue, logger *zap.Logger) CrawlService {
	return &crawlService{
		crawler:  c,
		startURL: startURL,
		queue:    queue,
		logger:   logger.Named("crawl"),
	}
}

var _ CrawlService = (*crawlService)(nil)

func (s *crawlService) Start() (workqueue.TaskSnapshot, error) {
	task := newCrawlTask(s.crawler, s.startURL)
	snap, err := s.queue.Submit(task)
	if err != nil {
		return snap, err
	}
	s.logger.Info("Crawl started",
		zap.String("task_id", snap.ID),
		zap.String("start_url", s.startURL))
	return snap, nil
}

func (s *crawlService) Status() workqueue.TaskSnapshot {
	return s.queue.Status()
}

func (s *crawlService) Cancel() error {
	return s.queue.Cancel()
}

// crawlTask adapts a crawl run to the work queue.
type crawlTask struct {
	workqueue.BaseTask
	crawler  CatalogCrawler
	startURL string

	mu     sync.Mutex
	report *crawler.CrawlReport
}

func newCrawlTask(c CatalogCrawler, startURL string) *crawlTask {
	return &crawlTask{
		BaseTask: workqueue.NewBaseTask("catalog crawl"),
		crawler:  c,
		startURL: startURL,
	}
}

func (t *crawlTask) Execute(ctx context.Context) error {
	report, err := t.crawler.Run(ctx, t.startURL)
	t.mu.Lock()
	t.report = report
	t.mu.Unlock()
	return err
}

// Report returns the crawl report once the run has ended.
func (t *crawlTask) Report() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.report == nil {
		return nil
	}
	return t.report
}
