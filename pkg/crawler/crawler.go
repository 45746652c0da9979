// Package crawler refreshes the local wine catalog from the retailer website.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/models"
)

// CatalogStore persists crawled wines.
type CatalogStore interface {
	DeleteAll(ctx context.Context) (int64, error)
	Insert(ctx context.Context, wine *models.CatalogWine) error
}

// CrawlReport summarizes one crawl run.
type CrawlReport struct {
	StartURL     string    `json:"start_url"`
	Deleted      int64     `json:"deleted"`
	Pages        int       `json:"pages"`
	ProductsSeen int       `json:"products_seen"`
	Inserted     int       `json:"inserted"`
	Skipped      int       `json:"skipped"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Crawler walks the paginated catalog and replaces the stored catalog with
// what it finds. Products are processed one at a time.
type Crawler struct {
	fetcher   Fetcher
	extractor Extractor
	labels    Labels
	store     CatalogStore
	logger    *zap.Logger
	now       func() time.Time
}

func New(fetcher Fetcher, extractor Extractor, labels Labels, store CatalogStore, logger *zap.Logger) *Crawler {
	return &Crawler{
		fetcher:   fetcher,
		extractor: extractor,
		labels:    labels,
		store:     store,
		logger:    logger.Named("crawler"),
		now:       time.Now,
	}
}

// Run deletes the catalog and repopulates it starting from startURL.
//
// A listing page that cannot be fetched aborts the run. A product that cannot
// be fetched, extracted, normalized or stored is logged and skipped. The run
// ends successfully on the first listing page without a next-page control.
func (c *Crawler) Run(ctx context.Context, startURL string) (*CrawlReport, error) {
	report := &CrawlReport{StartURL: startURL, StartedAt: c.now()}
	defer func() { report.FinishedAt = c.now() }()

	c.logger.Info("Crawl started", zap.String("start_url", startURL))

	deleted, err := c.store.DeleteAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to clear catalog: %w", err)
	}
	report.Deleted = deleted

	visited := make(map[string]bool)
	pageURL := startURL

	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if visited[pageURL] {
			c.logger.Warn("Listing page already visited, stopping", zap.String("url", pageURL))
			break
		}
		visited[pageURL] = true

		doc, base, err := c.fetchDocument(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			return report, fmt.Errorf("failed to fetch listing page: %w", err)
		}
		report.Pages++

		links := c.extractor.ProductLinks(doc, base)
		c.logger.Debug("Listing page parsed",
			zap.String("url", pageURL),
			zap.Int("products", len(links)))

		for _, link := range links {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.ProductsSeen++

			if err := c.crawlProduct(ctx, link); err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				report.Skipped++
				level := zap.WarnLevel
				if !IsProductError(err) {
					level = zap.ErrorLevel
				}
				c.logger.Log(level, "Skipping product",
					zap.String("url", link),
					zap.Error(err))
				continue
			}
			report.Inserted++
		}

		next, ok := c.extractor.NextPage(doc, base)
		if !ok {
			break
		}
		pageURL = next
	}

	c.logger.Info("Crawl finished",
		zap.Int("pages", report.Pages),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (c *Crawler) crawlProduct(ctx context.Context, productURL string) error {
	doc, _, err := c.fetchDocument(ctx, productURL)
	if err != nil {
		return err
	}

	wine, err := Normalize(c.extract(doc, productURL))
	if err != nil {
		return err
	}
	wine.CrawledAt = c.now()

	if err := c.store.Insert(ctx, wine); err != nil {
		return fmt.Errorf("failed to store wine: %w", err)
	}
	return nil
}

// extract collects the raw strings of a product page.
func (c *Crawler) extract(doc *goquery.Document, productURL string) RawWine {
	field := func(label string) string {
		v, _ := c.extractor.ExtractField(doc, label, TrimText)
		return v
	}

	name, _ := c.extractor.Name(doc)
	price, _ := c.extractor.ExtractPrice(doc)
	producer, _ := c.extractor.ExtractField(doc, c.labels.Producer, StripSuffix(c.labels.ProducerSuffix))

	return RawWine{
		URL:                  productURL,
		Name:                 name,
		Price:                price,
		Country:              field(c.labels.Country),
		Region:               field(c.labels.Region),
		Designation:          field(c.labels.Designation),
		RegulatedDesignation: field(c.labels.RegulatedDesignation),
		Producer:             producer,
		Size:                 field(c.labels.Size),
		Alcohol:              field(c.labels.Alcohol),
		Color:                field(c.labels.Color),
		GrapeVarieties:       c.extractor.ExtractGrapeVarieties(doc),
		OutOfStock:           c.extractor.OutOfStock(doc),
	}
}

func (c *Crawler) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, nil, &FetchError{Kind: FetchDecode, URL: pageURL, Err: err}
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, &FetchError{Kind: FetchNetwork, URL: pageURL, Err: err}
	}
	return doc, base, nil
}

// IsProductError reports whether err is a per-product failure that the
// crawler skips rather than aborting on.
func IsProductError(err error) bool {
	var fe *FetchError
	var ee *ExtractionError
	var ne *NormalizationError
	return errors.As(err, &fe) || errors.As(err, &ee) || errors.As(err, &ne)
}
