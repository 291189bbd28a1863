package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/amaumene/flickarr/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Lister is the slice of the catalog client the popular controller needs
type Lister interface {
	Popular(ctx context.Context, page int) ([]models.Movie, error)
}

// PopularController serves popular-catalog pages from a TTL cache and keeps
// them warm. The catalog client itself never retries; retry policy for the
// background refresh lives here, on the caller side.
type PopularController struct {
	lister Lister
	cache  *cache.Cache
	pages  int
	logger *logrus.Logger
}

// NewPopularController creates a new popular controller
func NewPopularController(lister Lister, ttl time.Duration, pages int, logger *logrus.Logger) *PopularController {
	if pages < 1 {
		pages = 1
	}
	return &PopularController{
		lister: lister,
		cache:  cache.New(ttl, ttl),
		pages:  pages,
		logger: logger,
	}
}

// Get returns one popular page, from cache when fresh, otherwise straight
// from the catalog. Fetch errors pass through untouched.
func (c *PopularController) Get(ctx context.Context, page int) ([]models.Movie, error) {
	if page < 1 {
		page = 1
	}

	key := strconv.Itoa(page)
	if cached, found := c.cache.Get(key); found {
		return cached.([]models.Movie), nil
	}

	movies, err := c.lister.Popular(ctx, page)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, movies)
	return movies, nil
}

// Refresh re-fetches the configured number of pages, retrying each with
// exponential backoff. Pages that still fail keep their previous cached
// value until it expires.
func (c *PopularController) Refresh(ctx context.Context) {
	for page := 1; page <= c.pages; page++ {
		page := page

		operation := func() error {
			movies, err := c.lister.Popular(ctx, page)
			if err != nil {
				return err
			}
			c.cache.SetDefault(strconv.Itoa(page), movies)
			return nil
		}

		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		if err := backoff.Retry(operation, policy); err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Popular refresh failed")
			continue
		}

		c.logger.WithField("page", page).Debug("Popular page refreshed")
	}
}
