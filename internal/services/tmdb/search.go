package tmdb

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/amaumene/flickarr/internal/models"
)

// Popular fetches one page of the popular listing. Order is exactly the
// remote order.
func (c *Client) Popular(ctx context.Context, page int) ([]models.Movie, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	c.logger.WithField("page", page).Debug("Fetching popular movies")

	return c.getMovies(ctx, "/movie/popular", params)
}

// Search runs a catalog search. A blank query never reaches the network:
// the debounced caller relies on this returning immediately with no
// transport call, so this is a contract, not an optimization.
func (c *Client) Search(ctx context.Context, query string) ([]models.Movie, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Movie{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")

	c.logger.WithField("query", query).Debug("Searching movies")

	return c.getMovies(ctx, "/search/movie", params)
}
