package parser

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/itcaat/ebaylog/internal/models"
)

// SearcherConfig tunes a Searcher
type SearcherConfig struct {
	// BaseURL replaces SearchBaseURL when set
	BaseURL string
	// DetailConcurrency caps parallel item page fetches
	DetailConcurrency int
}

// Searcher runs a search end to end: build URL, fetch, extract, collect
type Searcher struct {
	fetcher   PageFetcher
	extractor *Extractor
	baseURL   string
	log       zerolog.Logger
}

// NewSearcher creates a Searcher on top of fetcher
func NewSearcher(fetcher PageFetcher, cfg SearcherConfig, log zerolog.Logger) *Searcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = SearchBaseURL
	}
	return &Searcher{
		fetcher:   fetcher,
		extractor: NewExtractor(fetcher, cfg.DetailConcurrency),
		baseURL:   baseURL,
		log:       log.With().Str("component", "searcher").Logger(),
	}
}

// Search runs q and returns its listings. A query without an item performs
// no request and returns no listings.
func (s *Searcher) Search(ctx context.Context, q models.SearchQuery) []models.Listing {
	if !q.Valid() {
		s.log.Debug().Msg("Empty item, skipping search")
		return []models.Listing{}
	}
	return s.Run(ctx, BuildSearchURLWithBase(s.baseURL, q))
}

// Run fetches searchURL and extracts its listings. It never fails: errors are
// logged and whatever was collected before them is returned, possibly nothing.
func (s *Searcher) Run(ctx context.Context, searchURL string) (listings []models.Listing) {
	log := s.log.With().
		Str("search_id", uuid.NewString()).
		Str("url", searchURL).
		Logger()
	ctx = log.WithContext(ctx)

	results := &ResultSet{}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("collected", results.Len()).Msg("Search aborted")
			listings = results.Listings()
		}
	}()

	if err := s.scrape(ctx, searchURL, results); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			log.Warn().Int("status", statusErr.StatusCode).Msg("Search page not available")
		} else {
			log.Error().Err(err).Int("collected", results.Len()).Msg("Search failed")
		}
	}

	log.Info().Int("listings", results.Len()).Msg("Search finished")
	return results.Listings()
}

// scrape is Run with errors
func (s *Searcher) scrape(ctx context.Context, searchURL string, results *ResultSet) error {
	res, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	return s.extractor.Extract(ctx, searchURL, res.Body, results)
}
