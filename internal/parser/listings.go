package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/itcaat/ebaylog/internal/models"
)

// MaxListings is how many results are taken from the first search page
const MaxListings = 10

// Selectors for eBay's search results and item pages
const (
	listingSelector       = "div.s-item__wrapper"
	titleSelector         = "h3.s-item__title"
	linkSelector          = "a.s-item__link"
	secondaryInfoSelector = "span.SECONDARY_INFO"
	priceSelector         = "span.s-item__price"
	imageSelector         = "img.s-item__image-img"

	// Item pages use an id instead of a class for the main picture
	detailImageSelector = "img#icImg"
)

// PlaceholderImage is served in place of a thumbnail until it is lazy-loaded
const PlaceholderImage = "https://ir.ebaystatic.com/cr/v/c1/s_1x2.gif"

var (
	// ErrMissingDetailImage means the item page had no main picture
	ErrMissingDetailImage = errors.New("item page has no main image")

	errNoLink = errors.New("listing has no link to follow for its image")
)

// Extractor turns a search results page into listings
type Extractor struct {
	fetcher           PageFetcher
	detailConcurrency int
}

// NewExtractor creates an Extractor. Item pages needed for placeholder images
// are fetched with at most detailConcurrency requests in flight; 1 keeps them
// strictly sequential.
func NewExtractor(fetcher PageFetcher, detailConcurrency int) *Extractor {
	if detailConcurrency < 1 {
		detailConcurrency = 1
	}
	return &Extractor{
		fetcher:           fetcher,
		detailConcurrency: detailConcurrency,
	}
}

// pendingListing is a listing parsed from the search page that may still
// need its image from the item page
type pendingListing struct {
	listing     models.Listing
	needsDetail bool
	err         error
}

// Extract parses markup fetched from pageURL and adds up to MaxListings
// listings to out in page order. A listing that fails is logged and skipped;
// the others are still added.
func (e *Extractor) Extract(ctx context.Context, pageURL string, markup []byte, out *ResultSet) error {
	log := zerolog.Ctx(ctx)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return fmt.Errorf("error parsing HTML: %w", err)
	}

	blocks := doc.Find(listingSelector)
	if blocks.Length() > MaxListings {
		blocks = blocks.Slice(0, MaxListings)
	}
	log.Debug().Int("count", blocks.Length()).Msg("Found listing blocks")

	pending := make([]pendingListing, blocks.Length())
	blocks.Each(func(i int, s *goquery.Selection) {
		pending[i] = parseListing(s)
	})

	// Replace placeholder thumbnails from the item pages
	var g errgroup.Group
	g.SetLimit(e.detailConcurrency)
	for i := range pending {
		p := &pending[i]
		if p.err != nil || !p.needsDetail {
			continue
		}
		g.Go(func() error {
			p.err = e.resolveImage(ctx, pageURL, &p.listing)
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range pending {
		if p.err != nil {
			log.Warn().Err(p.err).Int("position", i).Str("link", p.listing.Link).Msg("Skipping listing")
			continue
		}
		out.Add(p.listing)
	}

	return nil
}

// parseListing extracts listing fields from a result block
func parseListing(item *goquery.Selection) (p pendingListing) {
	defer func() {
		if r := recover(); r != nil {
			p.err = fmt.Errorf("panic parsing listing: %v", r)
		}
	}()

	listing := models.NewListing()

	// Extract name
	if name := item.Find(titleSelector).First(); name.Length() > 0 {
		listing.Name = name.Text()
	}

	// Extract link from href, not the anchor text
	if href, exists := item.Find(linkSelector).First().Attr("href"); exists {
		listing.Link = href
	}

	// Extract condition (Brand New, Pre-Owned, ...)
	if info := item.Find(secondaryInfoSelector).First(); info.Length() > 0 {
		listing.SecondaryInfo = info.Text()
	}

	// Extract price, may be a range
	if price := item.Find(priceSelector).First(); price.Length() > 0 {
		listing.Price = price.Text()
	}

	// Extract image URL
	if src, exists := item.Find(imageSelector).First().Attr("src"); exists {
		listing.Image = src
	}

	return pendingListing{
		listing:     listing,
		needsDetail: listing.Image == PlaceholderImage,
	}
}

// resolveImage fetches the listing's item page and takes the main picture
// from it. The result is used as is, even if it is the placeholder again.
func (e *Extractor) resolveImage(ctx context.Context, pageURL string, listing *models.Listing) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic resolving image: %v", r)
		}
	}()

	detailURL := resolveLink(pageURL, listing.Link)
	if detailURL == "" {
		return errNoLink
	}

	zerolog.Ctx(ctx).Debug().Str("url", detailURL).Msg("Fetching item page for image")

	res, err := e.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return fmt.Errorf("error parsing item page: %w", err)
	}

	img := doc.Find(detailImageSelector).First()
	if img.Length() == 0 {
		return fmt.Errorf("%s: %w", detailURL, ErrMissingDetailImage)
	}

	listing.Image = models.MissingField
	if src, exists := img.Attr("src"); exists {
		listing.Image = src
	}
	return nil
}
