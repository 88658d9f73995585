package parser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itcaat/ebaylog/internal/models"
)

const testPageURL = "https://www.ebay.com/sch/i.html?_from=R40&_nkw=x&_ipg=25"

func extract(t *testing.T, e *Extractor, markup string) []models.Listing {
	t.Helper()
	out := &ResultSet{}
	require.NoError(t, e.Extract(context.Background(), testPageURL, []byte(markup), out))
	return out.Listings()
}

func TestExtract_AllFields(t *testing.T) {
	fetcher := newFakeFetcher()
	page := searchPage(listingBlock(
		"Logitech M185 Wireless Mouse",
		"https://www.ebay.com/itm/111",
		"Brand New",
		"$12.99",
		"https://i.ebayimg.com/thumbs/111.jpg",
	))

	got := extract(t, NewExtractor(fetcher, 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, models.Listing{
		Name:          "Logitech M185 Wireless Mouse",
		Link:          "https://www.ebay.com/itm/111",
		SecondaryInfo: "Brand New",
		Price:         "$12.99",
		Image:         "https://i.ebayimg.com/thumbs/111.jpg",
	}, got[0])
	assert.Empty(t, fetcher.Calls())
}

func TestExtract_CountAndOrder(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		t.Run(fmt.Sprintf("%d blocks", n), func(t *testing.T) {
			got := extract(t, NewExtractor(newFakeFetcher(), 1), searchPage(numberedBlocks(n)...))
			require.Len(t, got, n)
			for i, l := range got {
				assert.Equal(t, fmt.Sprintf("Item %d", i), l.Name)
			}
		})
	}
}

func TestExtract_TakesFirstTen(t *testing.T) {
	got := extract(t, NewExtractor(newFakeFetcher(), 1), searchPage(numberedBlocks(25)...))

	require.Len(t, got, MaxListings)
	assert.Equal(t, "Item 0", got[0].Name)
	assert.Equal(t, "Item 9", got[9].Name)
}

func TestExtract_NoListingsInMarkup(t *testing.T) {
	got := extract(t, NewExtractor(newFakeFetcher(), 1), `<html><body><p>Something changed</p></body></html>`)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtract_MissingNodesDefaultToSpace(t *testing.T) {
	page := searchPage(`<li><div class="s-item__wrapper"><div>nothing here</div></div></li>`)

	got := extract(t, NewExtractor(newFakeFetcher(), 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, models.NewListing(), got[0])
	assert.Equal(t, " ", got[0].Name)
}

func TestExtract_MissingTitleOnly(t *testing.T) {
	page := searchPage(`
<div class="s-item__wrapper">
  <img class="s-item__image-img" src="https://i.ebayimg.com/a.jpg">
  <a class="s-item__link" href="https://www.ebay.com/itm/1">link text</a>
  <span class="SECONDARY_INFO">Pre-Owned</span>
  <span class="s-item__price">$5.00</span>
</div>`)

	got := extract(t, NewExtractor(newFakeFetcher(), 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, " ", got[0].Name)
	assert.Equal(t, "https://www.ebay.com/itm/1", got[0].Link)
	assert.Equal(t, "Pre-Owned", got[0].SecondaryInfo)
	assert.Equal(t, "$5.00", got[0].Price)
}

func TestExtract_PresentButEmptyNodeKeepsEmptyText(t *testing.T) {
	page := searchPage(listingBlock("", "https://www.ebay.com/itm/1", "", "$1.00", "https://i.ebayimg.com/a.jpg"))

	got := extract(t, NewExtractor(newFakeFetcher(), 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Name)
	assert.Equal(t, "", got[0].SecondaryInfo)
}

func TestExtract_AnchorWithoutHref(t *testing.T) {
	page := searchPage(`<div class="s-item__wrapper"><a class="s-item__link">no href</a></div>`)

	got := extract(t, NewExtractor(newFakeFetcher(), 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, " ", got[0].Link)
}

func TestExtract_PlaceholderImageFetchesItemPage(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages["https://www.ebay.com/itm/222"] = itemPage("https://i.ebayimg.com/images/g/222/s-l500.jpg")
	page := searchPage(listingBlock("Mouse", "https://www.ebay.com/itm/222", "Used", "$3.00", PlaceholderImage))

	got := extract(t, NewExtractor(fetcher, 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, "https://i.ebayimg.com/images/g/222/s-l500.jpg", got[0].Image)
	assert.Equal(t, []string{"https://www.ebay.com/itm/222"}, fetcher.Calls())
}

func TestExtract_ItemPagePlaceholderIsTrusted(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages["https://www.ebay.com/itm/3"] = itemPage(PlaceholderImage)
	page := searchPage(listingBlock("Mouse", "https://www.ebay.com/itm/3", "Used", "$3.00", PlaceholderImage))

	got := extract(t, NewExtractor(fetcher, 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, PlaceholderImage, got[0].Image)
	assert.Len(t, fetcher.Calls(), 1)
}

func TestExtract_RelativeLinkResolvedForItemPage(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages["https://www.ebay.com/itm/77"] = itemPage("https://i.ebayimg.com/77.jpg")
	page := searchPage(listingBlock("Mouse", "/itm/77", "Used", "$3.00", PlaceholderImage))

	got := extract(t, NewExtractor(fetcher, 1), page)

	require.Len(t, got, 1)
	assert.Equal(t, "/itm/77", got[0].Link)
	assert.Equal(t, "https://i.ebayimg.com/77.jpg", got[0].Image)
}

func TestExtract_FailedRecordIsSkippedOthersKept(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs["https://www.ebay.com/itm/1"] = errors.New("connection reset")
	fetcher.pages["https://www.ebay.com/itm/3"] = `<html><body>no picture</body></html>`
	fetcher.pages["https://www.ebay.com/itm/4"] = itemPage("https://i.ebayimg.com/4.jpg")

	page := searchPage(
		listingBlock("Zero", "https://www.ebay.com/itm/0", "New", "$1", "https://i.ebayimg.com/0.jpg"),
		listingBlock("One", "https://www.ebay.com/itm/1", "New", "$1", PlaceholderImage),
		listingBlock("Two", "https://www.ebay.com/itm/2", "New", "$1", PlaceholderImage),
		listingBlock("Three", "https://www.ebay.com/itm/3", "New", "$1", PlaceholderImage),
		listingBlock("Four", "https://www.ebay.com/itm/4", "New", "$1", PlaceholderImage),
		`<div class="s-item__wrapper"><span class="s-item__price">$9</span><img class="s-item__image-img" src="`+PlaceholderImage+`"></div>`,
	)

	got := extract(t, NewExtractor(fetcher, 1), page)

	// One: transport error, Two: 404, Three: no #icImg, last: no link
	require.Len(t, got, 2)
	assert.Equal(t, "Zero", got[0].Name)
	assert.Equal(t, "Four", got[1].Name)
	assert.Equal(t, "https://i.ebayimg.com/4.jpg", got[1].Image)
	assert.Len(t, fetcher.Calls(), 4)
}

func TestExtract_ConcurrentItemPagesKeepOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	var blocks []string
	for i := 0; i < MaxListings; i++ {
		link := fmt.Sprintf("https://www.ebay.com/itm/%d", i)
		fetcher.pages[link] = itemPage(fmt.Sprintf("https://i.ebayimg.com/%d.jpg", i))
		blocks = append(blocks, listingBlock(fmt.Sprintf("Item %d", i), link, "New", "$1", PlaceholderImage))
	}

	got := extract(t, NewExtractor(fetcher, 4), searchPage(blocks...))

	require.Len(t, got, MaxListings)
	for i, l := range got {
		assert.Equal(t, fmt.Sprintf("Item %d", i), l.Name)
		assert.Equal(t, fmt.Sprintf("https://i.ebayimg.com/%d.jpg", i), l.Image)
	}
	assert.Len(t, fetcher.Calls(), MaxListings)
}

func TestExtract_CancelledContextDropsPendingImages(t *testing.T) {
	fetcher := newFakeFetcher()
	page := searchPage(
		listingBlock("Ready", "https://www.ebay.com/itm/0", "New", "$1", "https://i.ebayimg.com/0.jpg"),
		listingBlock("Pending", "https://www.ebay.com/itm/1", "New", "$1", PlaceholderImage),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher.errs["https://www.ebay.com/itm/1"] = context.Canceled

	out := &ResultSet{}
	require.NoError(t, NewExtractor(fetcher, 1).Extract(ctx, testPageURL, []byte(page), out))

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "Ready", out.Listings()[0].Name)
}

func TestNewExtractor_ClampsConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewExtractor(newFakeFetcher(), 0).detailConcurrency)
	assert.Equal(t, 1, NewExtractor(newFakeFetcher(), -3).detailConcurrency)
	assert.Equal(t, 5, NewExtractor(newFakeFetcher(), 5).detailConcurrency)
}
