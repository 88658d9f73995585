package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeFetcher serves canned pages and records every requested URL
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageURL)

	if err, ok := f.errs[pageURL]; ok {
		return nil, err
	}
	if body, ok := f.pages[pageURL]; ok {
		return &FetchResult{URL: pageURL, StatusCode: 200, Body: []byte(body)}, nil
	}
	return &FetchResult{URL: pageURL, StatusCode: 404}, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func listingBlock(name, link, info, price, image string) string {
	return fmt.Sprintf(`
<li class="s-item">
  <div class="s-item__wrapper clearfix">
    <div class="s-item__image"><img class="s-item__image-img" src="%s" alt=""></div>
    <div class="s-item__info">
      <a class="s-item__link" href="%s"><h3 class="s-item__title">%s</h3></a>
      <div class="s-item__subtitle"><span class="SECONDARY_INFO">%s</span></div>
      <div class="s-item__details"><span class="s-item__price">%s</span></div>
    </div>
  </div>
</li>`, image, link, name, info, price)
}

func searchPage(blocks ...string) string {
	return `<html><head><title>results</title></head><body><ul class="srp-results">` +
		strings.Join(blocks, "\n") +
		`</ul></body></html>`
}

func itemPage(image string) string {
	return fmt.Sprintf(`<html><body><div id="mainImgHldr"><img id="icImg" class="img img500" src="%s"></div></body></html>`, image)
}

func numberedBlocks(n int) []string {
	blocks := make([]string, n)
	for i := range blocks {
		blocks[i] = listingBlock(
			fmt.Sprintf("Item %d", i),
			fmt.Sprintf("https://www.ebay.com/itm/%d", i),
			"Brand New",
			fmt.Sprintf("$%d.00", i+1),
			fmt.Sprintf("https://i.ebayimg.com/thumbs/%d.jpg", i),
		)
	}
	return blocks
}
