package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/itcaat/ebaylog/internal/config"
	"github.com/itcaat/ebaylog/internal/models"
	"github.com/itcaat/ebaylog/internal/parser"
	"github.com/itcaat/ebaylog/internal/server"
)

var (
	configPath = flag.String("config", "", "Path to the config file, defaults are used when empty")
	item       = flag.String("item", "", "What to search for")
	priceLow   = flag.String("from", "", "Lower price bound, only used together with -to")
	priceHigh  = flag.String("to", "", "Upper price bound, only used together with -from")
	asJSON     = flag.Bool("json", false, "Print listings as JSON")
	serve      = flag.Bool("serve", false, "Start the HTTP server instead of running a single search")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	log, err := cfg.Logging.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	searcher := parser.NewSearcher(
		parser.NewFetcher(cfg.Fetch.Timeout, *log),
		parser.SearcherConfig{DetailConcurrency: cfg.Fetch.DetailConcurrency},
		*log,
	)

	if *serve {
		if err = server.NewServer(searcher, *log).ListenAndServe(ctx, cfg.Server); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
		return
	}

	query := models.SearchQuery{Item: *item, PriceLow: *priceLow, PriceHigh: *priceHigh}
	if !query.Valid() {
		fmt.Fprintln(os.Stderr, "Nothing to search for, pass -item or -serve")
		flag.Usage()
		os.Exit(2)
	}

	listings := searcher.Search(ctx, query)

	if *asJSON {
		printJSON(log, listings)
		return
	}
	printListings(query, listings)
}

func printJSON(log *zerolog.Logger, listings []models.Listing) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode listings")
	}
}

func printListings(query models.SearchQuery, listings []models.Listing) {
	fmt.Printf("Searching eBay for %q", query.Item)
	if query.HasPriceRange() {
		fmt.Printf(" from %s to %s", query.PriceLow, query.PriceHigh)
	}
	fmt.Println()

	// Display found listings
	fmt.Printf("Found %d listings\n", len(listings))
	for i, listing := range listings {
		fmt.Printf("\n%d. %s\n", i+1, listing.Name)
		fmt.Printf("   Price: %s\n", listing.Price)

		// Condition and similar notes are often absent
		if listing.SecondaryInfo != models.MissingField {
			fmt.Printf("   Info: %s\n", listing.SecondaryInfo)
		}

		fmt.Printf("   URL: %s\n", listing.Link)
		fmt.Printf("   Image: %s\n", listing.Image)
	}
}
