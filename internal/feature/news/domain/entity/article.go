// Package entity defines the domain models for the news feature.
package entity

import "time"

// Headline is one link scraped from a news listing page.
type Headline struct {
	Title string
	URL   string
}

// Article is a stored news headline. URL is unique.
type Article struct {
	ID          uint
	Headline    string
	URL         string
	Source      string
	PublishedAt time.Time // insert time; the listing page does not expose one
	TickerIDs   []uint    // tickers to link on insert
	Symbols     []string  // linked symbols, filled on read
}

// CollectResult summarizes one news collection pass.
type CollectResult struct {
	Scraped  int
	Inserted int
	Linked   int // articles linked to at least one ticker
}
