// Package domain defines domain-level errors for the news feature.
package domain

import "fmt"

// ScrapeError is a failure to load or parse a news listing.
// The news step is skipped; prices are not affected.
type ScrapeError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *ScrapeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scrape %s: http %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scrape %s: %v", e.Source, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}
