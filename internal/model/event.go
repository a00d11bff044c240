// Package model defines the canonical Event/Market records every upstream
// payload shape is normalized into. These are the only types the UI sees.
package model

// Tag labels an Event with a category-like grouping (e.g. "Politics").
type Tag struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Slug  string `json:"slug,omitempty"`
}

// Outcome pairs an outcome label with its probability-like price and the
// percentage string the UI renders. Display is empty only when the price
// could not be derived.
type Outcome struct {
	Label   string  `json:"label"`
	Price   float64 `json:"price"`
	Display string  `json:"display"`
}

// Market is a single tradable proposition. Outcomes and OutcomePrices are
// parallel-indexed; when the upstream pair is unusable both are empty and
// Odds is empty, never mismatched.
type Market struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug,omitempty"`
	Question       string    `json:"question"`
	Description    string    `json:"description,omitempty"`
	Outcomes       []string  `json:"outcomes"`
	OutcomePrices  []string  `json:"outcomePrices"`
	Odds           []Outcome `json:"odds"`
	Volume         float64   `json:"volume"`
	Liquidity      float64   `json:"liquidity"`
	Active         bool      `json:"active"`
	Closed         bool      `json:"closed"`
	BestBid        float64   `json:"bestBid"`
	BestAsk        float64   `json:"bestAsk"`
	LastTradePrice float64   `json:"lastTradePrice"`
	// LastTradeDisplay is "No trades" when LastTradePrice is absent or zero.
	LastTradeDisplay string `json:"lastTradeDisplay"`
	StartDate        string `json:"startDate,omitempty"`
	EndDate          string `json:"endDate,omitempty"`
	Image            string `json:"image,omitempty"`
	Icon             string `json:"icon,omitempty"`
}

// Event is a top-level prediction topic. Markets preserves upstream order and
// may be empty. Slug is the stable lookup key; ID is upstream-assigned and
// kept verbatim for traceability only.
type Event struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Image       string   `json:"image,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Active      bool     `json:"active"`
	Closed      bool     `json:"closed"`
	Volume      float64  `json:"volume"`
	Liquidity   float64  `json:"liquidity"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Tags        []Tag    `json:"tags"`
	Markets     []Market `json:"markets"`
}
