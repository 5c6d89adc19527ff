package domain

import "time"

// QuoteSource tags which upstream path produced a quote.
type QuoteSource string

const (
	// SourceJupiter marks a quote parsed from a real quote-API response.
	SourceJupiter QuoteSource = "jupiter"
	// SourceJupiterSimulated marks a quote synthesized for a venue the
	// quote API did not cover, derived from the real quote's price.
	SourceJupiterSimulated QuoteSource = "jupiter_simulated"
	// SourceCoinGecko marks a quote derived from the backup price API.
	SourceCoinGecko QuoteSource = "coingecko"
)

// Quote is one venue's priced view of a trading pair. Quotes are built
// fresh each polling cycle and never mutated.
type Quote struct {
	Venue         string      `json:"dex"`
	Price         float64     `json:"price"`
	Liquidity     float64     `json:"liquidity"`
	Slippage      float64     `json:"slippage"`
	DirectRoute   []string    `json:"directRoute"`
	MultiHopRoute []string    `json:"multiHopRoute"`
	Fees          float64     `json:"fees"`
	Source        QuoteSource `json:"source"`
}

// VenueQuoteSet is the set of venue quotes for one pair captured in one
// polling cycle. CapturedAt drives the staleness cutoff; a set older than
// the cutoff contributes nothing to detection.
type VenueQuoteSet struct {
	Pair       string
	Quotes     []Quote
	CapturedAt time.Time
}
