package domain

// TradingPair identifies one monitored market and how to address it on the
// upstream sources: mint addresses for the quote API, coin ids for the
// price API.
type TradingPair struct {
	Symbol      string // e.g. "SOL/USDC"
	Base        string
	Quote       string
	BaseMint    string
	QuoteMint   string
	BaseCoinID  string
	QuoteCoinID string
}

// usdcMint is shared by every default pair.
const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// DefaultPairs returns the fixed set of pairs tracked at startup.
func DefaultPairs() []TradingPair {
	return []TradingPair{
		{
			Symbol:      "SOL/USDC",
			Base:        "SOL",
			Quote:       "USDC",
			BaseMint:    "So11111111111111111111111111111111111111112",
			QuoteMint:   usdcMint,
			BaseCoinID:  "solana",
			QuoteCoinID: "usd-coin",
		},
		{
			Symbol:      "RAY/USDC",
			Base:        "RAY",
			Quote:       "USDC",
			BaseMint:    "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
			QuoteMint:   usdcMint,
			BaseCoinID:  "raydium",
			QuoteCoinID: "usd-coin",
		},
		{
			Symbol:      "ORCA/USDC",
			Base:        "ORCA",
			Quote:       "USDC",
			BaseMint:    "orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE",
			QuoteMint:   usdcMint,
			BaseCoinID:  "orca",
			QuoteCoinID: "usd-coin",
		},
		{
			Symbol:      "BONK/USDC",
			Base:        "BONK",
			Quote:       "USDC",
			BaseMint:    "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
			QuoteMint:   usdcMint,
			BaseCoinID:  "bonk",
			QuoteCoinID: "usd-coin",
		},
		{
			Symbol:      "JUP/USDC",
			Base:        "JUP",
			Quote:       "USDC",
			BaseMint:    "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
			QuoteMint:   usdcMint,
			BaseCoinID:  "jupiter-exchange-solana",
			QuoteCoinID: "usd-coin",
		},
	}
}
