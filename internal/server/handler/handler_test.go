package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

type fakeMonitor struct {
	sets    map[string]domain.VenueQuoteSet
	opps    []domain.Opportunity
	history map[string][]float64
	display map[string][]float64
	sim     domain.TradeSimulation
	simErr  error

	lastMinNet      float64
	lastPair        string
	lastSimID       string
	lastSimAmount   float64
	lastDisplayPair string
}

var _ Monitor = (*fakeMonitor)(nil)

func (m *fakeMonitor) Quotes(pair string) (domain.VenueQuoteSet, bool) {
	set, ok := m.sets[pair]
	return set, ok
}

func (m *fakeMonitor) Opportunities(minNetProfit float64, pair string) []domain.Opportunity {
	m.lastMinNet = minNetProfit
	m.lastPair = pair
	return m.opps
}

func (m *fakeMonitor) Simulate(_ context.Context, opportunityID string, amount float64) (domain.TradeSimulation, error) {
	m.lastSimID = opportunityID
	m.lastSimAmount = amount
	return m.sim, m.simErr
}

func (m *fakeMonitor) History(pair string) []float64 { return m.history[pair] }

func (m *fakeMonitor) DisplayHistory(pair string) []float64 {
	m.lastDisplayPair = pair
	return m.display[pair]
}

func (m *fakeMonitor) TrackedPairCount() int { return len(m.sets) }
func (m *fakeMonitor) OpportunityCount() int { return len(m.opps) }

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testOpportunity(id string, net float64) domain.Opportunity {
	return domain.Opportunity{
		ID:          id,
		Pair:        "SOL/USDC",
		BuyVenue:    "Raydium",
		SellVenue:   "Orca",
		BuyPrice:    100,
		SellPrice:   101,
		Spread:      1.0,
		GrossProfit: 0.7,
		GasEstimate: 0.025,
		NetProfit:   net,
		Confidence:  58.7,
		Timestamp:   1700000000123,
		Route:       []string{"Buy on Raydium", "Sell on Orca"},
		DataSource:  "jupiter",
	}
}

func TestListQuotes(t *testing.T) {
	monitor := &fakeMonitor{
		sets: map[string]domain.VenueQuoteSet{
			"RAY/USDC": {
				Pair: "RAY/USDC",
				Quotes: []domain.Quote{
					{Venue: "Raydium", Price: 2.5, Liquidity: 5000, Source: domain.SourceJupiter},
					{Venue: "Orca", Price: 2.52, Liquidity: 4000, Source: domain.SourceJupiter},
				},
			},
		},
	}
	h := NewQuotesHandler(monitor, discardLogger())

	rr := httptest.NewRecorder()
	h.ListQuotes(rr, httptest.NewRequest(http.MethodGet, "/api/quotes?pair=RAY/USDC", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var body struct {
		Pair      string         `json:"pair"`
		Timestamp int64          `json:"timestamp"`
		Quotes    []domain.Quote `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "RAY/USDC", body.Pair)
	assert.Positive(t, body.Timestamp)
	require.Len(t, body.Quotes, 2)
	assert.Equal(t, "Raydium", body.Quotes[0].Venue)
}

func TestListQuotesDefaultsPair(t *testing.T) {
	h := NewQuotesHandler(&fakeMonitor{}, discardLogger())

	rr := httptest.NewRecorder()
	h.ListQuotes(rr, httptest.NewRequest(http.MethodGet, "/api/quotes", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	// An untracked pair still yields an empty array, not null.
	assert.Contains(t, rr.Body.String(), `"pair":"SOL/USDC"`)
	assert.Contains(t, rr.Body.String(), `"quotes":[]`)
}

func TestListOpportunities(t *testing.T) {
	monitor := &fakeMonitor{
		opps: []domain.Opportunity{
			testOpportunity("a", 1.5),
			testOpportunity("b", 0.8),
		},
	}
	h := NewArbitrageHandler(monitor, discardLogger())

	rr := httptest.NewRecorder()
	h.ListOpportunities(rr, httptest.NewRequest(http.MethodGet,
		"/api/arbitrage/opportunities?minPnl=0.5&maxLatency=1000&pair=All", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0.5, monitor.lastMinNet)
	assert.Equal(t, "All", monitor.lastPair)

	var body struct {
		Opportunities []domain.Opportunity `json:"opportunities"`
		TotalCount    int                  `json:"totalCount"`
		Timestamp     int64                `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TotalCount)
	require.Len(t, body.Opportunities, 2)
	assert.Equal(t, "a", body.Opportunities[0].ID)
	assert.Positive(t, body.Timestamp)
}

func TestListOpportunitiesRejectsBadParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{name: "minPnl not a number", query: "minPnl=abc", wantMsg: "minPnl must be a number"},
		{name: "maxLatency not an integer", query: "maxLatency=soon", wantMsg: "maxLatency must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewArbitrageHandler(&fakeMonitor{}, discardLogger())

			rr := httptest.NewRecorder()
			h.ListOpportunities(rr, httptest.NewRequest(http.MethodGet,
				"/api/arbitrage/opportunities?"+tt.query, nil))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantMsg)
		})
	}
}

func TestSimulateTrade(t *testing.T) {
	sim := domain.TradeSimulation{
		Success:          true,
		ExecutionTime:    342,
		OriginalEstimate: 1.5,
		ActualProfit:     2.7,
		SlippageImpact:   0.32,
		GasUsed:          0.025,
		Route:            []string{"Buy on Raydium", "Sell on Orca"},
		Timestamp:        1700000000456,
	}
	monitor := &fakeMonitor{sim: sim}
	h := NewSimulateHandler(monitor, discardLogger())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate/trade",
		strings.NewReader(`{"opportunityId":"SOL-USDC-Raydium-Orca-1700000000123","amount":2000}`))
	h.SimulateTrade(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "SOL-USDC-Raydium-Orca-1700000000123", monitor.lastSimID)
	assert.Equal(t, 2000.0, monitor.lastSimAmount)

	var got domain.TradeSimulation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, sim, got)
}

func TestSimulateTradeDefaultsAmount(t *testing.T) {
	monitor := &fakeMonitor{sim: domain.TradeSimulation{Success: true}}
	h := NewSimulateHandler(monitor, discardLogger())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate/trade",
		strings.NewReader(`{"opportunityId":"x"}`))
	h.SimulateTrade(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1000.0, monitor.lastSimAmount)
}

func TestSimulateTradeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		simErr     error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unknown opportunity",
			body:       `{"opportunityId":"gone"}`,
			simErr:     fmt.Errorf("engine: simulate %q: %w", "gone", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantMsg:    "Opportunity not found",
		},
		{
			name:       "missing id",
			body:       `{"amount":500}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "opportunityId is required",
		},
		{
			name:       "malformed body",
			body:       `{"opportunityId":`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid request body",
		},
		{
			name:       "internal failure",
			body:       `{"opportunityId":"x"}`,
			simErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "simulation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := &fakeMonitor{simErr: tt.simErr}
			h := NewSimulateHandler(monitor, discardLogger())

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/simulate/trade",
				strings.NewReader(tt.body))
			h.SimulateTrade(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantMsg)
		})
	}
}

func TestRawHistory(t *testing.T) {
	monitor := &fakeMonitor{
		history: map[string][]float64{
			"SOL/USDC": {1.0, 1.2, 0.9},
		},
	}
	h := NewHistoryHandler(monitor, discardLogger())

	rr := httptest.NewRecorder()
	h.RawHistory(rr, httptest.NewRequest(http.MethodGet, "/api/price-history", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Pair    string    `json:"pair"`
		History []float64 `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "SOL/USDC", body.Pair)
	assert.Equal(t, []float64{1.0, 1.2, 0.9}, body.History)
}

func TestRawHistoryUnknownPairIsEmpty(t *testing.T) {
	h := NewHistoryHandler(&fakeMonitor{}, discardLogger())

	rr := httptest.NewRecorder()
	h.RawHistory(rr, httptest.NewRequest(http.MethodGet, "/api/price-history?pair=BONK/USDC", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"history":[]`)
}

func TestChartHistoryConvertsDashPair(t *testing.T) {
	monitor := &fakeMonitor{
		display: map[string][]float64{
			"RAY/USDC": {1.0, 1.1},
		},
	}
	h := NewHistoryHandler(monitor, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/price-history/{pair}", h.ChartHistory)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/price-history/RAY-USDC", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "RAY/USDC", monitor.lastDisplayPair)

	var body struct {
		Pair    string    `json:"pair"`
		History []float64 `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "RAY/USDC", body.Pair)
	assert.Equal(t, []float64{1.0, 1.1}, body.History)
}

func TestHealthCheck(t *testing.T) {
	monitor := &fakeMonitor{
		sets: map[string]domain.VenueQuoteSet{
			"SOL/USDC": {},
			"RAY/USDC": {},
		},
		opps: []domain.Opportunity{testOpportunity("a", 1.0)},
	}

	tests := []struct {
		name          string
		primaryErr    error
		secondaryErr  error
		wantPrimary   string
		wantSecondary string
	}{
		{name: "both up", wantPrimary: "active", wantSecondary: "active"},
		{name: "secondary down", secondaryErr: errors.New("timeout"), wantPrimary: "active", wantSecondary: "error"},
		{name: "primary down", primaryErr: errors.New("refused"), wantPrimary: "error", wantSecondary: "active"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(monitor,
				&fakePinger{err: tt.primaryErr},
				&fakePinger{err: tt.secondaryErr},
				discardLogger())

			rr := httptest.NewRecorder()
			h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rr.Code)

			var body struct {
				Status        string                    `json:"status"`
				Timestamp     int64                     `json:"timestamp"`
				Opportunities int                       `json:"opportunities_count"`
				Pairs         int                       `json:"pairs_tracking"`
				DataSources   map[string]map[string]any `json:"data_sources"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

			assert.Equal(t, "healthy", body.Status)
			assert.Positive(t, body.Timestamp)
			assert.Equal(t, 1, body.Opportunities)
			assert.Equal(t, 2, body.Pairs)

			require.Contains(t, body.DataSources, "jupiter")
			assert.Equal(t, tt.wantPrimary, body.DataSources["jupiter"]["status"])
			assert.Equal(t, true, body.DataSources["jupiter"]["primary"])

			require.Contains(t, body.DataSources, "coingecko")
			assert.Equal(t, tt.wantSecondary, body.DataSources["coingecko"]["status"])
			assert.Equal(t, true, body.DataSources["coingecko"]["backup"])
		})
	}
}
