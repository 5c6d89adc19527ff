package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

type recordingSender struct {
	name string
	err  error
	got  []Event
}

func (s *recordingSender) Send(_ context.Context, ev Event) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, ev)
	return nil
}

func (s *recordingSender) Name() string { return s.name }

func testOpportunity(net float64) domain.Opportunity {
	return domain.Opportunity{
		ID:         "SOL-USDC-Raydium-Orca-1700000000123",
		Pair:       "SOL/USDC",
		BuyVenue:   "Raydium",
		SellVenue:  "Orca",
		BuyPrice:   100,
		SellPrice:  101,
		Spread:     1.0,
		NetProfit:  net,
		Confidence: 58.7,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOpportunityFoundDispatchesToAllSenders(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, []string{"opportunity_found", "source_down"}, 0.5, discardLogger())

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return at }

	n.OpportunityFound(context.Background(), testOpportunity(1.2))

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)

	ev := a.got[0]
	assert.Equal(t, EventOpportunityFound, ev.Kind)
	assert.Equal(t, "Arbitrage opportunity on SOL/USDC", ev.Title)
	assert.Contains(t, ev.Body, "Buy on Raydium at 100.0000")
	assert.Contains(t, ev.Body, "sell on Orca at 101.0000")
	assert.Contains(t, ev.Body, "net profit 1.20%")
	assert.True(t, ev.At.Equal(at))

	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err)
	// Both senders see the same event instance.
	assert.Equal(t, ev.ID, b.got[0].ID)
}

func TestOpportunityBelowFloorIsDropped(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, nil, 1.0, discardLogger())

	n.OpportunityFound(context.Background(), testOpportunity(0.4))

	assert.Empty(t, s.got)
}

func TestKindFilter(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{" source_down "}, 0, discardLogger())

	n.OpportunityFound(context.Background(), testOpportunity(2.0))
	n.SourceDown(context.Background(), "jupiter")

	require.Len(t, s.got, 1)
	ev := s.got[0]
	assert.Equal(t, EventSourceDown, ev.Kind)
	assert.Equal(t, "Quote source down: jupiter", ev.Title)
	assert.Contains(t, ev.Body, "jupiter")
}

func TestEmptyKindListAllowsEverything(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, nil, 0, discardLogger())

	n.OpportunityFound(context.Background(), testOpportunity(2.0))
	n.SourceDown(context.Background(), "coingecko")

	assert.Len(t, s.got, 2)
}

func TestSenderFailureDoesNotBlockOthers(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("unreachable")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, 0, discardLogger())

	n.SourceDown(context.Background(), "jupiter")

	require.Len(t, good.got, 1)
	assert.Equal(t, EventSourceDown, good.got[0].Kind)
}

func TestTelegramSenderPostsMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("TOKEN", "4242")
	s.baseURL = srv.URL

	err := s.Send(context.Background(), Event{
		Title: "Quote source down: jupiter",
		Body:  "details",
	})
	require.NoError(t, err)

	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "4242", gotPayload["chat_id"])
	assert.Equal(t, "Markdown", gotPayload["parse_mode"])
	assert.Equal(t, "*Quote source down: jupiter*\ndetails", gotPayload["text"])
}

func TestTelegramSenderRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewTelegramSender("TOKEN", "4242")
	s.baseURL = srv.URL

	err := s.Send(context.Background(), Event{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDiscordSenderPostsWebhook(t *testing.T) {
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotPayload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)

	err := s.Send(context.Background(), Event{
		Title: "Arbitrage opportunity on SOL/USDC",
		Body:  "details",
	})
	require.NoError(t, err)

	assert.Equal(t, "**Arbitrage opportunity on SOL/USDC**\ndetails", gotPayload["content"])
}

func TestDiscordSenderRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)

	err := s.Send(context.Background(), Event{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
