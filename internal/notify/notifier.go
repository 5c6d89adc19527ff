// Package notify fans monitor alerts out to delivery channels. Events are
// dispatched to all registered senders (Telegram, Discord, etc.) and can be
// filtered by kind so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/engine"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers one event.
	Send(ctx context.Context, ev Event) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier turns engine alerts into events and dispatches them to one or
// more Senders. It maintains a set of allowed event kinds; alerts whose kind
// is not in the set are dropped, as are opportunity alerts below the
// configured net-profit floor. An empty kind set allows everything.
type Notifier struct {
	senders      []Sender
	allowed      map[EventKind]bool
	minNetProfit float64
	logger       *slog.Logger

	now func() time.Time
}

var _ engine.Alerter = (*Notifier)(nil)

// NewNotifier creates a Notifier that will deliver to the given senders.
// events holds the allowed kinds as configured (whitespace is tolerated);
// an empty slice allows all kinds. Opportunity alerts with a net profit
// below minNetProfit are never dispatched.
func NewNotifier(senders []Sender, events []string, minNetProfit float64, logger *slog.Logger) *Notifier {
	allowed := make(map[EventKind]bool, len(events))
	for _, e := range events {
		allowed[EventKind(strings.TrimSpace(e))] = true
	}
	return &Notifier{
		senders:      senders,
		allowed:      allowed,
		minNetProfit: minNetProfit,
		logger:       logger.With(slog.String("component", "notifier")),
		now:          time.Now,
	}
}

// OpportunityFound dispatches an alert for the cycle's best opportunity.
func (n *Notifier) OpportunityFound(ctx context.Context, opp domain.Opportunity) {
	if opp.NetProfit < n.minNetProfit {
		n.logger.DebugContext(ctx, "opportunity below alert floor",
			slog.String("opportunity_id", opp.ID),
			slog.Float64("net_profit", opp.NetProfit),
		)
		return
	}

	n.notify(ctx, Event{
		ID:    uuid.NewString(),
		Kind:  EventOpportunityFound,
		Title: fmt.Sprintf("Arbitrage opportunity on %s", opp.Pair),
		Body: fmt.Sprintf("Buy on %s at %.4f, sell on %s at %.4f\nSpread %.2f%%, net profit %.2f%% (confidence %.0f%%)",
			opp.BuyVenue, opp.BuyPrice, opp.SellVenue, opp.SellPrice,
			opp.Spread, opp.NetProfit, opp.Confidence),
		At: n.now(),
	})
}

// SourceDown dispatches an alert when a quote source stops serving.
func (n *Notifier) SourceDown(ctx context.Context, source string) {
	n.notify(ctx, Event{
		ID:    uuid.NewString(),
		Kind:  EventSourceDown,
		Title: fmt.Sprintf("Quote source down: %s", source),
		Body:  fmt.Sprintf("The %s source returned no usable quotes this cycle. Monitoring continues on the remaining source.", source),
		At:    n.now(),
	})
}

// notify applies the kind filter and hands the event to every sender.
func (n *Notifier) notify(ctx context.Context, ev Event) {
	if len(n.allowed) > 0 && !n.allowed[ev.Kind] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("kind", string(ev.Kind)),
		)
		return
	}
	n.dispatch(ctx, ev)
}

// dispatch iterates over all senders and delivers the event. A single
// sender failure does not prevent delivery to the remaining senders;
// failures are collected into one error log line.
func (n *Notifier) dispatch(ctx context.Context, ev Event) {
	if len(n.senders) == 0 {
		return
	}

	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, ev); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("kind", string(ev.Kind)),
		)
	}

	if len(failed) > 0 {
		n.logger.ErrorContext(ctx, "delivery failed",
			slog.String("event_id", ev.ID),
			slog.String("failures", strings.Join(failed, "; ")),
		)
	}
}
