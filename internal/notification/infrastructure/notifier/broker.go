package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/subslayer/internal/notification/domain"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// RoutingKeyRenewalReminder is the routing key of reminder messages.
const RoutingKeyRenewalReminder = "notification.renewal_reminder"

// ReminderMessage is the broker payload consumed by the mail relay.
type ReminderMessage struct {
	Type     string          `json:"type"`
	Reminder domain.Reminder `json:"reminder"`
	Totals   []domain.Total  `json:"totals"`
	Subject  string          `json:"subject"`
	Text     string          `json:"text"`
	HTML     string          `json:"html"`
	SentAt   time.Time       `json:"sent_at"`
}

// BrokerNotifier hands reminders to the message broker.
type BrokerNotifier struct {
	publisher eventbus.Publisher
	appURL    string
	metrics   observability.Metrics
}

// NewBrokerNotifier creates a notifier publishing to publisher.
func NewBrokerNotifier(publisher eventbus.Publisher, appURL string, metrics observability.Metrics) *BrokerNotifier {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &BrokerNotifier{publisher: publisher, appURL: appURL, metrics: metrics}
}

func (n *BrokerNotifier) Send(ctx context.Context, reminder domain.Reminder) error {
	html, err := reminder.HTMLBody(n.appURL)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ReminderMessage{
		Type:     "renewal_reminder",
		Reminder: reminder,
		Totals:   reminder.Totals(),
		Subject:  reminder.Subject(),
		Text:     reminder.TextBody(),
		HTML:     html,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode reminder: %w", err)
	}

	if err := n.publisher.Publish(ctx, RoutingKeyRenewalReminder, payload); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	n.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", RoutingKeyRenewalReminder))
	return nil
}

var _ domain.Notifier = (*BrokerNotifier)(nil)
