// Package notify tells members what they owe for a bill.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/metrics"
)

// Sender delivers a message to a phone number and returns the provider's
// message ID.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// PhoneBook looks up the phone number registered for an identity.
type PhoneBook interface {
	PhoneFor(identity string) (string, bool)
}

// State is the outcome of one notification.
type State string

const (
	StateSkipped  State = "skipped"
	StateSent     State = "sent"
	StateMockSent State = "mock_sent"
	StateFailed   State = "failed"
)

// Status is the per-identity notification result.
type Status struct {
	State State

	// Detail is the message ID when sent, or the error when failed.
	Detail string
}

func (s Status) String() string {
	switch s.State {
	case StateSkipped:
		return "skipped (no phone number)"
	case StateSent:
		return fmt.Sprintf("sent (sid: %s)", s.Detail)
	case StateFailed:
		return fmt.Sprintf("failed (%s)", s.Detail)
	default:
		return string(s.State)
	}
}

// Notifier sends each identity its share of a bill.
type Notifier struct {
	sender  Sender
	metrics *metrics.Metrics
}

// NewNotifier creates a notifier that delivers through sender.
func NewNotifier(sender Sender, m *metrics.Metrics) *Notifier {
	return &Notifier{sender: sender, metrics: m}
}

// Message returns the text sent to identity for amount.
func Message(identity string, amount decimal.Decimal) string {
	return fmt.Sprintf("Hello %s, your share of the wireless bill this month is $%s. Please pay at your earliest convenience.",
		identity, amount.StringFixed(2))
}

// Notify messages every identity in amounts that has a phone number. A
// failed send does not stop the others.
func (n *Notifier) Notify(ctx context.Context, amounts map[string]decimal.Decimal, phones PhoneBook) map[string]Status {
	identities := make([]string, 0, len(amounts))
	for id := range amounts {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	var dryRun bool
	switch n.sender.(type) {
	case LogSender, *LogSender:
		dryRun = true
	}

	results := make(map[string]Status, len(amounts))
	for _, id := range identities {
		status := n.notifyOne(ctx, id, amounts[id], phones, dryRun)
		results[id] = status
		n.metrics.Notified(string(status.State))
	}
	return results
}

func (n *Notifier) notifyOne(ctx context.Context, identity string, amount decimal.Decimal, phones PhoneBook, dryRun bool) Status {
	var phone string
	if phones != nil {
		phone, _ = phones.PhoneFor(identity)
	}
	if phone == "" {
		slog.Debug("No phone number, skipping notification", "identity", identity)
		return Status{State: StateSkipped}
	}

	sid, err := n.sender.Send(ctx, phone, Message(identity, amount))
	if err != nil {
		slog.Warn("Failed to send notification", "identity", identity, "error", err)
		return Status{State: StateFailed, Detail: err.Error()}
	}
	if dryRun {
		return Status{State: StateMockSent}
	}
	return Status{State: StateSent, Detail: sid}
}

// LogSender logs messages instead of sending them. It is used when no
// messaging credentials are configured.
type LogSender struct{}

// Send logs the message.
func (LogSender) Send(ctx context.Context, to, body string) (string, error) {
	slog.InfoContext(ctx, "Mock send", "to", to, "body", body)
	return "", nil
}
