package domain

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	tracking "github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

// DefaultAppURL is linked from reminder emails when no URL is configured.
const DefaultAppURL = "https://subslayer.vercel.app"

// ReminderItem is one subscription in a reminder.
type ReminderItem struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	ServiceName    string          `json:"service_name"`
	Cost           decimal.Decimal `json:"cost"`
	Currency       string          `json:"currency"`
	RenewalDate    string          `json:"renewal_date"`
	DaysUntil      int             `json:"days_until"`
}

// Total is the reminder amount in one currency.
type Total struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// Reminder tells one user about their upcoming renewals.
type Reminder struct {
	UserID     uuid.UUID      `json:"user_id"`
	Email      string         `json:"email"`
	WindowDays int            `json:"window_days"`
	Items      []ReminderItem `json:"items"`
}

// NewReminder builds a reminder for subscriptions renewing within windowDays of today.
func NewReminder(userID uuid.UUID, email string, subs []*tracking.Subscription, today time.Time, windowDays int) Reminder {
	items := make([]ReminderItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, ReminderItem{
			SubscriptionID: sub.ID,
			ServiceName:    sub.ServiceName,
			Cost:           sub.Cost,
			Currency:       sub.Currency,
			RenewalDate:    sub.RenewalDate.Format(tracking.DateLayout),
			DaysUntil:      tracking.DaysUntilRenewal(sub.RenewalDate, today),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DaysUntil < items[j].DaysUntil })
	return Reminder{UserID: userID, Email: email, WindowDays: windowDays, Items: items}
}

// Totals sums the items per currency, sorted by currency code.
func (r Reminder) Totals() []Total {
	sums := make(map[string]decimal.Decimal)
	for _, item := range r.Items {
		sums[item.Currency] = sums[item.Currency].Add(item.Cost)
	}
	totals := make([]Total, 0, len(sums))
	for currency, amount := range sums {
		totals = append(totals, Total{Currency: currency, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })
	return totals
}

// Subject is the email subject line.
func (r Reminder) Subject() string {
	plural := ""
	if len(r.Items) != 1 {
		plural = "s"
	}
	return fmt.Sprintf("⚠️ %d subscription%s renewing soon - %s total", len(r.Items), plural, r.totalText())
}

// TextBody is the plain-text email body.
func (r Reminder) TextBody() string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following subscriptions are renewing in the next %d days:\n\n", r.WindowDays)
	for _, item := range r.Items {
		fmt.Fprintf(&b, "• %s: %s (%s)\n", item.ServiceName, FormatAmount(item.Currency, item.Cost), renewsIn(item.DaysUntil))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", r.totalText())
	return b.String()
}

var htmlTemplate = template.Must(template.New("reminder").Parse(`<div style="font-family: monospace; background: #0a0a0a; color: #00ff41; padding: 20px; border-radius: 8px;">
<h1 style="color: #00ff41; margin: 0 0 20px 0;">SubSlayer Alert</h1>
<p style="color: #888;">The following subscriptions are renewing in the next {{.WindowDays}} days:</p>
<pre style="background: #111; padding: 15px; border-radius: 4px; color: #00ff41;">
{{range .Lines}}{{.}}
{{end}}
Total: {{.Total}}
</pre>
<p style="color: #ff4444; margin-top: 20px;">Want to cancel? <a href="{{.AppURL}}" style="color: #ff4444;">Open SubSlayer</a></p>
</div>`))

// HTMLBody renders the HTML email body linking to appURL.
func (r Reminder) HTMLBody(appURL string) (string, error) {
	if appURL == "" {
		appURL = DefaultAppURL
	}
	lines := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, fmt.Sprintf("• %s: %s (%s)", item.ServiceName, FormatAmount(item.Currency, item.Cost), renewsIn(item.DaysUntil)))
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		WindowDays int
		Lines      []string
		Total      string
		AppURL     string
	}{r.WindowDays, lines, r.totalText(), appURL})
	if err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return buf.String(), nil
}

func (r Reminder) totalText() string {
	totals := r.Totals()
	if len(totals) == 0 {
		return FormatAmount(tracking.DefaultCurrency, decimal.Zero)
	}
	parts := make([]string, 0, len(totals))
	for _, t := range totals {
		parts = append(parts, FormatAmount(t.Currency, t.Amount))
	}
	return strings.Join(parts, " + ")
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// FormatAmount renders an amount with two decimals and the currency symbol
// when one is known, otherwise with the code as suffix.
func FormatAmount(currency string, amount decimal.Decimal) string {
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

func renewsIn(days int) string {
	switch days {
	case 0:
		return "renews today"
	case 1:
		return "renews in 1 day"
	default:
		return fmt.Sprintf("renews in %d days", days)
	}
}
