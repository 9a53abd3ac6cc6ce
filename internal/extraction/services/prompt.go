package services

import (
	"fmt"
	"strings"
	"time"
)

// BuildPrompt renders the extraction instructions for one email. The output
// depends only on the email text and the reference year.
func BuildPrompt(emailText string, now time.Time) string {
	year := now.Year()

	var b strings.Builder
	b.WriteString("You extract subscription details from emails.\n\n")
	b.WriteString("Read the email below and return these fields:\n")
	b.WriteString(`1. service_name: name of the subscribed service, e.g. "Netflix" or "Spotify Premium".` + "\n")
	b.WriteString("2. cost: monthly cost as a number, e.g. 15.99. Divide yearly prices by 12.\n")
	b.WriteString(`3. currency: 3-letter ISO code such as "USD", "EUR", "GBP", "RON", "CAD", "AUD" or "JPY". ` +
		`Infer it from symbols ($, €, £, lei, ¥) or from the code in the text. Use "USD" when unclear.` + "\n")
	fmt.Fprintf(&b, "4. renewal_date: next billing date as YYYY-MM-DD. When the email gives only month and day, "+
		"use %d or %d, whichever puts the date in the future.\n", year, year+1)
	b.WriteString("5. cancellation_url: the page where the subscription can be cancelled or managed.\n")
	b.WriteString(`6. website_url: the main website of the service, e.g. "https://netflix.com".` + "\n\n")
	b.WriteString("Respond with a single JSON object using exactly these keys. No Markdown and no commentary.\n\n")
	b.WriteString(`Example: {"service_name": "Netflix", "cost": 15.99, "currency": "USD", "renewal_date": "` +
		fmt.Sprintf("%d-01-15", year+1) +
		`", "cancellation_url": "https://netflix.com/cancelplan", "website_url": "https://netflix.com"}` + "\n\n")
	b.WriteString("Email:\n")
	b.WriteString(emailText)

	return b.String()
}
