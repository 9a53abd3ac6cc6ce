package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CurrencySpend is the spend in one currency.
type CurrencySpend struct {
	Currency   string
	Monthly    decimal.Decimal
	Yearly     decimal.Decimal
	Count      int
	ByCategory []CategorySpend
}

// CategorySpend is the monthly spend of one category.
type CategorySpend struct {
	Category Category
	Monthly  decimal.Decimal
	Share    decimal.Decimal // percent of the currency total
}

// Summarize totals the non-cancelled subscriptions per currency. Amounts in
// different currencies are never added together. Currencies are sorted by
// code and categories by descending spend.
func Summarize(subs []*Subscription) []CurrencySpend {
	type bucket struct {
		total      decimal.Decimal
		count      int
		categories map[Category]decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for _, sub := range subs {
		if sub.IsCancelled() {
			continue
		}
		b, ok := buckets[sub.Currency]
		if !ok {
			b = &bucket{categories: make(map[Category]decimal.Decimal)}
			buckets[sub.Currency] = b
		}
		b.total = b.total.Add(sub.Cost)
		b.count++
		category := Categorize(sub.ServiceName)
		b.categories[category] = b.categories[category].Add(sub.Cost)
	}

	hundred := decimal.NewFromInt(100)
	twelve := decimal.NewFromInt(12)
	out := make([]CurrencySpend, 0, len(buckets))
	for currency, b := range buckets {
		spend := CurrencySpend{
			Currency: currency,
			Monthly:  b.total,
			Yearly:   b.total.Mul(twelve),
			Count:    b.count,
		}
		for category, amount := range b.categories {
			share := decimal.Zero
			if b.total.IsPositive() {
				share = amount.Div(b.total).Mul(hundred).Round(0)
			}
			spend.ByCategory = append(spend.ByCategory, CategorySpend{Category: category, Monthly: amount, Share: share})
		}
		sort.Slice(spend.ByCategory, func(i, j int) bool {
			a, c := spend.ByCategory[i], spend.ByCategory[j]
			if !a.Monthly.Equal(c.Monthly) {
				return a.Monthly.GreaterThan(c.Monthly)
			}
			return a.Category < c.Category
		})
		out = append(out, spend)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
