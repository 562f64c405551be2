package expense

import (
	"strconv"
	"strings"
	"time"
)

// Category is the closed set of spending categories
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category, in display order
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryOther,
}

// Source records how an expense record was created
type Source string

const (
	SourceManual Source = "Manual"
	SourceAI     Source = "AI"
)

// DefaultMerchant is the placeholder for receipts with no readable merchant
const DefaultMerchant = "Unknown"

// Record represents a single expense, whether scanned or entered by hand.
// Records are constructed once and never mutated by the pipeline; updates
// are full replacements through the store.
type Record struct {
	ID        uint64    `json:"id"`
	Merchant  string    `json:"merchant"`
	Date      time.Time `json:"date"`
	Amount    float64   `json:"total_amount"`
	Currency  string    `json:"currency"`
	Category  Category  `json:"category"`
	Items     []string  `json:"items"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseCategory matches a raw value against the closed category set,
// case-insensitively. Anything unrecognized becomes Other.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// dateFormats are tried in order when parsing a receipt date
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"02-01-2006",
}

// ParseDate parses a receipt date string, trying common formats.
// Unparseable or empty dates fall back to the given default.
func ParseDate(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d
		}
	}
	return fallback
}

// FromFields builds a Record from a raw field mapping, applying every
// default in one place: a model may return null or omit any field and a
// usable record still comes out.
func FromFields(fields map[string]any, homeCurrency string, now time.Time) *Record {
	r := &Record{
		Merchant:  DefaultMerchant,
		Date:      now,
		Currency:  homeCurrency,
		Category:  CategoryOther,
		Items:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if merchant, ok := fields["merchant"].(string); ok {
		if merchant = strings.TrimSpace(merchant); merchant != "" {
			r.Merchant = merchant
		}
	}

	if date, ok := fields["date"].(string); ok {
		r.Date = ParseDate(date, now)
	}

	switch amount := fields["total_amount"].(type) {
	case float64:
		r.Amount = amount
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(amount), 64); err == nil {
			r.Amount = f
		}
	}

	if currency, ok := fields["currency"].(string); ok {
		if currency = strings.ToUpper(strings.TrimSpace(currency)); currency != "" {
			r.Currency = currency
		}
	}

	if category, ok := fields["category"].(string); ok {
		r.Category = ParseCategory(category)
	}

	if items, ok := fields["items"].([]any); ok {
		for _, item := range items {
			if name, ok := item.(string); ok {
				if name = strings.TrimSpace(name); name != "" {
					r.Items = append(r.Items, name)
				}
			}
		}
	}

	return r
}
