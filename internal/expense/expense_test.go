package expense

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FromFields", func() {
	var (
		fields map[string]any
		now    time.Time
		record *Record
	)

	BeforeEach(func() {
		now = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
		fields = map[string]any{}
	})

	JustBeforeEach(func() {
		record = FromFields(fields, "HUF", now)
	})

	When("every field is present", func() {
		BeforeEach(func() {
			fields = map[string]any{
				"merchant":     "Tesco",
				"date":         "2026-08-14",
				"total_amount": float64(1200),
				"currency":     "huf",
				"category":     "food",
				"items":        []any{"Milk", "Bread"},
			}
		})

		It("copies the values, canonicalizing currency and category", func() {
			Expect(record.Merchant).To(Equal("Tesco"))
			Expect(record.Date).To(Equal(time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)))
			Expect(record.Amount).To(Equal(1200.0))
			Expect(record.Currency).To(Equal("HUF"))
			Expect(record.Category).To(Equal(CategoryFood))
			Expect(record.Items).To(Equal([]string{"Milk", "Bread"}))
		})
	})

	When("category and currency are missing", func() {
		BeforeEach(func() {
			fields = map[string]any{"merchant": "Aldi", "total_amount": float64(500)}
		})

		It("defaults category to Other", func() {
			Expect(record.Category).To(Equal(CategoryOther))
		})

		It("defaults currency to the home currency", func() {
			Expect(record.Currency).To(Equal("HUF"))
		})
	})

	When("the map is empty", func() {
		It("produces a fully defaulted record", func() {
			Expect(record.Merchant).To(Equal(DefaultMerchant))
			Expect(record.Date).To(Equal(now))
			Expect(record.Amount).To(Equal(0.0))
			Expect(record.Currency).To(Equal("HUF"))
			Expect(record.Category).To(Equal(CategoryOther))
			Expect(record.Items).To(BeEmpty())
		})
	})

	When("fields are null", func() {
		BeforeEach(func() {
			fields = map[string]any{
				"merchant":     nil,
				"date":         nil,
				"total_amount": nil,
				"currency":     nil,
				"category":     nil,
				"items":        nil,
			}
		})

		It("falls back to defaults for every field", func() {
			Expect(record.Merchant).To(Equal(DefaultMerchant))
			Expect(record.Date).To(Equal(now))
			Expect(record.Amount).To(Equal(0.0))
			Expect(record.Currency).To(Equal("HUF"))
			Expect(record.Category).To(Equal(CategoryOther))
			Expect(record.Items).To(BeEmpty())
		})
	})

	When("the amount arrives as a string", func() {
		BeforeEach(func() {
			fields = map[string]any{"total_amount": "1499.50"}
		})

		It("parses it", func() {
			Expect(record.Amount).To(Equal(1499.50))
		})
	})

	When("the date uses an alternate format", func() {
		BeforeEach(func() {
			fields = map[string]any{"date": "2026.08.14"}
		})

		It("parses it", func() {
			Expect(record.Date).To(Equal(time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the date is unparseable", func() {
		BeforeEach(func() {
			fields = map[string]any{"date": "sometime last week"}
		})

		It("falls back to the provided time", func() {
			Expect(record.Date).To(Equal(now))
		})
	})

	When("items contain non-string entries", func() {
		BeforeEach(func() {
			fields = map[string]any{"items": []any{"Milk", 42.0, nil, "  ", "Bread"}}
		})

		It("keeps only the non-empty strings", func() {
			Expect(record.Items).To(Equal([]string{"Milk", "Bread"}))
		})
	})
})

var _ = Describe("ParseCategory", func() {
	It("matches the closed set case-insensitively", func() {
		Expect(ParseCategory("food")).To(Equal(CategoryFood))
		Expect(ParseCategory("TRAVEL")).To(Equal(CategoryTravel))
		Expect(ParseCategory(" Utilities ")).To(Equal(CategoryUtilities))
	})

	It("maps anything unrecognized to Other", func() {
		Expect(ParseCategory("Groceries")).To(Equal(CategoryOther))
		Expect(ParseCategory("")).To(Equal(CategoryOther))
	})
})
