package expense

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltStore", func() {
	var (
		store *BoltStore
	)

	newRecord := func(merchant string, date time.Time) *Record {
		return &Record{
			Merchant: merchant,
			Date:     date,
			Amount:   100,
			Currency: "HUF",
			Category: CategoryOther,
			Items:    []string{},
			Source:   SourceManual,
		}
	}

	BeforeEach(func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		store, err = NewBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Save", func() {
		It("assigns monotonically increasing IDs", func() {
			first := newRecord("Tesco", time.Now())
			second := newRecord("Aldi", time.Now())
			Expect(store.Save(first)).To(Succeed())
			Expect(store.Save(second)).To(Succeed())
			Expect(first.ID).To(Equal(uint64(1)))
			Expect(second.ID).To(Equal(uint64(2)))
		})

		It("round-trips a record", func() {
			record := newRecord("Tesco", time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC))
			record.Items = []string{"Milk"}
			Expect(store.Save(record)).To(Succeed())

			saved, err := store.Get(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Merchant).To(Equal("Tesco"))
			Expect(saved.Items).To(Equal([]string{"Milk"}))
		})
	})

	Describe("Get", func() {
		When("the record does not exist", func() {
			It("returns an error", func() {
				_, err := store.Get(99)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			day2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
			// Inserted out of date order, with a same-day tie
			Expect(store.Save(newRecord("middle-a", day1))).To(Succeed())
			Expect(store.Save(newRecord("newest", day2))).To(Succeed())
			Expect(store.Save(newRecord("middle-b", day1))).To(Succeed())
		})

		It("orders by date descending, ties by ID ascending", func() {
			records, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0].Merchant).To(Equal("newest"))
			Expect(records[1].Merchant).To(Equal("middle-a"))
			Expect(records[2].Merchant).To(Equal("middle-b"))
		})
	})

	Describe("ListBySource", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				ai := newRecord("scan", time.Now())
				ai.Source = SourceAI
				Expect(store.Save(ai)).To(Succeed())
			}
			manual := newRecord("typed", time.Now())
			Expect(store.Save(manual)).To(Succeed())
		})

		It("filters by source, newest first", func() {
			records, err := store.ListBySource(SourceAI, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0].ID).To(Equal(uint64(5)))
			Expect(records[1].ID).To(Equal(uint64(4)))
			Expect(records[2].ID).To(Equal(uint64(3)))
			for _, r := range records {
				Expect(r.Source).To(Equal(SourceAI))
			}
		})
	})

	Describe("Update", func() {
		It("replaces an existing record in full", func() {
			record := newRecord("Tesco", time.Now())
			Expect(store.Save(record)).To(Succeed())

			record.Merchant = "Tesco Expressz"
			record.Amount = 250
			Expect(store.Update(record)).To(Succeed())

			saved, err := store.Get(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Merchant).To(Equal("Tesco Expressz"))
			Expect(saved.Amount).To(Equal(250.0))
		})

		It("refuses to update a missing record", func() {
			record := newRecord("ghost", time.Now())
			record.ID = 42
			Expect(store.Update(record)).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes a record", func() {
			record := newRecord("Tesco", time.Now())
			Expect(store.Save(record)).To(Succeed())
			Expect(store.Delete(record.ID)).To(Succeed())

			_, err := store.Get(record.ID)
			Expect(err).To(HaveOccurred())
		})

		It("refuses to delete a missing record", func() {
			Expect(store.Delete(99)).To(HaveOccurred())
		})
	})
})
