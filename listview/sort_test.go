package listview

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ckarsten/watchdeck/models"
)

var _ = Describe("sortEntries", func() {
	titles := func(rows []models.Entry) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.Title
		}
		return out
	}

	It("leaves the order untouched without a sort column", func() {
		rows := []models.Entry{testEntry(2, "B", false), testEntry(1, "A", false)}
		sortEntries(rows, SortSpec{})
		Expect(titles(rows)).To(Equal([]string{"B", "A"}))
	})

	It("sorts titles case-insensitively", func() {
		rows := []models.Entry{
			testEntry(1, "zodiac", false),
			testEntry(2, "Alien", false),
			testEntry(3, "blade Runner", false),
		}
		sortEntries(rows, SortSpec{Column: ColumnTitle})
		Expect(titles(rows)).To(Equal([]string{"Alien", "blade Runner", "zodiac"}))
	})

	It("reverses for descending", func() {
		rows := []models.Entry{
			testEntry(1, "Alien", false),
			testEntry(2, "Zodiac", false),
		}
		sortEntries(rows, SortSpec{Column: ColumnTitle, Desc: true})
		Expect(titles(rows)).To(Equal([]string{"Zodiac", "Alien"}))
	})

	It("keeps ties in their original relative order", func() {
		a := testEntry(1, "Same", false)
		b := testEntry(2, "Same", false)
		c := testEntry(3, "Same", false)
		rows := []models.Entry{b, a, c}
		sortEntries(rows, SortSpec{Column: ColumnTitle})
		Expect(rows[0].ID).To(Equal(int64(2)))
		Expect(rows[1].ID).To(Equal(int64(1)))
		Expect(rows[2].ID).To(Equal(int64(3)))
	})

	It("orders absent optional values before present ones", func() {
		rated := testEntry(1, "Rated", true)
		rated.UserRating = ptrOf(8.5)
		unrated := testEntry(2, "Unrated", true)
		rows := []models.Entry{rated, unrated}

		sortEntries(rows, SortSpec{Column: ColumnUserRating})
		Expect(titles(rows)).To(Equal([]string{"Unrated", "Rated"}))

		sortEntries(rows, SortSpec{Column: ColumnUserRating, Desc: true})
		Expect(titles(rows)).To(Equal([]string{"Rated", "Unrated"}))
	})

	It("sorts by dateWatched with nil first", func() {
		earlier := testEntry(1, "Earlier", true)
		t1 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		earlier.DateWatched = &t1
		later := testEntry(2, "Later", true)
		t2 := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		later.DateWatched = &t2
		never := testEntry(3, "Never", false)

		rows := []models.Entry{later, never, earlier}
		sortEntries(rows, SortSpec{Column: ColumnDateWatched})
		Expect(titles(rows)).To(Equal([]string{"Never", "Earlier", "Later"}))
	})

	It("sorts by priority", func() {
		high := testEntry(1, "High", false)
		high.Priority = ptrOf(models.PriorityHigh)
		low := testEntry(2, "Low", false)
		low.Priority = ptrOf(models.PriorityLow)
		none := testEntry(3, "None", false)

		rows := []models.Entry{high, none, low}
		sortEntries(rows, SortSpec{Column: ColumnPriority})
		Expect(titles(rows)).To(Equal([]string{"None", "Low", "High"}))
	})

	It("sorts booleans false before true", func() {
		watched := testEntry(1, "Watched", true)
		unwatched := testEntry(2, "Unwatched", false)

		rows := []models.Entry{watched, unwatched}
		sortEntries(rows, SortSpec{Column: ColumnWatched})
		Expect(titles(rows)).To(Equal([]string{"Unwatched", "Watched"}))
	})

	It("ignores non-sortable columns", func() {
		rows := []models.Entry{testEntry(2, "B", false), testEntry(1, "A", false)}
		sortEntries(rows, SortSpec{Column: ColumnActions})
		Expect(titles(rows)).To(Equal([]string{"B", "A"}))
	})
})
