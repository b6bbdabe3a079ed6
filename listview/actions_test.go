package listview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ckarsten/watchdeck/models"
)

var _ = Describe("ToggleWatched", func() {
	ctx := context.Background()

	It("marks an unwatched entry watched without touching other fields", func() {
		// The flip itself must not invent a watch date or change favorite —
		// those remain explicit user actions.
		var patch map[string]any
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			patch = decodePatch(r)
			e := testEntry(1, "Dune", true)
			writeItem(w, http.StatusOK, e)
		})
		dune := testEntry(1, "Dune", false)
		v, notify, _ := newTestView(handler, true, dune)

		Expect(v.ToggleWatched(ctx, 1)).To(Succeed())

		Expect(patch).To(Equal(map[string]any{"watched": true}))
		snap := v.Snapshot()
		Expect(snap[0].Watched).To(BeTrue())
		Expect(snap[0].Favorite).To(BeFalse())
		Expect(snap[0].DateWatched).To(BeNil())
		Expect(notify.Infos()).To(ContainElement(`Marked "Dune" as watched`))
	})

	It("clears dateWatched, userRating and favorite atomically when unwatching", func() {
		var patch map[string]any
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			patch = decodePatch(r)
			writeItem(w, http.StatusOK, testEntry(1, "Dune", false))
		})
		dune := testEntry(1, "Dune", true)
		watchedAt := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		dune.DateWatched = &watchedAt
		dune.UserRating = ptrOf(8.5)
		dune.Favorite = true
		v, _, _ := newTestView(handler, true, dune)

		Expect(v.ToggleWatched(ctx, 1)).To(Succeed())

		Expect(patch).To(Equal(map[string]any{
			"watched":     false,
			"dateWatched": nil,
			"userRating":  nil,
			"favorite":    false,
		}))
		snap := v.Snapshot()
		Expect(snap[0].Watched).To(BeFalse())
		Expect(snap[0].DateWatched).To(BeNil())
		Expect(snap[0].UserRating).To(BeNil())
		Expect(snap[0].Favorite).To(BeFalse())
	})

	It("reverts only the watched flag when the server rejects the toggle", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "boom")
		})
		dune := testEntry(1, "Dune", true)
		watchedAt := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		dune.DateWatched = &watchedAt
		dune.UserRating = ptrOf(8.5)
		v, notify, _ := newTestView(handler, true, dune)

		Expect(v.ToggleWatched(ctx, 1)).NotTo(Succeed())

		snap := v.Snapshot()
		// The boolean is restored; the locally cleared side effects are not.
		Expect(snap[0].Watched).To(BeTrue())
		Expect(snap[0].DateWatched).To(BeNil())
		Expect(snap[0].UserRating).To(BeNil())
		Expect(notify.Errors()).To(ContainElement("Failed to update watched status"))
	})

	It("adopts the server copy on success", func() {
		serverCopy := testEntry(1, "Dune", true)
		serverCopy.UserRating = ptrOf(9.0)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeItem(w, http.StatusOK, serverCopy)
		})
		v, _, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		Expect(v.ToggleWatched(ctx, 1)).To(Succeed())

		snap := v.Snapshot()
		Expect(snap[0].UserRating).To(Equal(ptrOf(9.0)))
	})

	It("returns ErrNotFound for an unknown entry without a network call", func() {
		var calls atomic.Int64
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})
		v, _, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		Expect(v.ToggleWatched(ctx, 99)).To(MatchError(ErrNotFound))
		Expect(calls.Load()).To(BeZero())
	})

	It("rejects a second toggle while one is in flight", func() {
		release := make(chan struct{})
		arrived := make(chan struct{})
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(arrived)
			<-release
			writeItem(w, http.StatusOK, testEntry(1, "Dune", true))
		})
		v, _, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		done := make(chan error, 1)
		go func() { done <- v.ToggleWatched(ctx, 1) }()
		Eventually(arrived).Should(BeClosed())

		Expect(v.ToggleWatched(ctx, 1)).To(MatchError(ErrBusy))

		close(release)
		Eventually(done).Should(Receive(BeNil()))
	})
})

var _ = Describe("ToggleFavorite", func() {
	ctx := context.Background()

	It("refuses to favorite an unwatched entry without a network call", func() {
		var calls atomic.Int64
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})
		v, _, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		Expect(v.ToggleFavorite(ctx, 1)).To(MatchError(ErrNotWatched))
		Expect(calls.Load()).To(BeZero())
		Expect(v.Snapshot()[0].Favorite).To(BeFalse())
	})

	It("flips the flag and sends a single-field patch", func() {
		var patch map[string]any
		serverCopy := testEntry(1, "Dune", true)
		serverCopy.Favorite = true
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			patch = decodePatch(r)
			writeItem(w, http.StatusOK, serverCopy)
		})
		v, notify, _ := newTestView(handler, true, testEntry(1, "Dune", true))

		Expect(v.ToggleFavorite(ctx, 1)).To(Succeed())

		Expect(patch).To(Equal(map[string]any{"favorite": true}))
		Expect(v.Snapshot()[0].Favorite).To(BeTrue())
		Expect(notify.Infos()).To(ContainElement(`Added "Dune" to favorites`))
	})

	It("reverts the flag when the server rejects the change", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "boom")
		})
		dune := testEntry(1, "Dune", true)
		dune.Favorite = true
		v, notify, _ := newTestView(handler, true, dune)

		Expect(v.ToggleFavorite(ctx, 1)).NotTo(Succeed())

		Expect(v.Snapshot()[0].Favorite).To(BeTrue())
		Expect(notify.Errors()).To(ContainElement("Failed to update favorite status"))
	})
})

var _ = Describe("Delete", func() {
	ctx := context.Background()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true}`))
	})

	It("is admin-only", func() {
		v, _, _ := newTestView(okHandler, false, testEntry(1, "Dune", false))

		Expect(v.Delete(ctx, 1)).To(MatchError(ErrNotAdmin))
		Expect(v.Snapshot()).To(HaveLen(1))
	})

	It("removes the entry optimistically and confirms with the server", func() {
		v, notify, _ := newTestView(okHandler, true,
			testEntry(1, "Dune", false), testEntry(2, "Alien", false))

		Expect(v.Delete(ctx, 1)).To(Succeed())

		snap := v.Snapshot()
		Expect(snap).To(HaveLen(1))
		Expect(snap[0].Title).To(Equal("Alien"))
		Expect(notify.Infos()).To(ContainElement(`Deleted "Dune" from watchlist`))
	})

	It("restores the row at its original position on failure", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "boom")
		})
		v, notify, _ := newTestView(handler, true,
			testEntry(1, "First", false), testEntry(2, "Second", false), testEntry(3, "Third", false))

		Expect(v.Delete(ctx, 2)).NotTo(Succeed())

		snap := v.Snapshot()
		Expect(snap).To(HaveLen(3))
		Expect(snap[1].Title).To(Equal("Second"))
		Expect(notify.Errors()).To(ContainElement("Failed to delete item"))
	})

	It("keeps the removal when the server no longer has the row", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Item not found")
		})
		v, _, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		Expect(v.Delete(ctx, 1)).To(MatchError(ErrNotFound))
		Expect(v.Snapshot()).To(BeEmpty())
	})
})

var _ = Describe("Add", func() {
	ctx := context.Background()

	result := models.SearchResult{
		ExternalMediaID: 438631,
		Title:           "Dune",
		MediaType:       models.MediaTypeMovie,
		Overview:        "A noble family...",
		Rating:          7.9,
	}

	It("requires a recommender name from non-admins before any network call", func() {
		var calls atomic.Int64
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})
		v, _, _ := newTestView(handler, false)

		_, err := v.Add(ctx, result, "   ")
		Expect(err).To(MatchError(ErrMissingRecommender))
		Expect(calls.Load()).To(BeZero())
	})

	It("prepends the created entry to the snapshot", func() {
		created := testEntry(7, "Dune", false)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req CreateRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.ExternalMediaID).To(Equal(int64(438631)))
			Expect(req.RecommendedBy).To(BeNil())
			writeItem(w, http.StatusCreated, created)
		})
		v, notify, _ := newTestView(handler, true, testEntry(1, "Alien", false))

		e, err := v.Add(ctx, result, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.ID).To(Equal(int64(7)))

		snap := v.Snapshot()
		Expect(snap).To(HaveLen(2))
		Expect(snap[0].Title).To(Equal("Dune"))
		Expect(notify.Infos()).To(ContainElement(`Added "Dune" to watchlist`))
	})

	It("carries the recommender name for non-admin submissions", func() {
		var got *string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req CreateRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			got = req.RecommendedBy
			writeItem(w, http.StatusCreated, testEntry(7, "Dune", false))
		})
		v, _, _ := newTestView(handler, false)

		_, err := v.Add(ctx, result, "  maria  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(ptrOf("maria")))
	})

	It("leaves the snapshot untouched on a duplicate", func() {
		existing := testEntry(1, "Dune", false)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": "Item already exists in watchlist",
				"item":  existing,
			})
		})
		v, notify, _ := newTestView(handler, true, existing)

		e, err := v.Add(ctx, result, "")
		Expect(err).To(MatchError(ErrConflict))
		Expect(e.ID).To(Equal(int64(1)))

		Expect(v.Snapshot()).To(HaveLen(1))
		Expect(notify.Infos()).To(ContainElement(`"Dune" is already in your watchlist`))
	})

	It("reports a failure without touching the snapshot", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "boom")
		})
		v, notify, _ := newTestView(handler, true)

		_, err := v.Add(ctx, result, "")
		Expect(err).To(HaveOccurred())
		Expect(v.Snapshot()).To(BeEmpty())
		Expect(notify.Errors()).To(ContainElement("Failed to add item to watchlist"))
	})
})

var _ = Describe("Edit", func() {
	ctx := context.Background()

	It("is admin-only", func() {
		v, _, _ := newTestView(http.NotFoundHandler(), false, testEntry(1, "Dune", false))

		_, err := v.Edit(ctx, 1, models.Patch{Title: models.Set("Dune (1984)")})
		Expect(err).To(MatchError(ErrNotAdmin))
	})

	It("applies the server copy only after confirmation", func() {
		serverCopy := testEntry(1, "Dune (2021)", true)
		serverCopy.UserRating = ptrOf(9.0)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeItem(w, http.StatusOK, serverCopy)
		})
		v, notify, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		updated, err := v.Edit(ctx, 1, models.Patch{
			Title:      models.Set("Dune (2021)"),
			Watched:    models.Set(true),
			UserRating: models.Set(9.0),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Title).To(Equal("Dune (2021)"))

		snap := v.Snapshot()
		Expect(snap[0].Title).To(Equal("Dune (2021)"))
		Expect(snap[0].Watched).To(BeTrue())
		Expect(notify.Infos()).To(ContainElement(`Saved changes to "Dune (2021)"`))
	})

	It("keeps local state unchanged when the server rejects the edit", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "boom")
		})
		v, notify, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		_, err := v.Edit(ctx, 1, models.Patch{Title: models.Set("Changed")})
		Expect(err).To(HaveOccurred())
		Expect(v.Snapshot()[0].Title).To(Equal("Dune"))
		Expect(notify.Errors()).To(ContainElement("Failed to save changes"))
	})

	It("reports a vanished entry", func() {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Item not found")
		})
		v, notify, _ := newTestView(handler, true, testEntry(1, "Dune", false))

		_, err := v.Edit(ctx, 1, models.Patch{Title: models.Set("Changed")})
		Expect(err).To(MatchError(ErrNotFound))
		Expect(notify.Errors()).To(ContainElement("Item not found"))
	})
})
