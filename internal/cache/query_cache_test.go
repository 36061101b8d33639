package cache_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-insights/internal/cache"
)

type view struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

var _ = Describe("QueryCache", func() {
	var (
		ctx     context.Context
		backend *fakeRedis
		qc      *cache.QueryCache
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = newFakeRedis()
		qc = cache.NewQueryCache(backend, "test:")
	})

	It("reports a miss for unknown keys", func() {
		var out view
		hit, err := qc.Get(ctx, "act-now:", &out)

		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeFalse())
	})

	It("round-trips a stored value", func() {
		Expect(qc.Set(ctx, "act-now:", view{Count: 2, IDs: []string{"a", "b"}}, 5*time.Minute, "queries")).To(Succeed())

		var out view
		hit, err := qc.Get(ctx, "act-now:", &out)

		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeTrue())
		Expect(out).To(Equal(view{Count: 2, IDs: []string{"a", "b"}}))
		Expect(backend.ttls).To(HaveKeyWithValue("test:q:act-now:", 5*time.Minute))
	})

	It("tracks keys per tag and keeps the tag alive as long as its entries", func() {
		Expect(qc.Set(ctx, "a", view{}, time.Minute, "queries")).To(Succeed())
		Expect(qc.Set(ctx, "b", view{}, time.Minute, "queries")).To(Succeed())

		Expect(backend.sets["test:tag:queries"]).To(HaveLen(2))
		Expect(backend.ttls).To(HaveKeyWithValue("test:tag:queries", time.Minute))
	})

	It("drops every entry of a tag on invalidation", func() {
		Expect(qc.Set(ctx, "a", view{Count: 1}, time.Minute, "queries")).To(Succeed())
		Expect(qc.Set(ctx, "b", view{Count: 2}, time.Minute, "queries")).To(Succeed())
		Expect(qc.Set(ctx, "c", view{Count: 3}, time.Minute, "other")).To(Succeed())

		Expect(qc.InvalidateTag(ctx, "queries")).To(Succeed())

		var out view
		for _, key := range []string{"a", "b"} {
			hit, err := qc.Get(ctx, key, &out)
			Expect(err).NotTo(HaveOccurred())
			Expect(hit).To(BeFalse())
		}
		hit, err := qc.Get(ctx, "c", &out)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeTrue())
		Expect(backend.sets).NotTo(HaveKey("test:tag:queries"))
	})

	It("invalidates an empty tag without error", func() {
		Expect(qc.InvalidateTag(ctx, "queries")).To(Succeed())
		Expect(backend.deleted).To(Equal([]string{"test:tag:queries"}))
	})

	It("returns backend failures", func() {
		backend.getErr = errors.New("connection refused")

		var out view
		hit, err := qc.Get(ctx, "a", &out)

		Expect(hit).To(BeFalse())
		Expect(err).To(MatchError(backend.getErr))
	})

	It("reports undecodable entries", func() {
		backend.values["test:q:a"] = "not json"

		var out view
		_, err := qc.Get(ctx, "a", &out)

		Expect(err).To(HaveOccurred())
	})

	It("uses the default namespace without a prefix", func() {
		Expect(cache.NewQueryCache(backend, "").Set(ctx, "a", view{}, 0)).To(Succeed())

		Expect(backend.values).To(HaveKey("support-insights:q:a"))
	})
})
