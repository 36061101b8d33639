package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-insights/internal/config"
)

func setEnv(key, value string) {
	previous, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, previous)
			return
		}
		_ = os.Unsetenv(key)
	})
}

var _ = Describe("Load", func() {
	BeforeEach(func() {
		for _, key := range []string{
			"HELPDESK_RETRY_DELAYS_MS", "SYNC_DEFAULT_WATERMARK", "SYNC_WINDOW_DAYS",
			"HELPDESK_API_TOKEN", "REDIS_DB", "HELPDESK_PAGE_DELAY_MS",
		} {
			setEnv(key, "")
		}
	})

	It("applies the sync defaults", func() {
		cfg, err := config.Load()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Helpdesk.BaseURL).NotTo(BeEmpty())
		Expect(cfg.Helpdesk.RetryDelays()).To(Equal([]time.Duration{time.Second, 2 * time.Second, 4 * time.Second}))
		Expect(cfg.Helpdesk.PageDelay()).To(Equal(500 * time.Millisecond))
		Expect(cfg.Sync.DefaultWatermark).To(Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
		Expect(cfg.Sync.Window()).To(Equal(30 * 24 * time.Hour))
		Expect(cfg.Cache.QueryTTL()).To(Equal(5 * time.Minute))
	})

	It("reads overrides from the environment", func() {
		setEnv("HELPDESK_RETRY_DELAYS_MS", "10, 20")
		setEnv("SYNC_DEFAULT_WATERMARK", "2026-01-15T00:00:00Z")
		setEnv("SYNC_WINDOW_DAYS", "7")
		setEnv("HELPDESK_API_TOKEN", "secret-token")

		cfg, err := config.Load()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Helpdesk.RetryDelays()).To(Equal([]time.Duration{10 * time.Millisecond, 20 * time.Millisecond}))
		Expect(cfg.Sync.DefaultWatermark).To(Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
		Expect(cfg.Sync.Window()).To(Equal(7 * 24 * time.Hour))
		Expect(cfg.Helpdesk.APIToken).To(Equal("secret-token"))
	})

	DescribeTable("rejects malformed values",
		func(key, value string) {
			setEnv(key, value)

			_, err := config.Load()

			Expect(err).To(MatchError(ContainSubstring(key)))
		},
		Entry("retry delays", "HELPDESK_RETRY_DELAYS_MS", "1000,soon"),
		Entry("negative retry delay", "HELPDESK_RETRY_DELAYS_MS", "-5"),
		Entry("watermark", "SYNC_DEFAULT_WATERMARK", "yesterday"),
		Entry("redis db", "REDIS_DB", "primary"),
	)
})

var _ = Describe("durations", func() {
	It("defaults the lock TTL", func() {
		Expect(config.SyncConfig{}.LockTTL()).To(Equal(30 * time.Minute))
		Expect(config.SyncConfig{LockTTLSeconds: 60}.LockTTL()).To(Equal(time.Minute))
	})

	It("treats non-positive timeouts as disabled", func() {
		Expect(config.AppConfig{}.RequestTimeout()).To(BeZero())
		Expect(config.HelpdeskConfig{HTTPTimeoutSeconds: -1}.HTTPTimeout()).To(BeZero())
		Expect(config.HelpdeskConfig{PageDelayMS: -1}.PageDelay()).To(BeZero())
	})
})
