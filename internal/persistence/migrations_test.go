package persistence_test

import (
	"context"
	"os"
	"testing/fstest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/persistence"
)

var _ = Describe("MigrationFiles", func() {
	It("lists sql files in lexical order", func() {
		fsys := fstest.MapFS{
			"0002_indexes.sql": {Data: []byte("SELECT 2")},
			"0001_schema.sql":  {Data: []byte("SELECT 1")},
			"README.md":        {Data: []byte("notes")},
			"archive/old.sql":  {Data: []byte("SELECT 0")},
		}

		files, err := persistence.MigrationFiles(fsys)

		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{"0001_schema.sql", "0002_indexes.sql"}))
	})

	It("finds the shipped schema", func() {
		files, err := persistence.MigrationFiles(os.DirFS("../../migrations"))

		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(ContainElement("0001_schema.sql"))
	})
})

var _ = Describe("Unconfigured backends", func() {
	ctx := context.Background()

	It("skips migrations without a pool", func() {
		Expect(persistence.RunMigrations(ctx, nil, "does-not-exist", zap.NewNop())).To(Succeed())
	})

	It("reports postgres as not configured", func() {
		var pg *persistence.Postgres
		Expect(pg.Ping(ctx)).To(MatchError(persistence.ErrPostgresNotConfigured))
		Expect((&persistence.Postgres{}).Ping(ctx)).To(MatchError(persistence.ErrPostgresNotConfigured))
	})

	It("refuses to lock without a redis client", func() {
		var r *persistence.Redis

		_, ok, err := r.TryLock(ctx, "sync:lock", 0)

		Expect(ok).To(BeFalse())
		Expect(err).To(MatchError(persistence.ErrRedisNotConfigured))
		Expect(r.Unlock(ctx, "sync:lock", "token")).To(MatchError(persistence.ErrRedisNotConfigured))

		extended, err := r.Extend(ctx, "sync:lock", "token", time.Minute)
		Expect(extended).To(BeFalse())
		Expect(err).To(MatchError(persistence.ErrRedisNotConfigured))
	})
})
