// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/store"
)

var _ = Describe("Migrator against PostgreSQL", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		dsn       string
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("dungeons"),
			postgres.WithUsername("dungeons"),
			postgres.WithPassword("dungeons"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
		)
		Expect(err).NotTo(HaveOccurred())
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	It("applies, reports and rolls back the schema", func() {
		m, err := store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		defer m.Close()

		st, err := m.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Version).To(BeZero())
		Expect(st.Pending).To(HaveLen(3))

		Expect(m.Up()).To(Succeed())
		st, err = m.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Version).To(Equal(uint(3)))
		Expect(st.Pending).To(BeEmpty())

		Expect(m.Down(1)).To(Succeed())
		v, _, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint(2)))

		Expect(m.Down(0)).To(Succeed())
		v, _, err = m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())

		Expect(m.Up()).To(Succeed())
	})

	It("connects and serializes transactions on a shared address", func() {
		pool, err := store.Connect(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		tr := store.NewTransactor(pool)
		addr := ledger.Pubkey{7}
		err = tr.InTransaction(ctx, []ledger.Pubkey{addr}, func(ctx context.Context) error {
			var one int
			return store.Conn(ctx, pool).QueryRow(ctx, "SELECT 1").Scan(&one)
		})
		Expect(err).NotTo(HaveOccurred())
	})
})
