// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/shopspring/decimal"

	"github.com/vitrina/vitrina/internal/auth"
	"github.com/vitrina/vitrina/internal/catalog"
)

var _ = Describe("ItemRepository", func() {
	var (
		ctx   context.Context
		owner *auth.Account
	)

	createTestItem := func(name, price string) *catalog.Item {
		return &catalog.Item{
			ID:         ulid.Make(),
			Name:       name,
			Price:      decimal.RequireFromString(price),
			OwnerID:    owner.ID,
			OwnerEmail: owner.Email,
			CreatedAt:  time.Now().UTC(),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)

		owner = createTestAccount("owner@example.com", "Owner")
		Expect(env.Accounts.Create(ctx, owner)).To(Succeed())
	})

	Describe("Create", func() {
		It("persists all item fields", func() {
			item := createTestItem("Lamp", "19.99")
			url := "https://blobs.test/photos/lamp.jpg"
			key := "photos/2026/09/01/lamp.jpg"
			item.PhotoURL = &url
			item.PhotoKey = &key

			Expect(env.Items.Create(ctx, item)).To(Succeed())

			got, err := env.Items.GetByID(ctx, item.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Lamp"))
			Expect(got.Price.String()).To(Equal("19.99"))
			Expect(got.PhotoURL).To(HaveValue(Equal(url)))
			Expect(got.PhotoKey).To(HaveValue(Equal(key)))
			Expect(got.OwnerID).To(Equal(owner.ID))
			Expect(got.OwnerEmail).To(Equal("owner@example.com"))
		})

		It("handles nil photo fields", func() {
			item := createTestItem("Bare", "5")
			Expect(env.Items.Create(ctx, item)).To(Succeed())

			got, err := env.Items.GetByID(ctx, item.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PhotoURL).To(BeNil())
			Expect(got.PhotoKey).To(BeNil())
		})

		It("round-trips prices without float drift", func() {
			item := createTestItem("Precise", "0.10")
			Expect(env.Items.Create(ctx, item)).To(Succeed())

			got, err := env.Items.GetByID(ctx, item.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Price.Equal(decimal.RequireFromString("0.1"))).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("returns newest items first", func() {
			older := createTestItem("Older", "1")
			older.CreatedAt = time.Now().UTC().Add(-time.Hour)
			newer := createTestItem("Newer", "2")
			Expect(env.Items.Create(ctx, older)).To(Succeed())
			Expect(env.Items.Create(ctx, newer)).To(Succeed())

			items, err := env.Items.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].Name).To(Equal("Newer"))
			Expect(items[1].Name).To(Equal("Older"))
		})
	})

	Describe("ListByOwner", func() {
		It("filters to one owner's items", func() {
			other := createTestAccount("other@example.com", "Other")
			Expect(env.Accounts.Create(ctx, other)).To(Succeed())

			mine := createTestItem("Mine", "1")
			theirs := createTestItem("Theirs", "2")
			theirs.OwnerID = other.ID
			theirs.OwnerEmail = other.Email
			Expect(env.Items.Create(ctx, mine)).To(Succeed())
			Expect(env.Items.Create(ctx, theirs)).To(Succeed())

			items, err := env.Items.ListByOwner(ctx, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Mine"))
		})
	})

	Describe("Update", func() {
		It("rewrites mutable fields", func() {
			item := createTestItem("Lamp", "19.99")
			Expect(env.Items.Create(ctx, item)).To(Succeed())

			item.Name = "Desk lamp"
			item.Price = decimal.RequireFromString("24.50")
			url := "https://blobs.test/photos/new.jpg"
			key := "photos/2026/09/01/new.jpg"
			item.PhotoURL = &url
			item.PhotoKey = &key
			Expect(env.Items.Update(ctx, item)).To(Succeed())

			got, err := env.Items.GetByID(ctx, item.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Desk lamp"))
			Expect(got.Price.String()).To(Equal("24.5"))
			Expect(got.PhotoKey).To(HaveValue(Equal(key)))
		})

		It("returns not found for missing items", func() {
			err := env.Items.Update(ctx, createTestItem("Ghost", "1"))
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("removes the item", func() {
			item := createTestItem("Lamp", "19.99")
			Expect(env.Items.Create(ctx, item)).To(Succeed())

			Expect(env.Items.Delete(ctx, item.ID)).To(Succeed())

			_, err := env.Items.GetByID(ctx, item.ID)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("cascade", func() {
		It("deletes items when the owner account is removed", func() {
			item := createTestItem("Lamp", "19.99")
			Expect(env.Items.Create(ctx, item)).To(Succeed())

			Expect(env.Accounts.Delete(ctx, owner.ID)).To(Succeed())

			_, err := env.Items.GetByID(ctx, item.ID)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
