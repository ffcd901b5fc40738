// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

//go:build integration

package integration

import (
	"context"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/vitrina/vitrina/internal/auth"
)

var _ = Describe("AccountRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
	})

	Describe("Create", func() {
		It("persists all account fields", func() {
			account := createTestAccount("ada@example.com", "Ada")

			err := env.Accounts.Create(ctx, account)
			Expect(err).NotTo(HaveOccurred())

			got, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Email).To(Equal("ada@example.com"))
			Expect(got.Name).To(Equal("Ada"))
			Expect(got.Role).To(Equal(auth.RoleUser))
			Expect(got.PasswordHash).To(Equal(account.PasswordHash))
		})

		It("rejects duplicate emails regardless of case", func() {
			Expect(env.Accounts.Create(ctx, createTestAccount("ada@example.com", "Ada"))).To(Succeed())

			err := env.Accounts.Create(ctx, createTestAccount("ADA@example.com", "Impostor"))
			Expect(err).To(MatchError(auth.ErrDuplicateEmail))
		})
	})

	Describe("GetByEmail", func() {
		It("matches case-insensitively", func() {
			account := createTestAccount("ada@example.com", "Ada")
			Expect(env.Accounts.Create(ctx, account)).To(Succeed())

			got, err := env.Accounts.GetByEmail(ctx, "Ada@Example.COM")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(account.ID))
		})

		It("returns not found for unknown emails", func() {
			_, err := env.Accounts.GetByEmail(ctx, "ghost@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("UpdateRole", func() {
		It("promotes an account to admin", func() {
			account := createTestAccount("ada@example.com", "Ada")
			Expect(env.Accounts.Create(ctx, account)).To(Succeed())

			Expect(env.Accounts.UpdateRole(ctx, account.ID, auth.RoleAdmin)).To(Succeed())

			got, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Role).To(Equal(auth.RoleAdmin))
		})

		It("returns not found for missing accounts", func() {
			err := env.Accounts.UpdateRole(ctx, ulid.Make(), auth.RoleAdmin)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("UpdatePassword", func() {
		It("replaces only the password hash", func() {
			account := createTestAccount("ada@example.com", "Ada")
			Expect(env.Accounts.Create(ctx, account)).To(Succeed())

			newHash := "$argon2id$v=19$m=8192,t=1,p=1$bmV3c2FsdA$bmV3a2V5"
			Expect(env.Accounts.UpdatePassword(ctx, account.ID, newHash)).To(Succeed())

			got, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PasswordHash).To(Equal(newHash))
			Expect(got.Email).To(Equal("ada@example.com"))
		})
	})

	Describe("List", func() {
		It("orders accounts by creation time", func() {
			first := createTestAccount("first@example.com", "First")
			second := createTestAccount("second@example.com", "Second")
			Expect(env.Accounts.Create(ctx, first)).To(Succeed())
			Expect(env.Accounts.Create(ctx, second)).To(Succeed())

			accounts, err := env.Accounts.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(2))
			Expect(accounts[0].Email).To(Equal("first@example.com"))
			Expect(accounts[1].Email).To(Equal("second@example.com"))
		})
	})

	Describe("Delete", func() {
		It("removes the account", func() {
			account := createTestAccount("ada@example.com", "Ada")
			Expect(env.Accounts.Create(ctx, account)).To(Succeed())

			Expect(env.Accounts.Delete(ctx, account.ID)).To(Succeed())

			_, err := env.Accounts.GetByID(ctx, account.ID)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
