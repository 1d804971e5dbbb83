package tokentest_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roach88/mytoken/internal/chain"
	"github.com/roach88/mytoken/internal/harness"
)

const (
	tokenWASM = "../../compiled/mytoken.wasm"
	tokenABI  = "../../contracts/mytoken/mytoken-eosio.token.abi"
)

var _ = Describe("mytoken", Ordered, func() {
	var (
		ctx           context.Context
		h             *harness.Harness
		a, b          *harness.Account
		tokenContract *harness.Contract
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		h, err = harness.New(ctx)
		Expect(err).NotTo(HaveOccurred())

		accounts, err := h.CreateRandomAccounts(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		a, b = accounts[0], accounts[1]
	})

	AfterAll(func() {
		Expect(h.Close()).To(Succeed())
	})

	BeforeEach(func() {
		var err error
		tokenContract, err = h.Deploy(ctx, tokenWASM, tokenABI, harness.DeployOptions{Inline: true})
		Expect(err).NotTo(HaveOccurred())
	})

	create := func() {
		_, err := tokenContract.Invoke(ctx, "create", []any{a, "1000000000.0000 SYS"})
		Expect(err).NotTo(HaveOccurred())
	}

	issue := func(to *harness.Account, quantity string) error {
		_, err := tokenContract.Invoke(ctx, "issue", []any{to, quantity, "memo"}, harness.From(a))
		return err
	}

	balance := func(owner *harness.Account) []string {
		GinkgoHelper()
		got, err := owner.GetBalance(ctx, "SYS", tokenContract.Name)
		Expect(err).NotTo(HaveOccurred())
		return got
	}

	It("creates a new token", func() {
		create()

		stats, err := h.GetCurrencyStats(ctx, tokenContract.Name, "SYS")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(HaveKey("SYS"))
		Expect(stats["SYS"].MaxSupply).To(Equal("1000000000.0000 SYS"))
		Expect(stats["SYS"].Issuer).To(Equal(a.Name.String()))
	})

	It("issues tokens to the issuer", func() {
		create()
		Expect(issue(a, "100.0000 SYS")).To(Succeed())

		Expect(balance(a)).To(Equal([]string{"100.0000 SYS"}))
	})

	It("issues tokens to another account", func() {
		create()
		Expect(issue(b, "100.0000 SYS")).To(Succeed())

		Expect(balance(b)).To(Equal([]string{"100.0000 SYS"}))
	})

	It("rejects a negative issue", func() {
		create()
		err := issue(b, "-100.0000 SYS")
		Expect(harness.ExpectAssert(err)).To(Succeed())

		Expect(balance(b)).To(BeEmpty())
	})

	It("deploys to a fresh account every time", func() {
		stats, err := h.GetCurrencyStats(ctx, tokenContract.Name, "SYS")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(BeEmpty())
	})

	Context("after issuing", func() {
		BeforeEach(func() {
			create()
			Expect(issue(a, "100.0000 SYS")).To(Succeed())
		})

		It("tracks the supply", func() {
			Expect(issue(b, "50.0000 SYS")).To(Succeed())

			stats, err := h.GetCurrencyStats(ctx, tokenContract.Name, "SYS")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats["SYS"].Supply).To(Equal("150.0000 SYS"))
			Expect(balance(a)).To(Equal([]string{"100.0000 SYS"}))
		})

		It("transfers between accounts", func() {
			_, err := tokenContract.Invoke(ctx, "transfer",
				[]any{a, b, "25.0000 SYS", "rent"}, harness.From(a))
			Expect(err).NotTo(HaveOccurred())

			Expect(balance(a)).To(Equal([]string{"75.0000 SYS"}))
			Expect(balance(b)).To(Equal([]string{"25.0000 SYS"}))
		})

		It("rejects an overdrawn transfer", func() {
			_, err := tokenContract.Invoke(ctx, "transfer",
				[]any{a, b, "101.0000 SYS", "too much"}, harness.From(a))
			Expect(harness.ExpectAssertMessage(err, "overdrawn balance")).To(Succeed())
			Expect(balance(b)).To(BeEmpty())
		})

		It("rejects issuing beyond the maximum supply", func() {
			err := issue(a, "999999901.0000 SYS")
			Expect(harness.ExpectAssertMessage(err, "quantity exceeds available supply")).To(Succeed())
		})

		It("rejects a symbol precision mismatch", func() {
			err := issue(a, "1.00 SYS")
			Expect(harness.ExpectAssertMessage(err, "symbol precision mismatch")).To(Succeed())
		})

		It("requires the issuer's authority", func() {
			_, err := tokenContract.Invoke(ctx, "issue",
				[]any{b, "1.0000 SYS", "memo"}, harness.From(b))
			Expect(chain.ErrorCode(err)).To(Equal(chain.ErrCodeMissingAuth))
			Expect(harness.ExpectAssert(err)).NotTo(Succeed())
		})

		It("retires tokens from the issuer", func() {
			_, err := tokenContract.Invoke(ctx, "retire",
				[]any{"40.0000 SYS", "burn"}, harness.From(a))
			Expect(err).NotTo(HaveOccurred())

			stats, err := h.GetCurrencyStats(ctx, tokenContract.Name, "SYS")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats["SYS"].Supply).To(Equal("60.0000 SYS"))
			Expect(balance(a)).To(Equal([]string{"60.0000 SYS"}))
		})
	})

	It("rejects a second create of the same symbol", func() {
		create()
		_, err := tokenContract.Invoke(ctx, "create", []any{b, "1.0000 SYS"})
		Expect(harness.ExpectAssertMessage(err, "token with symbol already exists")).To(Succeed())
	})

	It("rejects issue before create", func() {
		err := issue(a, "1.0000 SYS")
		Expect(harness.ExpectAssertMessage(err, "token with symbol does not exist, create token before issue")).To(Succeed())
	})
})
