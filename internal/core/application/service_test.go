package application_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/application"
	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/db"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/pending"
	solanainfra "github.com/ArkLabsHQ/paylink/internal/infrastructure/solana"
	"github.com/facebookgo/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

var (
	ctx = context.Background()

	merchantWallet = solana.NewWallet().PublicKey().String()
	payerWallet    = solana.NewWallet().PublicKey().String()
	blockTime      = time.Date(2026, 10, 14, 9, 30, 15, 0, time.UTC)

	merchant = domain.Merchant{
		ID:            "merchant-1",
		WalletAddress: merchantWallet,
		Label:         "Bakery",
	}
)

type mockLedger struct {
	mu        sync.Mutex
	findCalls int
	getCalls  int
	tagged    map[string][]ports.TaggedTransaction
	txs       map[string]*ports.ParsedTransaction
	findErr   error
	getErr    error
	delay     time.Duration
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		tagged: make(map[string][]ports.TaggedTransaction),
		txs:    make(map[string]*ports.ParsedTransaction),
	}
}

func (m *mockLedger) FindTaggedTransactions(
	ctx context.Context, reference string,
) ([]ports.TaggedTransaction, error) {
	m.mu.Lock()
	m.findCalls++
	delay, findErr := m.delay, m.findErr
	tagged, ok := m.tagged[reference]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if findErr != nil {
		return nil, findErr
	}
	if !ok {
		return nil, ports.ErrTransactionNotFound
	}
	return append([]ports.TaggedTransaction{}, tagged...), nil
}

func (m *mockLedger) GetParsedTransaction(
	ctx context.Context, signature string,
) (*ports.ParsedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	tx, ok := m.txs[signature]
	if !ok {
		return nil, ports.ErrTransactionNotAvailable
	}
	return tx, nil
}

func (m *mockLedger) Health(ctx context.Context) error {
	return nil
}

func (m *mockLedger) tag(reference string, tx *ports.ParsedTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tagged[reference] = append(
		m.tagged[reference], ports.TaggedTransaction{Signature: tx.Signature, Slot: tx.Slot},
	)
	m.txs[tx.Signature] = tx
}

func (m *mockLedger) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls, m.getCalls
}

type mockScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	task     func()
	started  bool
}

func (m *mockScheduler) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *mockScheduler) Stop() {}

func (m *mockScheduler) ScheduleEvery(interval time.Duration, task func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval, m.task = interval, task
	return nil
}

type mockNotifier struct {
	sent chan string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{sent: make(chan string, 10)}
}

func (m *mockNotifier) NormalizeContact(contact string) (string, error) {
	if contact == "bad" {
		return "", errors.New("bad contact")
	}
	return "normalized:" + contact, nil
}

func (m *mockNotifier) Send(ctx context.Context, contact, text string) error {
	m.sent <- contact + "|" + text
	return errors.New("delivery failures are ignored")
}

func (m *mockNotifier) Close() {}

type collidingGenerator struct {
	ports.ReferenceGenerator
	fixed    string
	repeated int
	calls    int
}

func (g *collidingGenerator) Generate() (string, error) {
	g.calls++
	if g.calls <= g.repeated {
		return g.fixed, nil
	}
	return g.ReferenceGenerator.Generate()
}

type fixture struct {
	svc       *application.Service
	ledger    *mockLedger
	store     domain.PendingRequestStore
	repo      ports.RepoManager
	scheduler *mockScheduler
	clock     *clock.Mock
}

func newFixture(t *testing.T, opts ...func(*fixtureOpts)) *fixture {
	o := &fixtureOpts{}
	for _, opt := range opts {
		opt(o)
	}

	repo := o.repo
	if repo == nil {
		var err error
		repo, err = db.NewService(db.ServiceConfig{DbType: "badger", DbConfig: []any{"", nil}})
		require.NoError(t, err)
		t.Cleanup(repo.Close)
	}
	ledger := o.ledger
	if ledger == nil {
		ledger = newMockLedger()
	}
	store := o.store
	if store == nil {
		store = pending.NewStore()
	}
	generator := o.generator
	if generator == nil {
		generator = solanainfra.NewReferenceGenerator()
	}

	encoder, err := solanainfra.NewEncoder(usdcMint)
	require.NoError(t, err)

	clk := clock.NewMock()
	clk.Add(time.Duration(blockTime.Add(time.Hour).UnixNano()))
	scheduler := &mockScheduler{}

	var notifier ports.Notifier
	if o.notifier != nil {
		notifier = o.notifier
	}

	svc, err := application.NewService(
		application.BuildInfo{},
		application.Config{
			StableMint:        usdcMint,
			DefaultFeePercent: decimal.RequireFromString("1"),
			MatchTolerance:    decimal.RequireFromString("0.00002"),
			LedgerTimeout:     time.Second,
			PendingTTL:        30 * time.Minute,
			SweepInterval:     time.Minute,
			Location:          time.UTC,
			Network:           "devnet",
		},
		repo, ledger, encoder, generator, store, scheduler, notifier, clk,
	)
	require.NoError(t, err)

	return &fixture{svc, ledger, store, repo, scheduler, clk}
}

type fixtureOpts struct {
	repo      ports.RepoManager
	ledger    *mockLedger
	store     domain.PendingRequestStore
	generator ports.ReferenceGenerator
	notifier  *mockNotifier
}

func (f *fixture) create(t *testing.T, asset domain.Asset, amount string) *ports.Descriptor {
	desc, err := f.svc.CreatePaymentRequest(ctx, application.CreatePaymentRequestInput{
		Merchant:  merchant,
		RawAmount: amount,
		Asset:     asset,
		Contact:   "customer",
	})
	require.NoError(t, err)
	return desc
}

func nativeTx(signature string, lamports uint64) *ports.ParsedTransaction {
	bt := blockTime
	return &ports.ParsedTransaction{
		Signature:    signature,
		Slot:         1000,
		BlockTime:    &bt,
		Fee:          5000,
		AccountKeys:  []string{payerWallet, merchantWallet, solana.SystemProgramID.String()},
		PreBalances:  []uint64{5_000_000_000, 1_000_000_000, 1},
		PostBalances: []uint64{5_000_000_000 - lamports - 5000, 1_000_000_000 + lamports, 1},
	}
}

func stableTx(signature string, pre, post string) *ports.ParsedTransaction {
	tx := &ports.ParsedTransaction{
		Signature:    signature,
		Slot:         2000,
		Fee:          5000,
		AccountKeys:  []string{payerWallet, merchantWallet},
		PreBalances:  []uint64{5_000_000_000, 1_000_000_000},
		PostBalances: []uint64{4_999_995_000, 1_000_000_000},
		PreTokenBalances: []ports.TokenBalance{
			{AccountIndex: 2, Owner: payerWallet, Mint: usdcMint, Amount: "50000000", Decimals: 6},
		},
		PostTokenBalances: []ports.TokenBalance{
			{AccountIndex: 2, Owner: payerWallet, Mint: usdcMint, Amount: "39000500", Decimals: 6},
			{AccountIndex: 3, Owner: merchantWallet, Mint: usdcMint, Amount: post, Decimals: 6},
		},
	}
	if pre != "" {
		tx.PreTokenBalances = append(tx.PreTokenBalances, ports.TokenBalance{
			AccountIndex: 3, Owner: merchantWallet, Mint: usdcMint, Amount: pre, Decimals: 6,
		})
	}
	return tx
}

func TestCreatePaymentRequest(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0,5")

		require.Equal(t, merchantWallet, desc.Recipient)
		require.Empty(t, desc.SPLToken)
		require.NotContains(t, desc.URL, "spl-token")
		require.True(t, desc.Amount.Equal(decimal.RequireFromString("0.5")))
		require.Equal(t, "Bakery", desc.Label)

		req, ok := f.store.Get(desc.Reference)
		require.True(t, ok)
		require.Equal(t, merchant.ID, req.MerchantID)
		require.Equal(t, desc.URL, req.Descriptor)
		require.True(t, req.FeePercent.Equal(decimal.RequireFromString("1")))
		require.Equal(t, "customer", req.CustomerContact)
	})

	t.Run("recipient resolution", func(t *testing.T) {
		f := newFixture(t)
		override := solana.NewWallet().PublicKey().String()

		desc, err := f.svc.CreatePaymentRequest(ctx, application.CreatePaymentRequestInput{
			Merchant:        merchant,
			RawAmount:       "1",
			Asset:           domain.AssetNative,
			RecipientWallet: override,
		})
		require.NoError(t, err)
		require.Equal(t, override, desc.Recipient)

		_, err = f.svc.CreatePaymentRequest(ctx, application.CreatePaymentRequestInput{
			Merchant:  domain.Merchant{ID: "no-wallet"},
			RawAmount: "1",
			Asset:     domain.AssetNative,
		})
		require.ErrorIs(t, err, application.ErrInvalidWallet)
	})

	t.Run("merchant fee override", func(t *testing.T) {
		f := newFixture(t)
		fee := decimal.RequireFromString("2.5")
		m := merchant
		m.FeePercent = &fee

		desc, err := f.svc.CreatePaymentRequest(ctx, application.CreatePaymentRequestInput{
			Merchant: m, RawAmount: "1", Asset: domain.AssetStable,
		})
		require.NoError(t, err)
		req, ok := f.store.Get(desc.Reference)
		require.True(t, ok)
		require.True(t, req.FeePercent.Equal(fee))
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t, func(o *fixtureOpts) { o.notifier = newMockNotifier() })

		fixtures := []struct {
			name string
			in   application.CreatePaymentRequestInput
			err  error
		}{
			{
				"amount",
				application.CreatePaymentRequestInput{Merchant: merchant, RawAmount: "-1", Asset: domain.AssetNative},
				application.ErrInvalidAmount,
			},
			{
				"zero after truncation",
				application.CreatePaymentRequestInput{Merchant: merchant, RawAmount: "0.0004", Asset: domain.AssetStable},
				application.ErrInvalidAmount,
			},
			{
				"asset",
				application.CreatePaymentRequestInput{Merchant: merchant, RawAmount: "1", Asset: domain.Asset(7)},
				application.ErrInvalidAsset,
			},
			{
				"wallet",
				application.CreatePaymentRequestInput{Merchant: merchant, RawAmount: "1", Asset: domain.AssetNative, RecipientWallet: "0xdeadbeef"},
				application.ErrInvalidWallet,
			},
			{
				"contact",
				application.CreatePaymentRequestInput{Merchant: merchant, RawAmount: "1", Asset: domain.AssetNative, Contact: "bad"},
				application.ErrInvalidContact,
			},
		}
		for _, tt := range fixtures {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.svc.CreatePaymentRequest(ctx, tt.in)
				require.ErrorIs(t, err, tt.err)
			})
		}
		require.Zero(t, f.store.Len())
	})

	t.Run("reference collision regenerates", func(t *testing.T) {
		store := pending.NewStore()
		taken, err := solanainfra.NewReferenceGenerator().Generate()
		require.NoError(t, err)
		require.NoError(t, store.Put(domain.PendingPaymentRequest{Reference: taken}))

		gen := &collidingGenerator{
			ReferenceGenerator: solanainfra.NewReferenceGenerator(), fixed: taken, repeated: 2,
		}
		f := newFixture(t, func(o *fixtureOpts) {
			o.store = store
			o.generator = gen
		})

		desc := f.create(t, domain.AssetNative, "1")
		require.NotEqual(t, taken, desc.Reference)
		require.Equal(t, 3, gen.calls)
		require.Equal(t, 2, store.Len())

		req, ok := store.Get(taken)
		require.True(t, ok)
		require.Empty(t, req.RecipientWallet)
	})

	t.Run("reference collision gives up", func(t *testing.T) {
		store := pending.NewStore()
		taken, err := solanainfra.NewReferenceGenerator().Generate()
		require.NoError(t, err)
		require.NoError(t, store.Put(domain.PendingPaymentRequest{Reference: taken}))

		gen := &collidingGenerator{
			ReferenceGenerator: solanainfra.NewReferenceGenerator(), fixed: taken, repeated: 100,
		}
		f := newFixture(t, func(o *fixtureOpts) {
			o.store = store
			o.generator = gen
		})

		_, err = f.svc.CreatePaymentRequest(ctx, application.CreatePaymentRequestInput{
			Merchant: merchant, RawAmount: "1", Asset: domain.AssetNative,
		})
		require.Error(t, err)
		require.Equal(t, 1, store.Len())
	})
}

func TestConfirmPaymentRequest(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		status, err := f.svc.ConfirmPaymentRequest(ctx, "unknown")
		require.ErrorIs(t, err, application.ErrReferenceNotFound)
		require.Equal(t, application.StateNotFound, status.State)

		find, _ := f.ledger.calls()
		require.Zero(t, find)
	})

	t.Run("pending until tagged", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)

		_, ok := f.store.Get(desc.Reference)
		require.True(t, ok)
	})

	t.Run("pending until parsed", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.tagged[desc.Reference] = []ports.TaggedTransaction{{Signature: "sig"}}

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)

		find, get := f.ledger.calls()
		require.Equal(t, 1, find)
		require.Equal(t, 1, get)
	})

	t.Run("tolerance", func(t *testing.T) {
		fixtures := []struct {
			name     string
			lamports uint64
			expected application.PaymentState
		}{
			{"exact", 500_000_000, application.StateConfirmed},
			{"overpaid", 600_000_000, application.StateConfirmed},
			{"short by 0.00002", 499_980_000, application.StateConfirmed},
			{"short by 0.00003", 499_970_000, application.StatePending},
			{"short by 0.01", 490_000_000, application.StatePending},
		}
		for _, tt := range fixtures {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				desc := f.create(t, domain.AssetNative, "0.5")
				f.ledger.tag(desc.Reference, nativeTx("sig-"+desc.Reference, tt.lamports))

				status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
				require.NoError(t, err)
				require.Equal(t, tt.expected, status.State)

				_, stillPending := f.store.Get(desc.Reference)
				require.Equal(t, tt.expected == application.StatePending, stillPending)
			})
		}
	})

	t.Run("other recipient and asset never match", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetStable, "1")

		tx := stableTx("sig-other", "", "5000000")
		tx.PostTokenBalances[1].Owner = payerWallet
		f.ledger.tag(desc.Reference, tx)

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)

		desc = f.create(t, domain.AssetStable, "1")
		tx = stableTx("sig-mint", "", "5000000")
		tx.PostTokenBalances[1].Mint = solana.NewWallet().PublicKey().String()
		f.ledger.tag(desc.Reference, tx)

		status, err = f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)
	})

	t.Run("short circuits once confirmed", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.tag(desc.Reference, nativeTx("sig-1", 500_000_000))

		first, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, first.State)

		second, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, second.State)
		require.Equal(t, first.TxID, second.TxID)

		find, get := f.ledger.calls()
		require.Equal(t, 1, find)
		require.Equal(t, 1, get)

		payment, err := f.repo.Payments().GetByReference(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, payerWallet, payment.PayerAddress)
		require.Equal(t, "14/10/2026", payment.DisplayDate)
		require.Equal(t, "09:30:15", payment.DisplayTime)
		require.True(t, payment.NetworkFee.Equal(decimal.RequireFromString("0.000005")))
		require.Equal(t, uint64(1000), payment.BlockSlot)
		require.Equal(t, "devnet", payment.Network)
		require.Equal(t, "Bakery", payment.MerchantLabel)
		require.Equal(t, domain.PaymentSuccess, payment.Status)
	})

	t.Run("missing block time falls back to now", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		tx := nativeTx("sig-no-time", 500_000_000)
		tx.BlockTime = nil
		f.ledger.tag(desc.Reference, tx)

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)

		payment, err := f.repo.Payments().GetByTxID(ctx, "sig-no-time")
		require.NoError(t, err)
		require.True(t, payment.BlockTime.Equal(f.clock.Now()))
		require.Equal(t, f.clock.Now().UTC().Format("15:04:05"), payment.DisplayTime)
	})

	t.Run("transient ledger failure", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.findErr = errors.New("429 too many requests")

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.Equal(t, application.StatePending, status.State)

		var recErr *application.ReconciliationError
		require.ErrorAs(t, err, &recErr)
		require.True(t, recErr.Temporary())
		require.Equal(t, desc.Reference, recErr.Reference)

		f.ledger.findErr = nil
		f.ledger.tag(desc.Reference, nativeTx("sig-retry", 500_000_000))
		status, err = f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)
	})

	t.Run("ledger timeout is pending", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.delay = 5 * time.Second

		start := time.Now()
		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)
		require.Less(t, time.Since(start), 4*time.Second)
	})

	t.Run("settled by a concurrent poller", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		tx := nativeTx("sig-race", 500_000_000)
		f.ledger.tag(desc.Reference, tx)

		other, err := application.NewService(
			application.BuildInfo{},
			application.Config{
				StableMint: usdcMint, MatchTolerance: decimal.Zero, LedgerTimeout: time.Second,
			},
			f.repo, f.ledger, mustEncoder(t), solanainfra.NewReferenceGenerator(),
			pending.NewStore(), &mockScheduler{}, nil, nil,
		)
		require.NoError(t, err)

		// The other instance has no pending entry, it only sees the durable row.
		status, err := other.ConfirmPaymentRequest(ctx, desc.Reference)
		require.ErrorIs(t, err, application.ErrReferenceNotFound)
		require.Equal(t, application.StateNotFound, status.State)

		status, err = f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)

		status, err = other.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)
		require.Equal(t, "sig-race", status.TxID)
	})

	t.Run("one transaction settles one request", func(t *testing.T) {
		f := newFixture(t)
		first := f.create(t, domain.AssetNative, "0.5")
		second := f.create(t, domain.AssetNative, "0.5")

		tx := nativeTx("sig-shared", 500_000_000)
		f.ledger.tag(first.Reference, tx)
		f.ledger.tag(second.Reference, tx)

		status, err := f.svc.ConfirmPaymentRequest(ctx, first.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)
		require.Equal(t, "sig-shared", status.TxID)

		status, err = f.svc.ConfirmPaymentRequest(ctx, second.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)
		require.Empty(t, status.TxID)

		_, ok := f.store.Get(second.Reference)
		require.True(t, ok)

		_, err = f.repo.Payments().GetByReference(ctx, second.Reference)
		require.ErrorIs(t, err, domain.ErrPaymentNotFound)

		rows, err := f.repo.Payments().All(ctx, domain.HistoryFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, first.Reference, rows[0].Reference)
	})

	t.Run("later transaction completes a short payment", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")

		short := nativeTx("sig-short", 200_000_000)
		f.ledger.tag(desc.Reference, short)

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StatePending, status.State)

		full := nativeTx("sig-full", 500_000_000)
		full.Slot = 1001
		f.ledger.tag(desc.Reference, full)

		status, err = f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)
		require.Equal(t, "sig-full", status.TxID)

		_, ok := f.store.Get(desc.Reference)
		require.False(t, ok)
	})

	t.Run("unavailable candidate is skipped", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.tagged[desc.Reference] = []ports.TaggedTransaction{{Signature: "sig-unparsed"}}
		f.ledger.tag(desc.Reference, nativeTx("sig-parsed", 500_000_000))

		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)
		require.Equal(t, "sig-parsed", status.TxID)

		_, get := f.ledger.calls()
		require.Equal(t, 2, get)
	})

	t.Run("cancelled caller does not fail a shared poll", func(t *testing.T) {
		f := newFixture(t)
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.tag(desc.Reference, nativeTx("sig-shared-poll", 500_000_000))
		f.ledger.delay = 200 * time.Millisecond

		cancelled, cancel := context.WithCancel(ctx)
		leaderDone := make(chan error, 1)
		go func() {
			_, err := f.svc.ConfirmPaymentRequest(cancelled, desc.Reference)
			leaderDone <- err
		}()

		// Let the first caller take the lead before joining.
		require.Eventually(t, func() bool {
			find, _ := f.ledger.calls()
			return find == 1
		}, time.Second, 5*time.Millisecond)

		followerDone := make(chan *application.PaymentStatus, 1)
		followerErr := make(chan error, 1)
		go func() {
			status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
			followerDone <- status
			followerErr <- err
		}()

		cancel()
		require.ErrorIs(t, <-leaderDone, context.Canceled)

		status := <-followerDone
		require.NoError(t, <-followerErr)
		require.Equal(t, application.StateConfirmed, status.State)
		require.Equal(t, "sig-shared-poll", status.TxID)

		find, _ := f.ledger.calls()
		require.Equal(t, 1, find)
	})

	t.Run("notifies once", func(t *testing.T) {
		notifier := newMockNotifier()
		f := newFixture(t, func(o *fixtureOpts) { o.notifier = notifier })
		desc := f.create(t, domain.AssetNative, "0.5")
		f.ledger.tag(desc.Reference, nativeTx("5h7Fg2aBcdefghijklmnopqrstuv9kLmN0pQ", 500_000_000))

		for i := 0; i < 2; i++ {
			status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
			require.NoError(t, err)
			require.Equal(t, application.StateConfirmed, status.State)
		}

		select {
		case msg := <-notifier.sent:
			require.Contains(t, msg, "normalized:customer|")
			require.Contains(t, msg, "0.5 SOL")
			require.Contains(t, msg, "14/10/2026")
			require.Contains(t, msg, "09:30:15")
			require.Contains(t, msg, merchantWallet[len(merchantWallet)-6:])
			require.Contains(t, msg, "5h7Fg2aB...9kLmN0pQ")
		case <-time.After(2 * time.Second):
			require.Fail(t, "notification not sent")
		}

		select {
		case <-notifier.sent:
			require.Fail(t, "notified twice")
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestConcurrentConfirmation(t *testing.T) {
	repo, err := db.NewService(db.ServiceConfig{DbType: "badger", DbConfig: []any{"", nil}})
	require.NoError(t, err)
	defer repo.Close()

	ledger := newMockLedger()
	store := pending.NewStore()

	first := newFixture(t, func(o *fixtureOpts) {
		o.repo, o.ledger, o.store = repo, ledger, store
	})
	second := newFixture(t, func(o *fixtureOpts) {
		o.repo, o.ledger, o.store = repo, ledger, store
	})

	desc := first.create(t, domain.AssetStable, "3")
	ledger.tag(desc.Reference, stableTx("sig-concurrent", "1000000", "4000000"))

	const pollers = 10
	statuses := make(chan *application.PaymentStatus, pollers)
	wg := sync.WaitGroup{}
	for i := 0; i < pollers; i++ {
		svc := first.svc
		if i%2 == 1 {
			svc = second.svc
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := svc.ConfirmPaymentRequest(ctx, desc.Reference)
			require.NoError(t, err)
			statuses <- status
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		require.Equal(t, application.StateConfirmed, status.State)
		require.Equal(t, "sig-concurrent", status.TxID)
		require.True(t, status.Amount.Equal(decimal.NewFromInt(3)))
	}

	rows, err := repo.Payments().All(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Zero(t, store.Len())
}

func TestStablePaymentFlow(t *testing.T) {
	f := newFixture(t)

	desc := f.create(t, domain.AssetStable, "10.999")
	require.Equal(t, usdcMint, desc.SPLToken)

	u, err := url.Parse(desc.URL)
	require.NoError(t, err)
	require.Equal(t, "solana", u.Scheme)
	require.Equal(t, merchantWallet, u.Opaque)
	require.Equal(t, usdcMint, u.Query().Get("spl-token"))
	require.Equal(t, "10.999", u.Query().Get("amount"))
	require.Equal(t, desc.Reference, u.Query().Get("reference"))

	f.ledger.tag(desc.Reference, stableTx("sig-stable", "", "10999500"))

	status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
	require.NoError(t, err)
	require.Equal(t, application.StateConfirmed, status.State)
	require.Equal(t, "sig-stable", status.TxID)
	require.True(t, status.Amount.Equal(decimal.RequireFromString("10.9995")))
	require.Equal(t, domain.AssetStable, status.Asset)

	again, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
	require.NoError(t, err)
	require.Equal(t, status.TxID, again.TxID)

	find, get := f.ledger.calls()
	require.Equal(t, 1, find)
	require.Equal(t, 1, get)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	for i, amount := range []string{"1", "2.5"} {
		desc := f.create(t, domain.AssetStable, amount)
		post := decimal.RequireFromString(amount).Shift(6).String()
		f.ledger.tag(desc.Reference, stableTx("sig-h"+string(rune('a'+i)), "", post))
		status, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
		require.NoError(t, err)
		require.Equal(t, application.StateConfirmed, status.State)
	}
	desc := f.create(t, domain.AssetNative, "0.2")
	f.ledger.tag(desc.Reference, nativeTx("sig-hn", 200_000_000))
	_, err := f.svc.ConfirmPaymentRequest(ctx, desc.Reference)
	require.NoError(t, err)

	_, err = f.svc.RecordClaim(ctx, merchant, domain.AssetStable, "1")
	require.NoError(t, err)
	_, err = f.svc.RecordClaim(ctx, merchant, domain.AssetNative, "5")
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		history, err := f.svc.ListHistory(ctx, merchant, nil, domain.Pagination{PageSize: 2})
		require.NoError(t, err)
		require.Equal(t, 3, history.Total)
		require.Len(t, history.Rows, 2)
		require.Equal(t, 1, history.Page)
		require.True(t, history.GrossTotals[domain.AssetStable].Equal(decimal.RequireFromString("3.5")))
		require.True(t, history.AvailableTotals[domain.AssetStable].Equal(decimal.RequireFromString("2.5")))
		require.True(t, history.GrossTotals[domain.AssetNative].Equal(decimal.RequireFromString("0.2")))
		require.True(t, history.AvailableTotals[domain.AssetNative].IsZero())
		require.True(t, history.FeeTotals[domain.AssetStable].Equal(decimal.RequireFromString("0.035")))

		stable := domain.AssetStable
		history, err = f.svc.ListHistory(ctx, merchant, &stable, domain.Pagination{})
		require.NoError(t, err)
		require.Equal(t, 2, history.Total)

		_, err = f.svc.ListHistory(ctx, domain.Merchant{ID: "x"}, nil, domain.Pagination{})
		require.ErrorIs(t, err, application.ErrInvalidWallet)
	})

	t.Run("export", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, f.svc.ExportHistory(ctx, merchant, nil, buf))

		records, err := csv.NewReader(buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		require.Equal(t, []string{
			"tx_id", "asset", "amount", "payer", "fee", "slot", "date", "time", "status", "label",
		}, records[0])

		for _, r := range records[1:] {
			require.Len(t, r, 10)
			require.Equal(t, payerWallet, r[3])
			require.Equal(t, "success", r[8])
			require.Equal(t, "Bakery", r[9])
		}

		buf.Reset()
		native := domain.AssetNative
		require.NoError(t, f.svc.ExportHistory(ctx, merchant, &native, buf))
		records, err = csv.NewReader(buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Equal(t, "sig-hn", records[1][0])
		require.Equal(t, "SOL", records[1][1])
		require.Equal(t, "0.2", records[1][2])
	})

	t.Run("invalid claim", func(t *testing.T) {
		_, err := f.svc.RecordClaim(ctx, merchant, domain.AssetStable, "0")
		require.ErrorIs(t, err, application.ErrInvalidAmount)
		_, err = f.svc.RecordClaim(ctx, domain.Merchant{}, domain.AssetStable, "1")
		require.Error(t, err)
	})
}

func TestPendingSweep(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Start())
	defer f.svc.Stop()

	require.True(t, f.scheduler.started)
	require.Equal(t, time.Minute, f.scheduler.interval)
	require.NotNil(t, f.scheduler.task)

	old := f.create(t, domain.AssetNative, "1")
	f.clock.Add(20 * time.Minute)
	fresh := f.create(t, domain.AssetNative, "1")
	f.clock.Add(15 * time.Minute)

	f.scheduler.task()

	_, ok := f.store.Get(old.Reference)
	require.False(t, ok)
	_, ok = f.store.Get(fresh.Reference)
	require.True(t, ok)

	_, err := f.svc.ConfirmPaymentRequest(ctx, old.Reference)
	require.ErrorIs(t, err, application.ErrReferenceNotFound)
}

func TestNewServiceValidation(t *testing.T) {
	repo, err := db.NewService(db.ServiceConfig{DbType: "badger", DbConfig: []any{"", nil}})
	require.NoError(t, err)
	defer repo.Close()

	cfg := application.Config{StableMint: usdcMint, LedgerTimeout: time.Second}
	encoder := mustEncoder(t)
	gen := solanainfra.NewReferenceGenerator()

	_, err = application.NewService(
		application.BuildInfo{}, cfg, nil, newMockLedger(), encoder, gen,
		pending.NewStore(), &mockScheduler{}, nil, nil,
	)
	require.Error(t, err)

	bad := cfg
	bad.MatchTolerance = decimal.NewFromInt(-1)
	_, err = application.NewService(
		application.BuildInfo{}, bad, repo, newMockLedger(), encoder, gen,
		pending.NewStore(), &mockScheduler{}, nil, nil,
	)
	require.Error(t, err)

	bad = cfg
	bad.LedgerTimeout = 0
	_, err = application.NewService(
		application.BuildInfo{}, bad, repo, newMockLedger(), encoder, gen,
		pending.NewStore(), &mockScheduler{}, nil, nil,
	)
	require.Error(t, err)

	_, err = application.NewService(
		application.BuildInfo{}, cfg, repo, newMockLedger(), encoder, gen,
		pending.NewStore(), &mockScheduler{}, nil, nil,
	)
	require.NoError(t, err)
}

func mustEncoder(t *testing.T) ports.RequestEncoder {
	encoder, err := solanainfra.NewEncoder(usdcMint)
	require.NoError(t, err)
	return encoder
}
