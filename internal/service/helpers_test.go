package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/smartshort/internal/config"
	"github.com/user/smartshort/internal/database"
	"github.com/user/smartshort/internal/events"
	"github.com/user/smartshort/internal/fraud"
	"github.com/user/smartshort/internal/lock"
	"github.com/user/smartshort/internal/logger"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/payment"
	"github.com/user/smartshort/internal/repository/memstore"
)

const (
	testOwner         = "owner-1"
	testWebhookSecret = "whsec_test"
	browserUA         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// fakeProvider records payment link requests.
type fakeProvider struct {
	requests []payment.PaymentLinkRequest
	err      error
}

func (f *fakeProvider) CreatePaymentLink(_ context.Context, req payment.PaymentLinkRequest) (*payment.PaymentLink, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payment.PaymentLink{ID: "plink_" + req.ReferenceID[:8], Status: "created"}, nil
}

// eventRecorder keeps published events in memory.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Types lists the recorded event types in order.
func (r *eventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// testEnv wires every service over one memstore with a shared clock.
type testEnv struct {
	store     *memstore.Store
	now       time.Time
	events    *eventRecorder
	provider  *fakeProvider
	links     *LinkService
	clicks    *ClickService
	gate      *AdGate
	minter    *EarningsMinter
	payouts   *PayoutService
	earnings  *EarningsService
	settings  *SettingsService
	reconcile *Reconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    memstore.New(),
		now:      time.Now().UTC(),
		events:   &eventRecorder{},
		provider: &fakeProvider{},
	}
	clock := func() time.Time { return env.now }
	log := logger.Discard()

	env.settings = NewSettingsService(env.store.Settings, log)
	env.links = NewLinkService(env.store.Links, database.NewCache(nil), config.ShortenerConfig{
		DefaultCodeLength: 6,
		MaxCustomLength:   32,
		BaseURL:           "http://sho.rt",
	}, time.Minute, log).WithClock(clock)
	throttle := fraud.NewThrottleGate(env.store.Clicks, log).WithClock(clock)
	env.clicks = NewClickService(env.links, env.store.Links, env.store.Clicks, throttle, env.settings, env.events, time.Hour, log).WithClock(clock)
	env.gate = NewAdGate(env.store.Clicks).WithClock(clock)
	env.minter = NewEarningsMinter(env.gate, env.store.Earnings, env.settings, env.events, log)
	env.payouts = NewPayoutService(env.store.Links, env.store.Wallet, lock.NewLocalLocker(), env.provider,
		config.PayoutConfig{MinWithdrawAmount: 50, LockTTL: time.Minute}, testWebhookSecret, env.events, log)
	env.earnings = NewEarningsService(env.store.Links, env.store.Earnings, env.store.Wallet, env.payouts)
	env.reconcile = NewReconciler(env.store.Links, log)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// createLink stores an active link owned by testOwner.
func (e *testEnv) createLink(t *testing.T, slug string) *models.Link {
	t.Helper()
	_, err := e.links.Create(context.Background(), testOwner, models.CreateLinkRequest{
		Title:          "My video",
		DestinationURL: "https://example.com/video",
		CustomSlug:     slug,
	})
	require.NoError(t, err)
	link, err := e.store.Links.GetBySlug(context.Background(), slug)
	require.NoError(t, err)
	return link
}

// addClick records a click directly at the current test time.
func (e *testEnv) addClick(t *testing.T, link *models.Link, valid bool) *models.Click {
	t.Helper()
	c := &models.Click{LinkID: link.ID, UserID: link.UserID, IPHash: "ip", Timestamp: e.now, IsValid: valid}
	require.NoError(t, e.store.Clicks.Create(context.Background(), c))
	return c
}

// credit gives testOwner a balance by minting one earning of amount.
func (e *testEnv) credit(t *testing.T, link *models.Link, amount float64) {
	t.Helper()
	c := e.addClick(t, link, true)
	ok, err := e.store.Earnings.Mint(context.Background(), &models.Earning{UserID: link.UserID, ClickID: c.ID, Amount: amount}, link.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

// minted sums every earning testOwner has been credited.
func (e *testEnv) minted(t *testing.T) float64 {
	t.Helper()
	totals, err := e.store.Earnings.DailyTotals(context.Background(), testOwner, time.Time{})
	require.NoError(t, err)
	var sum float64
	for _, v := range totals {
		sum += v
	}
	return sum
}

// setSetting stores a setting before anything reads it.
func (e *testEnv) setSetting(t *testing.T, key, value string) {
	t.Helper()
	got, err := e.store.Settings.GetOrInit(context.Background(), key, value)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func browserHeaders(ip string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", browserUA)
	h.Set("Referer", "https://wa.me/123")
	h.Set("Accept-Language", "en-IN,en;q=0.9")
	h.Set("Accept", "text/html,application/xhtml+xml")
	h.Set("X-Forwarded-For", ip)
	return h
}
