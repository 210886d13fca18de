package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

func int64Ptr(v int64) *int64 { return &v }

type serverCartCall struct {
	Method         string
	UserID         int64
	ProductID      int64
	Request        repository.AddCartItemRequest
	IdempotencyKey string
}

// fakeServerCart is an in-memory server cart; failProducts makes AddItem fail for those products
type fakeServerCart struct {
	mu           sync.Mutex
	lines        map[int64][]model.CartLine
	calls        []serverCartCall
	failProducts map[int64]bool
	fetchErr     error
}

func newFakeServerCart() *fakeServerCart {
	return &fakeServerCart{lines: map[int64][]model.CartLine{}, failProducts: map[int64]bool{}}
}

func (f *fakeServerCart) Fetch(_ context.Context, userID int64) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, serverCartCall{Method: "fetch", UserID: userID})
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return model.CloneLines(f.lines[userID]), nil
}

func (f *fakeServerCart) AddItem(_ context.Context, userID int64, req repository.AddCartItemRequest, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, serverCartCall{Method: "add", UserID: userID, ProductID: req.ProductID, Request: req, IdempotencyKey: key})
	if f.failProducts[req.ProductID] {
		return errUpstream
	}
	f.lines[userID] = mergeLine(f.lines[userID], model.CartLine{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Price:     req.Price,
	})
	return nil
}

func (f *fakeServerCart) RemoveProduct(_ context.Context, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, serverCartCall{Method: "remove", UserID: userID, ProductID: productID})
	var kept []model.CartLine
	for _, l := range f.lines[userID] {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	f.lines[userID] = kept
	return nil
}

func (f *fakeServerCart) Clear(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, serverCartCall{Method: "clear", UserID: userID})
	delete(f.lines, userID)
	return nil
}

func (f *fakeServerCart) callsOf(method string) []serverCartCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []serverCartCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeServerWishlist struct {
	mu           sync.Mutex
	entries      map[int64][]model.WishlistEntry
	created      []repository.CreateWishlistRequest
	createKeys   []string
	deleted      []model.FlexibleID
	fetches      int
	failProducts map[int64]bool
	nextID       int
	fetchGate    chan struct{}
}

func newFakeServerWishlist() *fakeServerWishlist {
	return &fakeServerWishlist{entries: map[int64][]model.WishlistEntry{}, failProducts: map[int64]bool{}, nextID: 100}
}

func (f *fakeServerWishlist) Fetch(_ context.Context, userID int64) ([]model.WishlistEntry, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return append([]model.WishlistEntry{}, f.entries[userID]...), nil
}

func (f *fakeServerWishlist) Create(_ context.Context, req repository.CreateWishlistRequest, key string) (*model.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	f.createKeys = append(f.createKeys, key)
	if f.failProducts[req.ProductID] {
		return nil, errUpstream
	}
	f.nextID++
	entry := model.WishlistEntry{
		WishlistID: model.FlexibleID(fmt.Sprintf("%d", f.nextID)),
		ProductID:  req.ProductID,
		VariantID:  req.VariantID,
		CreatedAt:  req.CreatedAt,
	}
	f.entries[req.UserID] = append(f.entries[req.UserID], entry)
	return &entry, nil
}

func (f *fakeServerWishlist) Delete(_ context.Context, id model.FlexibleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for uid, entries := range f.entries {
		var kept []model.WishlistEntry
		for _, e := range entries {
			if e.WishlistID != id {
				kept = append(kept, e)
			}
		}
		f.entries[uid] = kept
	}
	return nil
}

type fakeAuth struct {
	result *repository.LoginResult
	err    error
}

func (f *fakeAuth) Login(context.Context, string, string) (*repository.LoginResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

type fakeOrders struct {
	requests []repository.CreateOrderRequest
	err      error
}

func (f *fakeOrders) Create(_ context.Context, req repository.CreateOrderRequest, _ string) (*model.OrderConfirmation, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.OrderConfirmation{OrderID: "900", Status: "pending"}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == eventType {
			c++
		}
	}
	return c
}

// fixture wires every service over one memory store and in-memory server fakes
type fixture struct {
	store          *kvstore.MemoryStore
	sessions       repository.SessionRepository
	localCart      repository.CartRepository
	localWishlist  repository.WishlistRepository
	checkoutRepo   repository.CheckoutRepository
	serverCart     *fakeServerCart
	serverWishlist *fakeServerWishlist
	auth           *fakeAuth
	orders         *fakeOrders
	notifier       *recordingNotifier

	cart      CartService
	wishlist  WishlistService
	migration MigrationService
	session   SessionService
	checkout  CheckoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:          kvstore.NewMemoryStore(),
		serverCart:     newFakeServerCart(),
		serverWishlist: newFakeServerWishlist(),
		auth:           &fakeAuth{},
		orders:         &fakeOrders{},
		notifier:       &recordingNotifier{},
	}
	f.sessions = repository.NewSessionRepository(f.store)
	f.localCart = repository.NewCartRepository(f.store)
	f.localWishlist = repository.NewWishlistRepository(f.store)
	f.checkoutRepo = repository.NewCheckoutRepository(f.store)

	f.cart = NewCartService(f.localCart, f.serverCart, f.sessions, f.notifier)
	f.wishlist = NewWishlistService(f.localWishlist, f.serverWishlist, f.sessions, f.notifier)
	f.migration = NewMigrationService(f.localCart, f.localWishlist, f.serverCart, f.serverWishlist)
	f.session = NewSessionService(f.sessions, f.auth, f.localWishlist, f.migration, f.cart, f.wishlist, f.notifier)
	f.checkout = NewCheckoutService(f.checkoutRepo, f.orders, f.cart, f.sessions)
	return f
}

// signIn stores a session directly, as if a login had completed earlier
func (f *fixture) signIn(t *testing.T, userID int64) {
	t.Helper()
	require.NoError(t, f.sessions.SaveLogin(context.Background(), &model.SessionUser{UserID: userID}, model.TokenPair{AccessToken: "token"}))
}

func (f *fixture) raw(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, err := f.store.Get(context.Background(), key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

var errStoreDown = errors.New("store unavailable")

// failingStore fails the selected operations of an underlying store
type failingStore struct {
	kvstore.Store
	failSet   bool
	failClear bool
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errStoreDown
	}
	return s.Store.Set(ctx, key, value)
}

func (s *failingStore) Clear(ctx context.Context) error {
	if s.failClear {
		return errStoreDown
	}
	return s.Store.Clear(ctx)
}
