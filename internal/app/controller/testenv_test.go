package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
	ws "github.com/ikkim/udonggeum-storefront/internal/websocket"
	"github.com/ikkim/udonggeum-storefront/pkg/apiclient"
	"github.com/stretchr/testify/require"
)

const testUserID = 7

// fakeBackend is a tiny commerce backend for one user
type fakeBackend struct {
	mu       sync.Mutex
	cart     []model.CartLine
	wishlist []model.WishlistEntry
	orders   []repository.CreateOrderRequest
	nextID   int
	failAdd  bool
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")
	user := strconv.Itoa(testUserID)
	switch {
	case r.Method == http.MethodPost && path == "auth/login":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "INVALID_CREDENTIALS", "message": "bad password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user":   map[string]interface{}{"id": testUserID, "email": body.Email},
			"tokens": map[string]string{"access_token": "access", "refresh_token": "refresh"},
		})

	case r.Method == http.MethodGet && path == "cart/"+user:
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": b.cart})

	case r.Method == http.MethodPost && path == "cart/"+user+"/items":
		if b.failAdd {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "DOWN"})
			return
		}
		var req repository.AddCartItemRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.cart = append(b.cart, model.CartLine{ProductID: req.ProductID, VariantID: req.VariantID, Quantity: req.Quantity, Price: req.Price})
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "cart/"+user+"/items/"):
		pid, _ := strconv.ParseInt(strings.TrimPrefix(path, "cart/"+user+"/items/"), 10, 64)
		var kept []model.CartLine
		for _, l := range b.cart {
			if l.ProductID != pid {
				kept = append(kept, l)
			}
		}
		b.cart = kept
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodDelete && path == "cart/"+user:
		b.cart = nil
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && path == "wishlist/user/"+user:
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": b.wishlist})

	case r.Method == http.MethodPost && path == "wishlist":
		var req repository.CreateWishlistRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.nextID++
		entry := model.WishlistEntry{WishlistID: model.FlexibleID(strconv.Itoa(b.nextID)), ProductID: req.ProductID, VariantID: req.VariantID, CreatedAt: req.CreatedAt}
		b.wishlist = append(b.wishlist, entry)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": entry})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "wishlist/"):
		id := strings.TrimPrefix(path, "wishlist/")
		var kept []model.WishlistEntry
		for _, e := range b.wishlist {
			if e.WishlistID.String() != id {
				kept = append(kept, e)
			}
		}
		b.wishlist = kept
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && path == "orders":
		var req repository.CreateOrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.orders = append(b.orders, req)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": map[string]interface{}{"orderId": 501, "status": "pending"}})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	router   *gin.Engine
	store    *kvstore.MemoryStore
	backend  *fakeBackend
	cart     service.CartService
	wishlist service.WishlistService
	session  service.SessionService
	checkout service.CheckoutService
	hub      *ws.Hub
}

// setupControllerTest wires every controller over a memory store and a fake backend
func setupControllerTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := &fakeBackend{nextID: 100}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := kvstore.NewMemoryStore()
	sessions := repository.NewSessionRepository(store)
	client, err := apiclient.NewClient(apiclient.Config{BaseURL: srv.URL}, sessions)
	require.NoError(t, err)

	localCart := repository.NewCartRepository(store)
	localWishlist := repository.NewWishlistRepository(store)
	serverCart := repository.NewServerCartRepository(client)
	serverWishlist := repository.NewServerWishlistRepository(client)

	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	t.Cleanup(stopHub)
	go hub.Run(hubCtx)

	cart := service.NewCartService(localCart, serverCart, sessions, hub)
	wishlist := service.NewWishlistService(localWishlist, serverWishlist, sessions, hub)
	migration := service.NewMigrationService(localCart, localWishlist, serverCart, serverWishlist)
	session := service.NewSessionService(sessions, repository.NewAuthRepository(client), localWishlist, migration, cart, wishlist, hub)
	checkout := service.NewCheckoutService(repository.NewCheckoutRepository(store), repository.NewOrderRepository(client), cart, sessions)

	cartCtrl := NewCartController(cart)
	wishlistCtrl := NewWishlistController(wishlist)
	sessionCtrl := NewSessionController(session, migration)
	checkoutCtrl := NewCheckoutController(checkout)
	eventsCtrl := NewEventsController(hub, []string{"*"}, cart, wishlist, session)
	sessionMW := middleware.NewSessionMiddleware(session)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	v1 := router.Group("/api/v1", sessionMW.Attach())
	v1.GET("/cart", cartCtrl.GetCart)
	v1.POST("/cart", cartCtrl.AddToCart)
	v1.PUT("/cart", cartCtrl.SetCartItems)
	v1.DELETE("/cart", cartCtrl.ClearCart)
	v1.GET("/cart/summary", cartCtrl.GetSummary)
	v1.GET("/cart/export", cartCtrl.ExportCart)
	v1.DELETE("/cart/:product_id", cartCtrl.RemoveFromCart)
	v1.GET("/wishlist", wishlistCtrl.GetWishlist)
	v1.POST("/wishlist/toggle", wishlistCtrl.ToggleWishlist)
	v1.DELETE("/wishlist/:product_id", wishlistCtrl.RemoveFromWishlist)
	v1.GET("/session", sessionCtrl.GetSession)
	v1.POST("/session/login", sessionCtrl.Login)
	v1.POST("/session/logout", sessionCtrl.Logout)
	v1.POST("/session/migrate", sessionMW.RequireSession(), sessionCtrl.Migrate)
	v1.GET("/checkout", checkoutCtrl.GetCheckout)
	v1.POST("/checkout/select", checkoutCtrl.Select)
	v1.POST("/checkout/items/:product_id/increment", checkoutCtrl.Increment)
	v1.POST("/checkout/items/:product_id/decrement", checkoutCtrl.Decrement)
	v1.PUT("/checkout/address", checkoutCtrl.SetAddress)
	v1.POST("/checkout/orders", sessionMW.RequireSession(), checkoutCtrl.PlaceOrder)
	v1.GET("/ws", eventsCtrl.WebSocketHandler)

	return &testEnv{
		router:   router,
		store:    store,
		backend:  backend,
		cart:     cart,
		wishlist: wishlist,
		session:  session,
		checkout: checkout,
		hub:      hub,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/session/login", gin.H{"email": "kim@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
